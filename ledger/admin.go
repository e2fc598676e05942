// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math/big"

	"github.com/luxfi/gasfutures/bridge"
	"github.com/luxfi/geth/common"
)

// SetRelayer rotates the address allowed to submit signed intents.
func (l *Ledger) SetRelayer(caller, relayer common.Address) error {
	if err := l.lock(); err != nil {
		return err
	}
	defer l.unlock()
	if caller != l.owner {
		return ErrNotOwner
	}
	if relayer == (common.Address{}) {
		return ErrInvalidConfig
	}
	l.relayer = relayer
	l.emit(Event{Type: EventRelayerChanged, Account: relayer})
	l.log.Info("relayer rotated", "relayer", relayer)
	return nil
}

// SetAggregator rotates the bridge aggregator address and callee.
func (l *Ledger) SetAggregator(caller, aggregator common.Address, target bridge.Aggregator) error {
	if err := l.lock(); err != nil {
		return err
	}
	defer l.unlock()
	if caller != l.owner {
		return ErrNotOwner
	}
	l.adapter.SetAggregator(aggregator, target)
	l.emit(Event{Type: EventAggregatorChanged, Account: aggregator})
	l.log.Info("bridge aggregator rotated", "aggregator", aggregator)
	return nil
}

// SetFeeRecipient rotates the fee destination.
func (l *Ledger) SetFeeRecipient(caller, recipient common.Address) error {
	if err := l.lock(); err != nil {
		return err
	}
	defer l.unlock()
	if caller != l.owner {
		return ErrNotOwner
	}
	if recipient == (common.Address{}) {
		return ErrInvalidConfig
	}
	l.feeAddress = recipient
	l.emit(Event{Type: EventFeeRecipientChanged, Account: recipient})
	l.log.Info("fee recipient rotated", "recipient", recipient)
	return nil
}

// SetChainSupport toggles a destination chain on the allow-list.
func (l *Ledger) SetChainSupport(caller common.Address, chain string, supported bool) error {
	if err := l.lock(); err != nil {
		return err
	}
	defer l.unlock()
	if caller != l.owner {
		return ErrNotOwner
	}
	if chain == "" {
		return ErrInvalidConfig
	}
	l.chains[chain] = supported
	l.emit(Event{Type: EventChainSupport, Chain: chain, Supported: supported})
	l.log.Info("chain support changed", "chain", chain, "supported", supported)
	return nil
}

// Pause halts purchase, redeem and transfer. Expired-refund claims and
// funding stay open.
func (l *Ledger) Pause(caller common.Address) error {
	if err := l.lock(); err != nil {
		return err
	}
	defer l.unlock()
	if caller != l.owner {
		return ErrNotOwner
	}
	l.paused = true
	l.log.Warn("ledger paused")
	return nil
}

// Unpause reopens the gated paths.
func (l *Ledger) Unpause(caller common.Address) error {
	if err := l.lock(); err != nil {
		return err
	}
	defer l.unlock()
	if caller != l.owner {
		return ErrNotOwner
	}
	l.paused = false
	l.log.Warn("ledger unpaused")
	return nil
}

// Paused reports the pause flag.
func (l *Ledger) Paused() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paused
}

// EmergencyWithdraw moves stablecoin out of the vault. Permitted only while
// paused.
func (l *Ledger) EmergencyWithdraw(caller, to common.Address, amount *big.Int) error {
	if err := l.lock(); err != nil {
		return err
	}
	defer l.unlock()

	if caller != l.owner {
		return ErrNotOwner
	}
	if !l.paused {
		return ErrNotPaused
	}
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if l.usdc.BalanceOf(l.vault).Cmp(amount) < 0 {
		return ErrInsufficientLiquidity
	}
	if !l.usdc.Transfer(to, amount) {
		return ErrTransferFailed
	}

	l.emit(Event{Type: EventEmergencyWithdraw, Account: to, Amount: new(big.Int).Set(amount)})
	l.log.Warn("emergency withdrawal", "to", to, "amount", amount)
	return nil
}

// RecordGasPrice updates the informational price snapshot for a chain. The
// single relayer feed is trusted as-is; the snapshot gates nothing.
func (l *Ledger) RecordGasPrice(caller common.Address, chain string, priceGwei *big.Int) error {
	if err := l.lock(); err != nil {
		return err
	}
	defer l.unlock()
	if caller != l.relayer {
		return ErrNotRelayer
	}
	if chain == "" {
		return ErrInvalidConfig
	}
	if priceGwei == nil || priceGwei.Sign() <= 0 {
		return ErrZeroPrice
	}

	now := l.now().Unix()
	snap := l.prices[chain]
	if snap == nil || now-snap.windowStart >= 24*60*60 {
		snap = &ChainGasPrice{
			High24h:     new(big.Int).Set(priceGwei),
			Low24h:      new(big.Int).Set(priceGwei),
			windowStart: now,
		}
		l.prices[chain] = snap
	}
	snap.PriceGwei = new(big.Int).Set(priceGwei)
	snap.UpdatedAt = now
	if priceGwei.Cmp(snap.High24h) > 0 {
		snap.High24h.Set(priceGwei)
	}
	if priceGwei.Cmp(snap.Low24h) < 0 {
		snap.Low24h.Set(priceGwei)
	}
	return nil
}
