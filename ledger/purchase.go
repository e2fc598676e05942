// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math/big"
	"time"

	"github.com/luxfi/gasfutures/fpmath"
	"github.com/luxfi/gasfutures/intent"
	"github.com/luxfi/geth/common"
)

// Purchase executes a relayer-submitted, user-signed purchase intent: it
// pulls the stablecoin amount from the buyer, forwards the purchase fee, and
// appends a new active credit locked at the intent's gas price. Returns the
// new credit's id within the buyer's list.
func (l *Ledger) Purchase(p intent.PurchaseIntent, sig []byte, caller common.Address) (uint64, error) {
	if err := l.lock(); err != nil {
		return 0, err
	}
	defer l.unlock()

	if caller != l.relayer {
		return 0, ErrNotRelayer
	}
	if l.paused {
		return 0, ErrPaused
	}
	if err := l.checkFresh(p.Timestamp); err != nil {
		return 0, err
	}
	if err := intent.Verify(p.Account, p.Digest(), sig); err != nil {
		return 0, err
	}
	if p.Amount == nil || p.Amount.Cmp(l.cfg.MinPurchase) < 0 {
		return 0, ErrAmountTooLow
	}
	if p.Amount.Cmp(l.cfg.MaxPurchase) > 0 {
		return 0, ErrAmountTooHigh
	}
	if p.ExpiryDays < l.cfg.MinExpiryDays || p.ExpiryDays > l.cfg.MaxExpiryDays {
		return 0, ErrInvalidExpiry
	}
	if !l.chains[p.TargetChain] {
		return 0, ErrChainNotSupported
	}
	if p.GasPriceGwei == nil || p.GasPriceGwei.Sign() <= 0 ||
		p.RefPrice == nil || p.RefPrice.Sign() <= 0 {
		return 0, ErrZeroPrice
	}

	net, fee, units, err := fpmath.CalculateGasUnits(p.Amount, l.cfg.PurchaseFeeBps, p.GasPriceGwei, p.RefPrice)
	if err != nil {
		return 0, err
	}
	if units.Sign() == 0 {
		return 0, ErrZeroUnits
	}

	if !l.usdc.TransferFrom(p.Account, l.vault, p.Amount) {
		return 0, ErrTransferFailed
	}
	if fee.Sign() > 0 && !l.usdc.Transfer(l.feeAddress, fee) {
		// Unwind the pull so the failed call has no effect.
		l.usdc.Transfer(p.Account, p.Amount)
		return 0, ErrTransferFailed
	}

	now := l.now()
	credit := &GasCredit{
		LockedPriceGwei:   new(big.Int).Set(p.GasPriceGwei),
		GasUnits:          units,
		RemainingGasUnits: new(big.Int).Set(units),
		Expiry:            now.Add(time.Duration(p.ExpiryDays) * 24 * time.Hour).Unix(),
		PurchaseTimestamp: now.Unix(),
		IsActive:          true,
		USDCPaid:          net,
		TargetChain:       p.TargetChain,
	}
	id := uint64(len(l.credits[p.Account]))
	l.credits[p.Account] = append(l.credits[p.Account], credit)

	l.emit(Event{
		Type:     EventPurchase,
		Account:  p.Account,
		CreditID: id,
		Amount:   new(big.Int).Set(p.Amount),
		Units:    new(big.Int).Set(units),
		Chain:    p.TargetChain,
	})
	l.log.Info("credit purchased",
		"account", p.Account, "creditId", id, "amount", p.Amount,
		"units", units, "chain", p.TargetChain, "lockedPrice", p.GasPriceGwei)
	return id, nil
}
