// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math/big"

	"github.com/luxfi/gasfutures/fpmath"
	"github.com/luxfi/gasfutures/intent"
	"github.com/luxfi/geth/common"
)

// Redeem executes a relayer-submitted, user-signed redemption intent,
// converting the price upside on the requested units into stablecoin. Cash
// settlement pays the account directly; otherwise the payout is routed
// through the bridge adapter with the supplied calldata. Returns the
// stablecoin amount paid out.
func (l *Ledger) Redeem(r intent.RedeemIntent, sig []byte, payload []byte, caller common.Address) (*big.Int, error) {
	if err := l.lock(); err != nil {
		return nil, err
	}
	defer l.unlock()

	if caller != l.relayer {
		return nil, ErrNotRelayer
	}
	if l.paused {
		return nil, ErrPaused
	}
	if err := l.checkFresh(r.Timestamp); err != nil {
		return nil, err
	}
	// The intent binds a hash of the calldata, not the calldata itself; the
	// relayer-supplied payload must match what the user signed.
	if r.PayloadHash != intent.PayloadHash(payload) {
		return nil, ErrPayloadMismatch
	}
	if err := intent.Verify(r.Account, r.Digest(), sig); err != nil {
		return nil, err
	}

	credit, err := l.credit(r.Account, r.CreditID)
	if err != nil {
		return nil, err
	}
	if !credit.IsActive {
		return nil, ErrCreditInactive
	}
	now := l.now().Unix()
	if now >= credit.Expiry {
		return nil, ErrCreditExpired
	}
	if r.Units == nil || r.Units.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if r.Units.Cmp(credit.RemainingGasUnits) > 0 {
		return nil, ErrInsufficientUnits
	}
	if r.CurrentPrice == nil || r.CurrentPrice.Cmp(credit.LockedPriceGwei) <= 0 {
		return nil, ErrNoSavings
	}

	saved, err := fpmath.CalculateSavings(r.CurrentPrice, credit.LockedPriceGwei, r.Units, r.RefPrice)
	if err != nil {
		return nil, err
	}
	if saved.Sign() == 0 {
		return nil, ErrNoSavings
	}
	if l.usdc.BalanceOf(l.vault).Cmp(saved) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	// Apply the state change before the external payout; the reentrancy
	// latch keeps a callback from seeing it half-done, and a payout failure
	// restores it below.
	prevRemaining := new(big.Int).Set(credit.RemainingGasUnits)
	credit.RemainingGasUnits.Sub(credit.RemainingGasUnits, r.Units)
	if credit.RemainingGasUnits.Sign() == 0 {
		credit.IsActive = false
	}

	if r.CashSettlement {
		if !l.usdc.Transfer(r.Account, saved) {
			credit.RemainingGasUnits.Set(prevRemaining)
			credit.IsActive = true
			return nil, ErrTransferFailed
		}
	} else {
		if err := l.adapter.Send(saved, payload, credit.TargetChain); err != nil {
			credit.RemainingGasUnits.Set(prevRemaining)
			credit.IsActive = true
			return nil, err
		}
	}

	l.emit(Event{
		Type:           EventRedeem,
		Account:        r.Account,
		CreditID:       r.CreditID,
		Amount:         new(big.Int).Set(saved),
		Units:          new(big.Int).Set(r.Units),
		Chain:          credit.TargetChain,
		CashSettlement: r.CashSettlement,
	})
	l.log.Info("credit redeemed",
		"account", r.Account, "creditId", r.CreditID, "saved", saved,
		"units", r.Units, "cash", r.CashSettlement, "remaining", credit.RemainingGasUnits)
	return saved, nil
}
