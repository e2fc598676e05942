// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math/big"

	"github.com/luxfi/gasfutures/fpmath"
	"github.com/luxfi/geth/common"
)

// Transfer reassigns unitsToTransfer from the caller's credit to a fresh
// credit owned by recipient. The recipient's cost basis is proportional to
// the source credit's original totals, so the refundable value across both
// credits never exceeds the source's original basis. No stablecoin moves.
// Callable directly by the credit owner; the caller is self-authenticating.
func (l *Ledger) Transfer(caller common.Address, creditID uint64, recipient common.Address, units *big.Int) (uint64, error) {
	if err := l.lock(); err != nil {
		return 0, err
	}
	defer l.unlock()

	if l.paused {
		return 0, ErrPaused
	}
	if recipient == (common.Address{}) || recipient == caller {
		return 0, ErrInvalidRecipient
	}

	credit, err := l.credit(caller, creditID)
	if err != nil {
		return 0, err
	}
	if !credit.IsActive {
		return 0, ErrCreditInactive
	}
	if l.now().Unix() >= credit.Expiry {
		return 0, ErrCreditExpired
	}
	if units == nil || units.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if units.Cmp(credit.RemainingGasUnits) > 0 {
		return 0, ErrInsufficientUnits
	}

	// basis = usdcPaid * units / gasUnits, against the source's original
	// totals, not its remaining-adjusted ones.
	basis := new(big.Int).Mul(credit.USDCPaid, units)
	basis.Div(basis, credit.GasUnits)

	credit.RemainingGasUnits.Sub(credit.RemainingGasUnits, units)
	if credit.RemainingGasUnits.Sign() == 0 {
		credit.IsActive = false
	}

	newCredit := &GasCredit{
		LockedPriceGwei:   new(big.Int).Set(credit.LockedPriceGwei),
		GasUnits:          new(big.Int).Set(units),
		RemainingGasUnits: new(big.Int).Set(units),
		Expiry:            credit.Expiry,
		PurchaseTimestamp: l.now().Unix(),
		IsActive:          true,
		USDCPaid:          basis,
		TargetChain:       credit.TargetChain,
	}
	newID := uint64(len(l.credits[recipient]))
	l.credits[recipient] = append(l.credits[recipient], newCredit)

	l.emit(Event{
		Type:         EventTransfer,
		Account:      caller,
		Counterparty: recipient,
		CreditID:     creditID,
		Amount:       basis,
		Units:        new(big.Int).Set(units),
		Chain:        credit.TargetChain,
	})
	l.log.Info("credit transferred",
		"from", caller, "to", recipient, "creditId", creditID,
		"newCreditId", newID, "units", units, "basis", basis)
	return newID, nil
}

// ClaimExpiredRefund pays the owner the proportional stablecoin value of an
// expired credit's unused units, minus the refund fee. The credit is
// deactivated before any external transfer. This path stays open while the
// ledger is paused so holders can always exit.
func (l *Ledger) ClaimExpiredRefund(caller common.Address, creditID uint64) (*big.Int, error) {
	if err := l.lock(); err != nil {
		return nil, err
	}
	defer l.unlock()

	credit, err := l.credit(caller, creditID)
	if err != nil {
		return nil, err
	}
	if !credit.IsActive {
		return nil, ErrCreditInactive
	}
	if l.now().Unix() < credit.Expiry {
		return nil, ErrNotYetExpired
	}

	refund, fee, err := fpmath.CalculateRefund(credit.USDCPaid, credit.RemainingGasUnits, credit.GasUnits, l.cfg.RefundFeeBps)
	if err != nil {
		return nil, err
	}
	total := new(big.Int).Add(refund, fee)
	if l.usdc.BalanceOf(l.vault).Cmp(total) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	credit.IsActive = false

	// Fee first: if it fails nothing has moved and the claim can be
	// retried. A refund failure after a paid fee is the one partial outcome
	// this path cannot unwind; the credit is reactivated so the claim stays
	// open.
	if fee.Sign() > 0 && !l.usdc.Transfer(l.feeAddress, fee) {
		credit.IsActive = true
		return nil, ErrTransferFailed
	}
	if !l.usdc.Transfer(caller, refund) {
		credit.IsActive = true
		l.log.Error("refund payout failed after fee transfer", "account", caller, "creditId", creditID, "fee", fee)
		return nil, ErrTransferFailed
	}

	l.emit(Event{
		Type:     EventRefund,
		Account:  caller,
		CreditID: creditID,
		Amount:   new(big.Int).Set(refund),
		Units:    new(big.Int).Set(credit.RemainingGasUnits),
		Chain:    credit.TargetChain,
	})
	l.log.Info("expired credit refunded",
		"account", caller, "creditId", creditID, "refund", refund, "fee", fee)
	return refund, nil
}

// Fund tops up the ledger's stablecoin balance. Anyone may fund at any time,
// paused or not; no credit is granted.
func (l *Ledger) Fund(from common.Address, amount *big.Int) error {
	if err := l.lock(); err != nil {
		return err
	}
	defer l.unlock()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !l.usdc.TransferFrom(from, l.vault, amount) {
		return ErrTransferFailed
	}

	l.emit(Event{
		Type:    EventFunded,
		Account: from,
		Amount:  new(big.Int).Set(amount),
	})
	l.log.Info("ledger funded", "from", from, "amount", amount)
	return nil
}
