// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math/big"

	"github.com/luxfi/geth/common"
)

// AccountSummary aggregates an account's active credits.
type AccountSummary struct {
	ActiveCredits  int
	RemainingUnits *big.Int
	// Value is the proportional stablecoin value of the remaining units,
	// usdcPaid * remaining / gasUnits summed over active credits.
	Value *big.Int
}

// Credit returns a copy of one credit.
func (l *Ledger) Credit(account common.Address, id uint64) (GasCredit, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	credit, err := l.credit(account, id)
	if err != nil {
		return GasCredit{}, err
	}
	return copyCredit(credit), nil
}

// Credits returns copies of every credit an account has ever held, in id
// order.
func (l *Ledger) Credits(account common.Address) []GasCredit {
	l.mu.RLock()
	defer l.mu.RUnlock()
	list := l.credits[account]
	out := make([]GasCredit, len(list))
	for i, c := range list {
		out[i] = copyCredit(c)
	}
	return out
}

// CreditCount returns how many credit ids an account has.
func (l *Ledger) CreditCount(account common.Address) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.credits[account])
}

// Summary aggregates the account's active credits.
func (l *Ledger) Summary(account common.Address) AccountSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := AccountSummary{RemainingUnits: big.NewInt(0), Value: big.NewInt(0)}
	for _, c := range l.credits[account] {
		if !c.IsActive {
			continue
		}
		s.ActiveCredits++
		s.RemainingUnits.Add(s.RemainingUnits, c.RemainingGasUnits)
		share := new(big.Int).Mul(c.USDCPaid, c.RemainingGasUnits)
		share.Div(share, c.GasUnits)
		s.Value.Add(s.Value, share)
	}
	return s
}

// Balance returns the ledger's live stablecoin balance.
func (l *Ledger) Balance() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.usdc.BalanceOf(l.vault)
}

// IsChainSupported reports whether a destination chain is allow-listed.
func (l *Ledger) IsChainSupported(chain string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chains[chain]
}

// ChainPrice returns the relayer-fed price snapshot for a chain.
func (l *Ledger) ChainPrice(chain string) (ChainGasPrice, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	snap := l.prices[chain]
	if snap == nil {
		return ChainGasPrice{}, ErrUnknownChainPrice
	}
	return ChainGasPrice{
		PriceGwei: new(big.Int).Set(snap.PriceGwei),
		UpdatedAt: snap.UpdatedAt,
		High24h:   new(big.Int).Set(snap.High24h),
		Low24h:    new(big.Int).Set(snap.Low24h),
	}, nil
}

func copyCredit(c *GasCredit) GasCredit {
	return GasCredit{
		LockedPriceGwei:   new(big.Int).Set(c.LockedPriceGwei),
		GasUnits:          new(big.Int).Set(c.GasUnits),
		RemainingGasUnits: new(big.Int).Set(c.RemainingGasUnits),
		Expiry:            c.Expiry,
		PurchaseTimestamp: c.PurchaseTimestamp,
		IsActive:          c.IsActive,
		USDCPaid:          new(big.Int).Set(c.USDCPaid),
		TargetChain:       c.TargetChain,
	}
}
