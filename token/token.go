// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token defines the stablecoin collaborator at its interface
// boundary. The ledger only ever sees the four standard ERC20 entry points;
// boolean failure returns must be checked by every caller.
package token

import (
	"math/big"

	"github.com/luxfi/geth/common"
)

// Token is a stablecoin handle bound to a single holder identity.
// Transfer and Approve act on the bound holder's balance; TransferFrom
// spends an allowance granted to the bound holder.
type Token interface {
	Transfer(to common.Address, amount *big.Int) bool
	TransferFrom(from, to common.Address, amount *big.Int) bool
	Approve(spender common.Address, amount *big.Int) bool
	BalanceOf(account common.Address) *big.Int
}
