// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"math/big"
	"sync"

	"github.com/luxfi/geth/common"
)

// Mock is an in-memory stablecoin with 6-decimal semantics, used by the
// ledger and bridge test suites. Failure flags force the boolean-false
// return paths, and the transfer hooks let tests re-enter the ledger from
// the middle of a token move.
type Mock struct {
	mu         sync.Mutex
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int

	FailTransfers    bool
	FailTransferFrom bool
	FailApprovals    bool

	// OnTransfer fires after a successful Transfer or TransferFrom,
	// before the boolean result is returned to the caller.
	OnTransfer func(from, to common.Address, amount *big.Int)
}

// NewMock returns an empty mock stablecoin.
func NewMock() *Mock {
	return &Mock{
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Mint credits an account out of thin air.
func (m *Mock) Mint(account common.Address, amount *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credit(account, amount)
}

// Allowance returns the remaining allowance owner has granted spender.
func (m *Mock) Allowance(owner, spender common.Address) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a := m.allowances[owner][spender]; a != nil {
		return new(big.Int).Set(a)
	}
	return big.NewInt(0)
}

// Bind returns a Token view acting as holder. The ledger binds its vault
// address; users bind their own.
func (m *Mock) Bind(holder common.Address) Token {
	return &bound{mock: m, holder: holder}
}

type bound struct {
	mock   *Mock
	holder common.Address
}

func (b *bound) Transfer(to common.Address, amount *big.Int) bool {
	m := b.mock
	m.mu.Lock()
	if m.FailTransfers || !m.debit(b.holder, amount) {
		m.mu.Unlock()
		return false
	}
	m.credit(to, amount)
	hook := m.OnTransfer
	m.mu.Unlock()

	if hook != nil {
		hook(b.holder, to, amount)
	}
	return true
}

func (b *bound) TransferFrom(from, to common.Address, amount *big.Int) bool {
	m := b.mock
	m.mu.Lock()
	if m.FailTransferFrom {
		m.mu.Unlock()
		return false
	}
	allowance := m.allowances[from][b.holder]
	if allowance == nil || allowance.Cmp(amount) < 0 {
		m.mu.Unlock()
		return false
	}
	if !m.debit(from, amount) {
		m.mu.Unlock()
		return false
	}
	allowance.Sub(allowance, amount)
	m.credit(to, amount)
	hook := m.OnTransfer
	m.mu.Unlock()

	if hook != nil {
		hook(from, to, amount)
	}
	return true
}

func (b *bound) Approve(spender common.Address, amount *big.Int) bool {
	m := b.mock
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailApprovals {
		return false
	}
	if m.allowances[b.holder] == nil {
		m.allowances[b.holder] = make(map[common.Address]*big.Int)
	}
	m.allowances[b.holder][spender] = new(big.Int).Set(amount)
	return true
}

func (b *bound) BalanceOf(account common.Address) *big.Int {
	m := b.mock
	m.mu.Lock()
	defer m.mu.Unlock()
	if bal := m.balances[account]; bal != nil {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// credit and debit require the mock lock to be held.

func (m *Mock) credit(account common.Address, amount *big.Int) {
	if m.balances[account] == nil {
		m.balances[account] = big.NewInt(0)
	}
	m.balances[account].Add(m.balances[account], amount)
}

func (m *Mock) debit(account common.Address, amount *big.Int) bool {
	bal := m.balances[account]
	if bal == nil || bal.Cmp(amount) < 0 || amount.Sign() < 0 {
		return false
	}
	bal.Sub(bal, amount)
	return true
}
