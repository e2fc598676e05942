// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"math/big"
	"sync"

	log "github.com/luxfi/log"

	"github.com/luxfi/gasfutures/token"
	"github.com/luxfi/geth/common"
)

// Aggregator is the external bridge callee. Execute receives the opaque
// routing calldata and reports whether the bridge accepted it.
type Aggregator interface {
	Execute(calldata []byte) bool
}

// Adapter grants the aggregator a spending allowance for a payout and then
// invokes it. A failed invocation leaves no dangling allowance: the grant is
// reset before the error is returned.
type Adapter struct {
	mu         sync.RWMutex
	aggregator common.Address
	target     Aggregator
	usdc       token.Token
	log        log.Logger
}

// New builds an adapter around the aggregator at addr. addr may be zero and
// target nil until the first rotation; Send rejects until both are set.
func New(addr common.Address, target Aggregator, usdc token.Token, logger log.Logger) *Adapter {
	return &Adapter{
		aggregator: addr,
		target:     target,
		usdc:       usdc,
		log:        logger,
	}
}

// SetAggregator rotates the aggregator address and callee.
func (a *Adapter) SetAggregator(addr common.Address, target Aggregator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.aggregator = addr
	a.target = target
}

// Aggregator returns the configured aggregator address.
func (a *Adapter) Aggregator() common.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.aggregator
}

// Send approves amount to the aggregator and invokes it with the routing
// payload for the given destination chain. Any failure aborts the caller's
// whole operation; Send itself never leaves a partial allowance behind.
func (a *Adapter) Send(amount *big.Int, payload []byte, chain string) error {
	a.mu.RLock()
	aggregator := a.aggregator
	target := a.target
	a.mu.RUnlock()

	if aggregator == (common.Address{}) || target == nil {
		return ErrAggregatorNotSet
	}
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	if !a.usdc.Approve(aggregator, amount) {
		return ErrApproveFailed
	}
	if !target.Execute(payload) {
		a.usdc.Approve(aggregator, big.NewInt(0))
		return ErrCallFailed
	}

	a.log.Info("bridge payout sent", "aggregator", aggregator, "chain", chain, "amount", amount)
	return nil
}
