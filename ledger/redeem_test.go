// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/gasfutures/bridge"
	"github.com/luxfi/gasfutures/intent"
)

func (e *env) redeemIntent(creditID uint64, units, currentPrice *big.Int, payload []byte, cash bool) intent.RedeemIntent {
	return intent.RedeemIntent{
		Account:        e.user,
		CreditID:       creditID,
		Units:          units,
		CurrentPrice:   currentPrice,
		RefPrice:       big.NewInt(3_000_000_000),
		Timestamp:      uint64(e.now.Unix()),
		PayloadHash:    intent.PayloadHash(payload),
		CashSettlement: cash,
	}
}

func TestRedeem_CashSettlement(t *testing.T) {
	e := newEnv(t)
	id := e.buy(t)
	userBalance := e.mock.Bind(e.user).BalanceOf(e.user)

	// 10 gwei upside on 1e18 units at ref 3000 = 30 USDC.
	units := mustBig("1000000000000000000")
	r := e.redeemIntent(id, units, big.NewInt(30), nil, true)
	saved, err := e.ledger.Redeem(r, e.sign(t, r.Digest()), nil, testRelayer)
	require.NoError(t, err)
	require.Zero(t, saved.Cmp(big.NewInt(30_000_000)))

	wantUser := new(big.Int).Add(userBalance, saved)
	require.Zero(t, e.mock.Bind(e.user).BalanceOf(e.user).Cmp(wantUser))

	credit, err := e.ledger.Credit(e.user, id)
	require.NoError(t, err)
	require.True(t, credit.IsActive)
	wantRemaining := new(big.Int).Sub(expectedUnits, units)
	require.Zero(t, credit.RemainingGasUnits.Cmp(wantRemaining))

	events := e.ledger.Events()
	last := events[len(events)-1]
	require.Equal(t, EventRedeem, last.Type)
	require.True(t, last.CashSettlement)
}

func TestRedeem_ExhaustionDeactivates(t *testing.T) {
	e := newEnv(t)
	id := e.buy(t)

	r := e.redeemIntent(id, expectedUnits, big.NewInt(30), nil, true)
	_, err := e.ledger.Redeem(r, e.sign(t, r.Digest()), nil, testRelayer)
	require.NoError(t, err)

	credit, err := e.ledger.Credit(e.user, id)
	require.NoError(t, err)
	require.False(t, credit.IsActive)
	require.Zero(t, credit.RemainingGasUnits.Sign())

	// A drained credit cannot be redeemed again.
	r = e.redeemIntent(id, big.NewInt(1), big.NewInt(30), nil, true)
	_, err = e.ledger.Redeem(r, e.sign(t, r.Digest()), nil, testRelayer)
	require.ErrorIs(t, err, ErrCreditInactive)
}

func TestRedeem_BridgeSettlement(t *testing.T) {
	e := newEnv(t)
	id := e.buy(t)

	payload := []byte("aggregator routing calldata")
	units := mustBig("1000000000000000000")
	r := e.redeemIntent(id, units, big.NewInt(30), payload, false)
	saved, err := e.ledger.Redeem(r, e.sign(t, r.Digest()), payload, testRelayer)
	require.NoError(t, err)
	require.Equal(t, payload, e.agg.got)
	require.Zero(t, e.mock.Allowance(testVault, testAggregator).Cmp(saved))

	events := e.ledger.Events()
	last := events[len(events)-1]
	require.Equal(t, EventRedeem, last.Type)
	require.False(t, last.CashSettlement)
}

func TestRedeem_BridgeFailureRollsBack(t *testing.T) {
	e := newEnv(t)
	id := e.buy(t)
	e.agg.ok = false

	payload := []byte("calldata")
	units := mustBig("1000000000000000000")
	r := e.redeemIntent(id, units, big.NewInt(30), payload, false)
	_, err := e.ledger.Redeem(r, e.sign(t, r.Digest()), payload, testRelayer)
	require.ErrorIs(t, err, bridge.ErrCallFailed)

	credit, err := e.ledger.Credit(e.user, id)
	require.NoError(t, err)
	require.True(t, credit.IsActive)
	require.Zero(t, credit.RemainingGasUnits.Cmp(expectedUnits))
	require.Zero(t, e.mock.Allowance(testVault, testAggregator).Sign())
}

func TestRedeem_PayloadMismatch(t *testing.T) {
	e := newEnv(t)
	id := e.buy(t)

	signed := []byte("signed payload")
	r := e.redeemIntent(id, big.NewInt(1), big.NewInt(30), signed, false)
	_, err := e.ledger.Redeem(r, e.sign(t, r.Digest()), []byte("swapped payload"), testRelayer)
	require.ErrorIs(t, err, ErrPayloadMismatch)
}

func TestRedeem_NoSavings(t *testing.T) {
	e := newEnv(t)
	id := e.buy(t)

	// Current price equal to the lock: nothing to redeem even with a valid
	// signature.
	r := e.redeemIntent(id, big.NewInt(1), big.NewInt(20), nil, true)
	_, err := e.ledger.Redeem(r, e.sign(t, r.Digest()), nil, testRelayer)
	require.ErrorIs(t, err, ErrNoSavings)

	r = e.redeemIntent(id, big.NewInt(1), big.NewInt(19), nil, true)
	_, err = e.ledger.Redeem(r, e.sign(t, r.Digest()), nil, testRelayer)
	require.ErrorIs(t, err, ErrNoSavings)
}

func TestRedeem_InsufficientUnits(t *testing.T) {
	e := newEnv(t)
	id := e.buy(t)
	before := e.ledger.Balance()

	over := new(big.Int).Add(expectedUnits, big.NewInt(1))
	r := e.redeemIntent(id, over, big.NewInt(30), nil, true)
	_, err := e.ledger.Redeem(r, e.sign(t, r.Digest()), nil, testRelayer)
	require.ErrorIs(t, err, ErrInsufficientUnits)

	// No funds moved, credit untouched.
	require.Zero(t, e.ledger.Balance().Cmp(before))
	credit, err := e.ledger.Credit(e.user, id)
	require.NoError(t, err)
	require.Zero(t, credit.RemainingGasUnits.Cmp(expectedUnits))
}

func TestRedeem_InsufficientLiquidity(t *testing.T) {
	e := newEnv(t)
	id := e.buy(t)

	// A 180 gwei upside on the full position is worth far more than the
	// vault's 99.5 USDC.
	r := e.redeemIntent(id, expectedUnits, big.NewInt(200), nil, true)
	_, err := e.ledger.Redeem(r, e.sign(t, r.Digest()), nil, testRelayer)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	credit, err := e.ledger.Credit(e.user, id)
	require.NoError(t, err)
	require.True(t, credit.IsActive)
	require.Zero(t, credit.RemainingGasUnits.Cmp(expectedUnits))
}

func TestRedeem_ExpiredCredit(t *testing.T) {
	e := newEnv(t)
	id := e.buy(t)
	e.advance(31 * 24 * time.Hour)

	r := e.redeemIntent(id, big.NewInt(1), big.NewInt(30), nil, true)
	_, err := e.ledger.Redeem(r, e.sign(t, r.Digest()), nil, testRelayer)
	require.ErrorIs(t, err, ErrCreditExpired)
}

func TestRedeem_UnknownCredit(t *testing.T) {
	e := newEnv(t)
	e.buy(t)

	r := e.redeemIntent(99, big.NewInt(1), big.NewInt(30), nil, true)
	_, err := e.ledger.Redeem(r, e.sign(t, r.Digest()), nil, testRelayer)
	require.ErrorIs(t, err, ErrUnknownCredit)
}

func TestRedeem_RelayerOnlyAndPause(t *testing.T) {
	e := newEnv(t)
	id := e.buy(t)

	r := e.redeemIntent(id, big.NewInt(1), big.NewInt(30), nil, true)
	_, err := e.ledger.Redeem(r, e.sign(t, r.Digest()), nil, e.user)
	require.ErrorIs(t, err, ErrNotRelayer)

	require.NoError(t, e.ledger.Pause(testOwner))
	_, err = e.ledger.Redeem(r, e.sign(t, r.Digest()), nil, testRelayer)
	require.ErrorIs(t, err, ErrPaused)
}
