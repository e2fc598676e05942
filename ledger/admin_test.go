// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/gasfutures/bridge"
	"github.com/luxfi/geth/common"
)

func TestAdmin_OwnerOnly(t *testing.T) {
	e := newEnv(t)
	stranger := common.HexToAddress("0x00000000000000000000000000000000000000EE")

	require.ErrorIs(t, e.ledger.SetRelayer(stranger, stranger), ErrNotOwner)
	require.ErrorIs(t, e.ledger.SetFeeRecipient(stranger, stranger), ErrNotOwner)
	require.ErrorIs(t, e.ledger.SetAggregator(stranger, stranger, nil), ErrNotOwner)
	require.ErrorIs(t, e.ledger.SetChainSupport(stranger, "solana", true), ErrNotOwner)
	require.ErrorIs(t, e.ledger.Pause(stranger), ErrNotOwner)
	require.ErrorIs(t, e.ledger.Unpause(stranger), ErrNotOwner)
	require.ErrorIs(t, e.ledger.EmergencyWithdraw(stranger, stranger, big.NewInt(1)), ErrNotOwner)
}

func TestSetRelayer_Rotation(t *testing.T) {
	e := newEnv(t)
	next := common.HexToAddress("0x00000000000000000000000000000000000000B2")

	require.NoError(t, e.ledger.SetRelayer(testOwner, next))

	// The old relayer is locked out; the new one is accepted.
	p := e.purchaseIntent()
	_, err := e.ledger.Purchase(p, e.sign(t, p.Digest()), testRelayer)
	require.ErrorIs(t, err, ErrNotRelayer)
	_, err = e.ledger.Purchase(p, e.sign(t, p.Digest()), next)
	require.NoError(t, err)

	require.ErrorIs(t, e.ledger.SetRelayer(testOwner, common.Address{}), ErrInvalidConfig)
}

func TestSetChainSupport(t *testing.T) {
	e := newEnv(t)

	require.False(t, e.ledger.IsChainSupported("solana"))
	require.NoError(t, e.ledger.SetChainSupport(testOwner, "solana", true))
	require.True(t, e.ledger.IsChainSupported("solana"))

	require.NoError(t, e.ledger.SetChainSupport(testOwner, bridge.ChainEthereum, false))
	require.False(t, e.ledger.IsChainSupported(bridge.ChainEthereum))

	p := e.purchaseIntent()
	_, err := e.ledger.Purchase(p, e.sign(t, p.Digest()), testRelayer)
	require.ErrorIs(t, err, ErrChainNotSupported)

	events := e.ledger.Events()
	require.Equal(t, EventChainSupport, events[0].Type)
	require.Equal(t, "solana", events[0].Chain)
	require.True(t, events[0].Supported)
}

func TestSetAggregator_RewiresBridge(t *testing.T) {
	e := newEnv(t)
	id := e.buy(t)

	next := &stubAggregator{ok: true}
	nextAddr := common.HexToAddress("0x00000000000000000000000000000000000000B5")
	require.NoError(t, e.ledger.SetAggregator(testOwner, nextAddr, next))

	payload := []byte("calldata")
	units := mustBig("1000000000000000000")
	r := e.redeemIntent(id, units, big.NewInt(30), payload, false)
	_, err := e.ledger.Redeem(r, e.sign(t, r.Digest()), payload, testRelayer)
	require.NoError(t, err)
	require.Equal(t, payload, next.got)
	require.Empty(t, e.agg.got)
}

func TestEmergencyWithdraw_OnlyWhilePaused(t *testing.T) {
	e := newEnv(t)
	e.buy(t)

	err := e.ledger.EmergencyWithdraw(testOwner, testOwner, big.NewInt(1_000_000))
	require.ErrorIs(t, err, ErrNotPaused)

	require.NoError(t, e.ledger.Pause(testOwner))
	require.NoError(t, e.ledger.EmergencyWithdraw(testOwner, testOwner, big.NewInt(1_000_000)))
	require.Zero(t, e.mock.Bind(testOwner).BalanceOf(testOwner).Cmp(big.NewInt(1_000_000)))

	err = e.ledger.EmergencyWithdraw(testOwner, testOwner, big.NewInt(1_000_000_000))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestRecordGasPrice(t *testing.T) {
	e := newEnv(t)

	require.ErrorIs(t, e.ledger.RecordGasPrice(e.user, bridge.ChainEthereum, big.NewInt(20)), ErrNotRelayer)
	require.ErrorIs(t, e.ledger.RecordGasPrice(testRelayer, bridge.ChainEthereum, big.NewInt(0)), ErrZeroPrice)

	_, err := e.ledger.ChainPrice(bridge.ChainEthereum)
	require.ErrorIs(t, err, ErrUnknownChainPrice)

	require.NoError(t, e.ledger.RecordGasPrice(testRelayer, bridge.ChainEthereum, big.NewInt(20)))
	e.advance(time.Hour)
	require.NoError(t, e.ledger.RecordGasPrice(testRelayer, bridge.ChainEthereum, big.NewInt(35)))
	e.advance(time.Hour)
	require.NoError(t, e.ledger.RecordGasPrice(testRelayer, bridge.ChainEthereum, big.NewInt(15)))

	snap, err := e.ledger.ChainPrice(bridge.ChainEthereum)
	require.NoError(t, err)
	require.Zero(t, snap.PriceGwei.Cmp(big.NewInt(15)))
	require.Zero(t, snap.High24h.Cmp(big.NewInt(35)))
	require.Zero(t, snap.Low24h.Cmp(big.NewInt(15)))
	require.Equal(t, e.now.Unix(), snap.UpdatedAt)

	// A new 24h window resets the range.
	e.advance(25 * time.Hour)
	require.NoError(t, e.ledger.RecordGasPrice(testRelayer, bridge.ChainEthereum, big.NewInt(22)))
	snap, err = e.ledger.ChainPrice(bridge.ChainEthereum)
	require.NoError(t, err)
	require.Zero(t, snap.High24h.Cmp(big.NewInt(22)))
	require.Zero(t, snap.Low24h.Cmp(big.NewInt(22)))
}
