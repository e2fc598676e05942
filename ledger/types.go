// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger implements the gas futures credit ledger: per-account
// append-only credit records, the purchase/redeem/transfer/expire-refund
// state machine, and the administrative trust surface around it.
package ledger

import (
	"errors"
	"math/big"
	"time"
)

// Fee and bound constants (stablecoin amounts are 6-decimal).
const (
	MinPurchase    = 10_000_000        // 10 USDC
	MaxPurchase    = 1_000_000_000_000 // 1,000,000 USDC
	MinExpiryDays  = 7
	MaxExpiryDays  = 365
	IntentWindow   = 5 * time.Minute
	PurchaseFeeBps = 50   // 0.50%
	RefundFeeBps   = 100  // 1.00%
	MaxFeeBps      = 1000 // 10% hard cap on any configured fee rate
)

// GasCredit is one prepaid, price-locked allotment of gas units. A credit is
// owned by exactly one account; its identifier is its fixed position in the
// owner's list and is never reused. Transfers never move a credit: they
// shrink the source and append a fresh credit for the recipient.
type GasCredit struct {
	LockedPriceGwei   *big.Int
	GasUnits          *big.Int // granted at issuance, immutable
	RemainingGasUnits *big.Int // monotonically non-increasing
	Expiry            int64    // unix seconds, > PurchaseTimestamp
	PurchaseTimestamp int64
	IsActive          bool
	USDCPaid          *big.Int // net cost basis after the purchase fee
	TargetChain       string
}

// ChainGasPrice is the informational price snapshot for one destination
// chain, fed by the relayer and exposed for reads only.
type ChainGasPrice struct {
	PriceGwei   *big.Int
	UpdatedAt   int64
	High24h     *big.Int
	Low24h      *big.Int
	windowStart int64
}

// Validation errors.
var (
	ErrAmountTooLow      = errors.New("purchase amount below minimum")
	ErrAmountTooHigh     = errors.New("purchase amount above maximum")
	ErrInvalidExpiry     = errors.New("expiry days out of range")
	ErrChainNotSupported = errors.New("target chain not supported")
	ErrZeroPrice         = errors.New("price must be positive")
	ErrZeroUnits         = errors.New("computed gas units are zero")
	ErrInvalidRecipient  = errors.New("invalid transfer recipient")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidConfig     = errors.New("invalid ledger configuration")
)

// Authorization errors.
var (
	ErrNotRelayer   = errors.New("caller is not the relayer")
	ErrNotOwner     = errors.New("caller is not the owner")
	ErrStaleIntent  = errors.New("intent timestamp outside freshness window")
	ErrFutureIntent = errors.New("intent timestamp in the future")
)

// Credit-state errors.
var (
	ErrUnknownCredit     = errors.New("unknown credit id")
	ErrCreditInactive    = errors.New("credit is not active")
	ErrCreditExpired     = errors.New("credit has expired")
	ErrNotYetExpired     = errors.New("credit has not expired yet")
	ErrInsufficientUnits = errors.New("insufficient remaining gas units")
	ErrNoSavings         = errors.New("no savings available at current price")
	ErrPayloadMismatch   = errors.New("bridge payload does not match signed hash")
)

// Liquidity and transfer-mechanics errors.
var (
	ErrInsufficientLiquidity = errors.New("ledger balance too low for payout")
	ErrTransferFailed        = errors.New("stablecoin transfer failed")
)

// Guard errors.
var (
	ErrPaused            = errors.New("ledger is paused")
	ErrNotPaused         = errors.New("ledger is not paused")
	ErrReentrant         = errors.New("reentrant call")
	ErrUnknownChainPrice = errors.New("no price recorded for chain")
)
