// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fpmath holds the pure fixed-point conversions between stablecoin
// value, a locked gas price, and gas units. Decimal scales:
//
//	stablecoin amounts    6 decimals
//	gas prices            whole gwei
//	reference price       stablecoin per native asset, 6 decimals
//	gas units             18 decimals internally
//
// All division truncates. Every intermediate product is checked against the
// 256-bit word range and rejected with ErrOverflow instead of wrapping.
package fpmath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// BpsDenominator is the basis-point scale for fee rates.
const BpsDenominator = 10_000

var (
	// unitScale lifts a 6-decimal stablecoin amount to the 18-decimal
	// unit scale after the price pair has been collapsed through refScale.
	unitScale = big.NewInt(1_000_000_000_000_000) // 1e15

	// refScale is the 6-decimal scale of the reference price.
	refScale = big.NewInt(1_000_000) // 1e6

	bpsDenom = big.NewInt(BpsDenominator)
)

var (
	ErrZeroPrice     = errors.New("gas price must be positive")
	ErrZeroRefPrice  = errors.New("reference price must be positive")
	ErrPriceTooSmall = errors.New("scaled price rounds to zero")
	ErrZeroTotal     = errors.New("total units must be positive")
	ErrUnitsExceed   = errors.New("remaining units exceed total units")
	ErrNoSavings     = errors.New("current price does not exceed locked price")
	ErrFeeTooHigh    = errors.New("fee rate must be below 10000 bps")
	ErrNegativeInput = errors.New("negative input")
	ErrOverflow      = errors.New("value exceeds 256-bit range")
)

// CalculateGasUnits converts a gross stablecoin payment into the fee taken,
// the net amount retained, and the 18-decimal gas unit quantity granted at
// the given price pair:
//
//	fee   = amount * feeBps / 10000
//	net   = amount - fee
//	units = net * 1e15 / ((priceGwei * refPrice) / 1e6)
//
// The multiply-before-divide ordering is load-bearing; reordering drifts the
// unit scale.
func CalculateGasUnits(amount *big.Int, feeBps uint64, priceGwei, refPrice *big.Int) (net, fee, units *big.Int, err error) {
	if err := checkUnsigned(amount, priceGwei, refPrice); err != nil {
		return nil, nil, nil, err
	}
	if feeBps >= BpsDenominator {
		return nil, nil, nil, ErrFeeTooHigh
	}
	if priceGwei.Sign() == 0 {
		return nil, nil, nil, ErrZeroPrice
	}
	if refPrice.Sign() == 0 {
		return nil, nil, nil, ErrZeroRefPrice
	}

	fee = new(big.Int).Mul(amount, new(big.Int).SetUint64(feeBps))
	if !fitsWord(fee) {
		return nil, nil, nil, ErrOverflow
	}
	fee.Div(fee, bpsDenom)
	net = new(big.Int).Sub(amount, fee)

	denom := new(big.Int).Mul(priceGwei, refPrice)
	if !fitsWord(denom) {
		return nil, nil, nil, ErrOverflow
	}
	denom.Div(denom, refScale)
	if denom.Sign() == 0 {
		return nil, nil, nil, ErrPriceTooSmall
	}

	units = new(big.Int).Mul(net, unitScale)
	if !fitsWord(units) {
		return nil, nil, nil, ErrOverflow
	}
	units.Div(units, denom)
	return net, fee, units, nil
}

// CalculateSavings prices the upside on unitsUsed between a credit's locked
// price and the current price, in 6-decimal stablecoin:
//
//	saved = (currentPrice - lockedPrice) * unitsUsed * refPrice / (1e15 * 1e6)
func CalculateSavings(currentPrice, lockedPrice, unitsUsed, refPrice *big.Int) (*big.Int, error) {
	if err := checkUnsigned(currentPrice, lockedPrice, unitsUsed, refPrice); err != nil {
		return nil, err
	}
	if currentPrice.Cmp(lockedPrice) <= 0 {
		return nil, ErrNoSavings
	}
	if refPrice.Sign() == 0 {
		return nil, ErrZeroRefPrice
	}

	saved := new(big.Int).Sub(currentPrice, lockedPrice)
	saved.Mul(saved, unitsUsed)
	if !fitsWord(saved) {
		return nil, ErrOverflow
	}
	saved.Mul(saved, refPrice)
	if !fitsWord(saved) {
		return nil, ErrOverflow
	}
	saved.Div(saved, new(big.Int).Mul(unitScale, refScale))
	return saved, nil
}

// CalculateRefund computes the proportional stablecoin refund for the unused
// share of a credit, minus the refund fee:
//
//	proportional = paid * remaining / total
//	fee          = proportional * feeBps / 10000
//	refund       = proportional - fee
//
// total == 0 is unreachable for credits created through the ledger but is
// rejected rather than trusted.
func CalculateRefund(paid, remaining, total *big.Int, feeBps uint64) (refund, fee *big.Int, err error) {
	if err := checkUnsigned(paid, remaining, total); err != nil {
		return nil, nil, err
	}
	if total.Sign() == 0 {
		return nil, nil, ErrZeroTotal
	}
	if remaining.Cmp(total) > 0 {
		return nil, nil, ErrUnitsExceed
	}
	if feeBps >= BpsDenominator {
		return nil, nil, ErrFeeTooHigh
	}

	proportional := new(big.Int).Mul(paid, remaining)
	if !fitsWord(proportional) {
		return nil, nil, ErrOverflow
	}
	proportional.Div(proportional, total)

	fee = new(big.Int).Mul(proportional, new(big.Int).SetUint64(feeBps))
	fee.Div(fee, bpsDenom)
	refund = new(big.Int).Sub(proportional, fee)
	return refund, fee, nil
}

func checkUnsigned(values ...*big.Int) error {
	for _, v := range values {
		if v == nil || v.Sign() < 0 {
			return ErrNegativeInput
		}
		if !fitsWord(v) {
			return ErrOverflow
		}
	}
	return nil
}

func fitsWord(v *big.Int) bool {
	_, overflow := uint256.FromBig(v)
	return !overflow
}
