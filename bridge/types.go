// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bridge wraps the approve-then-call sequence against an external
// bridge aggregator. The aggregator is opaque: it takes arbitrary calldata
// and reports success or failure, nothing else is assumed about it.
package bridge

import "errors"

// Destination chain labels accepted by the ledger allow-list.
const (
	ChainEthereum  = "ethereum"
	ChainArbitrum  = "arbitrum"
	ChainOptimism  = "optimism"
	ChainBase      = "base"
	ChainPolygon   = "polygon"
	ChainBSC       = "bsc"
	ChainAvalanche = "avalanche"
)

// DefaultChains is the production default allow-list.
var DefaultChains = []string{
	ChainEthereum,
	ChainArbitrum,
	ChainOptimism,
	ChainBase,
	ChainPolygon,
	ChainBSC,
	ChainAvalanche,
}

var (
	ErrAggregatorNotSet = errors.New("bridge aggregator not configured")
	ErrEmptyPayload     = errors.New("bridge payload is empty")
	ErrInvalidAmount    = errors.New("bridge amount must be positive")
	ErrApproveFailed    = errors.New("stablecoin approval failed")
	ErrCallFailed       = errors.New("bridge aggregator call failed")
)
