// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luxfi/database"
	log "github.com/luxfi/log"

	"github.com/luxfi/gasfutures/bridge"
	"github.com/luxfi/gasfutures/token"
	"github.com/luxfi/geth/common"
)

// Config carries the ledger's addresses and business constants. Zero
// addresses for Owner, Relayer or FeeRecipient are rejected; the aggregator
// may be configured later through SetAggregator.
type Config struct {
	Owner        common.Address
	Relayer      common.Address
	FeeRecipient common.Address
	Vault        common.Address // the ledger's own stablecoin account

	MinPurchase   *big.Int
	MaxPurchase   *big.Int
	MinExpiryDays uint64
	MaxExpiryDays uint64
	IntentWindow  time.Duration

	PurchaseFeeBps uint64
	RefundFeeBps   uint64

	Chains []string
}

// DefaultConfig returns the production constants; addresses are left for the
// host to fill in.
func DefaultConfig() Config {
	return Config{
		MinPurchase:    big.NewInt(MinPurchase),
		MaxPurchase:    big.NewInt(MaxPurchase),
		MinExpiryDays:  MinExpiryDays,
		MaxExpiryDays:  MaxExpiryDays,
		IntentWindow:   IntentWindow,
		PurchaseFeeBps: PurchaseFeeBps,
		RefundFeeBps:   RefundFeeBps,
		Chains:         bridge.DefaultChains,
	}
}

// Ledger is the stateful core. Mutating operations are whole-or-nothing and
// serialized; the reentrancy latch makes a callback from a token or bridge
// collaborator fail with ErrReentrant instead of observing half-applied
// state.
type Ledger struct {
	mu     sync.RWMutex
	inCall atomic.Bool

	cfg        Config
	owner      common.Address
	relayer    common.Address
	feeAddress common.Address
	vault      common.Address
	paused     bool

	usdc    token.Token
	adapter *bridge.Adapter

	credits map[common.Address][]*GasCredit
	chains  map[string]bool
	prices  map[string]*ChainGasPrice

	events  []Event
	seq     uint64
	journal database.KeyValueWriter

	log log.Logger
	now func() time.Time
}

// New builds a ledger. usdc must be bound to cfg.Vault; journal may be nil
// to skip event persistence.
func New(cfg Config, usdc token.Token, adapter *bridge.Adapter, journal database.KeyValueWriter, logger log.Logger) (*Ledger, error) {
	zero := common.Address{}
	if cfg.Owner == zero || cfg.Relayer == zero || cfg.FeeRecipient == zero || cfg.Vault == zero {
		return nil, ErrInvalidConfig
	}
	if cfg.PurchaseFeeBps > MaxFeeBps || cfg.RefundFeeBps > MaxFeeBps {
		return nil, ErrInvalidConfig
	}
	if cfg.MinPurchase == nil || cfg.MaxPurchase == nil ||
		cfg.MinPurchase.Sign() <= 0 || cfg.MinPurchase.Cmp(cfg.MaxPurchase) > 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.MinExpiryDays == 0 || cfg.MinExpiryDays > cfg.MaxExpiryDays {
		return nil, ErrInvalidConfig
	}
	if usdc == nil || adapter == nil {
		return nil, ErrInvalidConfig
	}

	l := &Ledger{
		cfg:        cfg,
		owner:      cfg.Owner,
		relayer:    cfg.Relayer,
		feeAddress: cfg.FeeRecipient,
		vault:      cfg.Vault,
		usdc:       usdc,
		adapter:    adapter,
		credits:    make(map[common.Address][]*GasCredit),
		chains:     make(map[string]bool),
		prices:     make(map[string]*ChainGasPrice),
		journal:    journal,
		log:        logger,
		now:        time.Now,
	}
	for _, chain := range cfg.Chains {
		l.chains[chain] = true
	}
	return l, nil
}

// lock acquires the mutation latch. A nested call from a collaborator
// callback fails the swap and is rejected before it can touch the mutex, so
// it errors instead of deadlocking.
func (l *Ledger) lock() error {
	if !l.inCall.CompareAndSwap(false, true) {
		return ErrReentrant
	}
	l.mu.Lock()
	return nil
}

func (l *Ledger) unlock() {
	l.mu.Unlock()
	l.inCall.Store(false)
}

// checkFresh enforces the intent staleness window. Intents dated in the
// future are rejected outright.
func (l *Ledger) checkFresh(ts uint64) error {
	now := uint64(l.now().Unix())
	if ts > now {
		return ErrFutureIntent
	}
	if time.Duration(now-ts)*time.Second > l.cfg.IntentWindow {
		return ErrStaleIntent
	}
	return nil
}

// credit resolves a credit id for an account; callers hold the lock.
func (l *Ledger) credit(account common.Address, id uint64) (*GasCredit, error) {
	list := l.credits[account]
	if id >= uint64(len(list)) {
		return nil, ErrUnknownCredit
	}
	return list[id], nil
}
