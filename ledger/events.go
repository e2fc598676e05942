// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"encoding/binary"
	"encoding/json"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// EventType tags an emitted ledger record.
type EventType uint8

const (
	EventPurchase EventType = iota + 1
	EventRedeem
	EventTransfer
	EventRefund
	EventChainSupport
	EventRelayerChanged
	EventAggregatorChanged
	EventFeeRecipientChanged
	EventEmergencyWithdraw
	EventFunded
)

// Storage key prefix for the persisted journal.
var eventPrefix = []byte("event/")

// Event is one record emitted for off-chain indexing. Amount is the
// stablecoin moved (nil when none), Units the gas units involved.
type Event struct {
	ID             [32]byte       `json:"id"`
	Seq            uint64         `json:"seq"`
	Type           EventType      `json:"type"`
	Account        common.Address `json:"account"`
	Counterparty   common.Address `json:"counterparty,omitempty"`
	CreditID       uint64         `json:"creditId"`
	Amount         *big.Int       `json:"amount,omitempty"`
	Units          *big.Int       `json:"units,omitempty"`
	Chain          string         `json:"chain,omitempty"`
	CashSettlement bool           `json:"cashSettlement,omitempty"`
	Supported      bool           `json:"supported,omitempty"`
	Timestamp      int64          `json:"timestamp"`
}

// recordID derives the 32-byte event identifier from the record's encoding.
func (e *Event) recordID() [32]byte {
	h := blake3.New()

	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], e.Seq)
	h.Write(seq[:])
	h.Write([]byte{byte(e.Type)})
	h.Write(e.Account.Bytes())
	h.Write(e.Counterparty.Bytes())

	var id [8]byte
	binary.BigEndian.PutUint64(id[:], e.CreditID)
	h.Write(id[:])
	if e.Amount != nil {
		h.Write(e.Amount.Bytes())
	}
	if e.Units != nil {
		h.Write(e.Units.Bytes())
	}
	h.Write([]byte(e.Chain))

	var out [32]byte
	h.Digest().Read(out[:])
	return out
}

// emit appends an event to the in-memory log and, when a journal is
// configured, persists it under its big-endian sequence key. Journal write
// failures are logged and do not abort the already-applied mutation.
func (l *Ledger) emit(e Event) {
	e.Seq = l.seq
	e.Timestamp = l.now().Unix()
	e.ID = e.recordID()
	l.seq++
	l.events = append(l.events, e)

	if l.journal == nil {
		return
	}
	key := make([]byte, len(eventPrefix)+8)
	copy(key, eventPrefix)
	binary.BigEndian.PutUint64(key[len(eventPrefix):], e.Seq)
	blob, err := json.Marshal(&e)
	if err == nil {
		err = l.journal.Put(key, blob)
	}
	if err != nil {
		l.log.Warn("event journal write failed", "seq", e.Seq, "err", err)
	}
}

// Events returns a copy of the emitted record log.
func (l *Ledger) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
