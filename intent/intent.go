// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package intent builds the byte layouts users sign to authorize
// relayer-submitted purchase and redemption actions, and recovers the signer
// address from a 65-byte secp256k1 signature over those layouts.
//
// Every field is encoded at a fixed width so the digest is deterministic:
// addresses as 20 raw bytes, quantities left-padded to 32 bytes, the chain
// label collapsed to its keccak-256 hash, flags as a single byte. Redemption
// intents carry a 32-byte hash of the bridge calldata rather than the
// calldata itself, keeping the signed payload fixed-size.
package intent

import (
	"errors"
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// SignatureLength is r (32) + s (32) + recovery id (1).
const SignatureLength = 65

// signedMessagePrefix is the EIP-191 personal-sign domain separator for a
// 32-byte payload.
const signedMessagePrefix = "\x19Ethereum Signed Message:\n32"

var (
	ErrInvalidSignatureLength = errors.New("signature must be 65 bytes")
	ErrInvalidRecoveryID      = errors.New("recovery id must be 0/1 or 27/28")
	ErrInvalidSignature       = errors.New("signature recovery failed")
	ErrSignerMismatch         = errors.New("recovered signer does not match account")
)

// PurchaseIntent is the set of parameters a user signs to authorize a credit
// purchase submitted by the relayer.
type PurchaseIntent struct {
	Account      common.Address
	Amount       *big.Int // stablecoin, 6 decimals
	TargetChain  string
	ExpiryDays   uint64
	GasPriceGwei *big.Int
	RefPrice     *big.Int // native asset in stablecoin, 6 decimals
	Timestamp    uint64   // unix seconds at signing time
}

// Digest returns the keccak-256 hash of the intent's fixed-width encoding.
func (p PurchaseIntent) Digest() common.Hash {
	buf := make([]byte, 0, 20+5*32+8)
	buf = append(buf, p.Account.Bytes()...)
	buf = append(buf, padWord(p.Amount)...)
	buf = append(buf, crypto.Keccak256([]byte(p.TargetChain))...)
	buf = append(buf, padUint(p.ExpiryDays)...)
	buf = append(buf, padWord(p.GasPriceGwei)...)
	buf = append(buf, padWord(p.RefPrice)...)
	buf = append(buf, padUint(p.Timestamp)...)
	return common.BytesToHash(crypto.Keccak256(buf))
}

// RedeemIntent is the set of parameters a user signs to authorize redeeming
// accumulated savings on one credit.
type RedeemIntent struct {
	Account        common.Address
	CreditID       uint64
	Units          *big.Int // 18 decimals
	CurrentPrice   *big.Int // gwei
	RefPrice       *big.Int // 6 decimals
	Timestamp      uint64
	PayloadHash    common.Hash // keccak-256 of the bridge calldata
	CashSettlement bool
}

// Digest returns the keccak-256 hash of the intent's fixed-width encoding,
// binding the settlement mode and the bridge payload hash.
func (r RedeemIntent) Digest() common.Hash {
	buf := make([]byte, 0, 20+3*32+2*8+32+1)
	buf = append(buf, r.Account.Bytes()...)
	buf = append(buf, padUint(r.CreditID)...)
	buf = append(buf, padWord(r.Units)...)
	buf = append(buf, padWord(r.CurrentPrice)...)
	buf = append(buf, padWord(r.RefPrice)...)
	buf = append(buf, padUint(r.Timestamp)...)
	buf = append(buf, r.PayloadHash.Bytes()...)
	if r.CashSettlement {
		buf = append(buf, 0x01)
	} else {
		buf = append(buf, 0x00)
	}
	return common.BytesToHash(crypto.Keccak256(buf))
}

// PayloadHash hashes arbitrary bridge calldata down to the 32 bytes a
// redemption intent signs over.
func PayloadHash(payload []byte) common.Hash {
	return common.BytesToHash(crypto.Keccak256(payload))
}

// SignedDigest applies the personal-sign prefix to an intent digest,
// producing the hash wallets actually sign.
func SignedDigest(digest common.Hash) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(signedMessagePrefix), digest.Bytes()))
}

// RecoverSigner recovers the signing address from a 65-byte signature over
// the prefixed digest. Recovery ids in the canonical {27, 28} range are
// normalized before recovery.
func RecoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, ErrInvalidSignatureLength
	}
	norm := make([]byte, SignatureLength)
	copy(norm, sig)
	if norm[64] >= 27 {
		norm[64] -= 27
	}
	if norm[64] > 1 {
		return common.Address{}, ErrInvalidRecoveryID
	}

	pub, err := crypto.Ecrecover(digest.Bytes(), norm)
	if err != nil {
		return common.Address{}, ErrInvalidSignature
	}
	// Uncompressed public key: 0x04 || X || Y. Address is the low 20 bytes
	// of keccak(X || Y).
	return common.BytesToAddress(crypto.Keccak256(pub[1:])[12:]), nil
}

// Verify checks that sig is a valid signature by account over the
// personal-sign prefixed form of the given intent digest. Any mismatch is an
// authorization failure.
func Verify(account common.Address, digest common.Hash, sig []byte) error {
	recovered, err := RecoverSigner(SignedDigest(digest), sig)
	if err != nil {
		return err
	}
	if recovered != account {
		return ErrSignerMismatch
	}
	return nil
}

func padWord(v *big.Int) []byte {
	if v == nil {
		return make([]byte, 32)
	}
	return common.LeftPadBytes(v.Bytes(), 32)
}

func padUint(v uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(v).Bytes(), 8)
}
