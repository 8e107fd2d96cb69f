// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package crypto

import (
	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

// KeyType str
type KeyType = string

// Sr25519Type sr25519
const Sr25519Type KeyType = "sr25519"

// Keypair interface
type Keypair interface {
	Sign(msg []byte) ([]byte, error)
	Public() PublicKey
	Private() PrivateKey
}

// PublicKey interface
type PublicKey interface {
	Verify(msg, sig []byte) (bool, error)
	Encode() []byte
	Decode([]byte) error
	Address() Address
	Hex() string
}

// PrivateKey interface
type PrivateKey interface {
	Sign(msg []byte) ([]byte, error)
	Public() (PublicKey, error)
	Encode() []byte
	Decode([]byte) error
}

// Address represents a base58 encoded public key
type Address string

// ss58Prefix is the prefix hashed into the address checksum
var ss58Prefix = []byte("SS58PRE")

// PublicKeyToAddress returns an ss58 address given a PublicKey
// see: https://github.com/paritytech/substrate/wiki/External-Address-Format-(SS58)
func PublicKeyToAddress(pub PublicKey) Address {
	enc := append([]byte{42}, pub.Encode()...)
	hasher, err := blake2b.New(64, nil)
	if err != nil {
		return ""
	}
	_, err = hasher.Write(append(ss58Prefix, enc...))
	if err != nil {
		return ""
	}
	checksum := hasher.Sum(nil)
	return Address(base58.Encode(append(enc, checksum[:2]...)))
}
