// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package keystore holds the in-memory key material the node is told it
// owns. The consensus engine only calls into it to obtain signatures and
// VRF outputs for those keys.
package keystore

import (
	"errors"
	"sync"

	"github.com/ChainSafe/loom/lib/crypto"
	"github.com/ChainSafe/loom/lib/crypto/sr25519"
)

// ErrKeyNotAvailable is returned when the keystore does not hold the
// requested key. For a non-authority node this is the normal case, not
// a failure.
var ErrKeyNotAvailable = errors.New("key not available in keystore")

// Name represents a defined keystore name
type Name string

// BabeName is the name of the block production keystore
var BabeName Name = "babe"

// Keystore is an in-memory store of sr25519 keypairs
type Keystore struct {
	name Name

	mutex sync.RWMutex
	keys  map[crypto.Address]*sr25519.Keypair
}

// NewBasicKeystore creates a Keystore with the given name
func NewBasicKeystore(name Name) *Keystore {
	return &Keystore{
		name: name,
		keys: make(map[crypto.Address]*sr25519.Keypair),
	}
}

// Name returns the keystore name
func (ks *Keystore) Name() Name {
	return ks.name
}

// Insert adds a keypair to the keystore
func (ks *Keystore) Insert(kp *sr25519.Keypair) {
	ks.mutex.Lock()
	defer ks.mutex.Unlock()

	addr := kp.Public().Address()
	ks.keys[addr] = kp
}

// GetKeypair returns the keypair for the given public key,
// or ErrKeyNotAvailable if the keystore does not hold it
func (ks *Keystore) GetKeypair(pub crypto.PublicKey) (*sr25519.Keypair, error) {
	ks.mutex.RLock()
	defer ks.mutex.RUnlock()

	kp, has := ks.keys[pub.Address()]
	if !has {
		return nil, ErrKeyNotAvailable
	}
	return kp, nil
}

// Keypairs returns all keypairs in the keystore
func (ks *Keystore) Keypairs() []*sr25519.Keypair {
	ks.mutex.RLock()
	defer ks.mutex.RUnlock()

	kps := make([]*sr25519.Keypair, 0, len(ks.keys))
	for _, kp := range ks.keys {
		kps = append(kps, kp)
	}
	return kps
}

// PublicKeys returns all public keys in the keystore
func (ks *Keystore) PublicKeys() []crypto.PublicKey {
	ks.mutex.RLock()
	defer ks.mutex.RUnlock()

	pubs := make([]crypto.PublicKey, 0, len(ks.keys))
	for _, kp := range ks.keys {
		pubs = append(pubs, kp.Public())
	}
	return pubs
}

// Size returns the number of keys in the keystore
func (ks *Keystore) Size() int {
	ks.mutex.RLock()
	defer ks.mutex.RUnlock()
	return len(ks.keys)
}
