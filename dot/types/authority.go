// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"fmt"

	"github.com/ChainSafe/loom/lib/crypto/sr25519"
)

// AuthorityID is the raw sr25519 public key of a block production authority
type AuthorityID [sr25519.PublicKeyLength]byte

// Authority is a block production authority: a sr25519 public key and
// its voting weight in the authority set
type Authority struct {
	Key    *sr25519.PublicKey
	Weight uint64
}

// AuthorityRaw is the raw form of an Authority, with the public key
// as its 32 byte encoding
type AuthorityRaw struct {
	Key    AuthorityID
	Weight uint64
}

// ToRaw returns the raw form of the authority
func (a *Authority) ToRaw() AuthorityRaw {
	raw := AuthorityRaw{Weight: a.Weight}
	copy(raw.Key[:], a.Key.Encode())
	return raw
}

// FromRaw sets the authority from its raw form
func (a *Authority) FromRaw(raw AuthorityRaw) error {
	key, err := sr25519.NewPublicKey(raw.Key[:])
	if err != nil {
		return err
	}

	a.Key = key
	a.Weight = raw.Weight
	return nil
}

func (a AuthorityRaw) String() string {
	return fmt.Sprintf("[key=0x%x weight=%d]", a.Key, a.Weight)
}

// AuthoritiesToRaw converts a slice of Authority to a slice of AuthorityRaw
func AuthoritiesToRaw(auths []Authority) []AuthorityRaw {
	raw := make([]AuthorityRaw, len(auths))
	for i, auth := range auths {
		raw[i] = auth.ToRaw()
	}
	return raw
}

// AuthoritiesFromRaw converts a slice of AuthorityRaw to a slice of Authority
func AuthoritiesFromRaw(raw []AuthorityRaw) ([]Authority, error) {
	auths := make([]Authority, len(raw))
	for i, r := range raw {
		if err := auths[i].FromRaw(r); err != nil {
			return nil, fmt.Errorf("decoding authority %d: %w", i, err)
		}
	}
	return auths, nil
}
