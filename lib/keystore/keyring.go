// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package keystore

import (
	"reflect"

	"github.com/ChainSafe/loom/lib/common"
	"github.com/ChainSafe/loom/lib/crypto/sr25519"
)

// private keys generated using `subkey inspect //Name`
var sr25519PrivateKeys = []string{
	"0xe5be9a5092b81bca64be81d212e7f2f9eba183bb7a90954f7b76361f6edb5c0a",
	"0x398f0c28f98885e046333d4a41c19cee4c37368a9832c6502f6cfd182e2aef89",
	"0xbc1ede780f784bb6991a585e4f6e61522c14e1cae6ad0895fb57b9a205a8f938",
	"0x868020ae0687dda7d57565093a69090211449845a7e11453612800b663307246",
	"0x786ad0e2df456fe43dd1f91ebca22e235bc162e0bb8d53c633e8c85b2af68b7a",
	"0x42438b7883391c05512a938e36c2df0131e088b3756d6aa7a755fbff19d2f842",
}

// Sr25519Keyring is a deterministic test keyring with the well-known
// development accounts.
type Sr25519Keyring struct {
	KeyAlice   *sr25519.Keypair
	KeyBob     *sr25519.Keypair
	KeyCharlie *sr25519.Keypair
	KeyDave    *sr25519.Keypair
	KeyEve     *sr25519.Keypair
	KeyFerdie  *sr25519.Keypair

	Keys []*sr25519.Keypair
}

// NewSr25519Keyring returns an initialised sr25519 Keyring
func NewSr25519Keyring() (*Sr25519Keyring, error) {
	kr := new(Sr25519Keyring)
	v := reflect.ValueOf(kr).Elem()
	kr.Keys = make([]*sr25519.Keypair, v.NumField()-1)

	for i := 0; i < v.NumField()-1; i++ {
		seed, err := common.HexToBytes(sr25519PrivateKeys[i])
		if err != nil {
			return nil, err
		}

		kp, err := sr25519.NewKeypairFromSeed(seed)
		if err != nil {
			return nil, err
		}

		v.Field(i).Set(reflect.ValueOf(kp))
		kr.Keys[i] = kp
	}

	return kr, nil
}

// Alice returns Alice's keypair
func (kr *Sr25519Keyring) Alice() *sr25519.Keypair { return kr.KeyAlice }

// Bob returns Bob's keypair
func (kr *Sr25519Keyring) Bob() *sr25519.Keypair { return kr.KeyBob }

// Charlie returns Charlie's keypair
func (kr *Sr25519Keyring) Charlie() *sr25519.Keypair { return kr.KeyCharlie }

// Dave returns Dave's keypair
func (kr *Sr25519Keyring) Dave() *sr25519.Keypair { return kr.KeyDave }

// Eve returns Eve's keypair
func (kr *Sr25519Keyring) Eve() *sr25519.Keypair { return kr.KeyEve }

// Ferdie returns Ferdie's keypair
func (kr *Sr25519Keyring) Ferdie() *sr25519.Keypair { return kr.KeyFerdie }
