// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package sr25519

import (
	"testing"

	bip39 "github.com/cosmos/go-bip39"
	"github.com/stretchr/testify/require"
)

func TestNewKeypairFromMnemonic(t *testing.T) {
	entropy, err := bip39.NewEntropy(128)
	require.NoError(t, err)
	mnemonic, err := bip39.NewMnemonic(entropy)
	require.NoError(t, err)

	kp, err := NewKeypairFromMnemonic(mnemonic, "")
	require.NoError(t, err)

	// the derivation is deterministic
	again, err := NewKeypairFromMnemonic(mnemonic, "")
	require.NoError(t, err)
	require.Equal(t, kp.public.AsBytes(), again.public.AsBytes())

	// the password salts the derived seed
	salted, err := NewKeypairFromMnemonic(mnemonic, "hunter2")
	require.NoError(t, err)
	require.NotEqual(t, kp.public.AsBytes(), salted.public.AsBytes())

	msg := []byte("helloworld")
	sig, err := kp.Sign(msg)
	require.NoError(t, err)

	ok, err := kp.public.Verify(msg, sig)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNewKeypairFromMnemonic_Invalid(t *testing.T) {
	_, err := NewKeypairFromMnemonic("invalid mnemonic words go here", "")
	require.Error(t, err)
}
