// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderSlot(t *testing.T) {
	keyring := newTestKeyring(t)
	blockState, genesis := newTestBlockState(t)
	epoch := newTestEpoch(t, keyring.Keys, 0, 1, 100)

	block := buildTestBlock(t, keyring.Alice(), 0, genesis, 7, epoch)
	blockState.addHeader(&block.Header)

	slot, err := headerSlot(&block.Header)
	require.NoError(t, err)
	require.Equal(t, uint64(7), slot)

	_, err = headerSlot(genesis)
	require.ErrorIs(t, err, errGenesisHeader)
}

func TestDeriveNextEpochRandomness(t *testing.T) {
	keyring := newTestKeyring(t)
	blockState, genesis := newTestBlockState(t)
	epoch := newTestEpoch(t, keyring.Keys, 0, 1, 100)

	// with no blocks the derivation covers randomness and index only
	empty, err := deriveNextEpochRandomness(blockState, genesis, epoch)
	require.NoError(t, err)
	require.NotEqual(t, epoch.Randomness, empty)

	// block VRF outputs feed the derivation
	parent := genesis
	for slot := uint64(1); slot <= 3; slot++ {
		block := buildTestBlock(t, keyring.Alice(), 0, parent, slot, epoch)
		blockState.addHeader(&block.Header)
		parent = &block.Header
	}

	withBlocks, err := deriveNextEpochRandomness(blockState, parent, epoch)
	require.NoError(t, err)
	require.NotEqual(t, empty, withBlocks)

	// deterministic over the same fork
	again, err := deriveNextEpochRandomness(blockState, parent, epoch)
	require.NoError(t, err)
	require.Equal(t, withBlocks, again)
}

func TestNextEpoch(t *testing.T) {
	keyring := newTestKeyring(t)
	blockState, genesis := newTestBlockState(t)
	epoch := newTestEpoch(t, keyring.Keys, 0, 1, 100)

	next, err := nextEpoch(blockState, genesis, epoch)
	require.NoError(t, err)
	require.Equal(t, epoch.Index+1, next.Index)
	require.Equal(t, epoch.EndSlot(), next.StartSlot)
	require.Equal(t, epoch.Authorities, next.Authorities)
	require.NotEqual(t, epoch.Randomness, next.Randomness)
}

func TestHeaderNextEpochDescriptor(t *testing.T) {
	keyring := newTestKeyring(t)
	blockState, genesis := newTestBlockState(t)
	epoch := newTestEpoch(t, keyring.Keys, 0, 1, 100)

	next, err := nextEpoch(blockState, genesis, epoch)
	require.NoError(t, err)

	consensusDigest, err := nextEpochDescriptorDigest(next)
	require.NoError(t, err)

	block := buildTestBlock(t, keyring.Alice(), 0, genesis, 101, next, consensusDigest)

	descriptor, err := headerNextEpochDescriptor(&block.Header)
	require.NoError(t, err)
	require.NotNil(t, descriptor)
	require.Equal(t, next.Randomness, descriptor.Randomness)
	require.Equal(t, next.Authorities, descriptor.Authorities)

	// a block without the announcement yields nil
	plain := buildTestBlock(t, keyring.Alice(), 0, genesis, 5, epoch)
	descriptor, err = headerNextEpochDescriptor(&plain.Header)
	require.NoError(t, err)
	require.Nil(t, descriptor)
}
