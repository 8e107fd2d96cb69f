// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"errors"
	"sync"
	"testing"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/common"
	"github.com/ChainSafe/loom/lib/crypto/sr25519"
	"github.com/ChainSafe/loom/lib/epochtree"
	"github.com/ChainSafe/loom/lib/keystore"

	"github.com/stretchr/testify/require"
)

// testBlockState is an in-memory BlockState for tests, also serving as
// the epoch tree's header getter
type testBlockState struct {
	mutex       sync.RWMutex
	headers     map[common.Hash]*types.Header
	bestHash    common.Hash
	genesisHash common.Hash
}

func newTestBlockState(t *testing.T) (*testBlockState, *types.Header) {
	t.Helper()

	genesis := types.NewEmptyHeader()
	bs := &testBlockState{
		headers:     make(map[common.Hash]*types.Header),
		bestHash:    genesis.Hash(),
		genesisHash: genesis.Hash(),
	}
	bs.headers[genesis.Hash()] = genesis
	return bs, genesis
}

func (bs *testBlockState) BestBlockHeader() (*types.Header, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()
	return bs.headers[bs.bestHash], nil
}

func (bs *testBlockState) GetHeader(hash common.Hash) (*types.Header, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	header, has := bs.headers[hash]
	if !has {
		return nil, errors.New("header not found")
	}
	return header, nil
}

func (bs *testBlockState) Header(hash common.Hash) (*types.Header, error) {
	return bs.GetHeader(hash)
}

func (bs *testBlockState) GenesisHash() common.Hash {
	return bs.genesisHash
}

func (bs *testBlockState) addHeader(header *types.Header) {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()
	bs.headers[header.Hash()] = header
	bs.bestHash = header.Hash()
}

func (bs *testBlockState) removeHeader(hash common.Hash) {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()
	delete(bs.headers, hash)
}

// newTestEpoch returns an epoch descriptor over the keyring authorities
// with a maximum primary threshold (C1/C2 = 1), so every lottery attempt
// wins
func newTestEpoch(t *testing.T, keypairs []*sr25519.Keypair, index, startSlot, duration uint64) *types.Epoch {
	t.Helper()

	authorities := make([]types.AuthorityRaw, len(keypairs))
	for i, kp := range keypairs {
		authorities[i] = types.AuthorityRaw{
			Key:    kp.Public().(*sr25519.PublicKey).AsBytes(),
			Weight: 1,
		}
	}

	return &types.Epoch{
		Index:       index,
		StartSlot:   startSlot,
		Duration:    duration,
		Authorities: authorities,
		Randomness:  Randomness{1},
		Config: types.EpochConfiguration{
			C1:           1,
			C2:           1,
			AllowedSlots: types.PrimaryAndSecondaryPlainSlots,
		},
	}
}

func newTestKeyring(t *testing.T) *keystore.Sr25519Keyring {
	t.Helper()

	keyring, err := keystore.NewSr25519Keyring()
	require.NoError(t, err)
	return keyring
}

// buildTestBlock authors a sealed block claiming the slot with a primary
// claim, appending any extra digest items before the seal
func buildTestBlock(t *testing.T, keypair *sr25519.Keypair, authorityIndex uint32,
	parent *types.Header, slot uint64, epoch *types.Epoch,
	extraDigestItems ...types.DigestItem) *types.Block {
	t.Helper()

	ed, err := resolveEpochData(epoch)
	require.NoError(t, err)

	vrfOutput, err := claimPrimarySlot(ed.randomness, slot, ed.index, ed.threshold,
		keypair)
	require.NoError(t, err)

	preDigest, err := types.NewBabePrimaryPreDigest(authorityIndex, slot,
		vrfOutput.output, vrfOutput.proof).ToPreRuntimeDigest()
	require.NoError(t, err)

	digest := types.Digest{preDigest}
	digest = append(digest, extraDigestItems...)

	header := &types.Header{
		ParentHash: parent.Hash(),
		Number:     parent.Number + 1,
		Digest:     digest,
	}

	err = sealBlock(header, keypair)
	require.NoError(t, err)

	return &types.Block{
		Header: *header,
		Body:   types.Body{},
	}
}

// newTestVerificationManager wires a manager over a fresh chain with the
// given genesis epoch
func newTestVerificationManager(t *testing.T, genesisEpoch *types.Epoch,
	reporter EquivocationReporter) (*VerificationManager, *testBlockState, *epochtree.EpochTree) {
	t.Helper()

	blockState, genesis := newTestBlockState(t)
	tree := epochtree.NewEpochTree(genesis.Hash(), 0, genesisEpoch, blockState)

	manager, err := NewVerificationManager(blockState, tree, NewEquivocationDetector(0), reporter)
	require.NoError(t, err)
	return manager, blockState, tree
}

// proofCollector records reported equivocation proofs
type proofCollector struct {
	mutex  sync.Mutex
	proofs []*types.BabeEquivocationProof
}

func (c *proofCollector) ReportEquivocation(proof *types.BabeEquivocationProof) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.proofs = append(c.proofs, proof)
	return nil
}
