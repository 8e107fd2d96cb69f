// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"testing"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/common"

	"github.com/stretchr/testify/require"
)

// testBlock returns a block on top of the parent; the salt distinguishes
// siblings
func testBlock(parent *types.Header, salt byte) *types.Block {
	header := types.Header{
		ParentHash: parent.Hash(),
		Number:     parent.Number + 1,
		StateRoot:  common.Hash{salt},
		Digest:     types.Digest{},
	}
	return &types.Block{
		Header: header,
		Body:   types.Body{types.Extrinsic{salt}},
	}
}

func newTestBlockState(t *testing.T) (*BlockState, *types.Header) {
	t.Helper()

	genesis := types.NewEmptyHeader()
	bs, err := NewBlockStateFromGenesis(NewInMemoryDB(t), genesis)
	require.NoError(t, err)
	return bs, genesis
}

func TestNewBlockStateFromGenesis(t *testing.T) {
	bs, genesis := newTestBlockState(t)

	require.Equal(t, genesis.Hash(), bs.GenesisHash())
	require.Equal(t, genesis.Hash(), bs.BestBlockHash())
	require.Equal(t, genesis.Hash(), bs.FinalisedHash())
	require.True(t, bs.HasHeader(genesis.Hash()))

	weight, err := bs.BlockWeight(genesis.Hash())
	require.NoError(t, err)
	require.Equal(t, uint32(0), weight)

	header, err := bs.BestBlockHeader()
	require.NoError(t, err)
	require.Equal(t, genesis.Hash(), header.Hash())
}

func TestGetHeader_NotFound(t *testing.T) {
	bs, _ := newTestBlockState(t)

	_, err := bs.GetHeader(common.Hash{0xde, 0xad})
	require.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestAddBlock_ParentNotFound(t *testing.T) {
	bs, _ := newTestBlockState(t)

	orphanParent := types.NewEmptyHeader()
	orphanParent.Number = 10

	err := bs.AddBlock(testBlock(orphanParent, 1), 2)
	require.ErrorIs(t, err, ErrParentNotFound)
}

func TestAddBlock_BestChainByWeight(t *testing.T) {
	bs, genesis := newTestBlockState(t)

	// a primary block becomes the best
	blockA := testBlock(genesis, 0xa)
	require.NoError(t, bs.AddBlock(blockA, 2))
	require.Equal(t, blockA.Header.Hash(), bs.BestBlockHash())

	// a lighter secondary sibling does not displace it
	blockB := testBlock(genesis, 0xb)
	require.NoError(t, bs.AddBlock(blockB, 1))
	require.Equal(t, blockA.Header.Hash(), bs.BestBlockHash())

	// but the sibling's fork overtakes once it accumulates more weight
	blockB2 := testBlock(&blockB.Header, 0xb)
	require.NoError(t, bs.AddBlock(blockB2, 2))
	require.Equal(t, blockB2.Header.Hash(), bs.BestBlockHash())

	weight, err := bs.BlockWeight(blockB2.Header.Hash())
	require.NoError(t, err)
	require.Equal(t, uint32(3), weight)
}

func TestAddBlock_BestChainTieBreak(t *testing.T) {
	bs, genesis := newTestBlockState(t)

	// two chains of equal weight: 2 and 1+1
	blockA := testBlock(genesis, 0xa)
	require.NoError(t, bs.AddBlock(blockA, 2))

	blockB := testBlock(genesis, 0xb)
	require.NoError(t, bs.AddBlock(blockB, 1))
	blockB2 := testBlock(&blockB.Header, 0xb)
	require.NoError(t, bs.AddBlock(blockB2, 1))

	// the longer chain wins the tie
	require.Equal(t, blockB2.Header.Hash(), bs.BestBlockHash())

	// equal weight and equal length keeps the incumbent
	blockC := testBlock(genesis, 0xc)
	require.NoError(t, bs.AddBlock(blockC, 1))
	blockC2 := testBlock(&blockC.Header, 0xc)
	require.NoError(t, bs.AddBlock(blockC2, 1))
	require.Equal(t, blockB2.Header.Hash(), bs.BestBlockHash())
}

func TestGetBlockBody(t *testing.T) {
	bs, genesis := newTestBlockState(t)

	block := testBlock(genesis, 0xa)
	block.Body = types.Body{
		types.Extrinsic{1, 2, 3},
		types.Extrinsic{4, 5},
	}
	require.NoError(t, bs.AddBlock(block, 2))

	body, err := bs.GetBlockBody(block.Header.Hash())
	require.NoError(t, err)
	require.Equal(t, block.Body, body)

	_, err = bs.GetBlockBody(common.Hash{0xde, 0xad})
	require.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestNewBlockState_Reload(t *testing.T) {
	db := NewInMemoryDB(t)
	genesis := types.NewEmptyHeader()

	bs, err := NewBlockStateFromGenesis(db, genesis)
	require.NoError(t, err)

	blockA := testBlock(genesis, 0xa)
	require.NoError(t, bs.AddBlock(blockA, 2))
	blockA2 := testBlock(&blockA.Header, 0xa)
	require.NoError(t, bs.AddBlock(blockA2, 2))

	reloaded, err := NewBlockState(db)
	require.NoError(t, err)
	require.Equal(t, genesis.Hash(), reloaded.GenesisHash())
	require.Equal(t, blockA2.Header.Hash(), reloaded.BestBlockHash())
	require.Equal(t, genesis.Hash(), reloaded.FinalisedHash())

	weight, err := reloaded.BlockWeight(blockA2.Header.Hash())
	require.NoError(t, err)
	require.Equal(t, uint32(4), weight)
}

func TestSetFinalisedHash_PrunesForks(t *testing.T) {
	bs, genesis := newTestBlockState(t)

	// chain A: genesis -> a1 -> a2, with a dead fork genesis -> b1 -> b2
	a1 := testBlock(genesis, 0xa)
	require.NoError(t, bs.AddBlock(a1, 2))
	a2 := testBlock(&a1.Header, 0xa)
	require.NoError(t, bs.AddBlock(a2, 2))

	b1 := testBlock(genesis, 0xb)
	require.NoError(t, bs.AddBlock(b1, 1))
	b2 := testBlock(&b1.Header, 0xb)
	require.NoError(t, bs.AddBlock(b2, 1))

	err := bs.SetFinalisedHash(a1.Header.Hash())
	require.NoError(t, err)
	require.Equal(t, a1.Header.Hash(), bs.FinalisedHash())

	// the finalised chain and its descendants survive
	require.True(t, bs.HasHeader(genesis.Hash()))
	require.True(t, bs.HasHeader(a1.Header.Hash()))
	require.True(t, bs.HasHeader(a2.Header.Hash()))

	// the dead fork is gone entirely
	for _, hash := range []common.Hash{b1.Header.Hash(), b2.Header.Hash()} {
		require.False(t, bs.HasHeader(hash))
		_, err = bs.GetHeader(hash)
		require.ErrorIs(t, err, ErrHeaderNotFound)
		_, err = bs.GetBlockBody(hash)
		require.ErrorIs(t, err, ErrHeaderNotFound)
		_, err = bs.BlockWeight(hash)
		require.ErrorIs(t, err, ErrHeaderNotFound)
	}
}
