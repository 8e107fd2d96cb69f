// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"context"
	"testing"
	"time"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/keystore"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func TestHandleSlot(t *testing.T) {
	ctrl := gomock.NewController(t)
	keyring := newTestKeyring(t)
	epoch := newTestEpoch(t, keyring.Keys, 0, 0, 100)
	genesis := types.NewEmptyHeader()

	blockState := NewMockBlockState(ctrl)
	blockState.EXPECT().BestBlockHeader().Return(genesis, nil)

	tracker := NewMockEpochTracker(ctrl)
	tracker.EXPECT().EpochFor(genesis.Hash()).Return(epoch, nil)

	builder := NewMockBlockBuilder(ctrl)
	builder.EXPECT().
		BuildBlock(gomock.Any(), genesis, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, parent *types.Header, _ Slot,
			digest types.Digest) (*types.Block, error) {
			header := types.Header{
				ParentHash: parent.Hash(),
				Number:     parent.Number + 1,
				Digest:     digest,
			}
			return &types.Block{Header: header, Body: types.Body{}}, nil
		})

	imported := make(chan *types.Block, 1)
	importHandler := NewMockBlockImportHandler(ctrl)
	importHandler.EXPECT().
		HandleBlockProduced(gomock.Any()).
		DoAndReturn(func(block *types.Block) error {
			imported <- block
			return nil
		})

	ks := keystore.NewBasicKeystore(keystore.BabeName)
	ks.Insert(keyring.Alice())

	service, err := NewService(&ServiceConfig{
		BlockState:         blockState,
		EpochTracker:       tracker,
		BlockBuilder:       builder,
		BlockImportHandler: importHandler,
		Keystore:           ks,
		SlotDuration:       time.Second,
		Authority:          true,
	})
	require.NoError(t, err)

	err = service.handleSlot(*NewSlot(time.Now(), time.Second, 5))
	require.NoError(t, err)

	var block *types.Block
	select {
	case block = <-imported:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for authored block")
	}

	// the dispatched block is sealed: pre-runtime digest first, seal last
	require.Len(t, block.Header.Digest, 2)
	_, ok := block.Header.Digest[0].(*types.PreRuntimeDigest)
	require.True(t, ok)
	_, ok = block.Header.Digest[1].(*types.SealDigest)
	require.True(t, ok)

	slot, err := headerSlot(&block.Header)
	require.NoError(t, err)
	require.Equal(t, uint64(5), slot)

	require.NoError(t, service.Stop())
}

func TestHandleSlot_Lagging(t *testing.T) {
	ctrl := gomock.NewController(t)
	keyring := newTestKeyring(t)
	epoch := newTestEpoch(t, keyring.Keys, 0, 0, 100)

	genesis := types.NewEmptyHeader()
	best := buildTestBlock(t, keyring.Alice(), 0, genesis, 10, epoch)

	blockState := NewMockBlockState(ctrl)
	blockState.EXPECT().BestBlockHeader().Return(&best.Header, nil).Times(2)

	ks := keystore.NewBasicKeystore(keystore.BabeName)
	ks.Insert(keyring.Alice())

	service, err := NewService(&ServiceConfig{
		BlockState:         blockState,
		EpochTracker:       NewMockEpochTracker(ctrl),
		BlockBuilder:       NewMockBlockBuilder(ctrl),
		BlockImportHandler: NewMockBlockImportHandler(ctrl),
		Keystore:           ks,
		SlotDuration:       time.Second,
		Authority:          true,
	})
	require.NoError(t, err)

	// slots at or behind the best block's slot are never authored
	err = service.handleSlot(*NewSlot(time.Now(), time.Second, 10))
	require.ErrorIs(t, err, errLaggingSlot)
	err = service.handleSlot(*NewSlot(time.Now(), time.Second, 9))
	require.ErrorIs(t, err, errLaggingSlot)
}
