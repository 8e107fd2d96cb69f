// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"context"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/internal/log"
	"github.com/ChainSafe/loom/lib/common"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "babe"))

// BlockState is the chain storage interface the engine consumes
type BlockState interface {
	BestBlockHeader() (*types.Header, error)
	GetHeader(hash common.Hash) (*types.Header, error)
	GenesisHash() common.Hash
}

// EpochTracker resolves and records fork-aware epoch descriptors
type EpochTracker interface {
	EpochFor(hash common.Hash) (*types.Epoch, error)
	ImportEpochChange(hash common.Hash, number uint64, parentHash common.Hash, epoch *types.Epoch) error
	Prune(finalized common.Hash) error
}

// BlockBuilder assembles a full block on top of the parent, carrying the
// given digest items in its header. It covers the runtime state
// transition, which may be slow; the context cancels an abandoned build.
type BlockBuilder interface {
	BuildBlock(ctx context.Context, parent *types.Header, slot Slot, digest types.Digest) (*types.Block, error)
}

// BlockImportHandler accepts locally authored, sealed blocks into the
// import pipeline
type BlockImportHandler interface {
	HandleBlockProduced(block *types.Block) error
}

// EquivocationReporter consumes equivocation proofs for onward
// runtime submission
type EquivocationReporter interface {
	ReportEquivocation(proof *types.BabeEquivocationProof) error
}
