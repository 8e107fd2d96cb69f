// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package epochtree

import "errors"

var (
	// ErrUnknownBlock is returned when querying the epoch of a block
	// that is not known to the retained tree or the header store
	ErrUnknownBlock = errors.New("block is not known to the epoch tree")

	// ErrInvalidParent is returned when importing a checkpoint whose
	// parent has no tracked ancestor checkpoint
	ErrInvalidParent = errors.New("parent is not tracked by the epoch tree")

	// ErrStaleEpoch is returned when an imported epoch index is neither
	// the parent checkpoint's index nor its direct successor
	ErrStaleEpoch = errors.New("epoch index is not the parent's index or its successor")

	// ErrCheckpointExists is returned when re-importing a different
	// checkpoint for a block hash already tracked
	ErrCheckpointExists = errors.New("checkpoint already exists for block")

	// ErrEpochConflict is returned when a checkpoint disagrees on
	// randomness or authorities with the same epoch index already
	// tracked on the same chain
	ErrEpochConflict = errors.New("conflicting descriptor for epoch on the same chain")
)
