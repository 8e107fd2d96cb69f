// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package epochtree

import (
	"fmt"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/common"
)

// node is an epoch-change checkpoint in the arena: the block that first
// announced the epoch on its fork, and the derived epoch descriptor.
// Nodes hold only a back-reference to their parent block; the forward
// structure is recovered by ancestry walks, so pruning is a reachability
// sweep rather than graph surgery.
type node struct {
	hash       common.Hash
	number     uint64
	parentHash common.Hash
	epoch      *types.Epoch
}

func (n *node) string() string {
	return fmt.Sprintf("{block: %s (#%d), epoch: %d, startSlot: %d}",
		n.hash.Short(), n.number, n.epoch.Index, n.epoch.StartSlot)
}
