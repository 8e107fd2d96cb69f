// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package epochtree tracks, across all live forks simultaneously, which
// epoch descriptor applies to which block. It holds one checkpoint per
// fork per epoch boundary, keyed by the hash of the block that first
// announced the epoch on that fork. Sibling forks may disagree on the
// descriptor for the same epoch index until one of them is pruned.
package epochtree

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/common"

	"github.com/disiqueira/gotree"
)

// HeaderGetter supplies headers for ancestry walks. It is expected to
// miss for blocks the chain storage has discarded, which is how queries
// about pruned forks resolve to ErrUnknownBlock.
type HeaderGetter interface {
	Header(hash common.Hash) (*types.Header, error)
}

// EpochTree is a fork-aware arena of epoch-change checkpoints.
// Reads are concurrent; imports and pruning take exclusive access.
type EpochTree struct {
	mutex   sync.RWMutex
	root    common.Hash
	nodes   map[common.Hash]*node
	headers HeaderGetter
}

// NewEpochTree creates an EpochTree rooted at the given block, which is
// normally genesis carrying the genesis epoch descriptor.
func NewEpochTree(rootHash common.Hash, rootNumber uint64,
	rootEpoch *types.Epoch, headers HeaderGetter) *EpochTree {
	root := &node{
		hash:   rootHash,
		number: rootNumber,
		epoch:  rootEpoch,
	}

	return &EpochTree{
		root:    rootHash,
		nodes:   map[common.Hash]*node{rootHash: root},
		headers: headers,
	}
}

// Root returns the hash of the current root checkpoint
func (et *EpochTree) Root() common.Hash {
	et.mutex.RLock()
	defer et.mutex.RUnlock()
	return et.root
}

// Len returns the number of checkpoints currently tracked
func (et *EpochTree) Len() int {
	et.mutex.RLock()
	defer et.mutex.RUnlock()
	return len(et.nodes)
}

// EpochFor returns the epoch descriptor in force at the given block, by
// walking from the block towards the root until the nearest ancestor
// checkpoint. A block first announcing an epoch belongs to that epoch.
func (et *EpochTree) EpochFor(hash common.Hash) (*types.Epoch, error) {
	et.mutex.RLock()
	defer et.mutex.RUnlock()

	n, err := et.nearestCheckpoint(hash)
	if err != nil {
		return nil, err
	}

	return n.epoch.DeepCopy(), nil
}

// ImportEpochChange inserts a checkpoint for the block announcing an
// epoch on its fork. The parent must have a tracked ancestor checkpoint,
// and the epoch index must be the parent's index or its direct successor.
func (et *EpochTree) ImportEpochChange(hash common.Hash, number uint64,
	parentHash common.Hash, epoch *types.Epoch) error {
	et.mutex.Lock()
	defer et.mutex.Unlock()

	if existing, has := et.nodes[hash]; has {
		if existing.epoch.Index == epoch.Index &&
			existing.epoch.Randomness == epoch.Randomness {
			// redundant import of the checkpoint already tracked
			return nil
		}
		return fmt.Errorf("%w: %s", ErrCheckpointExists, hash)
	}

	parent, err := et.nearestCheckpoint(parentHash)
	if err != nil {
		return fmt.Errorf("%w: parent %s", ErrInvalidParent, parentHash)
	}

	switch epoch.Index {
	case parent.epoch.Index:
		// re-description of the live epoch on this chain, eg. a config
		// change; it must agree on randomness and authorities
		if epoch.Randomness != parent.epoch.Randomness ||
			!authoritiesEqual(epoch.Authorities, parent.epoch.Authorities) {
			return fmt.Errorf("%w: epoch %d at %s", ErrEpochConflict, epoch.Index, hash)
		}
	case parent.epoch.Index + 1:
	default:
		return fmt.Errorf("%w: parent epoch %d, got %d",
			ErrStaleEpoch, parent.epoch.Index, epoch.Index)
	}

	et.nodes[hash] = &node{
		hash:       hash,
		number:     number,
		parentHash: parentHash,
		epoch:      epoch.DeepCopy(),
	}
	return nil
}

// Prune re-roots the tree at the newest checkpoint covering the
// finalized block, discarding checkpoints on forks that do not descend
// from it and epoch data older than the retained root. This bounds the
// arena to the live forks and the epochs still in flight.
func (et *EpochTree) Prune(finalized common.Hash) error {
	et.mutex.Lock()
	defer et.mutex.Unlock()

	newRoot, err := et.nearestCheckpoint(finalized)
	if err != nil {
		return err
	}

	finalizedNumber := newRoot.number
	if finalized != newRoot.hash {
		header, err := et.headers.Header(finalized)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownBlock, finalized)
		}
		finalizedNumber = header.Number
	}

	retained := map[common.Hash]*node{newRoot.hash: newRoot}
	for hash, n := range et.nodes {
		if hash == newRoot.hash {
			continue
		}

		ok, err := et.isDescendantOf(finalized, finalizedNumber, n)
		if err != nil {
			return err
		}
		if ok {
			retained[hash] = n
		}
	}

	et.root = newRoot.hash
	et.nodes = retained
	return nil
}

// nearestCheckpoint walks from the given block towards the root and
// returns the first checkpoint found. The caller must hold the mutex.
func (et *EpochTree) nearestCheckpoint(hash common.Hash) (*node, error) {
	rootNumber := et.nodes[et.root].number

	cur := hash
	for {
		if n, has := et.nodes[cur]; has {
			return n, nil
		}

		header, err := et.headers.Header(cur)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, cur)
		}

		if header.Number <= rootNumber {
			// walked past the retained root without a match:
			// the block is on a pruned fork or older than the tree
			return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, hash)
		}

		cur = header.ParentHash
	}
}

// isDescendantOf reports whether the checkpoint descends from the given
// ancestor block. The caller must hold the mutex.
func (et *EpochTree) isDescendantOf(ancestor common.Hash, ancestorNumber uint64,
	n *node) (bool, error) {
	if n.hash == ancestor {
		return true, nil
	}
	if n.number <= ancestorNumber {
		return false, nil
	}

	cur := n.parentHash
	for {
		if cur == ancestor {
			return true, nil
		}

		header, err := et.headers.Header(cur)
		if err != nil {
			// the fork's headers are gone; it cannot descend
			// from the finalized chain
			return false, nil //nolint:nilerr
		}

		if header.Number <= ancestorNumber {
			return false, nil
		}

		cur = header.ParentHash
	}
}

// String utilises github.com/disiqueira/gotree to create a printable tree
func (et *EpochTree) String() string {
	et.mutex.RLock()
	defer et.mutex.RUnlock()

	children := make(map[common.Hash][]*node)
	for hash, n := range et.nodes {
		if hash == et.root {
			continue
		}
		parent, err := et.nearestCheckpoint(n.parentHash)
		if err != nil {
			continue
		}
		children[parent.hash] = append(children[parent.hash], n)
	}

	root := et.nodes[et.root]
	tree := gotree.New(root.string())
	et.addBranches(tree, root, children)

	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "%s\n", tree.Print())
	return buf.String()
}

func (et *EpochTree) addBranches(tree gotree.Tree, n *node, children map[common.Hash][]*node) {
	for _, child := range children[n.hash] {
		sub := tree.Add(child.string())
		et.addBranches(sub, child, children)
	}
}

func authoritiesEqual(a, b []types.AuthorityRaw) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
