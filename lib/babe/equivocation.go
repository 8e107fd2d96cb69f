// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"sync"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/common"
)

// DefaultEquivocationHorizon is the default number of slots an
// observation is kept before eviction. Slots finalised further back than
// this cannot be usefully reported.
const DefaultEquivocationHorizon uint64 = 2048

type observationKey struct {
	authority types.AuthorityID
	slot      uint64
}

type observation struct {
	firstHash   common.Hash
	firstHeader *types.Header
	// hashes already paired with firstHash in an emitted proof, so a
	// redundant re-observation never re-emits
	reported map[common.Hash]struct{}
}

// EquivocationDetector watches verified headers for authorities claiming
// the same slot twice on distinct blocks. Observations are bounded by a
// slot-distance horizon.
type EquivocationDetector struct {
	mutex       sync.Mutex
	horizon     uint64
	highestSlot uint64
	seen        map[observationKey]*observation
}

// NewEquivocationDetector returns a detector keeping observations for the
// given number of slots. A zero horizon uses DefaultEquivocationHorizon.
func NewEquivocationDetector(horizon uint64) *EquivocationDetector {
	if horizon == 0 {
		horizon = DefaultEquivocationHorizon
	}

	return &EquivocationDetector{
		horizon: horizon,
		seen:    make(map[observationKey]*observation),
	}
}

// Observe records that the authority produced the given header for the
// slot. If a distinct header was already recorded for the same authority
// and slot, an equivocation proof referencing both headers in
// first-seen, second-seen order is returned exactly once per distinct
// header pair; otherwise nil.
func (d *EquivocationDetector) Observe(authority types.AuthorityID, slot uint64,
	header *types.Header) *types.BabeEquivocationProof {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.evict(slot)

	key := observationKey{authority: authority, slot: slot}
	hash := header.Hash()

	obs, has := d.seen[key]
	if !has {
		d.seen[key] = &observation{
			firstHash:   hash,
			firstHeader: header.DeepCopy(),
			reported:    make(map[common.Hash]struct{}),
		}
		return nil
	}

	if hash == obs.firstHash {
		// redundant gossip of the block already recorded
		return nil
	}

	if _, reported := obs.reported[hash]; reported {
		return nil
	}
	obs.reported[hash] = struct{}{}

	logger.Warnf("equivocation detected: authority 0x%x claimed slot %d twice, first %s, second %s",
		authority, slot, obs.firstHash.Short(), hash.Short())

	return &types.BabeEquivocationProof{
		Offender:     authority,
		Slot:         slot,
		FirstHeader:  *obs.firstHeader.DeepCopy(),
		SecondHeader: *header.DeepCopy(),
	}
}

// evict drops observations older than the horizon below the highest slot
// seen. The caller must hold the mutex.
func (d *EquivocationDetector) evict(slot uint64) {
	if slot <= d.highestSlot {
		return
	}
	d.highestSlot = slot

	if d.highestSlot < d.horizon {
		return
	}

	floor := d.highestSlot - d.horizon
	for key := range d.seen {
		if key.slot < floor {
			delete(d.seen, key)
		}
	}
}

// Len returns the number of live observations
func (d *EquivocationDetector) Len() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.seen)
}
