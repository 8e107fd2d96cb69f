// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/common"
)

// errGenesisHeader signals the ancestry walk reached the genesis block
var errGenesisHeader = errors.New("header is the genesis header")

// headerSlot returns the slot claimed by a header's pre-runtime digest
func headerSlot(header *types.Header) (uint64, error) {
	preDigest, err := headerPreDigest(header)
	if err != nil {
		return 0, err
	}

	_, slot := preDigest.AuthorityIndexAndSlot()
	return slot, nil
}

// headerPreDigest decodes the BABE pre-digest from a header's first
// digest item
func headerPreDigest(header *types.Header) (types.BabePreDigest, error) {
	if header.Number == 0 {
		return nil, errGenesisHeader
	}

	if len(header.Digest) == 0 {
		return nil, errMissingDigestItems
	}

	preDigestItem, ok := header.Digest[0].(*types.PreRuntimeDigest)
	if !ok {
		return nil, errNoPreRuntimeDigest
	}

	return types.DecodeBabePreDigest(preDigestItem.Data)
}

// headerVRFOutput returns the VRF output carried by a header's claim, or
// false for secondary plain claims which carry none
func headerVRFOutput(header *types.Header) ([types.RandomnessLength]byte, bool, error) {
	preDigest, err := headerPreDigest(header)
	if err != nil {
		return [types.RandomnessLength]byte{}, false, err
	}

	switch d := preDigest.(type) {
	case *types.BabePrimaryPreDigest:
		return d.VRFOutput, true, nil
	case *types.BabeSecondaryVRFPreDigest:
		return d.VrfOutput, true, nil
	default:
		return [types.RandomnessLength]byte{}, false, nil
	}
}

// deriveNextEpochRandomness computes the randomness of the epoch after
// the given one on the fork ending at `from`, the last block of the
// given epoch on that fork:
//
//	blake2b(randomness ++ epoch index ++ VRF outputs of the epoch's blocks)
//
// The VRF outputs are concatenated in chain order. The derivation is a
// pure function of the fork's headers, so the author announcing the next
// epoch and every verifier of the announcement agree on it.
func deriveNextEpochRandomness(blockState BlockState, from *types.Header,
	epoch *types.Epoch) (Randomness, error) {
	outputs, err := collectEpochVRFOutputs(blockState, from, epoch)
	if err != nil {
		return Randomness{}, err
	}

	buf := make([]byte, 0, types.RandomnessLength+8+len(outputs)*types.RandomnessLength)
	buf = append(buf, epoch.Randomness[:]...)

	epochIndexBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(epochIndexBytes, epoch.Index)
	buf = append(buf, epochIndexBytes...)

	for _, out := range outputs {
		buf = append(buf, out[:]...)
	}

	return common.Blake2bHash(buf)
}

// collectEpochVRFOutputs walks the fork backwards from `from` over the
// blocks belonging to the epoch and returns their VRF outputs in chain
// order. Secondary plain blocks contribute nothing.
func collectEpochVRFOutputs(blockState BlockState, from *types.Header,
	epoch *types.Epoch) (outputs [][types.RandomnessLength]byte, err error) {
	cur := from
	for {
		if cur.Number == 0 {
			break
		}

		slot, err := headerSlot(cur)
		if err != nil {
			return nil, fmt.Errorf("getting slot of header %s: %w", cur.Hash(), err)
		}
		if slot < epoch.StartSlot {
			break
		}

		out, has, err := headerVRFOutput(cur)
		if err != nil {
			return nil, err
		}
		if has {
			outputs = append(outputs, out)
		}

		parent, err := blockState.GetHeader(cur.ParentHash)
		if err != nil {
			return nil, fmt.Errorf("getting parent header %s: %w", cur.ParentHash, err)
		}
		cur = parent
	}

	// reverse the backwards walk into chain order
	for i, j := 0, len(outputs)-1; i < j; i, j = i+1, j-1 {
		outputs[i], outputs[j] = outputs[j], outputs[i]
	}
	return outputs, nil
}

// nextEpoch returns the descriptor of the epoch following `current` on
// the fork whose last block of the current epoch is `parent`. The
// authority set is carried over; rotation is the runtime's concern.
func nextEpoch(blockState BlockState, parent *types.Header,
	current *types.Epoch) (*types.Epoch, error) {
	randomness, err := deriveNextEpochRandomness(blockState, parent, current)
	if err != nil {
		return nil, fmt.Errorf("deriving next epoch randomness: %w", err)
	}

	next := current.DeepCopy()
	next.Index = current.Index + 1
	next.StartSlot = current.EndSlot()
	next.Randomness = randomness
	return next, nil
}

// nextEpochDescriptorDigest returns the consensus digest item announcing
// the next epoch, included in the first block the author produces in it
func nextEpochDescriptorDigest(epoch *types.Epoch) (*types.ConsensusDigest, error) {
	descriptor := &types.NextEpochDescriptor{
		Authorities: epoch.Authorities,
		Randomness:  epoch.Randomness,
	}
	return descriptor.ToConsensusDigest()
}

// headerNextEpochDescriptor extracts the NextEpochDescriptor announced in
// the header's consensus digest items, or nil when none is present
func headerNextEpochDescriptor(header *types.Header) (*types.NextEpochDescriptor, error) {
	for _, item := range header.Digest {
		consensus, ok := item.(*types.ConsensusDigest)
		if !ok || consensus.ConsensusEngineID != types.BabeEngineID {
			continue
		}

		decoded, err := types.DecodeBabeConsensusDigest(consensus.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding consensus digest: %w", err)
		}

		if descriptor, ok := decoded.(*types.NextEpochDescriptor); ok {
			return descriptor, nil
		}
	}
	return nil, nil
}
