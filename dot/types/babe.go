// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// RandomnessLength is the length of the epoch randomness (32 bytes)
const RandomnessLength = 32

// Randomness is the epoch VRF randomness value
type Randomness = [RandomnessLength]byte

// AllowedSlots tells in what ways a slot can be claimed
type AllowedSlots byte

const (
	// PrimarySlots means only primary (VRF lottery) claims are allowed
	PrimarySlots AllowedSlots = iota
	// PrimaryAndSecondaryPlainSlots additionally allows plain secondary claims
	PrimaryAndSecondaryPlainSlots
	// PrimaryAndSecondaryVRFSlots additionally allows secondary claims with a VRF output
	PrimaryAndSecondaryVRFSlots
)

func (s AllowedSlots) String() string {
	switch s {
	case PrimarySlots:
		return "primary"
	case PrimaryAndSecondaryPlainSlots:
		return "primary and secondary plain"
	case PrimaryAndSecondaryVRFSlots:
		return "primary and secondary VRF"
	default:
		return "unknown"
	}
}

// IsSecondaryVRF returns true if secondary claims must carry a VRF output
func (s AllowedSlots) IsSecondaryVRF() bool {
	return s == PrimaryAndSecondaryVRFSlots
}

// AllowsSecondary returns true if any kind of secondary claim is allowed
func (s AllowedSlots) AllowsSecondary() bool {
	return s == PrimaryAndSecondaryPlainSlots || s == PrimaryAndSecondaryVRFSlots
}

// EpochConfiguration is the per-epoch lottery configuration: the primary
// slot probability c = C1/C2 and the allowed claim kinds
type EpochConfiguration struct {
	C1           uint64
	C2           uint64
	AllowedSlots AllowedSlots
}

// Epoch describes one epoch on one fork: its index, slot coverage,
// authority set, randomness and lottery configuration.
// It is immutable once derived.
type Epoch struct {
	Index       uint64
	StartSlot   uint64
	Duration    uint64
	Authorities []AuthorityRaw
	Randomness  Randomness
	Config      EpochConfiguration
}

// EndSlot returns the first slot after the epoch
func (e *Epoch) EndSlot() uint64 {
	return e.StartSlot + e.Duration
}

func (e *Epoch) String() string {
	return fmt.Sprintf("epoch index=%d startSlot=%d duration=%d authorities=%v randomness=0x%x",
		e.Index, e.StartSlot, e.Duration, e.Authorities, e.Randomness)
}

// DeepCopy returns a copy of the epoch descriptor
func (e *Epoch) DeepCopy() *Epoch {
	cp := *e
	cp.Authorities = make([]AuthorityRaw, len(e.Authorities))
	copy(cp.Authorities, e.Authorities)
	return &cp
}

// BabeConfiguration contains the genesis configuration for block production
type BabeConfiguration struct {
	SlotDuration       uint64 // milliseconds
	EpochLength        uint64 // duration of epoch in slots
	C1                 uint64 // (c1/c2) is the probability of a slot being occupied by a primary
	C2                 uint64
	GenesisAuthorities []AuthorityRaw
	Randomness         Randomness
	AllowedSlots       AllowedSlots
}

// GenesisEpoch returns the epoch descriptor of epoch 0 defined by the
// genesis configuration, starting at the given first slot
func (c *BabeConfiguration) GenesisEpoch(firstSlot uint64) *Epoch {
	auths := make([]AuthorityRaw, len(c.GenesisAuthorities))
	copy(auths, c.GenesisAuthorities)

	return &Epoch{
		Index:       0,
		StartSlot:   firstSlot,
		Duration:    c.EpochLength,
		Authorities: auths,
		Randomness:  c.Randomness,
		Config: EpochConfiguration{
			C1:           c.C1,
			C2:           c.C2,
			AllowedSlots: c.AllowedSlots,
		},
	}
}

// Consensus digest variant bytes
const (
	nextEpochDataVariant  = 1
	nextConfigDataVariant = 3
)

var errInvalidConsensusDigestVariant = errors.New("invalid BABE consensus digest variant")

// NextEpochDescriptor announces, in the first block of an epoch, the
// authorities and randomness of the epoch after it
type NextEpochDescriptor struct {
	Authorities []AuthorityRaw
	Randomness  Randomness
}

// ToConsensusDigest returns the NextEpochDescriptor as a ConsensusDigest
func (d *NextEpochDescriptor) ToConsensusDigest() (*ConsensusDigest, error) {
	buf := new(bytes.Buffer)
	enc := scale.NewEncoder(buf)

	if err := enc.PushByte(nextEpochDataVariant); err != nil {
		return nil, err
	}
	if err := enc.Encode(d); err != nil {
		return nil, err
	}

	return &ConsensusDigest{
		ConsensusEngineID: BabeEngineID,
		Data:              buf.Bytes(),
	}, nil
}

// NextConfigDescriptor announces a lottery configuration change taking
// effect in the epoch after the one it is announced in
type NextConfigDescriptor struct {
	C1           uint64
	C2           uint64
	AllowedSlots AllowedSlots
}

// ToConsensusDigest returns the NextConfigDescriptor as a ConsensusDigest
func (d *NextConfigDescriptor) ToConsensusDigest() (*ConsensusDigest, error) {
	buf := new(bytes.Buffer)
	enc := scale.NewEncoder(buf)

	if err := enc.PushByte(nextConfigDataVariant); err != nil {
		return nil, err
	}
	if err := enc.Encode(d); err != nil {
		return nil, err
	}

	return &ConsensusDigest{
		ConsensusEngineID: BabeEngineID,
		Data:              buf.Bytes(),
	}, nil
}

// DecodeBabeConsensusDigest decodes the data of a BABE ConsensusDigest into
// a *NextEpochDescriptor or a *NextConfigDescriptor
func DecodeBabeConsensusDigest(in []byte) (interface{}, error) {
	dec := scale.NewDecoder(bytes.NewReader(in))

	variant, err := dec.ReadOneByte()
	if err != nil {
		return nil, err
	}

	switch variant {
	case nextEpochDataVariant:
		d := new(NextEpochDescriptor)
		if err := dec.Decode(d); err != nil {
			return nil, err
		}
		return d, nil
	case nextConfigDataVariant:
		d := new(NextConfigDescriptor)
		if err := dec.Decode(d); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: %d", errInvalidConsensusDigestVariant, variant)
	}
}
