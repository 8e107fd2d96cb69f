// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"fmt"
	"time"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/common"
	"github.com/ChainSafe/loom/lib/crypto/sr25519"
)

// Randomness is an alias for a byte array with length types.RandomnessLength
type Randomness = types.Randomness

// ClaimKind describes how a slot was claimed
type ClaimKind byte

const (
	// Primary is a claim won through the VRF slot lottery
	Primary ClaimKind = iota
	// SecondaryPlain is a fallback claim by the slot's deterministic
	// author, carrying no VRF output
	SecondaryPlain
	// SecondaryVRF is a fallback claim by the slot's deterministic
	// author, carrying a VRF output for randomness collection
	SecondaryVRF
)

func (k ClaimKind) String() string {
	switch k {
	case Primary:
		return "primary"
	case SecondaryPlain:
		return "secondary plain"
	case SecondaryVRF:
		return "secondary VRF"
	}
	return "unknown"
}

// VrfOutputAndProof represents the fields for VRF output and proof
type VrfOutputAndProof struct {
	output [sr25519.VRFOutputLength]byte
	proof  [sr25519.VRFProofLength]byte
}

// Output returns the VRF pre-output bytes
func (vp *VrfOutputAndProof) Output() [sr25519.VRFOutputLength]byte {
	return vp.output
}

// Proof returns the VRF proof bytes
func (vp *VrfOutputAndProof) Proof() [sr25519.VRFProofLength]byte {
	return vp.proof
}

// Slot represents a BABE slot
type Slot struct {
	start    time.Time
	duration time.Duration
	number   uint64
}

// NewSlot returns a new Slot
func NewSlot(start time.Time, duration time.Duration, number uint64) *Slot {
	return &Slot{
		start:    start,
		duration: duration,
		number:   number,
	}
}

// Number returns the slot number
func (s Slot) Number() uint64 {
	return s.number
}

// Start returns the start time of the slot
func (s Slot) Start() time.Time {
	return s.start
}

// Duration returns the slot duration
func (s Slot) Duration() time.Duration {
	return s.duration
}

// SlotClaim is the outcome of winning the lottery for a slot with one of
// the locally owned authority keys
type SlotClaim struct {
	slot           uint64
	kind           ClaimKind
	authorityIndex uint32
	keypair        *sr25519.Keypair
	preDigest      *types.PreRuntimeDigest
	vrfOutput      *VrfOutputAndProof // nil for secondary plain claims
}

// Kind returns how the slot was claimed
func (c *SlotClaim) Kind() ClaimKind {
	return c.kind
}

// PreDigest returns the pre-runtime digest encoding the claim
func (c *SlotClaim) PreDigest() *types.PreRuntimeDigest {
	return c.preDigest
}

func (c *SlotClaim) String() string {
	return fmt.Sprintf("slot=%d kind=%s authorityIndex=%d", c.slot, c.kind, c.authorityIndex)
}

// VerifiedSeal is the successful result of header verification, threaded
// into the equivocation detector and fork weight accounting by the caller
type VerifiedSeal struct {
	AuthorityID    types.AuthorityID
	AuthorityIndex uint32
	Slot           uint64
	Kind           ClaimKind
}

// epochData is the epoch descriptor resolved into the data the lottery
// and the verifier operate on
type epochData struct {
	index        uint64
	startSlot    uint64
	randomness   Randomness
	authorities  []types.AuthorityRaw
	threshold    *common.Uint128
	allowedSlots types.AllowedSlots
}

func (ed *epochData) String() string {
	return fmt.Sprintf("index=%d startSlot=%d randomness=0x%x authorities=%v threshold=%s allowedSlots=%s",
		ed.index, ed.startSlot, ed.randomness, ed.authorities, ed.threshold, ed.allowedSlots)
}

// resolveEpochData computes the lottery threshold for an epoch descriptor
func resolveEpochData(epoch *types.Epoch) (*epochData, error) {
	threshold, err := CalculateThreshold(epoch.Config.C1, epoch.Config.C2, len(epoch.Authorities))
	if err != nil {
		return nil, fmt.Errorf("calculating threshold: %w", err)
	}

	return &epochData{
		index:        epoch.Index,
		startSlot:    epoch.StartSlot,
		randomness:   epoch.Randomness,
		authorities:  epoch.Authorities,
		threshold:    threshold,
		allowedSlots: epoch.Config.AllowedSlots,
	}, nil
}
