// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ChainSafe/loom/lib/crypto/sr25519"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// BABE pre-digest variant bytes, shared by all participants
const (
	babePrimaryVariant        = 1
	babeSecondaryPlainVariant = 2
	babeSecondaryVRFVariant   = 3
)

var errInvalidPreDigestVariant = errors.New("invalid BABE pre-runtime digest variant")

// BabePreDigest is one of BabePrimaryPreDigest, BabeSecondaryPlainPreDigest
// or BabeSecondaryVRFPreDigest
type BabePreDigest interface {
	AuthorityIndexAndSlot() (authorityIndex uint32, slot uint64)
	ToPreRuntimeDigest() (*PreRuntimeDigest, error)
}

// BabePrimaryPreDigest is the pre-digest of a primary (VRF lottery) slot claim
type BabePrimaryPreDigest struct {
	AuthorityIndex uint32
	SlotNumber     uint64
	VRFOutput      [sr25519.VRFOutputLength]byte
	VRFProof       [sr25519.VRFProofLength]byte
}

// NewBabePrimaryPreDigest returns a new BabePrimaryPreDigest
func NewBabePrimaryPreDigest(authorityIndex uint32, slotNumber uint64,
	vrfOutput [sr25519.VRFOutputLength]byte,
	vrfProof [sr25519.VRFProofLength]byte) *BabePrimaryPreDigest {
	return &BabePrimaryPreDigest{
		AuthorityIndex: authorityIndex,
		SlotNumber:     slotNumber,
		VRFOutput:      vrfOutput,
		VRFProof:       vrfProof,
	}
}

// AuthorityIndexAndSlot returns the claimed authority index and slot
func (d *BabePrimaryPreDigest) AuthorityIndexAndSlot() (uint32, uint64) {
	return d.AuthorityIndex, d.SlotNumber
}

// ToPreRuntimeDigest returns the BabePrimaryPreDigest as a PreRuntimeDigest
func (d *BabePrimaryPreDigest) ToPreRuntimeDigest() (*PreRuntimeDigest, error) {
	return babePreDigestToPreRuntime(babePrimaryVariant, d)
}

// BabeSecondaryPlainPreDigest is the pre-digest of a deterministic
// fallback slot claim without a VRF output
type BabeSecondaryPlainPreDigest struct {
	AuthorityIndex uint32
	SlotNumber     uint64
}

// NewBabeSecondaryPlainPreDigest returns a new BabeSecondaryPlainPreDigest
func NewBabeSecondaryPlainPreDigest(authorityIndex uint32, slotNumber uint64) *BabeSecondaryPlainPreDigest {
	return &BabeSecondaryPlainPreDigest{
		AuthorityIndex: authorityIndex,
		SlotNumber:     slotNumber,
	}
}

// AuthorityIndexAndSlot returns the claimed authority index and slot
func (d *BabeSecondaryPlainPreDigest) AuthorityIndexAndSlot() (uint32, uint64) {
	return d.AuthorityIndex, d.SlotNumber
}

// ToPreRuntimeDigest returns the BabeSecondaryPlainPreDigest as a PreRuntimeDigest
func (d *BabeSecondaryPlainPreDigest) ToPreRuntimeDigest() (*PreRuntimeDigest, error) {
	return babePreDigestToPreRuntime(babeSecondaryPlainVariant, d)
}

// BabeSecondaryVRFPreDigest is the pre-digest of a deterministic fallback
// slot claim carrying a VRF output for randomness accumulation
type BabeSecondaryVRFPreDigest struct {
	AuthorityIndex uint32
	SlotNumber     uint64
	VrfOutput      [sr25519.VRFOutputLength]byte
	VrfProof       [sr25519.VRFProofLength]byte
}

// NewBabeSecondaryVRFPreDigest returns a new BabeSecondaryVRFPreDigest
func NewBabeSecondaryVRFPreDigest(authorityIndex uint32, slotNumber uint64,
	vrfOutput [sr25519.VRFOutputLength]byte,
	vrfProof [sr25519.VRFProofLength]byte) *BabeSecondaryVRFPreDigest {
	return &BabeSecondaryVRFPreDigest{
		AuthorityIndex: authorityIndex,
		SlotNumber:     slotNumber,
		VrfOutput:      vrfOutput,
		VrfProof:       vrfProof,
	}
}

// AuthorityIndexAndSlot returns the claimed authority index and slot
func (d *BabeSecondaryVRFPreDigest) AuthorityIndexAndSlot() (uint32, uint64) {
	return d.AuthorityIndex, d.SlotNumber
}

// ToPreRuntimeDigest returns the BabeSecondaryVRFPreDigest as a PreRuntimeDigest
func (d *BabeSecondaryVRFPreDigest) ToPreRuntimeDigest() (*PreRuntimeDigest, error) {
	return babePreDigestToPreRuntime(babeSecondaryVRFVariant, d)
}

func babePreDigestToPreRuntime(variant byte, d interface{}) (*PreRuntimeDigest, error) {
	buf := new(bytes.Buffer)
	enc := scale.NewEncoder(buf)

	if err := enc.PushByte(variant); err != nil {
		return nil, err
	}
	if err := enc.Encode(d); err != nil {
		return nil, err
	}

	return NewBABEPreRuntimeDigest(buf.Bytes()), nil
}

// DecodeBabePreDigest decodes the data of a BABE PreRuntimeDigest
// into one of the BABE pre-digest variants
func DecodeBabePreDigest(in []byte) (BabePreDigest, error) {
	dec := scale.NewDecoder(bytes.NewReader(in))

	variant, err := dec.ReadOneByte()
	if err != nil {
		return nil, err
	}

	switch variant {
	case babePrimaryVariant:
		d := new(BabePrimaryPreDigest)
		if err := dec.Decode(d); err != nil {
			return nil, err
		}
		return d, nil
	case babeSecondaryPlainVariant:
		d := new(BabeSecondaryPlainPreDigest)
		if err := dec.Decode(d); err != nil {
			return nil, err
		}
		return d, nil
	case babeSecondaryVRFVariant:
		d := new(BabeSecondaryVRFPreDigest)
		if err := dec.Decode(d); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: %d", errInvalidPreDigestVariant, variant)
	}
}
