// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"errors"
)

var (
	// ErrBadSlotClaim is returned when a slot claim's VRF proof does not
	// verify against the epoch's randomness and the claimed slot
	ErrBadSlotClaim = errors.New("could not verify slot claim VRF proof")

	// ErrBadSecondarySlotClaim is returned when a secondary claim is made
	// by an authority other than the slot's deterministic author, or when
	// secondary slots are not allowed by the epoch config
	ErrBadSecondarySlotClaim = errors.New("invalid secondary slot claim")

	// ErrBadSignature is returned when a seal signature is invalid
	ErrBadSignature = errors.New("could not verify signature")

	// ErrVRFOutputOverThreshold is returned when a primary claim's VRF
	// output does not fall under the epoch's primary threshold
	ErrVRFOutputOverThreshold = errors.New("vrf output over threshold")

	// ErrAuthorityIndexOutOfBounds is returned when the claimed authority
	// index is out of range for the epoch's authority set
	ErrAuthorityIndexOutOfBounds = errors.New("authority index out of bounds for authority set")

	// ErrProducerEquivocated is carried by an equivocation report when a
	// block producer has produced conflicting blocks in one slot
	ErrProducerEquivocated = errors.New("block producer equivocated")

	// ErrNotAuthority is returned when trying to perform authority
	// functions without an authority keystore
	ErrNotAuthority = errors.New("node is not an authority")

	// ErrThresholdOneIsZero is returned when one of or both threshold
	// ratio parameters are zero
	ErrThresholdOneIsZero = errors.New("numerator or denominator cannot be 0")

	// ErrServiceStopped is returned when operating on a stopped service
	ErrServiceStopped = errors.New("service has been stopped")

	errNilBlockState            = errors.New("cannot have nil BlockState")
	errNilEpochTracker          = errors.New("cannot have nil EpochTracker")
	errNilBlockBuilder          = errors.New("cannot have nil BlockBuilder")
	errNilBlockImportHandler    = errors.New("cannot have nil BlockImportHandler")
	errNoAuthorityKeyProvided   = errors.New("cannot create service as authority; no keystore keys provided")
	errOverPrimarySlotThreshold = errors.New("cannot claim slot, over primary threshold")
	errNotOurTurnToPropose      = errors.New("cannot claim slot, not our turn to propose a block")
	errMissingDigestItems       = errors.New("block header is missing digest items")
	errNoPreRuntimeDigest       = errors.New("first digest item is not a pre-runtime digest")
	errLastDigestItemNotSeal    = errors.New("last digest item is not a seal")
	errSlotLowerThanParent      = errors.New("slot is not higher than the parent's slot")
	errNoNextEpochDescriptor    = errors.New("first block of epoch is missing the next epoch descriptor")
	errRandomnessMismatch       = errors.New("announced epoch randomness does not match the derived randomness")
	errMultipleSlotClaimants    = errors.New("multiple local keys eligible for one slot under a single-claimant config")
	errLaggingSlot              = errors.New("current slot is smaller than the slot of the best block")
)
