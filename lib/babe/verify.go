// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/common"
	"github.com/ChainSafe/loom/lib/crypto/sr25519"
	"github.com/ChainSafe/loom/lib/epochtree"
)

// VerificationManager verifies incoming block headers against the epoch
// in force on their fork. Verification of unrelated headers runs
// concurrently; headers crossing an epoch boundary are serialised per
// parent hash, so sibling boundary blocks cannot race on checkpoint
// insertion. No tracker write happens before a verification fully
// succeeds.
type VerificationManager struct {
	blockState BlockState
	tracker    EpochTracker
	detector   *EquivocationDetector
	reporter   EquivocationReporter // may be nil

	boundaryLocks map[common.Hash]*boundaryLock
	mapMutex      sync.Mutex
}

// boundaryLock serialises boundary verifications sharing a parent hash.
// The reference count keeps the entry in the map until the last holder
// releases it, so late arrivals always contend on the same mutex.
type boundaryLock struct {
	mutex sync.Mutex
	refs  int
}

// NewVerificationManager returns a new VerificationManager.
// The reporter may be nil, in which case equivocation proofs are only
// logged.
func NewVerificationManager(blockState BlockState, tracker EpochTracker,
	detector *EquivocationDetector, reporter EquivocationReporter,
) (*VerificationManager, error) {
	if blockState == nil {
		return nil, errNilBlockState
	}
	if tracker == nil {
		return nil, errNilEpochTracker
	}
	if detector == nil {
		detector = NewEquivocationDetector(0)
	}

	return &VerificationManager{
		blockState:      blockState,
		tracker:         tracker,
		detector:        detector,
		reporter:        reporter,
		boundaryLocks: make(map[common.Hash]*boundaryLock),
	}, nil
}

// VerifyBlock verifies the header's slot claim and seal against the
// epoch in force at its parent. On success it applies the header's
// epoch-change side effects, feeds the equivocation detector and returns
// the VerifiedSeal.
func (v *VerificationManager) VerifyBlock(header *types.Header) (*VerifiedSeal, error) {
	parentHeader, err := v.blockState.GetHeader(header.ParentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: parent %s", epochtree.ErrUnknownBlock, header.ParentHash)
	}

	preDigest, err := headerPreDigest(header)
	if err != nil {
		return nil, err
	}
	_, slot := preDigest.AuthorityIndexAndSlot()

	parentSlot := uint64(0)
	if parentHeader.Number > 0 {
		parentSlot, err = headerSlot(parentHeader)
		if err != nil {
			return nil, fmt.Errorf("getting parent slot: %w", err)
		}
	}
	if slot <= parentSlot {
		return nil, fmt.Errorf("%w: slot %d, parent slot %d", errSlotLowerThanParent, slot, parentSlot)
	}

	epoch, err := v.tracker.EpochFor(header.ParentHash)
	if err != nil {
		return nil, fmt.Errorf("getting epoch for parent %s: %w", header.ParentHash, err)
	}

	boundary := slot >= epoch.EndSlot()
	if boundary {
		// sibling boundary blocks of one parent must not race on
		// checkpoint insertion
		lock := v.acquireBoundaryLock(header.ParentHash)
		defer v.releaseBoundaryLock(header.ParentHash, lock)

		epoch, err = v.nextEpochFromHeader(header, parentHeader, epoch)
		if err != nil {
			return nil, err
		}
	}

	ed, err := resolveEpochData(epoch)
	if err != nil {
		return nil, err
	}

	verifier := newVerifier(ed)
	seal, err := verifier.verifyAuthorshipRight(header)
	if err != nil {
		return nil, err
	}

	if boundary {
		err = v.tracker.ImportEpochChange(header.Hash(), header.Number, header.ParentHash, epoch)
		if err != nil && !errors.Is(err, epochtree.ErrCheckpointExists) {
			return nil, fmt.Errorf("importing epoch change: %w", err)
		}
	}

	if proof := v.detector.Observe(seal.AuthorityID, seal.Slot, header); proof != nil {
		v.report(proof)
	}

	return seal, nil
}

// nextEpochFromHeader checks the epoch announced by a boundary header
// against the fork's derived randomness and returns the epoch the header
// must be verified under.
func (v *VerificationManager) nextEpochFromHeader(header, parentHeader *types.Header,
	current *types.Epoch) (*types.Epoch, error) {
	descriptor, err := headerNextEpochDescriptor(header)
	if err != nil {
		return nil, err
	}
	if descriptor == nil {
		return nil, fmt.Errorf("%w: block %s", errNoNextEpochDescriptor, header.Hash())
	}

	expected, err := deriveNextEpochRandomness(v.blockState, parentHeader, current)
	if err != nil {
		return nil, fmt.Errorf("deriving next epoch randomness: %w", err)
	}
	if descriptor.Randomness != expected {
		return nil, fmt.Errorf("%w: announced 0x%x, derived 0x%x",
			errRandomnessMismatch, descriptor.Randomness, expected)
	}

	next := current.DeepCopy()
	next.Index = current.Index + 1
	next.StartSlot = current.EndSlot()
	next.Authorities = descriptor.Authorities
	next.Randomness = descriptor.Randomness
	return next, nil
}

func (v *VerificationManager) report(proof *types.BabeEquivocationProof) {
	if v.reporter == nil {
		return
	}
	if err := v.reporter.ReportEquivocation(proof); err != nil {
		logger.Warnf("failed to report equivocation %s: %s", proof, err)
	}
}

func (v *VerificationManager) acquireBoundaryLock(parentHash common.Hash) *boundaryLock {
	v.mapMutex.Lock()
	lock, has := v.boundaryLocks[parentHash]
	if !has {
		lock = new(boundaryLock)
		v.boundaryLocks[parentHash] = lock
	}
	lock.refs++
	v.mapMutex.Unlock()

	lock.mutex.Lock()
	return lock
}

func (v *VerificationManager) releaseBoundaryLock(parentHash common.Hash, lock *boundaryLock) {
	lock.mutex.Unlock()

	v.mapMutex.Lock()
	defer v.mapMutex.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(v.boundaryLocks, parentHash)
	}
}

// verifier verifies headers under the data of one epoch
type verifier struct {
	epochData *epochData
}

func newVerifier(ed *epochData) *verifier {
	return &verifier{epochData: ed}
}

// verifyAuthorshipRight verifies that the authority that produced the
// header was entitled to produce it: the claim matches what the
// authority could actually claim under the epoch's lottery, and the seal
// signature covers the header.
func (b *verifier) verifyAuthorshipRight(header *types.Header) (*VerifiedSeal, error) {
	if len(header.Digest) < 2 {
		return nil, errMissingDigestItems
	}

	preDigestItem, ok := header.Digest[0].(*types.PreRuntimeDigest)
	if !ok {
		return nil, errNoPreRuntimeDigest
	}

	sealItem, ok := header.Digest[len(header.Digest)-1].(*types.SealDigest)
	if !ok {
		return nil, errLastDigestItemNotSeal
	}

	preDigest, err := types.DecodeBabePreDigest(preDigestItem.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding pre-digest: %w", err)
	}

	authorityIndex, slot := preDigest.AuthorityIndexAndSlot()
	if int(authorityIndex) >= len(b.epochData.authorities) {
		return nil, fmt.Errorf("%w: index %d, %d authorities",
			ErrAuthorityIndexOutOfBounds, authorityIndex, len(b.epochData.authorities))
	}

	authorityID := b.epochData.authorities[authorityIndex].Key
	pub, err := sr25519.NewPublicKey(authorityID[:])
	if err != nil {
		return nil, fmt.Errorf("getting authority public key: %w", err)
	}

	kind, err := b.verifySlotClaim(preDigest, pub)
	if err != nil {
		return nil, err
	}

	// the seal signs the header without its seal digest item
	unsealed := header.DeepCopy()
	unsealed.Digest = unsealed.Digest[:len(unsealed.Digest)-1]
	encoded, err := unsealed.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding header: %w", err)
	}

	ok, err = pub.Verify(encoded, sealItem.Data)
	if err != nil || !ok {
		return nil, ErrBadSignature
	}

	return &VerifiedSeal{
		AuthorityID:    authorityID,
		AuthorityIndex: authorityIndex,
		Slot:           slot,
		Kind:           kind,
	}, nil
}

// verifySlotClaim re-derives the eligibility test for the claim kind the
// header presents. VRF failures surface a single sentinel whether the
// proof or the transcript was at fault.
func (b *verifier) verifySlotClaim(preDigest types.BabePreDigest, pub *sr25519.PublicKey,
) (ClaimKind, error) {
	ed := b.epochData

	switch d := preDigest.(type) {
	case *types.BabePrimaryPreDigest:
		t := makeTranscript(ed.randomness, d.SlotNumber, ed.index)
		ok, err := pub.VrfVerify(t, d.VRFOutput, d.VRFProof)
		if err != nil || !ok {
			return Primary, fmt.Errorf("%w: for slot %d", ErrBadSlotClaim, d.SlotNumber)
		}

		ok, err = checkPrimaryThreshold(ed.randomness, d.SlotNumber, ed.index,
			d.VRFOutput, ed.threshold, pub)
		if err != nil {
			return Primary, fmt.Errorf("checking primary threshold: %w", err)
		}
		if !ok {
			return Primary, fmt.Errorf("%w: for slot %d", ErrVRFOutputOverThreshold, d.SlotNumber)
		}
		return Primary, nil

	case *types.BabeSecondaryPlainPreDigest:
		if !ed.allowedSlots.AllowsSecondary() || ed.allowedSlots.IsSecondaryVRF() {
			return SecondaryPlain, ErrBadSecondarySlotClaim
		}

		err := verifySecondarySlotPlain(d.AuthorityIndex, d.SlotNumber,
			len(ed.authorities), ed.randomness)
		return SecondaryPlain, err

	case *types.BabeSecondaryVRFPreDigest:
		if !ed.allowedSlots.IsSecondaryVRF() {
			return SecondaryVRF, ErrBadSecondarySlotClaim
		}

		ok, err := verifySecondarySlotVRF(d, pub, ed.index, len(ed.authorities), ed.randomness)
		if err != nil {
			if errors.Is(err, ErrBadSecondarySlotClaim) {
				return SecondaryVRF, err
			}
			return SecondaryVRF, fmt.Errorf("%w: for slot %d", ErrBadSlotClaim, d.SlotNumber)
		}
		if !ok {
			return SecondaryVRF, fmt.Errorf("%w: for slot %d", ErrBadSlotClaim, d.SlotNumber)
		}
		return SecondaryVRF, nil

	default:
		return Primary, errNoPreRuntimeDigest
	}
}
