// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/common"
	"github.com/ChainSafe/loom/lib/crypto"
	"github.com/ChainSafe/loom/lib/crypto/sr25519"

	"github.com/gtank/merlin"
)

var babeVRFPrefix = []byte("substrate-babe-vrf")

// makeTranscript builds the VRF transcript for a slot. The slot and epoch
// are both bound into the transcript, so no output is replayable across
// slots or epochs.
func makeTranscript(randomness Randomness, slot, epoch uint64) *merlin.Transcript {
	t := merlin.NewTranscript("BABE")
	crypto.AppendUint64(t, []byte("slot number"), slot)
	crypto.AppendUint64(t, []byte("current epoch"), epoch)
	t.AppendMessage([]byte("chain randomness"), randomness[:])
	return t
}

// claimPrimarySlot runs the primary slot lottery for the keypair.
// If the slot cannot be claimed, the wrapped error
// errOverPrimarySlotThreshold is returned.
func claimPrimarySlot(randomness Randomness,
	slot, epoch uint64,
	threshold *common.Uint128,
	keypair *sr25519.Keypair,
) (*VrfOutputAndProof, error) {
	transcript := makeTranscript(randomness, slot, epoch)

	out, proof, err := keypair.VrfSign(transcript)
	if err != nil {
		return nil, err
	}

	logger.Tracef("claimPrimarySlot pub=%s slot=%d epoch=%d output=0x%x proof=0x%x",
		keypair.Public().Hex(), slot, epoch, out, proof)

	ok, err := checkPrimaryThreshold(randomness, slot, epoch, out,
		threshold, keypair.Public().(*sr25519.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("failed to compare with threshold: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: for slot %d, epoch %d and threshold %s",
			errOverPrimarySlotThreshold, slot, epoch, threshold)
	}

	return &VrfOutputAndProof{
		output: out,
		proof:  proof,
	}, nil
}

// checkPrimaryThreshold returns true if the authority was authorised to
// produce a block in the given slot and epoch
func checkPrimaryThreshold(randomness Randomness,
	slot, epoch uint64,
	output [sr25519.VRFOutputLength]byte,
	threshold *common.Uint128,
	pub *sr25519.PublicKey,
) (bool, error) {
	t := makeTranscript(randomness, slot, epoch)
	inout, err := sr25519.AttachInput(output, pub, t)
	if err != nil {
		return false, fmt.Errorf("attaching sr25519 input: %w", err)
	}

	const size = 16
	res, err := inout.MakeBytes(size, babeVRFPrefix)
	if err != nil {
		return false, fmt.Errorf("making sr25519 bytes: %w", err)
	}

	inoutUint, err := common.Uint128FromLEBytes(res)
	if err != nil {
		return false, fmt.Errorf("failed to convert bytes to Uint128: %w", err)
	}

	logger.Tracef("checkPrimaryThreshold pub=%s slot=%d epoch=%d threshold=%s output=0x%x inout=0x%x",
		pub.Hex(), slot, epoch, threshold, output, res)

	return inoutUint.Compare(threshold) < 0, nil
}

// claimSecondarySlotVRF claims a secondary slot with an attached VRF
// output, so the block still contributes to epoch randomness
func claimSecondarySlotVRF(randomness Randomness,
	slot, epoch uint64,
	authorities []types.AuthorityRaw,
	keypair *sr25519.Keypair,
	authorityIndex uint32,
) (*VrfOutputAndProof, error) {
	secondarySlotAuthor, err := getSecondarySlotAuthor(slot, len(authorities), randomness)
	if err != nil {
		return nil, fmt.Errorf("cannot get secondary slot author: %w", err)
	}

	if authorityIndex != secondarySlotAuthor {
		return nil, errNotOurTurnToPropose
	}

	transcript := makeTranscript(randomness, slot, epoch)

	out, proof, err := keypair.VrfSign(transcript)
	if err != nil {
		return nil, fmt.Errorf("cannot sign transcript: %w", err)
	}

	logger.Debugf("claimed secondary VRF slot, for slot number: %d", slot)

	return &VrfOutputAndProof{
		output: out,
		proof:  proof,
	}, nil
}

// claimSecondarySlotPlain returns nil if the authority is the slot's
// deterministic secondary author
func claimSecondarySlotPlain(randomness Randomness, slot uint64,
	authorities []types.AuthorityRaw, authorityIndex uint32) error {
	secondarySlotAuthor, err := getSecondarySlotAuthor(slot, len(authorities), randomness)
	if err != nil {
		return fmt.Errorf("cannot get secondary slot author: %w", err)
	}

	if authorityIndex != secondarySlotAuthor {
		return errNotOurTurnToPropose
	}

	logger.Debugf("claimed secondary plain slot, for slot number: %d", slot)
	return nil
}

// CalculateThreshold calculates the primary slot lottery threshold
// equation: threshold = 2^128 * (1 - (1-c)^(1/len(authorities)))
// where c = C1/C2
func CalculateThreshold(C1, C2 uint64, numAuths int) (*common.Uint128, error) {
	if C1 == 0 || C2 == 0 {
		return nil, ErrThresholdOneIsZero
	}
	c := float64(C1) / float64(C2)
	if c > 1 {
		return nil, errors.New("invalid C1/C2: greater than 1")
	}

	// 1 / len(authorities)
	theta := float64(1) / float64(numAuths)

	// (1-c)^(theta)
	pp := 1 - c
	ppExp := math.Pow(pp, theta)

	// 1 - (1-c)^(theta)
	p := 1 - ppExp
	pRat := new(big.Rat).SetFloat64(p)

	// 1 << 128
	shift := new(big.Int).Lsh(big.NewInt(1), 128)
	numer := new(big.Int).Mul(shift, pRat.Num())
	denom := pRat.Denom()

	// (1 << 128) * (1 - (1-c)^(1/len(authorities)))
	thresholdBig := new(big.Int).Div(numer, denom)

	// special case where threshold is maximum
	if thresholdBig.Cmp(shift) == 0 {
		return common.MaxUint128, nil
	}

	if len(thresholdBig.Bytes()) > 16 {
		return nil, errors.New("threshold must be under or equal to 16 bytes")
	}

	return common.Uint128FromBigInt(thresholdBig)
}
