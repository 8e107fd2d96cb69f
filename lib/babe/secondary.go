// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"encoding/binary"
	"math/big"

	"github.com/ChainSafe/loom/dot/types"
	"github.com/ChainSafe/loom/lib/common"
	"github.com/ChainSafe/loom/lib/crypto/sr25519"
)

// getSecondarySlotAuthor selects the deterministic fallback author for a
// slot: blake2b(randomness ++ slot) interpreted as an integer, modulo the
// authority count. Exactly one authority is secondary-eligible per slot.
func getSecondarySlotAuthor(slot uint64, numAuths int, randomness Randomness) (uint32, error) {
	s := make([]byte, 8)
	binary.LittleEndian.PutUint64(s, slot)
	rand, err := common.Blake2bHash(append(randomness[:], s...))
	if err != nil {
		return 0, err
	}

	randBig := new(big.Int).SetBytes(rand[:])
	num := big.NewInt(int64(numAuths))

	idx := new(big.Int).Mod(randBig, num)
	return uint32(idx.Uint64()), nil
}

func verifySecondarySlotPlain(authorityIndex uint32, slot uint64, numAuths int, randomness Randomness) error {
	expected, err := getSecondarySlotAuthor(slot, numAuths, randomness)
	if err != nil {
		return err
	}

	logger.Tracef("verifySecondarySlotPlain authority index %d, %d authorities, "+
		"slot number %d and expected index %d",
		authorityIndex, numAuths, slot, expected)

	if authorityIndex != expected {
		return ErrBadSecondarySlotClaim
	}

	return nil
}

func verifySecondarySlotVRF(digest *types.BabeSecondaryVRFPreDigest,
	pk *sr25519.PublicKey,
	epoch uint64,
	numAuths int,
	randomness Randomness,
) (bool, error) {
	expected, err := getSecondarySlotAuthor(digest.SlotNumber, numAuths, randomness)
	if err != nil {
		return false, err
	}

	logger.Tracef("verifySecondarySlotVRF authority index %d, public key %s, %d authorities, "+
		"slot number %d, epoch %d and expected index %d",
		digest.AuthorityIndex, pk.Hex(), numAuths, digest.SlotNumber, epoch, expected)

	if digest.AuthorityIndex != expected {
		return false, ErrBadSecondarySlotClaim
	}

	t := makeTranscript(randomness, digest.SlotNumber, epoch)
	return pk.VrfVerify(t, digest.VrfOutput, digest.VrfProof)
}
