// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeBabeConsensusDigest_NextEpoch(t *testing.T) {
	descriptor := &NextEpochDescriptor{
		Authorities: []AuthorityRaw{
			{Key: AuthorityID{0xaa}, Weight: 1},
			{Key: AuthorityID{0xbb}, Weight: 1},
		},
		Randomness: Randomness{0x01, 0x02},
	}

	digest, err := descriptor.ToConsensusDigest()
	require.NoError(t, err)
	require.Equal(t, BabeEngineID, digest.ConsensusEngineID)

	decoded, err := DecodeBabeConsensusDigest(digest.Data)
	require.NoError(t, err)
	require.Equal(t, descriptor, decoded)
}

func TestDecodeBabeConsensusDigest_NextConfig(t *testing.T) {
	descriptor := &NextConfigDescriptor{
		C1:           1,
		C2:           4,
		AllowedSlots: PrimaryAndSecondaryVRFSlots,
	}

	digest, err := descriptor.ToConsensusDigest()
	require.NoError(t, err)
	require.Equal(t, BabeEngineID, digest.ConsensusEngineID)

	decoded, err := DecodeBabeConsensusDigest(digest.Data)
	require.NoError(t, err)
	require.Equal(t, descriptor, decoded)
}

func TestDecodeBabeConsensusDigest_UnknownVariant(t *testing.T) {
	_, err := DecodeBabeConsensusDigest([]byte{0x7f})
	require.ErrorIs(t, err, errInvalidConsensusDigestVariant)
}
