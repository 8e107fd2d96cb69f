// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// ConsensusEngineID is a 4-character identifier of the consensus engine
// that produced the digest item.
type ConsensusEngineID [4]byte

// ToBytes turns ConsensusEngineID to a byte slice
func (h ConsensusEngineID) ToBytes() []byte {
	b := [4]byte(h)
	return b[:]
}

// BabeEngineID is the hard-coded babe ID
var BabeEngineID = ConsensusEngineID{'B', 'A', 'B', 'E'}

// Digest item type bytes. The values follow the order of the digest item
// enumeration shared by all participants, so that every node computes
// identical hashes over the encoded header.
const (
	PreRuntimeDigestType = 6
	ConsensusDigestType  = 4
	SealDigestType       = 5
)

// DigestItem is a header digest item: a pre-runtime digest, a consensus
// digest or a seal.
type DigestItem interface {
	Type() byte
	ItemPayload() DigestPayload
}

// DigestPayload is the engine id and opaque data of a digest item
type DigestPayload struct {
	ConsensusEngineID ConsensusEngineID
	Data              []byte
}

// Digest represents the block digest: an ordered list of digest items
type Digest []DigestItem

// PreRuntimeDigest contains messages from the consensus engine to the runtime
type PreRuntimeDigest DigestPayload

// NewBABEPreRuntimeDigest returns a new PreRuntimeDigest with the BABE engine ID
func NewBABEPreRuntimeDigest(data []byte) *PreRuntimeDigest {
	return &PreRuntimeDigest{
		ConsensusEngineID: BabeEngineID,
		Data:              data,
	}
}

// Type returns the digest item type byte
func (d *PreRuntimeDigest) Type() byte { return PreRuntimeDigestType }

// ItemPayload returns the engine id and data of the digest item
func (d *PreRuntimeDigest) ItemPayload() DigestPayload { return DigestPayload(*d) }

func (d *PreRuntimeDigest) String() string {
	return fmt.Sprintf("PreRuntimeDigest engine=%s data=0x%x", d.ConsensusEngineID.ToBytes(), d.Data)
}

// ConsensusDigest contains messages from the runtime to the consensus engine,
// such as the next epoch descriptor announced at an epoch boundary.
type ConsensusDigest DigestPayload

// Type returns the digest item type byte
func (d *ConsensusDigest) Type() byte { return ConsensusDigestType }

// ItemPayload returns the engine id and data of the digest item
func (d *ConsensusDigest) ItemPayload() DigestPayload { return DigestPayload(*d) }

func (d *ConsensusDigest) String() string {
	return fmt.Sprintf("ConsensusDigest engine=%s data=0x%x", d.ConsensusEngineID.ToBytes(), d.Data)
}

// SealDigest contains the seal signature over the header hash
type SealDigest DigestPayload

// NewBABESealDigest returns a new SealDigest with the BABE engine ID
func NewBABESealDigest(data []byte) *SealDigest {
	return &SealDigest{
		ConsensusEngineID: BabeEngineID,
		Data:              data,
	}
}

// Type returns the digest item type byte
func (d *SealDigest) Type() byte { return SealDigestType }

// ItemPayload returns the engine id and data of the digest item
func (d *SealDigest) ItemPayload() DigestPayload { return DigestPayload(*d) }

func (d *SealDigest) String() string {
	return fmt.Sprintf("SealDigest engine=%s data=0x%x", d.ConsensusEngineID.ToBytes(), d.Data)
}

// Encode returns the SCALE encoding of the digest
func (d Digest) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := scale.NewEncoder(buf)

	if err := enc.EncodeUintCompact(*big.NewInt(int64(len(d)))); err != nil {
		return nil, err
	}

	for _, item := range d {
		if err := enc.PushByte(item.Type()); err != nil {
			return nil, err
		}
		if err := enc.Encode(item.ItemPayload()); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// DecodeDigest decodes a SCALE encoded digest
func DecodeDigest(in []byte) (Digest, error) {
	dec := scale.NewDecoder(bytes.NewReader(in))

	length, err := dec.DecodeUintCompact()
	if err != nil {
		return nil, fmt.Errorf("could not decode length of digest items: %w", err)
	}

	digest := make(Digest, length.Uint64())
	for i := range digest {
		digest[i], err = decodeDigestItem(dec)
		if err != nil {
			return nil, fmt.Errorf("could not decode digest item %d: %w", i, err)
		}
	}

	return digest, nil
}

func decodeDigestItem(dec *scale.Decoder) (DigestItem, error) {
	typ, err := dec.ReadOneByte()
	if err != nil {
		return nil, err
	}

	var payload DigestPayload
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}

	switch typ {
	case PreRuntimeDigestType:
		d := PreRuntimeDigest(payload)
		return &d, nil
	case ConsensusDigestType:
		d := ConsensusDigest(payload)
		return &d, nil
	case SealDigestType:
		d := SealDigest(payload)
		return &d, nil
	default:
		return nil, fmt.Errorf("invalid digest item type: %d", typ)
	}
}
