// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"bytes"
	"fmt"

	"github.com/ChainSafe/loom/lib/common"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// Header is a block header
type Header struct {
	ParentHash     common.Hash
	Number         uint64
	StateRoot      common.Hash
	ExtrinsicsRoot common.Hash
	Digest         Digest

	hash common.Hash
}

// NewHeader creates a new block header and sets its hash field
func NewHeader(parentHash, stateRoot, extrinsicsRoot common.Hash,
	number uint64, digest Digest) *Header {
	header := &Header{
		ParentHash:     parentHash,
		Number:         number,
		StateRoot:      stateRoot,
		ExtrinsicsRoot: extrinsicsRoot,
		Digest:         digest,
	}

	header.Hash()
	return header
}

// NewEmptyHeader returns a new header with all zero values
func NewEmptyHeader() *Header {
	return &Header{
		Digest: Digest{},
	}
}

// DeepCopy returns a deep copy of the header
func (h *Header) DeepCopy() *Header {
	cp := NewEmptyHeader()
	cp.ParentHash = h.ParentHash
	cp.Number = h.Number
	cp.StateRoot = h.StateRoot
	cp.ExtrinsicsRoot = h.ExtrinsicsRoot

	if len(h.Digest) > 0 {
		cp.Digest = make(Digest, len(h.Digest))
		copy(cp.Digest, h.Digest)
	}

	return cp
}

// Encode returns the SCALE encoding of the header: parent hash, number,
// state root, extrinsics root and digest, in that fixed order.
func (h *Header) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := scale.NewEncoder(buf)

	if err := enc.Encode(h.ParentHash); err != nil {
		return nil, err
	}
	if err := enc.Encode(h.Number); err != nil {
		return nil, err
	}
	if err := enc.Encode(h.StateRoot); err != nil {
		return nil, err
	}
	if err := enc.Encode(h.ExtrinsicsRoot); err != nil {
		return nil, err
	}

	encDigest, err := h.Digest.Encode()
	if err != nil {
		return nil, err
	}

	if _, err := buf.Write(encDigest); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeHeader decodes a SCALE encoded header
func DecodeHeader(in []byte) (*Header, error) {
	r := bytes.NewReader(in)
	dec := scale.NewDecoder(r)

	header := NewEmptyHeader()
	if err := dec.Decode(&header.ParentHash); err != nil {
		return nil, err
	}
	if err := dec.Decode(&header.Number); err != nil {
		return nil, err
	}
	if err := dec.Decode(&header.StateRoot); err != nil {
		return nil, err
	}
	if err := dec.Decode(&header.ExtrinsicsRoot); err != nil {
		return nil, err
	}

	rest := make([]byte, r.Len())
	if _, err := r.Read(rest); err != nil {
		return nil, err
	}

	digest, err := DecodeDigest(rest)
	if err != nil {
		return nil, err
	}
	header.Digest = digest

	return header, nil
}

// Hash returns the blake2b hash of the SCALE encoded header.
// The hash is cached on first computation.
func (h *Header) Hash() common.Hash {
	if !h.hash.IsEmpty() {
		return h.hash
	}

	enc, err := h.Encode()
	if err != nil {
		panic(fmt.Sprintf("cannot encode header: %s", err))
	}

	hash, err := common.Blake2bHash(enc)
	if err != nil {
		panic(fmt.Sprintf("cannot hash encoded header: %s", err))
	}

	h.hash = hash
	return h.hash
}

// ClearHash clears the cached header hash, to be called after the
// header digest is modified.
func (h *Header) ClearHash() {
	h.hash = common.EmptyHash
}

func (h *Header) String() string {
	return fmt.Sprintf("header number=%d hash=%s parent=%s", h.Number, h.Hash(), h.ParentHash)
}
