// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"bytes"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// Extrinsic is an opaque chain extrinsic
type Extrinsic []byte

// Body is a block body: an ordered list of extrinsics
type Body []Extrinsic

// Encode returns the SCALE encoding of the body
func (b Body) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := scale.NewEncoder(buf).Encode(b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBody decodes a SCALE encoded block body
func DecodeBody(in []byte) (Body, error) {
	var body Body
	if err := scale.NewDecoder(bytes.NewReader(in)).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

// Block is a block: a header and a body
type Block struct {
	Header Header
	Body   Body
}

// NewBlock returns a new Block
func NewBlock(header Header, body Body) Block {
	return Block{
		Header: header,
		Body:   body,
	}
}
