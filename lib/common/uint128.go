// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// Uint128 represents an unsigned 128 bit integer
type Uint128 struct {
	Upper uint64
	Lower uint64
}

// MaxUint128 is the maximum uint128 value
var MaxUint128 = &Uint128{
	Upper: ^uint64(0),
	Lower: ^uint64(0),
}

// Uint128FromBigInt converts a *big.Int into a Uint128.
// It errors if the value does not fit in 128 bits.
func Uint128FromBigInt(in *big.Int) (*Uint128, error) {
	b := in.Bytes()
	if len(b) > 16 {
		return nil, fmt.Errorf("value does not fit in 128 bits: %s", in)
	}

	for len(b) < 16 {
		b = append([]byte{0}, b...)
	}

	return &Uint128{
		Upper: binary.BigEndian.Uint64(b[:8]),
		Lower: binary.BigEndian.Uint64(b[8:]),
	}, nil
}

// Uint128FromLEBytes converts a little endian byte slice of at most
// 16 bytes into a Uint128.
func Uint128FromLEBytes(in []byte) (*Uint128, error) {
	if len(in) > 16 {
		return nil, fmt.Errorf("byte slice is longer than 16 bytes: %d", len(in))
	}

	for len(in) < 16 {
		in = append(in, 0)
	}

	return &Uint128{
		Upper: binary.LittleEndian.Uint64(in[8:]),
		Lower: binary.LittleEndian.Uint64(in[:8]),
	}, nil
}

// Bytes returns the Uint128 as a 16 byte little endian slice
func (u *Uint128) Bytes() []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[:8], u.Lower)
	binary.LittleEndian.PutUint64(b[8:], u.Upper)
	return b
}

// String returns the decimal representation of the value
func (u *Uint128) String() string {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[:8], u.Upper)
	binary.BigEndian.PutUint64(b[8:], u.Lower)
	return new(big.Int).SetBytes(b).String()
}

// Compare returns 1 if the receiver is greater than other,
// 0 if they are equal, and -1 otherwise.
func (u *Uint128) Compare(other *Uint128) int {
	switch {
	case u.Upper > other.Upper:
		return 1
	case u.Upper < other.Upper:
		return -1
	case u.Lower > other.Lower:
		return 1
	case u.Lower < other.Lower:
		return -1
	}
	return 0
}
