// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

import (
	"encoding/hex"
	"errors"
	"strings"
)

// ErrNoPrefix is returned when a hex string does not have a 0x prefix
var ErrNoPrefix = errors.New("could not byteify non 0x prefixed string")

// HexToBytes turns a 0x prefixed hex string into a byte slice
func HexToBytes(in string) ([]byte, error) {
	if !strings.HasPrefix(in, "0x") {
		return nil, ErrNoPrefix
	}
	return hex.DecodeString(in[2:])
}
