// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import "math"

const (
	primaryWeight   uint32 = 2
	secondaryWeight uint32 = 1
)

// WeightIncrement returns the fork weight contributed by a block with the
// given claim kind. Primary claims weigh strictly more than secondary
// claims, and every claim weighs more than zero.
func WeightIncrement(kind ClaimKind) uint32 {
	if kind == Primary {
		return primaryWeight
	}
	return secondaryWeight
}

// CumulativeWeight returns the chain weight after appending a block with
// the given increment to a chain of the given weight. The addition
// saturates instead of overflowing, so two observers computing it over
// the same header sequence always agree.
func CumulativeWeight(parentWeight, increment uint32) uint32 {
	if parentWeight > math.MaxUint32-increment {
		return math.MaxUint32
	}
	return parentWeight + increment
}
