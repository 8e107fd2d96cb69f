// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import "fmt"

// BabeEquivocationProof proves that an authority produced more than one
// block in the same slot. The two headers are distinct, both signed by
// the offender, and both claim the same slot. Immutable once created.
type BabeEquivocationProof struct {
	// Offender is the public key of the equivocator
	Offender AuthorityID
	// Slot is the slot at which the equivocation happened
	Slot uint64
	// FirstHeader is the first header observed for the slot
	FirstHeader Header
	// SecondHeader is the second, conflicting header
	SecondHeader Header
}

func (p *BabeEquivocationProof) String() string {
	return fmt.Sprintf("equivocation offender=0x%x slot=%d first=%s second=%s",
		p.Offender, p.Slot, p.FirstHeader.Hash(), p.SecondHeader.Hash())
}
