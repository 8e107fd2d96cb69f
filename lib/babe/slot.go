// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package babe

import (
	"context"
	"time"
)

// timeUntilNextSlot computes the time remaining until the start of the
// next slot boundary
func timeUntilNextSlot(slotDuration time.Duration) time.Duration {
	nowInNanos := time.Now().UnixNano()
	slotDurationInNanos := slotDuration.Nanoseconds()

	nextSlot := (nowInNanos + slotDurationInNanos) / slotDurationInNanos
	return time.Duration(nextSlot*slotDurationInNanos - nowInNanos)
}

// slotHandler is the logical timer stream driving slot evaluation
type slotHandler struct {
	slotDuration time.Duration
	lastSlot     *Slot
}

func newSlotHandler(slotDuration time.Duration) *slotHandler {
	return &slotHandler{
		slotDuration: slotDuration,
	}
}

// waitForNextSlot blocks until the next unseen slot starts and returns
// it. It never yields the same slot number twice.
func (s *slotHandler) waitForNextSlot(ctx context.Context) (Slot, error) {
	for {
		currentSystemTime := time.Now()
		currentSlotNumber := getCurrentSlot(s.slotDuration)
		currentSlot := Slot{
			start:    currentSystemTime,
			duration: s.slotDuration,
			number:   currentSlotNumber,
		}

		if s.lastSlot == nil || currentSlot.number > s.lastSlot.number {
			s.lastSlot = &currentSlot
			return currentSlot, nil
		}

		// we are still inside the slot we already yielded, sleep
		// until the next boundary
		timer := time.NewTimer(timeUntilNextSlot(s.slotDuration))
		select {
		case <-ctx.Done():
			timer.Stop()
			return Slot{}, ctx.Err()
		case <-timer.C:
		}
	}
}

func getCurrentSlot(slotDuration time.Duration) uint64 {
	return uint64(time.Now().UnixNano()) / uint64(slotDuration.Nanoseconds())
}

func getSlotStartTime(slot uint64, slotDuration time.Duration) time.Time {
	return time.Unix(0, int64(slot*uint64(slotDuration.Nanoseconds())))
}
