// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicclient

import (
	"github.com/dtn7/goquic/internal/protocol"
	"github.com/dtn7/goquic/internal/wire"
)

// ackRange is an inclusive, closed range of received packet numbers.
type ackRange struct {
	start, end protocol.PacketNumber
}

// ackTracker accumulates received packet numbers for one encryption level
// into the disjoint, merged ranges an AckFrame needs, kept sorted with the
// largest range first per RFC 9000 §19.3's wire layout.
type ackTracker struct {
	ranges []ackRange
	dirty  bool
}

// Add records pn as received, merging it into an existing range when
// adjacent or creating a new one otherwise.
func (t *ackTracker) Add(pn protocol.PacketNumber) {
	t.dirty = true
	for i, r := range t.ranges {
		switch {
		case pn >= r.start && pn <= r.end:
			return // already known
		case pn == r.end+1:
			t.ranges[i].end = pn
			t.mergeWithPrev(i)
			return
		case pn == r.start-1:
			t.ranges[i].start = pn
			t.mergeWithNext(i)
			return
		case pn > r.end+1:
			// Ranges are sorted descending by end; pn belongs strictly
			// before (i.e. above) this range.
			t.ranges = append(t.ranges, ackRange{})
			copy(t.ranges[i+1:], t.ranges[i:])
			t.ranges[i] = ackRange{start: pn, end: pn}
			return
		}
	}
	t.ranges = append(t.ranges, ackRange{start: pn, end: pn})
}

// mergeWithPrev merges ranges[i] into ranges[i-1] if extending ranges[i].end
// made them adjacent. ranges[i-1] holds the next-larger packet numbers, so
// the two are adjacent when ranges[i].end immediately precedes
// ranges[i-1].start.
func (t *ackTracker) mergeWithPrev(i int) {
	if i > 0 && t.ranges[i].end+1 == t.ranges[i-1].start {
		t.ranges[i-1].start = t.ranges[i].start
		t.ranges = append(t.ranges[:i], t.ranges[i+1:]...)
	}
}

// mergeWithNext merges ranges[i] with ranges[i+1] if extending ranges[i].start
// made them adjacent. ranges[i+1] holds the next-smaller packet numbers, so
// the two are adjacent when ranges[i+1].end immediately precedes
// ranges[i].start.
func (t *ackTracker) mergeWithNext(i int) {
	if i+1 < len(t.ranges) && t.ranges[i+1].end+1 == t.ranges[i].start {
		t.ranges[i].start = t.ranges[i+1].start
		t.ranges = append(t.ranges[:i+1], t.ranges[i+2:]...)
	}
}

// Pending reports whether any packet has been recorded since the last
// BuildFrame, and therefore whether an ACK is owed.
func (t *ackTracker) Pending() bool { return t.dirty }

// BuildFrame returns an AckFrame covering every recorded range, largest
// first, and clears the pending flag. Returns ok=false if nothing has ever
// been received.
func (t *ackTracker) BuildFrame(delay uint64) (*wire.AckFrame, bool) {
	if len(t.ranges) == 0 {
		return nil, false
	}
	t.dirty = false

	blocks := make([][2]uint64, len(t.ranges))
	for i, r := range t.ranges {
		blocks[i] = [2]uint64{uint64(r.start), uint64(r.end)}
	}
	return &wire.AckFrame{
		LargestAcked: uint64(t.ranges[0].end),
		Delay:        delay,
		Blocks:       blocks,
	}, true
}
