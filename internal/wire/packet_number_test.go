// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"testing"

	"github.com/dtn7/goquic/internal/protocol"
)

func TestDecodePacketNumberRoundTripsAroundLargestAcked(t *testing.T) {
	cases := []struct {
		full         protocol.PacketNumber
		largestAcked protocol.PacketNumber
	}{
		{0, protocol.InvalidPacketNumber},
		{1, 0},
		{255, 10},
		{256, 10},
		{100000, 99990},
	}
	for _, c := range cases {
		n := EncodePacketNumberLength(c.full, c.largestAcked)
		truncated := uint64(c.full) & ((uint64(1) << (uint(n) * 8)) - 1)
		got := DecodePacketNumber(truncated, n, c.largestAcked)
		if got != c.full {
			t.Errorf("full=%d largestAcked=%d n=%d: decoded %d, want %d", c.full, c.largestAcked, n, got, c.full)
		}
	}
}
