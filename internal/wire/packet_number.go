// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import "github.com/dtn7/goquic/internal/protocol"

// DecodePacketNumber expands a truncated, on-wire packet number (1-4
// bytes, already recovered from the header once header protection has
// been removed) back to its full 62-bit form, per RFC 9000 Appendix A.
// largestAcked is the largest fully-decoded packet number this endpoint
// has accepted at the same encryption level so far, or
// protocol.InvalidPacketNumber if none yet.
func DecodePacketNumber(truncated uint64, pnLen int, largestAcked protocol.PacketNumber) protocol.PacketNumber {
	pnBits := uint(pnLen * 8)
	pnWin := int64(1) << pnBits
	pnHalfWin := pnWin / 2

	expected := int64(largestAcked) + 1
	pnMask := pnWin - 1
	candidate := (expected &^ pnMask) | int64(truncated)

	switch {
	case candidate <= expected-pnHalfWin && candidate < (int64(1)<<62)-pnWin:
		candidate += pnWin
	case candidate > expected+pnHalfWin && candidate >= pnWin:
		candidate -= pnWin
	}
	return protocol.PacketNumber(candidate)
}

// EncodePacketNumberLength reports how many bytes (1-4) are needed to
// truncate fullPN on the wire such that DecodePacketNumber recovers it
// given that the peer's largest acknowledged packet number is
// largestAcked, per RFC 9000 Appendix A's "how many bytes" rule: the
// encoding must leave enough room that the decoder's window safely
// contains fullPN.
func EncodePacketNumberLength(fullPN, largestAcked protocol.PacketNumber) int {
	delta := uint64(fullPN - largestAcked)
	for _, n := range []int{1, 2, 3, 4} {
		if delta < uint64(1)<<(uint(n)*8-1) {
			return n
		}
	}
	return 4
}
