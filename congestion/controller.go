// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package congestion

import "time"

// SentPacket describes a packet the connection has just handed to the
// socket, for congestion-control bookkeeping.
type SentPacket struct {
	Number  int64
	Size    uint64
	SentAt  time.Time
	InFlight bool
}

// AckedPacket describes a packet the peer has acknowledged.
type AckedPacket struct {
	Number int64
	Size   uint64
}

// LostPacket describes a packet declared lost by loss detection.
type LostPacket struct {
	Number int64
	Size   uint64
}

// Controller is the narrow interface the connection state machine (C5)
// consumes; the algorithm behind it (NewReno, Cubic, BBR, ...) is out of
// scope for this repository - only the sent/acked/lost feedback hooks a
// pluggable controller needs live here.
type Controller interface {
	// OnPacketSent records that a packet has left the host.
	OnPacketSent(sent SentPacket)
	// OnPacketAcked records a newly-acknowledged packet along with the
	// measured RTT sample for this ack.
	OnPacketAcked(acked AckedPacket, now time.Time, rtt time.Duration)
	// OnPacketLoss records packets loss detection gave up on.
	OnPacketLoss(lost []LostPacket)
	// GetWritableBytes reports how many more bytes may currently be sent
	// without exceeding the congestion window.
	GetWritableBytes() uint64
	// GetBandwidth returns the controller's current bandwidth estimate.
	GetBandwidth() Bandwidth
}
