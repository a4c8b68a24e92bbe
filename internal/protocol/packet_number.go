// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package protocol

// PacketNumber is a per-encryption-level, monotonically increasing counter.
// QUIC packet numbers are encoded on the wire using a variable number of
// bytes (1-4) and decoded relative to the largest acknowledged number; that
// truncation/expansion logic lives in internal/wire, this type is just the
// 62-bit logical value.
type PacketNumber int64

// InvalidPacketNumber is used as a sentinel for "none received yet".
const InvalidPacketNumber PacketNumber = -1

// StreamID identifies a QUIC stream. The low two bits encode initiator and
// directionality per QUIC-TRANSPORT §2.1; this client only ever allocates
// client-initiated IDs and tracks peer-initiated ones it is told about.
type StreamID uint64

const (
	streamInitiatorBit    StreamID = 0x1
	streamDirectionalBit  StreamID = 0x2
	streamServerInitiated StreamID = 0x1
	streamUnidirectional  StreamID = 0x2
)

// IsClientInitiated reports whether the peer (server) did not open the
// stream.
func (s StreamID) IsClientInitiated() bool {
	return s&streamInitiatorBit != streamServerInitiated
}

// IsBidirectional reports whether the stream carries data in both
// directions.
func (s StreamID) IsBidirectional() bool {
	return s&streamDirectionalBit != streamUnidirectional
}
