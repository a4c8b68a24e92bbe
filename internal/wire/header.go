// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package wire implements the QUIC packet-header codec: long- and
// short-header parsing and serialization, and the varint codec the rest
// of the package builds on. Frame parsing lives alongside it in frame.go.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dtn7/goquic/internal/protocol"
)

// PacketType distinguishes the long-header packet types. ShortHeader is a
// sentinel for 1-RTT packets, which carry no explicit type field on the
// wire (the form bit alone distinguishes them).
type PacketType int

const (
	PacketTypeInitial PacketType = iota
	PacketTypeZeroRTT
	PacketTypeHandshake
	PacketTypeRetry
	PacketTypeVersionNegotiation
	PacketTypeShortHeader
)

func (t PacketType) String() string {
	switch t {
	case PacketTypeInitial:
		return "Initial"
	case PacketTypeZeroRTT:
		return "0-RTT"
	case PacketTypeHandshake:
		return "Handshake"
	case PacketTypeRetry:
		return "Retry"
	case PacketTypeVersionNegotiation:
		return "VersionNegotiation"
	case PacketTypeShortHeader:
		return "1-RTT"
	default:
		return "Invalid"
	}
}

// EncryptionLevel maps a packet type to the encryption level its payload is
// protected under. Retry and VersionNegotiation carry no encrypted
// payload and have no meaningful level.
func (t PacketType) EncryptionLevel() (protocol.EncryptionLevel, bool) {
	switch t {
	case PacketTypeInitial:
		return protocol.EncryptionInitial, true
	case PacketTypeZeroRTT:
		return protocol.EncryptionEarlyData, true
	case PacketTypeHandshake:
		return protocol.EncryptionHandshake, true
	case PacketTypeShortHeader:
		return protocol.EncryptionAppData, true
	default:
		return 0, false
	}
}

// QUIC v1 long-header type bits (RFC 9000 §17.2), carried in the low two
// bits of the type-specific nibble.
const (
	longTypeInitial   = 0x0
	longTypeZeroRTT   = 0x1
	longTypeHandshake = 0x2
	longTypeRetry     = 0x3
)

// Exported names for the same type bits, for callers outside this
// package building headers with AppendLongHeader.
const (
	LongHeaderTypeInitial   = longTypeInitial
	LongHeaderTypeZeroRTT   = longTypeZeroRTT
	LongHeaderTypeHandshake = longTypeHandshake
	LongHeaderTypeRetry     = longTypeRetry
)

// Version 1 of the QUIC transport, the only version this client speaks.
const Version1 uint32 = 0x00000001

const (
	headerFormLong  = 0x80
	headerFixedBit  = 0x40
	shortKeyPhase   = 0x04
)

var (
	// ErrNoHeader signals that data was too short to contain any header at
	// all — the buffer should be treated as "nothing parsed", not an error
	// worth logging.
	ErrNoHeader = errors.New("wire: buffer too short for a header")
)

// Header is the parsed form of one QUIC packet header, long or short.
type Header struct {
	IsLongHeader         bool
	IsVersionNegotiation bool

	Type    PacketType
	Version uint32

	DestConnectionID protocol.ConnectionID
	SrcConnectionID   protocol.ConnectionID

	Token []byte // Initial (from NEW_TOKEN-bearing retries) and Retry

	// Length is the varint-encoded remaining length (packet number +
	// payload) for Initial/0-RTT/Handshake packets.
	Length uint64

	// SupportedVersions is populated only for version-negotiation
	// packets.
	SupportedVersions []uint32

	// RetryIntegrityTag is the trailing 16 bytes of a Retry packet.
	RetryIntegrityTag []byte

	// ParsedLen is how many bytes of the input ParseHeader consumed to
	// produce this header (not including the variable-length packet
	// number, which is protected and decoded after header-protection
	// removal).
	ParsedLen int
}

// ParseHeader parses the header at the front of data. shortDestConnIDLen is
// the length this endpoint uses for its own connection IDs, since a short
// header never carries its destination connection ID's length on the wire.
//
// A zero-length buffer, or a buffer too short to hold even
// the first header byte's required follow-on fields, yields (nil, false,
// nil) rather than an error — "no header", not a parse failure.
func ParseHeader(data []byte, shortDestConnIDLen int) (*Header, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}

	first := data[0]
	if first&headerFormLong == 0 {
		return parseShortHeader(data, shortDestConnIDLen)
	}
	return parseLongHeader(data)
}

func parseShortHeader(data []byte, connIDLen int) (*Header, bool, error) {
	if connIDLen < 0 || connIDLen > protocol.MaxConnectionIDLen {
		return nil, false, fmt.Errorf("wire: invalid short header connection id length %d", connIDLen)
	}
	if len(data) < 1+connIDLen {
		// Too short to even hold the declared connection ID: "no header".
		return nil, false, nil
	}
	dcid := make(protocol.ConnectionID, connIDLen)
	copy(dcid, data[1:1+connIDLen])

	return &Header{
		IsLongHeader:     false,
		Type:             PacketTypeShortHeader,
		DestConnectionID: dcid,
		ParsedLen:        1 + connIDLen,
	}, true, nil
}

func parseLongHeader(data []byte) (*Header, bool, error) {
	// form bit + fixed bit + type bits + 4 version bytes is the minimum
	// any long header needs before its connection IDs.
	if len(data) < 6 {
		return nil, false, nil
	}

	first := data[0]
	version := binary.BigEndian.Uint32(data[1:5])
	off := 5

	if off >= len(data) {
		return nil, false, nil
	}
	dcil := int(data[off])
	off++
	if off+dcil > len(data) {
		return nil, false, nil
	}
	dcid := make(protocol.ConnectionID, dcil)
	copy(dcid, data[off:off+dcil])
	off += dcil

	if off >= len(data) {
		return nil, false, nil
	}
	scil := int(data[off])
	off++
	if off+scil > len(data) {
		return nil, false, nil
	}
	scid := make(protocol.ConnectionID, scil)
	copy(scid, data[off:off+scil])
	off += scil

	if version == 0 {
		return parseVersionNegotiation(data, off, dcid, scid)
	}

	h := &Header{
		IsLongHeader:      true,
		Version:           version,
		DestConnectionID:  dcid,
		SrcConnectionID:   scid,
	}

	switch (first >> 4) & 0x3 {
	case longTypeInitial:
		h.Type = PacketTypeInitial
		tokenLen, n, err := ReadVarInt(data[off:])
		if err != nil {
			return nil, false, nil
		}
		off += n
		if off+int(tokenLen) > len(data) {
			return nil, false, nil
		}
		h.Token = append([]byte(nil), data[off:off+int(tokenLen)]...)
		off += int(tokenLen)
	case longTypeZeroRTT:
		h.Type = PacketTypeZeroRTT
	case longTypeHandshake:
		h.Type = PacketTypeHandshake
	case longTypeRetry:
		h.Type = PacketTypeRetry
		if len(data) < off+16 {
			return nil, false, nil
		}
		h.Token = append([]byte(nil), data[off:len(data)-16]...)
		h.RetryIntegrityTag = append([]byte(nil), data[len(data)-16:]...)
		h.ParsedLen = len(data)
		return h, true, nil
	default:
		return nil, false, fmt.Errorf("wire: unknown long header type bits %#x", (first>>4)&0x3)
	}

	length, n, err := ReadVarInt(data[off:])
	if err != nil {
		return nil, false, nil
	}
	off += n
	h.Length = length
	h.ParsedLen = off

	return h, true, nil
}

func parseVersionNegotiation(data []byte, off int, dcid, scid protocol.ConnectionID) (*Header, bool, error) {
	if (len(data)-off)%4 != 0 {
		return nil, false, fmt.Errorf("wire: malformed version list")
	}
	var versions []uint32
	for off < len(data) {
		versions = append(versions, binary.BigEndian.Uint32(data[off:off+4]))
		off += 4
	}
	return &Header{
		IsLongHeader:         true,
		IsVersionNegotiation: true,
		Type:                 PacketTypeVersionNegotiation,
		DestConnectionID:     dcid,
		SrcConnectionID:       scid,
		SupportedVersions:    versions,
		ParsedLen:            off,
	}, true, nil
}

// AppendLongHeader serializes a long header (everything but the packet
// number, which is appended separately once header protection is applied)
// for one of Initial/0-RTT/Handshake. typeBits must be one of the
// longType* constants.
func AppendLongHeader(buf []byte, typeBits byte, version uint32, dcid, scid protocol.ConnectionID, token []byte, remainingLength uint64) ([]byte, error) {
	if dcid.Len() > protocol.MaxConnectionIDLen || scid.Len() > protocol.MaxConnectionIDLen {
		return nil, fmt.Errorf("wire: connection id too long")
	}
	first := headerFormLong | headerFixedBit | (typeBits << 4)
	buf = append(buf, first)
	var versionBytes [4]byte
	binary.BigEndian.PutUint32(versionBytes[:], version)
	buf = append(buf, versionBytes[:]...)
	buf = append(buf, byte(dcid.Len()))
	buf = append(buf, dcid.Bytes()...)
	buf = append(buf, byte(scid.Len()))
	buf = append(buf, scid.Bytes()...)
	if typeBits == longTypeInitial {
		var err error
		buf, err = WriteVarInt(buf, uint64(len(token)))
		if err != nil {
			return nil, err
		}
		buf = append(buf, token...)
	}
	buf, err := WriteVarInt(buf, remainingLength)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// AppendVersionNegotiation serializes a version-negotiation packet. Used
// only by tests: a client never sends one.
func AppendVersionNegotiation(buf []byte, dcid, scid protocol.ConnectionID, versions []uint32) []byte {
	first := byte(headerFormLong | headerFixedBit)
	buf = append(buf, first, 0, 0, 0, 0)
	buf = append(buf, byte(dcid.Len()))
	buf = append(buf, dcid.Bytes()...)
	buf = append(buf, byte(scid.Len()))
	buf = append(buf, scid.Bytes()...)
	for _, v := range versions {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	return buf
}

// AppendShortHeader serializes a 1-RTT header (form bit clear). keyPhase
// selects the current key-phase bit.
func AppendShortHeader(buf []byte, dcid protocol.ConnectionID, keyPhase bool) []byte {
	first := byte(headerFixedBit)
	if keyPhase {
		first |= shortKeyPhase
	}
	buf = append(buf, first)
	buf = append(buf, dcid.Bytes()...)
	return buf
}
