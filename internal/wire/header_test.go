// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"bytes"
	"testing"

	"github.com/dtn7/goquic/internal/protocol"
)

func TestParseHeaderEmptyBufferYieldsNoHeader(t *testing.T) {
	h, ok, err := ParseHeader(nil, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || h != nil {
		t.Fatalf("expected no header for an empty buffer, got %+v", h)
	}
}

func TestParseHeaderOneByteTooSmall(t *testing.T) {
	h, ok, err := ParseHeader([]byte{0x01}, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || h != nil {
		t.Fatalf("expected no header for a single 0x01 byte, got %+v", h)
	}
}

func TestVersionNegotiationRoundTrip(t *testing.T) {
	dcid := protocol.ConnectionID{1, 2, 3, 4}
	scid := protocol.ConnectionID{5, 6, 7, 8}
	versions := []uint32{0x1, 0xabababab}

	buf := AppendVersionNegotiation(nil, dcid, scid, versions)

	h, ok, err := ParseHeader(buf, 8)
	if err != nil || !ok {
		t.Fatalf("expected a parsed header, got ok=%v err=%v", ok, err)
	}
	if !h.IsVersionNegotiation {
		t.Errorf("expected IsVersionNegotiation = true")
	}
	if !h.DestConnectionID.Equal(dcid) || !h.SrcConnectionID.Equal(scid) {
		t.Errorf("connection ids did not round-trip")
	}
	if len(h.SupportedVersions) != len(versions) {
		t.Fatalf("expected %d versions, got %d", len(versions), len(h.SupportedVersions))
	}
	for i, v := range versions {
		if h.SupportedVersions[i] != v {
			t.Errorf("version[%d] = %#x, want %#x", i, h.SupportedVersions[i], v)
		}
	}
}

func TestShortHeaderRoundTrip(t *testing.T) {
	dcid := protocol.ConnectionID{0xaa, 0xbb, 0xcc, 0xdd}
	buf := AppendShortHeader(nil, dcid, true)
	buf = append(buf, 0x00, 0x01) // fake packet number + payload byte

	h, ok, err := ParseHeader(buf, dcid.Len())
	if err != nil || !ok {
		t.Fatalf("expected a parsed header, got ok=%v err=%v", ok, err)
	}
	if h.IsLongHeader {
		t.Errorf("expected a short header")
	}
	if !h.DestConnectionID.Equal(dcid) {
		t.Errorf("destination connection id = %v, want %v", h.DestConnectionID, dcid)
	}
}

func TestLongHeaderRoundTrip(t *testing.T) {
	dcid := protocol.ConnectionID{1, 1, 1, 1, 1, 1, 1, 1}
	scid := protocol.ConnectionID{2, 2, 2, 2}
	token := []byte("retry-token")

	buf, err := AppendLongHeader(nil, 0x0 /* Initial */, Version1, dcid, scid, token, 100)
	if err != nil {
		t.Fatalf("AppendLongHeader: %v", err)
	}

	h, ok, err := ParseHeader(buf, 8)
	if err != nil || !ok {
		t.Fatalf("expected a parsed header, got ok=%v err=%v", ok, err)
	}
	if !h.IsLongHeader || h.IsVersionNegotiation {
		t.Errorf("expected a long, non-version-negotiation header")
	}
	if h.Type != PacketTypeInitial {
		t.Errorf("type = %v, want Initial", h.Type)
	}
	if h.Version != Version1 {
		t.Errorf("version = %#x, want %#x", h.Version, Version1)
	}
	if !h.DestConnectionID.Equal(dcid) || !h.SrcConnectionID.Equal(scid) {
		t.Errorf("connection ids did not round-trip")
	}
	if !bytes.Equal(h.Token, token) {
		t.Errorf("token = %q, want %q", h.Token, token)
	}
	if h.Length != 100 {
		t.Errorf("length = %d, want 100", h.Length)
	}
}
