// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicclient

import (
	"bytes"
	"testing"

	"github.com/dtn7/goquic/internal/handshake"
	"github.com/dtn7/goquic/internal/protocol"
)

func testLevelSecret(fill byte) handshake.LevelSecret {
	return handshake.LevelSecret{
		Key: bytes.Repeat([]byte{fill}, 16),
		IV:  bytes.Repeat([]byte{fill + 1}, 12),
		HP:  bytes.Repeat([]byte{fill + 2}, 16),
	}
}

func TestProtectUnprotectPacketRoundTrip(t *testing.T) {
	cs := handshake.NewCipherSet()
	secret := testLevelSecret(0x10)
	if err := cs.Install(protocol.EncryptionAppData, protocol.DirectionWrite, secret); err != nil {
		t.Fatalf("Install write: %v", err)
	}
	if err := cs.Install(protocol.EncryptionAppData, protocol.DirectionRead, secret); err != nil {
		t.Fatalf("Install read: %v", err)
	}

	const pnLen = 2
	header := append([]byte{0x41}, []byte{0xaa, 0xbb}...) // short header form, low bits encode a 2-byte pn
	pn := protocol.PacketNumber(0xaabb)
	payload := []byte("this is a crypto frame carrying a test payload")

	sealed, err := cs.Seal(protocol.EncryptionAppData, pn, header, payload)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	raw, err := protectPacket(cs, protocol.EncryptionAppData, header, pnLen, sealed)
	if err != nil {
		t.Fatalf("protectPacket: %v", err)
	}

	gotPN, plaintext, err := unprotectPacket(cs, protocol.EncryptionAppData, raw, len(header)-pnLen, protocol.InvalidPacketNumber)
	if err != nil {
		t.Fatalf("unprotectPacket: %v", err)
	}
	if gotPN != pn {
		t.Errorf("recovered packet number = %d, want %d", gotPN, pn)
	}
	if !bytes.Equal(plaintext, payload) {
		t.Errorf("recovered plaintext = %q, want %q", plaintext, payload)
	}
}

func TestUnprotectPacketFailsOnTamperedCiphertext(t *testing.T) {
	cs := handshake.NewCipherSet()
	secret := testLevelSecret(0x20)
	_ = cs.Install(protocol.EncryptionInitial, protocol.DirectionWrite, secret)
	_ = cs.Install(protocol.EncryptionInitial, protocol.DirectionRead, secret)

	const pnLen = 1
	header := []byte{0xc0, 0x01}
	pn := protocol.PacketNumber(1)
	payload := []byte("initial crypto payload padded to be long enough")

	sealed, err := cs.Seal(protocol.EncryptionInitial, pn, header, payload)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	raw, err := protectPacket(cs, protocol.EncryptionInitial, header, pnLen, sealed)
	if err != nil {
		t.Fatalf("protectPacket: %v", err)
	}

	raw[len(raw)-1] ^= 0xff // flip a ciphertext byte

	if _, _, err := unprotectPacket(cs, protocol.EncryptionInitial, raw, len(header)-pnLen, protocol.InvalidPacketNumber); err == nil {
		t.Errorf("expected tampered ciphertext to fail AEAD authentication")
	}
}
