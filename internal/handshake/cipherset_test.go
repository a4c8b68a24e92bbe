// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package handshake

import (
	"bytes"
	"crypto/aes"
	"testing"

	"github.com/dtn7/goquic/internal/protocol"
)

func testSecret(fill byte) LevelSecret {
	key := bytes.Repeat([]byte{fill}, keyLen)
	iv := bytes.Repeat([]byte{fill + 1}, ivLen)
	hp := bytes.Repeat([]byte{fill + 2}, hpLen)
	return LevelSecret{Key: key, IV: iv, HP: hp}
}

func TestCipherSetSealOpenRoundTrip(t *testing.T) {
	cs := NewCipherSet()
	secret := testSecret(0x11)

	if err := cs.Install(protocol.EncryptionInitial, protocol.DirectionWrite, secret); err != nil {
		t.Fatalf("Install write: %v", err)
	}
	if err := cs.Install(protocol.EncryptionInitial, protocol.DirectionRead, secret); err != nil {
		t.Fatalf("Install read: %v", err)
	}

	ad := []byte("header bytes")
	plaintext := []byte("crypto frame payload")

	sealed, err := cs.Seal(protocol.EncryptionInitial, 7, ad, plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	opened, err := cs.Open(protocol.EncryptionInitial, 7, ad, sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("round trip mismatch: got %q, want %q", opened, plaintext)
	}
}

func TestCipherSetOpenFailsOnWrongPacketNumber(t *testing.T) {
	cs := NewCipherSet()
	secret := testSecret(0x22)
	_ = cs.Install(protocol.EncryptionAppData, protocol.DirectionWrite, secret)
	_ = cs.Install(protocol.EncryptionAppData, protocol.DirectionRead, secret)

	sealed, err := cs.Seal(protocol.EncryptionAppData, 1, []byte("ad"), []byte("payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := cs.Open(protocol.EncryptionAppData, 2, []byte("ad"), sealed); err == nil {
		t.Errorf("expected Open with the wrong packet number to fail auth")
	}
}

func TestCipherSetOpenWithoutInstalledCipherFails(t *testing.T) {
	cs := NewCipherSet()
	if _, err := cs.Open(protocol.EncryptionHandshake, 0, nil, []byte("x")); err == nil {
		t.Errorf("expected Open to fail when no read cipher is installed")
	}
}

func TestCipherSetInstallTwiceAtSameSlotPanics(t *testing.T) {
	cs := NewCipherSet()
	secret := testSecret(0x33)
	_ = cs.Install(protocol.EncryptionHandshake, protocol.DirectionWrite, secret)

	defer func() {
		if recover() == nil {
			t.Errorf("expected a second Install at the same (level, direction) to panic")
		}
	}()
	_ = cs.Install(protocol.EncryptionHandshake, protocol.DirectionWrite, secret)
}

func TestCipherSetDiscardClearsBothDirections(t *testing.T) {
	cs := NewCipherSet()
	secret := testSecret(0x44)
	_ = cs.Install(protocol.EncryptionInitial, protocol.DirectionWrite, secret)
	_ = cs.Install(protocol.EncryptionInitial, protocol.DirectionRead, secret)

	cs.Discard(protocol.EncryptionInitial)

	if cs.HasReadCipher(protocol.EncryptionInitial) || cs.HasWriteCipher(protocol.EncryptionInitial) {
		t.Errorf("expected both ciphers to be gone after Discard")
	}
}

func TestHeaderProtectionMaskIsDeterministicPerSample(t *testing.T) {
	hp, err := newHeaderProtector(bytes.Repeat([]byte{0x55}, hpLen))
	if err != nil {
		t.Fatalf("newHeaderProtector: %v", err)
	}
	sample := bytes.Repeat([]byte{0xAB}, aes.BlockSize)

	m1, err := hp.Mask(sample)
	if err != nil {
		t.Fatalf("Mask: %v", err)
	}
	m2, err := hp.Mask(sample)
	if err != nil {
		t.Fatalf("Mask: %v", err)
	}
	if !bytes.Equal(m1, m2) {
		t.Errorf("Mask must be deterministic for the same sample")
	}
	if len(m1) != 5 {
		t.Errorf("mask length = %d, want 5", len(m1))
	}
}

func TestHeaderProtectionMaskRejectsWrongSampleSize(t *testing.T) {
	hp, _ := newHeaderProtector(bytes.Repeat([]byte{0x01}, hpLen))
	if _, err := hp.Mask([]byte{1, 2, 3}); err == nil {
		t.Errorf("expected an error for a sample shorter than one AES block")
	}
}
