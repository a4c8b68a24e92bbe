// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package handshake

import (
	"fmt"

	"github.com/dtn7/goquic/internal/protocol"
)

// levelKeys holds the read or write AEAD and header-protection cipher for
// one encryption level, exactly the material a cipher set needs.
type levelKeys struct {
	read  *directionKeys
	write *directionKeys
}

type directionKeys struct {
	aead *aeadCipher
	hp   *headerProtector
}

// CipherSet (C2) holds at most one read and one write cipher per
// encryption level, plus matching header-protection keys. Installation is
// one-shot per (level, direction): a second Install at the same slot is a
// programming error, not a runtime condition to recover from, since the
// handshake adapter itself guarantees it never re-derives a level's keys.
type CipherSet struct {
	levels [4]levelKeys
}

// NewCipherSet returns an empty cipher set.
func NewCipherSet() *CipherSet { return &CipherSet{} }

// Install stores the AEAD and header-protection keys for one
// (level, direction) slot. Calling it twice for the same slot is a
// program error.
func (cs *CipherSet) Install(level protocol.EncryptionLevel, direction protocol.Direction, secret LevelSecret) error {
	aead, err := newAEADCipher(secret.Key, secret.IV)
	if err != nil {
		return fmt.Errorf("handshake: building AEAD for %s/%s: %w", level, direction, err)
	}
	hp, err := newHeaderProtector(secret.HP)
	if err != nil {
		return fmt.Errorf("handshake: building header protector for %s/%s: %w", level, direction, err)
	}

	slot := &cs.levels[level]
	dk := &directionKeys{aead: aead, hp: hp}
	switch direction {
	case protocol.DirectionRead:
		if slot.read != nil {
			panic(fmt.Sprintf("handshake: %s read cipher installed twice", level))
		}
		slot.read = dk
	case protocol.DirectionWrite:
		if slot.write != nil {
			panic(fmt.Sprintf("handshake: %s write cipher installed twice", level))
		}
		slot.write = dk
	}
	return nil
}

// HasReadCipher reports whether a receive cipher exists for level, the
// gate the receive path checks before decrypting an incoming packet.
func (cs *CipherSet) HasReadCipher(level protocol.EncryptionLevel) bool {
	return cs.levels[level].read != nil
}

// HasWriteCipher reports whether a send cipher exists for level.
func (cs *CipherSet) HasWriteCipher(level protocol.EncryptionLevel) bool {
	return cs.levels[level].write != nil
}

// Open AEAD-decrypts one packet's payload; header protection must already
// have been removed by the caller. pn is the recovered full packet number
// and associatedData is the portion of the header that is authenticated
// but not encrypted.
func (cs *CipherSet) Open(level protocol.EncryptionLevel, pn protocol.PacketNumber, associatedData, ciphertext []byte) ([]byte, error) {
	dk := cs.levels[level].read
	if dk == nil {
		return nil, fmt.Errorf("handshake: no read cipher installed for %s", level)
	}
	return dk.aead.Open(nil, ciphertext, pn, associatedData)
}

// Seal AEAD-encrypts a packet's payload under level's write cipher.
func (cs *CipherSet) Seal(level protocol.EncryptionLevel, pn protocol.PacketNumber, associatedData, plaintext []byte) ([]byte, error) {
	dk := cs.levels[level].write
	if dk == nil {
		return nil, fmt.Errorf("handshake: no write cipher installed for %s", level)
	}
	return dk.aead.Seal(nil, plaintext, pn, associatedData), nil
}

// HeaderProtectionMask computes the header-protection mask for a sample
// under level's cipher in the given direction.
func (cs *CipherSet) HeaderProtectionMask(level protocol.EncryptionLevel, direction protocol.Direction, sample []byte) ([]byte, error) {
	var dk *directionKeys
	if direction == protocol.DirectionRead {
		dk = cs.levels[level].read
	} else {
		dk = cs.levels[level].write
	}
	if dk == nil {
		return nil, fmt.Errorf("handshake: no %s cipher installed for %s", direction, level)
	}
	return dk.hp.Mask(sample)
}

// Discard drops both ciphers for a level. Per RFC 9001's key lifecycle rules: valid once
// OneRtt keys exist (for Initial), and after a short retention window
// once Established (for Handshake).
func (cs *CipherSet) Discard(level protocol.EncryptionLevel) {
	cs.levels[level] = levelKeys{}
}
