// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicclient

import (
	"fmt"

	"github.com/dtn7/goquic/internal/handshake"
	"github.com/dtn7/goquic/internal/protocol"
	"github.com/dtn7/goquic/internal/wire"
)

// sampleOffset is how far past the start of the packet number field RFC
// 9001 §5.4.2 takes the 16-byte header-protection sample from, regardless
// of the packet number's actual (still unknown at that point) length.
const sampleOffset = 4

// unprotectPacket removes header protection from a long- or short-header
// packet and decrypts its payload, returning the recovered packet number
// and plaintext. pnOffset is where the (protected) packet number begins;
// the header bytes up to the end of the packet number, once its real
// length is known, form the AEAD associated data. raw is unmasked in place.
func unprotectPacket(cs *handshake.CipherSet, level protocol.EncryptionLevel, raw []byte, pnOffset int, largestAcked protocol.PacketNumber) (protocol.PacketNumber, []byte, error) {
	if pnOffset+sampleOffset+16 > len(raw) {
		return 0, nil, fmt.Errorf("quicclient: packet too short for a header-protection sample")
	}
	sample := raw[pnOffset+sampleOffset : pnOffset+sampleOffset+16]

	mask, err := cs.HeaderProtectionMask(level, protocol.DirectionRead, sample)
	if err != nil {
		return 0, nil, err
	}

	first := raw[0]
	if first&0x80 != 0 {
		first ^= mask[0] & 0x0f
	} else {
		first ^= mask[0] & 0x1f
	}
	pnLen := int(first&0x3) + 1

	pnBytes := make([]byte, pnLen)
	for i := 0; i < pnLen; i++ {
		pnBytes[i] = raw[pnOffset+i] ^ mask[1+i]
	}
	raw[0] = first
	copy(raw[pnOffset:pnOffset+pnLen], pnBytes)

	var truncated uint64
	for _, b := range pnBytes {
		truncated = truncated<<8 | uint64(b)
	}
	pn := wire.DecodePacketNumber(truncated, pnLen, largestAcked)

	associatedData := raw[:pnOffset+pnLen]
	ciphertext := raw[pnOffset+pnLen:]

	plaintext, err := cs.Open(level, pn, associatedData, ciphertext)
	if err != nil {
		return 0, nil, fmt.Errorf("quicclient: AEAD open failed: %w", err)
	}
	return pn, plaintext, nil
}

// protectPacket applies header protection to an already-AEAD-sealed
// packet. header is the complete unprotected header including the
// plaintext packet number bytes; sealed is the AEAD output (ciphertext
// only, no header). The two are copied into a new slice and protection is
// applied to its first byte and packet-number bytes.
func protectPacket(cs *handshake.CipherSet, level protocol.EncryptionLevel, header []byte, pnLen int, sealed []byte) ([]byte, error) {
	packet := append(append([]byte(nil), header...), sealed...)
	pnOffset := len(header) - pnLen

	if pnOffset+sampleOffset+16 > len(packet) {
		// RFC 9001 §5.4.2 requires enough sampled ciphertext to exist;
		// pad with zero bytes of authenticated ciphertext is not an
		// option here since the AEAD has already run, so the caller
		// must guarantee a big-enough payload. Short test payloads
		// rely on the AEAD tag's 16 bytes for this.
		return nil, fmt.Errorf("quicclient: sealed packet too short for a header-protection sample")
	}
	sample := packet[pnOffset+sampleOffset : pnOffset+sampleOffset+16]

	mask, err := cs.HeaderProtectionMask(level, protocol.DirectionWrite, sample)
	if err != nil {
		return nil, err
	}

	if packet[0]&0x80 != 0 {
		packet[0] ^= mask[0] & 0x0f
	} else {
		packet[0] ^= mask[0] & 0x1f
	}
	for i := 0; i < pnLen; i++ {
		packet[pnOffset+i] ^= mask[1+i]
	}
	return packet, nil
}
