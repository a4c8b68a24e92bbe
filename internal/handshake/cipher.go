// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package handshake

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dtn7/goquic/internal/protocol"
)

// aeadCipher wraps a cipher.AEAD together with the IV it nonce-masks
// against, giving Seal/Open that take a packet number instead of a raw
// nonce, matching how the cipher set (C2) is specified to work.
type aeadCipher struct {
	aead cipher.AEAD
	iv   []byte
}

func newAEADCipher(key, iv []byte) (*aeadCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &aeadCipher{aead: aead, iv: iv}, nil
}

func (a *aeadCipher) Seal(dst, plaintext []byte, pn protocol.PacketNumber, associatedData []byte) []byte {
	nonce := buildNonce(a.iv, pn)
	return a.aead.Seal(dst, nonce, plaintext, associatedData)
}

func (a *aeadCipher) Open(dst, ciphertext []byte, pn protocol.PacketNumber, associatedData []byte) ([]byte, error) {
	nonce := buildNonce(a.iv, pn)
	return a.aead.Open(dst, nonce, ciphertext, associatedData)
}

// headerProtector implements QUIC-TLS §5.4's header-protection mask: AES
// in ECB "mode" applied to a single block taken from the protected
// packet's ciphertext sample.
type headerProtector struct {
	block cipher.Block
}

func newHeaderProtector(hpKey []byte) (*headerProtector, error) {
	block, err := aes.NewCipher(hpKey)
	if err != nil {
		return nil, err
	}
	return &headerProtector{block: block}, nil
}

// Mask returns the 5-byte mask RFC 9001 §5.4.1 derives from a 16-byte
// sample of the packet's protected payload.
func (h *headerProtector) Mask(sample []byte) ([]byte, error) {
	if len(sample) != aes.BlockSize {
		return nil, fmt.Errorf("handshake: header protection sample must be %d bytes, got %d", aes.BlockSize, len(sample))
	}
	out := make([]byte, aes.BlockSize)
	h.block.Encrypt(out, sample)
	return out[:5], nil
}
