// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handshake wraps a TLS 1.3 client state machine (Go's
// crypto/tls QUIC support) and turns the events it emits into the
// per-level AEAD and header-protection ciphers the connection installs,
// the handshake adapter produces. QUIC-TLS key derivation (RFC 9001 §5) lives here too,
// since it is the glue between a TLS secret and a usable AEAD.
package handshake

import (
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/hkdf"

	"github.com/dtn7/goquic/internal/protocol"
)

// initialSaltV1 is the version-specific salt RFC 9001 §5.2 fixes for QUIC
// v1, used to derive the Initial secrets from the client's destination
// connection ID.
var initialSaltV1 = []byte{
	0x38, 0x76, 0x2c, 0xf7, 0xf5, 0x59, 0x34, 0xb3,
	0x4d, 0x17, 0x9a, 0xe6, 0xa4, 0xc8, 0x0c, 0xad,
	0xcc, 0xbb, 0x7f, 0x0a,
}

const (
	keyLen = 16 // AES-128-GCM, the only AEAD this package constructs
	ivLen  = 12
	hpLen  = 16
)

// hkdfExpandLabel implements TLS 1.3's HKDF-Expand-Label (RFC 8446 §7.1)
// on top of golang.org/x/crypto/hkdf's single-step Expand, building the
// "tls13 "-prefixed HkdfLabel structure by hand since the stdlib helper is
// unexported.
func hkdfExpandLabel(secret []byte, label string, context []byte, length int) []byte {
	fullLabel := "tls13 " + label

	info := make([]byte, 0, 2+1+len(fullLabel)+1+len(context))
	info = append(info, byte(length>>8), byte(length))
	info = append(info, byte(len(fullLabel)))
	info = append(info, fullLabel...)
	info = append(info, byte(len(context)))
	info = append(info, context...)

	out := make([]byte, length)
	r := hkdf.Expand(sha256.New, secret, info)
	if _, err := r.Read(out); err != nil {
		// hkdf.Expand only fails when asked for an absurd amount of
		// output; length here is always 12-32 bytes.
		panic("handshake: hkdf expand: " + err.Error())
	}
	return out
}

// InitialSecrets derives the client and server Initial secrets from the
// connection ID the client's first Initial packet used as destination.
func InitialSecrets(destConnID protocol.ConnectionID) (clientSecret, serverSecret []byte) {
	initialSecret := hkdf.Extract(sha256.New, destConnID.Bytes(), initialSaltV1)
	clientSecret = hkdfExpandLabel(initialSecret, "client in", nil, sha256.Size)
	serverSecret = hkdfExpandLabel(initialSecret, "server in", nil, sha256.Size)
	return
}

// LevelSecret is everything needed to build one direction's AEAD and
// header-protection cipher at some encryption level.
type LevelSecret struct {
	Key []byte
	IV  []byte
	HP  []byte
}

// DeriveLevelSecret turns a traffic secret (an Initial secret, or a secret
// handed over by the TLS stack via QUICSetReadSecret/QUICSetWriteSecret)
// into the key/iv/hp triple RFC 9001 §5.1 defines.
func DeriveLevelSecret(trafficSecret []byte) LevelSecret {
	return LevelSecret{
		Key: hkdfExpandLabel(trafficSecret, "quic key", nil, keyLen),
		IV:  hkdfExpandLabel(trafficSecret, "quic iv", nil, ivLen),
		HP:  hkdfExpandLabel(trafficSecret, "quic hp", nil, hpLen),
	}
}

// buildNonce XORs the IV with the packet number exactly as RFC 9001 §5.3
// describes, giving the AEAD nonce for a given packet.
func buildNonce(iv []byte, packetNumber protocol.PacketNumber) []byte {
	nonce := make([]byte, len(iv))
	copy(nonce, iv)
	var pn [8]byte
	binary.BigEndian.PutUint64(pn[:], uint64(packetNumber))
	for i := 0; i < 8 && i < len(nonce); i++ {
		nonce[len(nonce)-1-i] ^= pn[7-i]
	}
	return nonce
}
