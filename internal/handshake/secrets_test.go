// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package handshake

import (
	"bytes"
	"testing"

	"github.com/dtn7/goquic/internal/protocol"
)

func TestInitialSecretsAreDeterministicAndDistinct(t *testing.T) {
	dcid := protocol.ConnectionID{0x83, 0x94, 0xc8, 0xf0, 0x3e, 0x51, 0x57, 0x08}

	clientA, serverA := InitialSecrets(dcid)
	clientB, serverB := InitialSecrets(dcid)

	if !bytes.Equal(clientA, clientB) || !bytes.Equal(serverA, serverB) {
		t.Errorf("InitialSecrets must be a deterministic function of the connection id")
	}
	if bytes.Equal(clientA, serverA) {
		t.Errorf("client and server initial secrets must differ")
	}
	if len(clientA) != 32 || len(serverA) != 32 {
		t.Errorf("expected 32-byte (SHA-256) secrets, got %d/%d", len(clientA), len(serverA))
	}

	otherDCID := protocol.ConnectionID{1, 2, 3, 4}
	clientC, _ := InitialSecrets(otherDCID)
	if bytes.Equal(clientA, clientC) {
		t.Errorf("different connection ids must derive different secrets")
	}
}

func TestDeriveLevelSecretProducesDistinctKeyIVHP(t *testing.T) {
	dcid := protocol.ConnectionID{1, 2, 3, 4, 5, 6, 7, 8}
	client, _ := InitialSecrets(dcid)

	ls := DeriveLevelSecret(client)
	if len(ls.Key) != keyLen {
		t.Errorf("key length = %d, want %d", len(ls.Key), keyLen)
	}
	if len(ls.IV) != ivLen {
		t.Errorf("iv length = %d, want %d", len(ls.IV), ivLen)
	}
	if len(ls.HP) != hpLen {
		t.Errorf("hp length = %d, want %d", len(ls.HP), hpLen)
	}
	if bytes.Equal(ls.Key, ls.IV[:minInt(len(ls.Key), len(ls.IV))]) {
		t.Errorf("key and iv must not collide")
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func TestBuildNonceXorsPacketNumberIntoLowBytes(t *testing.T) {
	iv := make([]byte, ivLen)
	for i := range iv {
		iv[i] = byte(i)
	}
	n0 := buildNonce(iv, 0)
	if !bytes.Equal(n0, iv) {
		t.Errorf("nonce for packet number 0 must equal the iv unchanged")
	}
	n1 := buildNonce(iv, 1)
	if bytes.Equal(n0, n1) {
		t.Errorf("different packet numbers must produce different nonces")
	}
	if len(n1) != len(iv) {
		t.Errorf("nonce length changed: got %d, want %d", len(n1), len(iv))
	}
}
