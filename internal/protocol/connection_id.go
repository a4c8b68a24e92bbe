// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package protocol

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// MaxConnectionIDLen is the largest connection ID QUIC v1 allows.
const MaxConnectionIDLen = 20

// ConnectionID is an opaque, 0-20 byte identifier chosen by one endpoint to
// let the other address packets to it irrespective of the path they travel.
type ConnectionID []byte

// GenerateConnectionID returns a random connection ID of the given length.
func GenerateConnectionID(length int) (ConnectionID, error) {
	if length < 0 || length > MaxConnectionIDLen {
		return nil, fmt.Errorf("protocol: invalid connection id length %d", length)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return ConnectionID(b), nil
}

// Len reports the connection ID's length in bytes.
func (c ConnectionID) Len() int { return len(c) }

// Bytes returns the raw bytes of the connection ID.
func (c ConnectionID) Bytes() []byte { return []byte(c) }

func (c ConnectionID) String() string {
	if len(c) == 0 {
		return "(empty)"
	}
	return hex.EncodeToString(c)
}

// Equal reports whether two connection IDs carry the same bytes.
func (c ConnectionID) Equal(other ConnectionID) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}
