// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicclient

import "sort"

// cryptoBuffer reassembles one encryption level's CRYPTO stream:
// the TLS state machine requires bytes be delivered to the TLS machine in offset
// order, with gaps held until they become contiguous.
type cryptoBuffer struct {
	nextOffset uint64
	pending    map[uint64][]byte // offset -> data, for out-of-order fragments
}

func newCryptoBuffer() *cryptoBuffer {
	return &cryptoBuffer{pending: make(map[uint64][]byte)}
}

// Add records a CRYPTO frame's bytes and returns the longest contiguous
// run now available starting at the stream's current offset, consuming
// it from the buffer.
func (b *cryptoBuffer) Add(offset uint64, data []byte) []byte {
	if offset+uint64(len(data)) <= b.nextOffset {
		return nil // fully duplicate
	}
	if offset < b.nextOffset {
		// Partially duplicate: trim the already-delivered prefix.
		skip := b.nextOffset - offset
		data = data[skip:]
		offset = b.nextOffset
	}
	if len(data) > 0 {
		b.pending[offset] = data
	}

	var out []byte
	for {
		chunk, ok := b.pending[b.nextOffset]
		if !ok {
			break
		}
		delete(b.pending, b.nextOffset)
		out = append(out, chunk...)
		b.nextOffset += uint64(len(chunk))
	}
	return out
}

// offsets returns the pending fragment start offsets in ascending order,
// for diagnostics/tests only.
func (b *cryptoBuffer) offsets() []uint64 {
	out := make([]uint64, 0, len(b.pending))
	for o := range b.pending {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
