// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"reflect"
	"testing"

	"github.com/dtn7/goquic/internal/protocol"
)

func roundTrip(t *testing.T, f Frame) Frame {
	t.Helper()
	buf, err := f.Append(nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, n, err := ParseFrame(buf)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if n != len(buf) {
		t.Errorf("consumed %d bytes, want %d", n, len(buf))
	}
	return got
}

func TestFrameRoundTrip(t *testing.T) {
	tests := []Frame{
		&PingFrame{},
		&CryptoFrame{Offset: 42, Data: []byte("client hello bytes")},
		&StreamFrame{StreamID: 4, Offset: 7, Data: []byte("hello"), Fin: true},
		&StreamFrame{StreamID: 0, Offset: 0, Data: []byte("x"), Fin: false},
		&MaxDataFrame{Maximum: 1 << 20},
		&MaxStreamDataFrame{StreamID: 8, Maximum: 4096},
		&MaxStreamsFrame{Bidi: true, Maximum: 100},
		&MaxStreamsFrame{Bidi: false, Maximum: 50},
		&DataBlockedFrame{Maximum: 10},
		&StreamDataBlockedFrame{StreamID: 12, Maximum: 20},
		&StreamsBlockedFrame{Bidi: true, Maximum: 3},
		&ResetStreamFrame{StreamID: 4, ErrorCode: 1, FinalSize: 99},
		&StopSendingFrame{StreamID: 4, ErrorCode: 2},
		&NewTokenFrame{Token: []byte("token-bytes")},
		&RetireConnectionIDFrame{SequenceNumber: 3},
		&PathChallengeFrame{Data: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}},
		&PathResponseFrame{Data: [8]byte{8, 7, 6, 5, 4, 3, 2, 1}},
		&ConnectionCloseFrame{IsApplication: false, ErrorCode: 10, FrameType: 6, ReasonPhrase: "protocol violation"},
		&ConnectionCloseFrame{IsApplication: true, ErrorCode: 0, ReasonPhrase: "bye"},
		&HandshakeDoneFrame{},
		&MinStreamDataFrame{StreamID: 4, MaximumData: 1000, MinimumOffset: 500},
		&ExpiredStreamDataFrame{StreamID: 4, Offset: 500},
		&NewConnectionIDFrame{
			SequenceNumber: 1,
			RetirePriorTo:  0,
			ConnectionID:   protocol.ConnectionID{9, 9, 9, 9},
			ResetToken:     [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		},
	}

	for _, f := range tests {
		t.Run(reflect.TypeOf(f).Elem().Name(), func(t *testing.T) {
			got := roundTrip(t, f)
			if !reflect.DeepEqual(got, f) {
				t.Errorf("round trip mismatch:\n got  %#v\n want %#v", got, f)
			}
		})
	}
}

func TestAckFrameRoundTrip(t *testing.T) {
	f := &AckFrame{
		LargestAcked: 100,
		Delay:        5,
		Blocks:       [][2]uint64{{90, 100}, {80, 85}, {0, 10}},
	}
	got := roundTrip(t, f)
	ack, ok := got.(*AckFrame)
	if !ok {
		t.Fatalf("got %T, want *AckFrame", got)
	}
	if ack.LargestAcked != f.LargestAcked || ack.Delay != f.Delay {
		t.Errorf("ack summary mismatch: %+v vs %+v", ack, f)
	}
	if !reflect.DeepEqual(ack.Blocks, f.Blocks) {
		t.Errorf("ack blocks mismatch: %+v vs %+v", ack.Blocks, f.Blocks)
	}
}

func TestPaddingFrameCoalesces(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x01 /* PING follows */}
	f, n, err := ParseFrame(buf)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	pad, ok := f.(*PaddingFrame)
	if !ok {
		t.Fatalf("got %T, want *PaddingFrame", f)
	}
	if pad.Count != 3 {
		t.Errorf("Count = %d, want 3", pad.Count)
	}
	if n != 3 {
		t.Errorf("consumed %d bytes, want 3", n)
	}
}
