// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package handshake

import (
	"context"
	"crypto/tls"
	"testing"

	"github.com/dtn7/goquic/internal/protocol"
)

func TestEdgeTriggeredValueFiresOnce(t *testing.T) {
	var e edge[int]

	if _, ok := e.Take(); ok {
		t.Fatalf("expected no value before Set")
	}

	e.Set(42)
	v, ok := e.Take()
	if !ok || v != 42 {
		t.Fatalf("Take() = (%d, %v), want (42, true)", v, ok)
	}

	if _, ok := e.Take(); ok {
		t.Fatalf("expected the second Take to be empty")
	}
}

func TestEdgeTriggeredValueResetsOnNewSet(t *testing.T) {
	var e edge[string]
	e.Set("first")
	if _, ok := e.Take(); !ok {
		t.Fatalf("expected first value")
	}
	e.Set("second")
	v, ok := e.Take()
	if !ok || v != "second" {
		t.Fatalf("Take() = (%q, %v), want (\"second\", true)", v, ok)
	}
}

func TestZeroRTTStatusString(t *testing.T) {
	cases := map[ZeroRTTStatus]string{
		ZeroRTTNotAttempted: "not-attempted",
		ZeroRTTAccepted:     "accepted",
		ZeroRTTRejected:     "rejected",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", int(status), got, want)
		}
	}
}

func TestAdapterConnectEmitsInitialClientHello(t *testing.T) {
	adapter := NewAdapter(Config{
		TLSConfig: &tls.Config{
			InsecureSkipVerify: true,
			NextProtos:         []string{"goquic-test"},
		},
		LocalTransportParams: []byte{0x01, 0x02, 0x03},
		ServerName:           "test.invalid",
	})

	actions, err := adapter.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	var sawClientHello bool
	for _, a := range actions {
		if a.Kind == ActionWriteToSocket && a.Level == protocol.EncryptionInitial && len(a.CryptoData) > 0 {
			sawClientHello = true
		}
	}
	if !sawClientHello {
		t.Errorf("expected an Initial-level WriteToSocket action carrying the ClientHello, got %+v", actions)
	}

	last := actions[len(actions)-1]
	if last.Kind != ActionWaitForData {
		t.Errorf("expected the action stream to end in WaitForData, got %v", last.Kind)
	}
}

func TestAdapterNotEarlyDataAttemptedWithoutCachedPSK(t *testing.T) {
	adapter := NewAdapter(Config{
		TLSConfig: &tls.Config{InsecureSkipVerify: true, NextProtos: []string{"goquic-test"}},
		ServerName: "test.invalid",
	})
	if adapter.EarlyDataAttempted() {
		t.Errorf("expected no early data attempt without a cached PSK")
	}
}
