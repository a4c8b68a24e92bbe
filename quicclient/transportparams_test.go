// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicclient

import (
	"testing"

	"github.com/dtn7/goquic/internal/wire"
)

func appendTransportParam(buf []byte, id, value uint64) []byte {
	buf, _ = wire.WriteVarInt(buf, id)
	valBytes, _ := wire.WriteVarInt(nil, value)
	buf, _ = wire.WriteVarInt(buf, uint64(len(valBytes)))
	return append(buf, valBytes...)
}

func TestApplyServerTransportParametersPopulatesFlowControlFields(t *testing.T) {
	var data []byte
	data = appendTransportParam(data, tpInitialMaxData, 100000)
	data = appendTransportParam(data, tpInitialMaxStreamDataBidiLocal, 1000)
	data = appendTransportParam(data, tpInitialMaxStreamDataBidiRemote, 2000)
	data = appendTransportParam(data, tpInitialMaxStreamDataUni, 3000)
	data = appendTransportParam(data, tpInitialMaxStreamsBidi, 10)
	data = appendTransportParam(data, tpInitialMaxStreamsUni, 20)
	// An unknown/extension parameter must be skipped over, not misread.
	data = appendTransportParam(data, 0xffff, 7)

	c := &Connection{}
	if err := c.applyServerTransportParameters(data); err != nil {
		t.Fatalf("applyServerTransportParameters: %v", err)
	}

	if c.peerMaxData != 100000 {
		t.Errorf("peerMaxData = %d, want 100000", c.peerMaxData)
	}
	if c.peerMaxStreamData[0] != 1000 || c.peerMaxStreamData[1] != 2000 || c.peerMaxStreamData[2] != 3000 {
		t.Errorf("peerMaxStreamData = %v, want [1000 2000 3000]", c.peerMaxStreamData)
	}
	if c.peerMaxStreamsBidi != 10 {
		t.Errorf("peerMaxStreamsBidi = %d, want 10", c.peerMaxStreamsBidi)
	}
	if c.peerMaxStreamsUni != 20 {
		t.Errorf("peerMaxStreamsUni = %d, want 20", c.peerMaxStreamsUni)
	}
	if !c.serverParamsReceived {
		t.Errorf("expected serverParamsReceived to be set")
	}
}

func TestApplyServerTransportParametersRejectsSecondDelivery(t *testing.T) {
	c := &Connection{}
	data := appendTransportParam(nil, tpInitialMaxData, 1)
	if err := c.applyServerTransportParameters(data); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := c.applyServerTransportParameters(data); err == nil {
		t.Errorf("expected a second delivery of transport parameters to be rejected")
	}
}

func TestApplyServerTransportParametersRejectsTruncatedValue(t *testing.T) {
	c := &Connection{}
	buf, _ := wire.WriteVarInt(nil, tpInitialMaxData)
	buf, _ = wire.WriteVarInt(buf, 4) // claims a 4-byte value but supplies none
	if err := c.applyServerTransportParameters(buf); err == nil {
		t.Errorf("expected a truncated parameter value to be rejected")
	}
}
