// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package protocol

// StreamLimits groups the three categories of initial_max_stream_data the
// transport-parameter extension carries.
type StreamLimits struct {
	BidiLocal  uint64
	BidiRemote uint64
	Uni        uint64
}

// StreamsLimits groups the initial_max_streams_{bidi,uni} parameters.
type StreamsLimits struct {
	Bidi uint64
	Uni  uint64
}

// StreamFlowState tracks one stream's send/receive flow-control window.
// The connection keeps one of these per stream it has seen traffic for.
type StreamFlowState struct {
	ID StreamID

	SendOffset      uint64
	SendMaxData     uint64
	ReceiveOffset   uint64
	ReceiveMaxData  uint64
	FinReceived     bool
	FinOffsetKnown  uint64
	ResetByPeer     bool
}

// CanSend reports whether n more bytes fit under the current send window.
func (s *StreamFlowState) CanSend(n uint64) bool {
	return s.SendOffset+n <= s.SendMaxData
}

// CanReceive reports whether accepting data up to offset+n violates the
// advertised receive window.
func (s *StreamFlowState) CanReceive(offset, n uint64) bool {
	return offset+n <= s.ReceiveMaxData
}
