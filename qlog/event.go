// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qlog builds the structured diagnostic records the qlog format
// describes and emits them as newline-delimited JSON, the way the sampled
// quic-go logging.Tracer this package is grounded on does, reduced to a
// single flat record type per processed or emitted packet instead of many
// tracer callback methods.
package qlog

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Direction of a packet relative to this connection.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// PacketType mirrors the long/short header subtypes RFC 9000 §19 defines.
type PacketType string

const (
	PacketTypeVersionNegotiation PacketType = "version_negotiation"
	PacketTypeInitial            PacketType = "initial"
	PacketTypeZeroRTT            PacketType = "0RTT"
	PacketTypeHandshake          PacketType = "handshake"
	PacketTypeRetry              PacketType = "retry"
	PacketTypeOneRTT             PacketType = "1RTT"
)

// Frame is a type-specific record for one frame within a packet. Only the
// fields relevant to FrameType are populated; the rest stay at their zero
// value and are omitted from JSON.
type Frame struct {
	FrameType string `json:"frame_type"`

	// STREAM
	StreamID uint64 `json:"stream_id,omitempty"`
	Offset   uint64 `json:"offset,omitempty"`
	Length   uint64 `json:"length,omitempty"`
	Fin      bool   `json:"fin,omitempty"`

	// MAX_DATA / MAX_STREAM_DATA / MAX_STREAMS / DATA_BLOCKED / ...
	Maximum uint64 `json:"maximum,omitempty"`

	// ACK
	AckDelay   time.Duration `json:"ack_delay,omitempty"`
	AckBlocks  [][2]int64    `json:"ack_blocks,omitempty"`

	// CONNECTION_CLOSE / APPLICATION_CLOSE
	ErrorCode   uint64 `json:"error_code,omitempty"`
	ReasonPhrase string `json:"reason,omitempty"`

	// PATH_CHALLENGE / PATH_RESPONSE
	PathData []byte `json:"path_data,omitempty"`

	// NEW_CONNECTION_ID
	SequenceNumber uint64 `json:"sequence_number,omitempty"`
	ResetToken     []byte `json:"stateless_reset_token,omitempty"`

	// coalesced PADDING
	PaddingCount int `json:"padding_count,omitempty"`
}

// PacketEvent is one processed or emitted packet, matching the field list
// of qlog's own packet-event schema.
type PacketEvent struct {
	ReferenceTime int64         `json:"time_us"`
	Direction     Direction     `json:"direction"`
	PacketType    PacketType    `json:"packet_type"`
	PacketNumber  *int64        `json:"packet_number,omitempty"` // absent for Retry
	PacketSize    int           `json:"packet_size"`
	Frames        []Frame       `json:"frames,omitempty"`
}

// Emitter is the sink the connection state machine writes diagnostic
// records to. It is fire-and-forget: a slow or failing emitter must never
// block or fail the connection's single event-loop goroutine.
type Emitter interface {
	EmitPacket(PacketEvent)
}

// NopEmitter discards every event; it is the default when no emitter is
// configured.
type NopEmitter struct{}

func (NopEmitter) EmitPacket(PacketEvent) {}

// JSONLEmitter writes one JSON object per line to an underlying writer,
// guarding concurrent writers with a mutex since multiple connections may
// share a single log file.
type JSONLEmitter struct {
	mu    sync.Mutex
	w     io.Writer
	start time.Time
}

// NewJSONLEmitter returns an Emitter that timestamps every record relative
// to start (normally the moment the connection began dialing) and writes
// newline-delimited JSON to w.
func NewJSONLEmitter(w io.Writer, start time.Time) *JSONLEmitter {
	return &JSONLEmitter{w: w, start: start}
}

func (e *JSONLEmitter) EmitPacket(ev PacketEvent) {
	ev.ReferenceTime = time.Since(e.start).Microseconds()
	line, err := json.Marshal(ev)
	if err != nil {
		return
	}
	line = append(line, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()
	_, _ = e.w.Write(line)
}

// CoalescePadding collapses a run of PADDING frames into a single Frame
// record carrying the count, rather than emitting one record per frame.
func CoalescePadding(frames []Frame) []Frame {
	out := make([]Frame, 0, len(frames))
	for _, f := range frames {
		if f.FrameType == "padding" && len(out) > 0 && out[len(out)-1].FrameType == "padding" {
			out[len(out)-1].PaddingCount++
			continue
		}
		if f.FrameType == "padding" {
			f.PaddingCount = 1
		}
		out = append(out, f)
	}
	return out
}
