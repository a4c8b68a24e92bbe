// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicclient

import (
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/goquic/internal/wire"
)

// Transport-parameter identifiers this client understands on receipt, per
// QUIC-TRANSPORT §18.2. Only these flow-control parameters are applied;
// anything else (including a peer's own custom parameters) is parsed far
// enough to skip over and otherwise ignored.
const (
	tpInitialMaxData                 = 0x04
	tpInitialMaxStreamDataBidiLocal  = 0x05
	tpInitialMaxStreamDataBidiRemote = 0x06
	tpInitialMaxStreamDataUni        = 0x07
	tpInitialMaxStreamsBidi          = 0x08
	tpInitialMaxStreamsUni           = 0x09
)

// applyServerTransportParameters parses the server's encoded transport
// parameters and records the flow-control limits they advertise. These
// parameters may only be delivered once; a second delivery is a protocol
// violation.
func (c *Connection) applyServerTransportParameters(data []byte) error {
	if c.serverParamsReceived {
		return NewTransportError("transport parameters received twice", ErrTransportParameterError, nil)
	}

	off := 0
	for off < len(data) {
		id, n, err := wire.ReadVarInt(data[off:])
		if err != nil {
			return NewTransportError("malformed transport parameter identifier", ErrTransportParameterError, err)
		}
		off += n
		length, n, err := wire.ReadVarInt(data[off:])
		if err != nil {
			return NewTransportError("malformed transport parameter length", ErrTransportParameterError, err)
		}
		off += n
		if off+int(length) > len(data) {
			return NewTransportError("transport parameter value truncated", ErrTransportParameterError, nil)
		}
		value := data[off : off+int(length)]
		off += int(length)

		switch id {
		case tpInitialMaxData:
			v, _, err := wire.ReadVarInt(value)
			if err != nil {
				return NewTransportError("malformed initial_max_data", ErrTransportParameterError, err)
			}
			c.peerMaxData = v
		case tpInitialMaxStreamDataBidiLocal:
			v, _, err := wire.ReadVarInt(value)
			if err != nil {
				return NewTransportError("malformed initial_max_stream_data_bidi_local", ErrTransportParameterError, err)
			}
			c.peerMaxStreamData[0] = v
		case tpInitialMaxStreamDataBidiRemote:
			v, _, err := wire.ReadVarInt(value)
			if err != nil {
				return NewTransportError("malformed initial_max_stream_data_bidi_remote", ErrTransportParameterError, err)
			}
			c.peerMaxStreamData[1] = v
		case tpInitialMaxStreamDataUni:
			v, _, err := wire.ReadVarInt(value)
			if err != nil {
				return NewTransportError("malformed initial_max_stream_data_uni", ErrTransportParameterError, err)
			}
			c.peerMaxStreamData[2] = v
		case tpInitialMaxStreamsBidi:
			v, _, err := wire.ReadVarInt(value)
			if err != nil {
				return NewTransportError("malformed initial_max_streams_bidi", ErrTransportParameterError, err)
			}
			c.peerMaxStreamsBidi = v
		case tpInitialMaxStreamsUni:
			v, _, err := wire.ReadVarInt(value)
			if err != nil {
				return NewTransportError("malformed initial_max_streams_uni", ErrTransportParameterError, err)
			}
			c.peerMaxStreamsUni = v
		default:
			// Unknown or extension parameter: already skipped over above.
		}
	}

	c.serverParamsReceived = true
	log.WithFields(log.Fields{
		"max_data":         c.peerMaxData,
		"max_streams_bidi": c.peerMaxStreamsBidi,
		"max_streams_uni":  c.peerMaxStreamsUni,
	}).Debug("quicclient: applied server transport parameters")
	return nil
}
