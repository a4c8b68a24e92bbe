// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicclient

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dtn7/goquic/congestion"
	"github.com/dtn7/goquic/internal/handshake"
	"github.com/dtn7/goquic/internal/protocol"
	"github.com/dtn7/goquic/internal/wire"
	"github.com/dtn7/goquic/qlog"
)

// onDatagram is the entry point for everything readLoop hands the event
// loop: one UDP datagram, possibly carrying several coalesced QUIC packets
// (RFC 9000 §12.2). It runs entirely on the event-loop goroutine.
func (c *Connection) onDatagram(dgram inboundDatagram) {
	if c.state == connStateTerminal {
		return
	}
	c.processDatagram(dgram)
	c.writeData()
}

// processDatagram demultiplexes and decrypts every packet in one datagram,
// buffering the ones whose read cipher has not arrived yet rather than
// discarding them outright.
func (c *Connection) processDatagram(dgram inboundDatagram) {
	data := dgram.data
	for len(data) > 0 {
		header, ok, err := wire.ParseHeader(data, c.localConnID.Len())
		if err != nil {
			log.WithError(err).Debug("quicclient: dropping malformed packet header")
			return
		}
		if !ok {
			return
		}

		if header.IsVersionNegotiation {
			c.handleVersionNegotiation(header)
			return
		}
		if header.Type == wire.PacketTypeRetry {
			c.handleRetry(header)
			return
		}

		level, hasLevel := header.Type.EncryptionLevel()
		if !hasLevel {
			return
		}

		var packetLen int
		if header.IsLongHeader {
			packetLen = header.ParsedLen + int(header.Length)
			if packetLen > len(data) {
				return // truncated; nothing more to recover from this datagram
			}
		} else {
			packetLen = len(data) // a short header always runs to the end of the datagram
		}
		packetBytes := data[:packetLen]

		if !c.cipherSet.HasReadCipher(level) {
			c.bufferPending(level, inboundDatagram{
				fromSecondary: dgram.fromSecondary,
				addr:          dgram.addr,
				data:          append([]byte(nil), packetBytes...),
				receiveTime:   dgram.receiveTime,
			})
			data = data[packetLen:]
			continue
		}

		largestAcked := c.largestAckedRecv[level]
		pn, plaintext, err := unprotectPacket(c.cipherSet, level, packetBytes, header.ParsedLen, largestAcked)
		if err != nil {
			log.WithFields(log.Fields{"level": level, "error": err}).Debug("quicclient: dropping packet that failed to decrypt")
			data = data[packetLen:]
			continue
		}

		if level == protocol.EncryptionInitial {
			c.sawServerInitial = true
		}
		if level == protocol.EncryptionAppData {
			// Established is reached on the first 1-RTT packet that
			// actually decrypts, not merely on the TLS machine reporting
			// handshake success.
			c.advancePhase(protocol.PhaseEstablished)
		}
		if pn > largestAcked {
			c.largestAckedRecv[level] = pn
		}
		c.ackPending[level].Add(pn)
		c.racer.OnValidReply(dgram.fromSecondary, dgram.addr)
		c.peerAddress = c.racer.PeerAddress()
		c.originalPeerAddress = c.racer.OriginalPeerAddress()

		c.qlogEmitter.EmitPacket(qlog.PacketEvent{
			Direction:    qlog.DirectionReceived,
			PacketType:   qlogPacketType(header.Type),
			PacketNumber: int64Ptr(int64(pn)),
			PacketSize:   packetLen,
		})

		if err := c.dispatchFrames(level, plaintext); err != nil {
			c.fail(err)
			return
		}

		data = data[packetLen:]
	}
}

// bufferPending appends dgram to level's ring, dropping the oldest entry
// once the bound is hit rather than growing without limit.
func (c *Connection) bufferPending(level protocol.EncryptionLevel, dgram inboundDatagram) {
	buf := c.pending[level]
	if len(buf) >= pendingDatagramCap {
		buf = buf[1:]
	}
	c.pending[level] = append(buf, dgram)
}

// flushPending replays every datagram buffered for level now that its read
// cipher has just been installed.
func (c *Connection) flushPending(level protocol.EncryptionLevel) {
	batch := c.pending[level]
	c.pending[level] = nil
	for _, dgram := range batch {
		c.processDatagram(dgram)
	}
}

func (c *Connection) handleVersionNegotiation(h *wire.Header) {
	if c.sawServerInitial {
		return // RFC 9000 §6.1: ignore once any other packet has been accepted
	}
	for _, v := range h.SupportedVersions {
		if v == wire.Version1 {
			return // the server claims to support v1 after all; spurious, ignore
		}
	}
	c.fail(NewTransportError("server does not support QUIC version 1", ErrInternalError, nil))
}

// handleRetry implements the client side of RFC 9000 §17.2.5: adopt the
// server's chosen connection id, re-derive Initial keys from it, and
// resend the original ClientHello flight under the new token.
func (c *Connection) handleRetry(h *wire.Header) {
	if c.sawServerInitial || c.retryToken != nil {
		return // a Retry is only legal once, before any Initial has been accepted
	}

	c.retryToken = append([]byte(nil), h.Token...)
	c.peerConnID = append(protocol.ConnectionID(nil), h.SrcConnectionID...)
	c.cipherSet.Discard(protocol.EncryptionInitial)

	initialSecretClient, initialSecretServer := handshake.InitialSecrets(c.peerConnID)
	if err := c.cipherSet.Install(protocol.EncryptionInitial, protocol.DirectionWrite, handshake.DeriveLevelSecret(initialSecretClient)); err != nil {
		c.fail(NewTransportError("re-deriving Initial keys after Retry", ErrInternalError, err))
		return
	}
	if err := c.cipherSet.Install(protocol.EncryptionInitial, protocol.DirectionRead, handshake.DeriveLevelSecret(initialSecretServer)); err != nil {
		c.fail(NewTransportError("re-deriving Initial keys after Retry", ErrInternalError, err))
		return
	}

	c.nextPacketNumber[protocol.EncryptionInitial] = 0
	c.cryptoSendOffset[protocol.EncryptionInitial] = 0
	c.cryptoSendPending[protocol.EncryptionInitial] = append([]byte(nil), c.initialClientHello...)
	c.writeData()
}

// dispatchFrames parses every frame out of one packet's plaintext and acts
// on it, per the switch on frame type below.
func (c *Connection) dispatchFrames(level protocol.EncryptionLevel, data []byte) error {
	off := 0
	for off < len(data) {
		frame, n, err := wire.ParseFrame(data[off:])
		if err != nil {
			return NewTransportError("malformed frame", ErrFrameEncodingError, err)
		}
		off += n

		switch f := frame.(type) {
		case *wire.PaddingFrame, *wire.PingFrame:
			// No action beyond the ACK already queued for this packet.

		case *wire.CryptoFrame:
			reassembled := c.cryptoRecv[level].Add(f.Offset, f.Data)
			if len(reassembled) == 0 {
				continue
			}
			actions, err := c.adapter.HandleCryptoData(level, reassembled)
			if err != nil {
				return NewTransportError("handshake processing failed", ErrCryptoBase, err)
			}
			c.handleHandshakeActions(actions)

		case *wire.AckFrame:
			c.processAck(level, f)

		case *wire.ConnectionCloseFrame:
			c.onPeerClose(f)
			return nil

		case *wire.HandshakeDoneFrame:
			c.advancePhase(protocol.PhaseEstablished)
			c.cipherSet.Discard(protocol.EncryptionHandshake)

		case *wire.PathChallengeFrame:
			c.pathResponsePending = append(c.pathResponsePending, f.Data)

		case *wire.StreamFrame:
			if err := c.applyStreamData(f); err != nil {
				return err
			}

		case *wire.MaxStreamDataFrame:
			state := c.streamState(f.StreamID)
			if f.Maximum > state.SendMaxData {
				state.SendMaxData = f.Maximum
			}

		case *wire.ResetStreamFrame:
			c.streamState(f.StreamID).ResetByPeer = true

		case *wire.PathResponseFrame, *wire.NewConnectionIDFrame, *wire.RetireConnectionIDFrame,
			*wire.NewTokenFrame, *wire.MaxDataFrame, *wire.MaxStreamsFrame,
			*wire.DataBlockedFrame, *wire.StreamDataBlockedFrame, *wire.StreamsBlockedFrame,
			*wire.StopSendingFrame, *wire.MinStreamDataFrame, *wire.ExpiredStreamDataFrame:
			// Connection migration and the rest of the stream
			// data-transfer API are outside this transport core's scope;
			// accepted and ignored.

		default:
			_ = f
		}
	}
	return nil
}

// processAck retires acknowledged entries from the per-level sent-packet
// table and feeds the resulting RTT samples to the congestion controller.
func (c *Connection) processAck(level protocol.EncryptionLevel, f *wire.AckFrame) {
	now := time.Now()
	table := c.sentPackets[level]
	for _, block := range f.Blocks {
		for pn := protocol.PacketNumber(block[0]); pn <= protocol.PacketNumber(block[1]); pn++ {
			info, ok := table[pn]
			if !ok {
				continue
			}
			delete(table, pn)
			if c.controller != nil {
				c.controller.OnPacketAcked(congestion.AckedPacket{Number: int64(pn), Size: info.size}, now, now.Sub(info.sentAt))
			}
		}
	}
	if protocol.PacketNumber(f.LargestAcked) > c.peerLargestAcked[level] {
		c.peerLargestAcked[level] = protocol.PacketNumber(f.LargestAcked)
	}
}

// streamState returns id's flow-control bookkeeping, creating it (with the
// locally-advertised receive limit for its kind) on first reference. No
// public Stream type consumes this state yet; it exists so
// MAX_STREAM_DATA/STREAM/RESET_STREAM frames have somewhere to land.
func (c *Connection) streamState(id protocol.StreamID) *protocol.StreamFlowState {
	if s, ok := c.streams[id]; ok {
		return s
	}
	s := &protocol.StreamFlowState{ID: id, ReceiveMaxData: c.initialReceiveLimit(id)}
	c.streams[id] = s
	return s
}

// initialReceiveLimit picks which of the three initial_max_stream_data
// transport parameters this client advertised governs id, per QUIC-TRANSPORT
// §4.1's bidi-local/bidi-remote/uni split.
func (c *Connection) initialReceiveLimit(id protocol.StreamID) uint64 {
	if !id.IsBidirectional() {
		return c.config.InitialMaxStreamData[2]
	}
	if id.IsClientInitiated() {
		return c.config.InitialMaxStreamData[0]
	}
	return c.config.InitialMaxStreamData[1]
}

// applyStreamData folds a STREAM frame into its stream's receive window,
// failing the connection on a flow-control violation (RFC 9000 §4.1).
func (c *Connection) applyStreamData(f *wire.StreamFrame) error {
	state := c.streamState(f.StreamID)
	if !state.CanReceive(f.Offset, uint64(len(f.Data))) {
		return NewTransportError("stream flow control violated", ErrFlowControlError, nil)
	}
	if end := f.Offset + uint64(len(f.Data)); end > state.ReceiveOffset {
		state.ReceiveOffset = end
	}
	if f.Fin {
		state.FinReceived = true
		state.FinOffsetKnown = f.Offset + uint64(len(f.Data))
	}
	return nil
}

func (c *Connection) onPeerClose(f *wire.ConnectionCloseFrame) {
	c.closeNow(&PeerCloseError{Application: f.IsApplication, Code: f.ErrorCode, Reason: f.ReasonPhrase})
}

// onCipherInstalled advances the phase clock and, for a newly-readable
// level, replays whatever was buffered waiting on it.
func (c *Connection) onCipherInstalled(level protocol.EncryptionLevel, direction protocol.Direction) {
	switch level {
	case protocol.EncryptionHandshake:
		c.advancePhase(protocol.PhaseHandshake)
	case protocol.EncryptionAppData:
		c.advancePhase(protocol.PhaseOneRttKeysDerived)
	}
	if direction == protocol.DirectionRead {
		c.flushPending(level)
	}
}

// advancePhase moves the phase forward, ignoring attempts to move it
// backward or sideways (phase is monotonic).
func (c *Connection) advancePhase(next protocol.Phase) {
	if c.phase.CanTransition(next) {
		c.phase = next
	}
}

func qlogPacketType(t wire.PacketType) qlog.PacketType {
	switch t {
	case wire.PacketTypeInitial:
		return qlog.PacketTypeInitial
	case wire.PacketTypeZeroRTT:
		return qlog.PacketTypeZeroRTT
	case wire.PacketTypeHandshake:
		return qlog.PacketTypeHandshake
	case wire.PacketTypeRetry:
		return qlog.PacketTypeRetry
	case wire.PacketTypeVersionNegotiation:
		return qlog.PacketTypeVersionNegotiation
	default:
		return qlog.PacketTypeOneRTT
	}
}

func int64Ptr(v int64) *int64 { return &v }
