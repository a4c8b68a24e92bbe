// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicclient

import (
	"crypto/tls"
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/goquic/congestion"
	"github.com/dtn7/goquic/internal/handshake"
	"github.com/dtn7/goquic/internal/protocol"
	"github.com/dtn7/goquic/internal/wire"
	"github.com/dtn7/goquic/qlog"
)

// minimumInitialDatagramSize is RFC 9000 §14.1's floor for any UDP
// datagram carrying a client Initial packet (coalesced or not).
const minimumInitialDatagramSize = 1200

// aeadTagLen is the AES-GCM authentication tag size every level's AEAD
// uses (secrets.go / cipher.go never construct anything else).
const aeadTagLen = 16

// handshakeKeyDiscardDelay is how long Handshake keys are kept around
// after the handshake completes, in case a late Handshake-level packet
// (most commonly a retransmitted server Finished flight) still arrives.
const handshakeKeyDiscardDelay = 3 * time.Second

// handleHandshakeActions replays the actions stream the handshake adapter
// produced.
func (c *Connection) handleHandshakeActions(actions []handshake.Action) {
	for _, a := range actions {
		switch a.Kind {
		case handshake.ActionWriteToSocket:
			if a.Level == protocol.EncryptionInitial && c.initialClientHello == nil {
				c.initialClientHello = append([]byte(nil), a.CryptoData...)
			}
			c.cryptoSendPending[a.Level] = append(c.cryptoSendPending[a.Level], a.CryptoData...)

		case handshake.ActionSecretAvailable:
			if err := c.cipherSet.Install(a.Level, a.Direction, a.Secret); err != nil {
				c.fail(NewTransportError("installing traffic secret", ErrInternalError, err))
				return
			}
			c.onCipherInstalled(a.Level, a.Direction)

		case handshake.ActionMutateState:
			if err := c.applyServerTransportParameters(a.ServerTransportParams); err != nil {
				c.fail(err)
				return
			}

		case handshake.ActionReportEarlyHandshakeSuccess:
			log.WithField("server", c.serverName).Debug("quicclient: 0-RTT keys usable")

		case handshake.ActionReportHandshakeSuccess:
			// The TLS machine has processed the server's Finished message:
			// this only means OneRtt keys are usable, not that the
			// transport has reached Established - that still waits for
			// the first 1-RTT packet to actually decrypt (handled in
			// dispatch.go's processDatagram). Initial keys may be
			// discarded now: OneRtt keys existing subsumes Initial's
			// usefulness.
			if c.handshakeTimer != nil {
				c.handshakeTimer.Stop()
			}
			c.cipherSet.Discard(protocol.EncryptionInitial)
			if c.handshakeKeyDiscardTimer != nil {
				c.handshakeKeyDiscardTimer.Stop()
			}
			c.handshakeKeyDiscardTimer = time.AfterFunc(handshakeKeyDiscardDelay, func() {
				c.runOnLoop(func() { c.cipherSet.Discard(protocol.EncryptionHandshake) })
			})
			c.connectOnce.Do(func() {
				if c.connectCallback != nil {
					c.connectCallback(nil)
				}
			})

		case handshake.ActionReportEarlyWriteFailed:
			c.fail(NewTransportError("0-RTT write failed", ErrInternalError, a.Err))
			return

		case handshake.ActionReportError:
			code := ErrCryptoBase
			var alert tls.AlertError
			if errors.As(a.Err, &alert) {
				code += TransportErrorCode(alert)
			}
			c.fail(NewTransportError("handshake failed", code, a.Err))
			return

		case handshake.ActionNewCachedPsk, handshake.ActionWaitForData,
			handshake.ActionEndOfData, handshake.ActionDeliverAppData:
			// ActionNewCachedPsk is already delivered via onNewCachedPsk;
			// the rest carry no connection-state work of their own.
		}
	}
	c.writeData()
}

// writeData assembles and sends whatever is owed at each encryption level
// with an installed write cipher: pending CRYPTO bytes, an ACK if one is
// due, and queued PATH_RESPONSE replies.
func (c *Connection) writeData() {
	if c.state == connStateTerminal {
		return
	}
	for _, level := range [...]protocol.EncryptionLevel{protocol.EncryptionInitial, protocol.EncryptionHandshake, protocol.EncryptionAppData} {
		if !c.cipherSet.HasWriteCipher(level) {
			continue
		}

		var frames []wire.Frame
		if len(c.cryptoSendPending[level]) > 0 {
			data := c.cryptoSendPending[level]
			c.cryptoSendPending[level] = nil
			frames = append(frames, &wire.CryptoFrame{Offset: c.cryptoSendOffset[level], Data: data})
			c.cryptoSendOffset[level] += uint64(len(data))
		}
		if ackFrame, ok := c.ackPending[level].BuildFrame(0); ok {
			frames = append(frames, ackFrame)
		}
		if level == protocol.EncryptionAppData && len(c.pathResponsePending) > 0 {
			for _, p := range c.pathResponsePending {
				frames = append(frames, &wire.PathResponseFrame{Data: p})
			}
			c.pathResponsePending = nil
		}

		if len(frames) == 0 {
			continue
		}
		if err := c.sendPacket(level, frames); err != nil {
			log.WithError(err).Warn("quicclient: dropping outbound packet")
		}
	}
}

// sendPacket serializes frames into one packet at level, applies AEAD
// protection and header protection, and dispatches the result to whichever
// of the racer's sockets are currently eligible to send.
func (c *Connection) sendPacket(level protocol.EncryptionLevel, frames []wire.Frame) error {
	var payload []byte
	for _, f := range frames {
		var err error
		payload, err = f.Append(payload)
		if err != nil {
			return NewTransportError("encoding outbound frame", ErrFrameEncodingError, err)
		}
	}

	pn := c.nextPacketNumber[level]
	c.nextPacketNumber[level]++
	pnLen := wire.EncodePacketNumberLength(pn, c.peerLargestAcked[level])

	var header []byte
	switch level {
	case protocol.EncryptionInitial, protocol.EncryptionHandshake:
		typeBits := byte(wire.LongHeaderTypeHandshake)
		var token []byte
		if level == protocol.EncryptionInitial {
			typeBits = wire.LongHeaderTypeInitial
			token = c.retryToken

			// 7 fixed bytes (form+type, 4-byte version, dcid len, scid len)
			// plus the token length prefix and a 2-byte remaining-length
			// varint, which always fits since this client's Initial packets
			// never approach the 16384 boundary a longer varint would need.
			overhead := 7 + c.peerConnID.Len() + c.localConnID.Len() + wire.VarIntLen(uint64(len(token))) + len(token) + 2
			needed := minimumInitialDatagramSize - overhead - pnLen - aeadTagLen
			if len(payload) < needed {
				padding := make([]byte, needed-len(payload))
				payload = append(payload, padding...)
			}
		}

		var err error
		header, err = wire.AppendLongHeader(nil, typeBits, wire.Version1, c.peerConnID, c.localConnID, token, uint64(pnLen)+uint64(len(payload)+aeadTagLen))
		if err != nil {
			return NewTransportError("encoding packet header", ErrFrameEncodingError, err)
		}

	default:
		header = wire.AppendShortHeader(nil, c.peerConnID, false)
	}

	header[0] |= byte(pnLen - 1)
	header = appendPacketNumber(header, pn, pnLen)

	sealed, err := c.cipherSet.Seal(level, pn, header, payload)
	if err != nil {
		return NewTransportError("sealing outbound packet", ErrInternalError, err)
	}
	raw, err := protectPacket(c.cipherSet, level, header, pnLen, sealed)
	if err != nil {
		return NewTransportError("applying header protection", ErrInternalError, err)
	}

	now := time.Now()
	if c.sentPackets[level] == nil {
		c.sentPackets[level] = make(map[protocol.PacketNumber]sentPacketInfo)
	}
	c.sentPackets[level][pn] = sentPacketInfo{size: uint64(len(raw)), sentAt: now}
	if c.controller != nil {
		c.controller.OnPacketSent(congestion.SentPacket{Number: int64(pn), Size: uint64(len(raw)), SentAt: now, InFlight: true})
	}

	c.qlogEmitter.EmitPacket(qlog.PacketEvent{
		Direction:    qlog.DirectionSent,
		PacketType:   qlogPacketTypeForLevel(level),
		PacketNumber: int64Ptr(int64(pn)),
		PacketSize:   len(raw),
	})

	return c.dispatchToSockets(raw)
}

// dispatchToSockets writes raw to every socket Happy-Eyeballs currently
// allows sending on. Both legs may be live while the race is undecided, so
// a failure on one leg is not fatal on its own; every error encountered is
// aggregated and only surfaced once no leg got the packet out at all.
func (c *Connection) dispatchToSockets(raw []byte) error {
	var errs *multierror.Error
	sent := false

	if c.racer.WriteToFirst() {
		if sock := c.racer.PrimarySocket(); sock != nil {
			if _, err := sock.WriteTo(raw, c.peerAddress); err != nil {
				errs = multierror.Append(errs, err)
			} else {
				sent = true
			}
		}
	}
	if c.racer.WriteToSecond() {
		if sock := c.racer.SecondarySocket(); sock != nil {
			if addr := c.racer.SecondaryPeerAddress(); addr != nil {
				if _, err := sock.WriteTo(raw, addr); err != nil {
					errs = multierror.Append(errs, err)
				} else {
					sent = true
				}
			}
		}
	}

	if sent || errs == nil {
		return nil
	}
	return errs.ErrorOrNil()
}

func appendPacketNumber(header []byte, pn protocol.PacketNumber, pnLen int) []byte {
	v := uint64(pn)
	for i := pnLen - 1; i >= 0; i-- {
		header = append(header, byte(v>>(uint(i)*8)))
	}
	return header
}

func qlogPacketTypeForLevel(level protocol.EncryptionLevel) qlog.PacketType {
	switch level {
	case protocol.EncryptionInitial:
		return qlog.PacketTypeInitial
	case protocol.EncryptionHandshake:
		return qlog.PacketTypeHandshake
	case protocol.EncryptionEarlyData:
		return qlog.PacketTypeZeroRTT
	default:
		return qlog.PacketTypeOneRTT
	}
}
