// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicclient

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dtn7/goquic/internal/protocol"
	"github.com/dtn7/goquic/internal/wire"
)

// drainLingerDuration is how long a closed connection keeps its sockets
// open before actually releasing them, so a peer's late retransmission is
// silently absorbed instead of provoking an ICMP port-unreachable back at
// them.
const drainLingerDuration = 2 * time.Second

// Close gracefully shuts the connection down with an application-level
// CONNECTION_CLOSE, blocking until the event loop has sent it.
func (c *Connection) Close(appErr *ApplicationError) {
	finished := make(chan struct{})
	c.runOnLoop(func() {
		c.close(appErr)
		close(finished)
	})
	select {
	case <-finished:
	case <-c.done:
	}
}

// CloseNow tears the connection down immediately without attempting to
// notify the peer, for the caller-cancellation path (e.g. Dial's ctx).
func (c *Connection) CloseNow() {
	finished := make(chan struct{})
	c.runOnLoop(func() {
		c.closeNow(errClosedByCaller)
		close(finished)
	})
	select {
	case <-finished:
	case <-c.done:
	}
}

var errClosedByCaller = NewTransportError("connection closed by caller", ErrNoError, nil)

// close is the event-loop-bound half of a graceful application close: it
// sends one CONNECTION_CLOSE (best effort, no retransmission) and then
// tears down exactly like a failure would.
func (c *Connection) close(appErr *ApplicationError) {
	if c.state != connStateActive {
		return
	}
	c.state = connStateClosing

	frame := &wire.ConnectionCloseFrame{IsApplication: true, ErrorCode: uint64(appErr.Code), ReasonPhrase: appErr.Msg}
	if level, ok := c.highestWriteLevel(); ok {
		if err := c.sendPacket(level, []wire.Frame{frame}); err != nil {
			log.WithError(err).Debug("quicclient: failed to send CONNECTION_CLOSE")
		}
	}

	c.terminalOnce.Do(func() {
		c.closeErr = appErr
		if c.onConnectionEnd != nil {
			c.onConnectionEnd(appErr)
		}
	})
	c.failConnectIfPending(appErr)
	c.teardown()
}

// fail is the event-loop-bound terminal-error path: a protocol violation,
// crypto failure, or handshake timeout. Like close, it is best-effort about
// telling the peer and then tears down unconditionally.
func (c *Connection) fail(err error) {
	if c.state == connStateTerminal {
		return
	}
	log.WithError(err).Warn("quicclient: connection failing")
	c.state = connStateClosing

	if level, ok := c.highestWriteLevel(); ok {
		frame := connectionCloseFrameForError(err)
		if sendErr := c.sendPacket(level, []wire.Frame{frame}); sendErr != nil {
			log.WithError(sendErr).Debug("quicclient: failed to send CONNECTION_CLOSE")
		}
	}

	c.terminalOnce.Do(func() {
		c.closeErr = err
		if c.onConnectionEnd != nil {
			c.onConnectionEnd(err)
		}
	})
	c.failConnectIfPending(err)
	c.teardown()
}

// closeNow skips the outbound CONNECTION_CLOSE entirely - used when the
// peer already told us it is done (onPeerClose) or the caller asked for an
// immediate abort (CloseNow).
func (c *Connection) closeNow(err error) {
	if c.state == connStateTerminal {
		return
	}
	c.terminalOnce.Do(func() {
		c.closeErr = err
		if c.onConnectionEnd != nil {
			c.onConnectionEnd(err)
		}
	})
	c.failConnectIfPending(err)
	c.teardown()
}

// failConnectIfPending delivers err to the pending Dial/start caller if the
// connection never reached ActionReportHandshakeSuccess - otherwise Dial
// would block forever on a connection that failed mid-handshake.
func (c *Connection) failConnectIfPending(err error) {
	c.connectOnce.Do(func() {
		if c.connectCallback != nil {
			c.connectCallback(err)
		}
	})
}

// teardown stops every timer, releases the self-reference, and schedules
// the actual socket close after drainLingerDuration.
func (c *Connection) teardown() {
	c.state = connStateTerminal

	if c.handshakeTimer != nil {
		c.handshakeTimer.Stop()
	}
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	if c.handshakeKeyDiscardTimer != nil {
		c.handshakeKeyDiscardTimer.Stop()
	}

	c.doneOnce.Do(func() { close(c.done) })

	primary := c.primaryConn
	secondary := c.secondaryConn
	time.AfterFunc(drainLingerDuration, func() {
		if primary != nil {
			_ = primary.Close()
		}
		if secondary != nil {
			_ = secondary.Close()
		}
	})

	c.releaseSelf()
}

// highestWriteLevel picks the most advanced encryption level with an
// installed write cipher, the level RFC 9000 §10.2.1 has a closing
// endpoint use for its CONNECTION_CLOSE.
func (c *Connection) highestWriteLevel() (protocol.EncryptionLevel, bool) {
	for _, level := range [...]protocol.EncryptionLevel{protocol.EncryptionAppData, protocol.EncryptionHandshake, protocol.EncryptionInitial} {
		if c.cipherSet.HasWriteCipher(level) {
			return level, true
		}
	}
	return 0, false
}

func connectionCloseFrameForError(err error) *wire.ConnectionCloseFrame {
	if te, ok := err.(*TransportError); ok {
		return &wire.ConnectionCloseFrame{ErrorCode: uint64(te.Code), ReasonPhrase: te.Msg}
	}
	return &wire.ConnectionCloseFrame{ErrorCode: uint64(ErrInternalError), ReasonPhrase: err.Error()}
}
