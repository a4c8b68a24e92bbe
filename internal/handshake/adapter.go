// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package handshake

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/dtn7/goquic/internal/protocol"
	"github.com/dtn7/goquic/psk"
)

// ZeroRTTStatus is the three-state result of an attempted 0-RTT resumption.
type ZeroRTTStatus int

const (
	ZeroRTTNotAttempted ZeroRTTStatus = iota
	ZeroRTTAccepted
	ZeroRTTRejected
)

func (s ZeroRTTStatus) String() string {
	switch s {
	case ZeroRTTAccepted:
		return "accepted"
	case ZeroRTTRejected:
		return "rejected"
	default:
		return "not-attempted"
	}
}

// edge is a single-slot, edge-triggered value: Set stores the newest
// value, Take returns it exactly once.
type edge[T any] struct {
	value T
	ready bool
	taken bool
}

func (e *edge[T]) Set(v T) {
	e.value = v
	e.ready = true
	e.taken = false
}

func (e *edge[T]) Take() (T, bool) {
	var zero T
	if !e.ready || e.taken {
		return zero, false
	}
	e.taken = true
	return e.value, true
}

// Adapter wraps Go's standard-library TLS 1.3 QUIC state machine
// (crypto/tls's QUICConn, the mechanism quic-go itself adopted once the
// standard library grew QUIC hooks) and translates its event stream into
// the Action dispatch table this package defines.
type Adapter struct {
	conn *tls.QUICConn

	phase protocol.Phase

	earlyDataAttempted bool
	zeroRTT            edge[ZeroRTTStatus]
	serverParams       edge[[]byte]

	pskCache   psk.Cache
	serverName string

	onNewCachedPsk func(psk.Material)
}

// Config configures a new Adapter.
type Config struct {
	TLSConfig          *tls.Config
	LocalTransportParams []byte
	PSKCache           psk.Cache
	ServerName         string
	OnNewCachedPsk     func(psk.Material)
}

// NewAdapter constructs the TLS driver for a client connection.
func NewAdapter(cfg Config) *Adapter {
	conn := tls.QUICClient(&tls.QUICConfig{TLSConfig: cfg.TLSConfig})
	conn.SetTransportParameters(cfg.LocalTransportParams)

	a := &Adapter{
		conn:           conn,
		phase:          protocol.PhaseInitial,
		pskCache:       cfg.PSKCache,
		serverName:     cfg.ServerName,
		onNewCachedPsk: cfg.OnNewCachedPsk,
	}

	if cfg.PSKCache != nil {
		if _, ok := cfg.PSKCache.Get(cfg.ServerName); ok {
			a.earlyDataAttempted = true
		}
	}

	return a
}

// Connect starts the handshake and returns the first batch of actions
// (normally an Initial-level ActionWriteToSocket carrying the ClientHello).
func (a *Adapter) Connect(ctx context.Context) ([]Action, error) {
	if err := a.conn.Start(ctx); err != nil {
		return nil, fmt.Errorf("handshake: start: %w", err)
	}
	return a.drain(), nil
}

// HandleCryptoData feeds CRYPTO-frame bytes received at level into the TLS
// machine and returns the actions it produces in response, in order.
func (a *Adapter) HandleCryptoData(level protocol.EncryptionLevel, data []byte) ([]Action, error) {
	if err := a.conn.HandleData(toTLSLevel(level), data); err != nil {
		return []Action{{Kind: ActionReportError, Err: err}}, nil
	}
	return a.drain(), nil
}

// EarlyDataAttempted reports whether a cached PSK was present at Connect,
// meaning 0-RTT was attempted for this connection.
func (a *Adapter) EarlyDataAttempted() bool { return a.earlyDataAttempted }

// Phase reports the handshake progress the TLS machine has seen, for
// diagnostics: PhaseInitial until the handshake completes, then
// PhaseOneRttKeysDerived. It never reports PhaseEstablished, which the
// connection reaches only once a 1-RTT packet decrypts.
func (a *Adapter) Phase() protocol.Phase { return a.phase }

// TakeServerTransportParams is the edge-triggered read of the server's
// transport parameters blob; it returns ok=false once it has already been
// read, or before it has arrived.
func (a *Adapter) TakeServerTransportParams() ([]byte, bool) {
	return a.serverParams.Take()
}

// TakeZeroRttRejected is the edge-triggered three-state read of 0-RTT
// outcome.
func (a *Adapter) TakeZeroRttRejected() (ZeroRTTStatus, bool) {
	return a.zeroRTT.Take()
}

// drain pulls every pending event off the TLS machine and turns each into
// an Action, stopping at the first QUICNoEvent ("WaitForData").
func (a *Adapter) drain() []Action {
	var actions []Action
	for {
		ev := a.conn.NextEvent()
		switch ev.Kind {
		case tls.QUICNoEvent:
			actions = append(actions, Action{Kind: ActionWaitForData})
			return actions

		case tls.QUICWriteData:
			actions = append(actions, Action{
				Kind:       ActionWriteToSocket,
				Level:      fromTLSLevel(ev.Level),
				CryptoData: append([]byte(nil), ev.Data...),
			})

		case tls.QUICSetReadSecret:
			actions = append(actions, Action{
				Kind:      ActionSecretAvailable,
				Level:     fromTLSLevel(ev.Level),
				Direction: protocol.DirectionRead,
				Secret:    DeriveLevelSecret(ev.Data),
			})

		case tls.QUICSetWriteSecret:
			level := fromTLSLevel(ev.Level)
			actions = append(actions, Action{
				Kind:      ActionSecretAvailable,
				Level:     level,
				Direction: protocol.DirectionWrite,
				Secret:    DeriveLevelSecret(ev.Data),
			})
			if level == protocol.EncryptionEarlyData {
				actions = append(actions, Action{Kind: ActionReportEarlyHandshakeSuccess})
			}

		case tls.QUICTransportParameters:
			a.serverParams.Set(append([]byte(nil), ev.Data...))
			actions = append(actions, Action{Kind: ActionMutateState, ServerTransportParams: ev.Data})

		case tls.QUICTransportParametersRequired:
			// Local parameters were already supplied at construction;
			// nothing further to do before the handshake can proceed.

		case tls.QUICRejectedEarlyData:
			a.zeroRTT.Set(ZeroRTTRejected)

		case tls.QUICHandshakeDone:
			if a.earlyDataAttempted && !a.zeroRTT.ready {
				a.zeroRTT.Set(ZeroRTTAccepted)
			}
			a.phase = protocol.PhaseOneRttKeysDerived
			actions = append(actions, Action{Kind: ActionReportHandshakeSuccess})

		case tls.QUICResumptionTicket:
			material := psk.Material{
				Identity:        a.serverName,
				TLSSessionState: append([]byte(nil), ev.Data...),
			}
			if a.onNewCachedPsk != nil {
				a.onNewCachedPsk(material)
			}
			if a.pskCache != nil {
				a.pskCache.Put(a.serverName, material)
			}
			actions = append(actions, Action{Kind: ActionNewCachedPsk, SessionTicket: material.TLSSessionState})

		default:
			// Unknown future event kind: ignore rather than fail closed.
		}
	}
}

func toTLSLevel(level protocol.EncryptionLevel) tls.QUICEncryptionLevel {
	switch level {
	case protocol.EncryptionInitial:
		return tls.QUICEncryptionLevelInitial
	case protocol.EncryptionEarlyData:
		return tls.QUICEncryptionLevelEarly
	case protocol.EncryptionHandshake:
		return tls.QUICEncryptionLevelHandshake
	default:
		return tls.QUICEncryptionLevelApplication
	}
}

func fromTLSLevel(level tls.QUICEncryptionLevel) protocol.EncryptionLevel {
	switch level {
	case tls.QUICEncryptionLevelInitial:
		return protocol.EncryptionInitial
	case tls.QUICEncryptionLevelEarly:
		return protocol.EncryptionEarlyData
	case tls.QUICEncryptionLevelHandshake:
		return protocol.EncryptionHandshake
	default:
		return protocol.EncryptionAppData
	}
}
