// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package handshake

import "github.com/dtn7/goquic/internal/protocol"

// ActionKind tags one entry of the stream of actions the adapter emits
// after feeding it CRYPTO bytes.
type ActionKind int

const (
	// ActionDeliverAppData is ignored: QUIC never carries TLS application
	// data, so the adapter never emits this action.
	ActionDeliverAppData ActionKind = iota
	// ActionWriteToSocket carries CRYPTO-frame bytes to buffer at Level.
	ActionWriteToSocket
	// ActionReportEarlyHandshakeSuccess signals 0-RTT keys are usable.
	ActionReportEarlyHandshakeSuccess
	// ActionReportHandshakeSuccess signals the main handshake finished.
	ActionReportHandshakeSuccess
	// ActionReportEarlyWriteFailed is a fatal 0-RTT setup failure.
	ActionReportEarlyWriteFailed
	// ActionReportError is a fatal handshake error.
	ActionReportError
	// ActionWaitForData means no further progress is possible until more
	// CRYPTO bytes arrive.
	ActionWaitForData
	// ActionMutateState asks the connection to apply a state update
	// (currently: newly learned server transport parameters).
	ActionMutateState
	// ActionNewCachedPsk carries a new session ticket to forward to
	// onNewCachedPsk.
	ActionNewCachedPsk
	// ActionSecretAvailable carries a fresh traffic secret to install at
	// Level/Direction.
	ActionSecretAvailable
	// ActionEndOfData closes the handshake read side.
	ActionEndOfData
)

func (k ActionKind) String() string {
	switch k {
	case ActionDeliverAppData:
		return "DeliverAppData"
	case ActionWriteToSocket:
		return "WriteToSocket"
	case ActionReportEarlyHandshakeSuccess:
		return "ReportEarlyHandshakeSuccess"
	case ActionReportHandshakeSuccess:
		return "ReportHandshakeSuccess"
	case ActionReportEarlyWriteFailed:
		return "ReportEarlyWriteFailed"
	case ActionReportError:
		return "ReportError"
	case ActionWaitForData:
		return "WaitForData"
	case ActionMutateState:
		return "MutateState"
	case ActionNewCachedPsk:
		return "NewCachedPsk"
	case ActionSecretAvailable:
		return "SecretAvailable"
	case ActionEndOfData:
		return "EndOfData"
	default:
		return "Unknown"
	}
}

// Action is one tagged entry of the stream the adapter replays to its
// caller; only the fields relevant to Kind are populated.
type Action struct {
	Kind ActionKind

	Level     protocol.EncryptionLevel
	Direction protocol.Direction

	// ActionWriteToSocket
	CryptoData []byte

	// ActionSecretAvailable
	Secret LevelSecret

	// ActionMutateState
	ServerTransportParams []byte

	// ActionNewCachedPsk
	SessionTicket []byte

	// ActionReportError / ActionReportEarlyWriteFailed
	Err error
}
