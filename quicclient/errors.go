// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicclient

import "fmt"

// TransportErrorCode is a QUIC transport error code (RFC 9000 §20.1).
type TransportErrorCode uint64

const (
	ErrNoError                TransportErrorCode = 0x0
	ErrInternalError          TransportErrorCode = 0x1
	ErrConnectionRefused      TransportErrorCode = 0x2
	ErrFlowControlError       TransportErrorCode = 0x3
	ErrStreamLimitError       TransportErrorCode = 0x4
	ErrStreamStateError       TransportErrorCode = 0x5
	ErrFinalSizeError         TransportErrorCode = 0x6
	ErrFrameEncodingError     TransportErrorCode = 0x7
	ErrTransportParameterError TransportErrorCode = 0x8
	ErrProtocolViolation      TransportErrorCode = 0xa
	ErrCryptoBufferExceeded   TransportErrorCode = 0xd
	// ErrCryptoBase is added to a TLS alert to form the 0x0100-0x01ff
	// crypto error range RFC 9000 §20.1 reserves for fatal TLS alerts.
	ErrCryptoBase TransportErrorCode = 0x100
)

// TransportError is a protocol violation or cryptographic failure detected
// locally; it carries the QUIC error code a CONNECTION_CLOSE frame would
// report (message + code + wrapped cause).
type TransportError struct {
	Msg   string
	Code  TransportErrorCode
	Cause error
}

func NewTransportError(msg string, code TransportErrorCode, cause error) *TransportError {
	return &TransportError{Msg: msg, Code: code, Cause: cause}
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *TransportError) Unwrap() error { return e.Cause }

// ApplicationErrorCode is a caller-defined code carried by an
// APPLICATION_CLOSE.
type ApplicationErrorCode uint64

// ApplicationError is raised by the user via Connection.Close; it closes
// the connection with APPLICATION_CLOSE instead of CONNECTION_CLOSE.
type ApplicationError struct {
	Msg   string
	Code  ApplicationErrorCode
	Cause error
}

func NewApplicationError(msg string, code ApplicationErrorCode, cause error) *ApplicationError {
	return &ApplicationError{Msg: msg, Code: code, Cause: cause}
}

func (e *ApplicationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *ApplicationError) Unwrap() error { return e.Cause }

// PeerCloseError wraps a CONNECTION_CLOSE or APPLICATION_CLOSE the peer
// sent; it carries no reply frame — it is purely informational for the
// callback.
type PeerCloseError struct {
	Application bool
	Code        uint64
	Reason      string
}

func (e *PeerCloseError) Error() string {
	kind := "transport"
	if e.Application {
		kind = "application"
	}
	return fmt.Sprintf("peer closed (%s, code %d): %s", kind, e.Code, e.Reason)
}
