// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux
// +build !linux

package happyeyeballs

import "net"

// UDPSocket adapts a *net.UDPConn to the Socket interface on platforms
// without the Linux PMTU-probe socket options; it does not implement
// PMTUProber, so the racer simply skips that hint here.
type UDPSocket struct {
	conn *net.UDPConn
}

// NewUDPSocket wraps an already-bound UDP socket.
func NewUDPSocket(conn *net.UDPConn) *UDPSocket {
	return &UDPSocket{conn: conn}
}

func (s *UDPSocket) WriteTo(b []byte, addr net.Addr) (int, error) {
	return s.conn.WriteTo(b, addr)
}

func (s *UDPSocket) Close() error {
	return s.conn.Close()
}
