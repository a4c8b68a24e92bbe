// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build linux
// +build linux

package happyeyeballs

import (
	"net"

	"golang.org/x/sys/unix"
)

// UDPSocket adapts a *net.UDPConn to the Socket and PMTUProber interfaces
// the racer uses, so the secondary leg of a race can carry the same
// "probe, never fragment" hint as the primary connection's established
// path, set via rawConn.Control.
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

// SetDontFragmentProbe sets IP_MTU_DISCOVER/IPV6_MTU_DISCOVER to the PROBE
// mode: the kernel never fragments and never consults path MTU state, so
// an oversized secondary-leg datagram is dropped locally instead of
// silently fragmented, letting loss-based PMTU discovery see a clean
// signal while the race is in progress.
func (s *UDPSocket) SetDontFragmentProbe(family Family) error {
	rawConn, err := s.conn.SyscallConn()
	if err != nil {
		return err
	}

	level := unix.IPPROTO_IP
	opt := unix.IP_MTU_DISCOVER
	if family == FamilyIPv6 {
		level = unix.IPPROTO_IPV6
		opt = unix.IPV6_MTU_DISCOVER
	}

	var sockErr error
	ctrlErr := rawConn.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), level, opt, unix.IP_PMTUDISC_PROBE)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return sockErr
}
