// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package happyeyeballs implements the dual-stack connection race (C4):
// when both an IPv4 and an IPv6 peer address are configured, two sockets
// are raced and the connection commits to whichever produces the first
// valid reply, tearing the loser down. Grounded on the socket-option
// plumbing Tailscale's wgengine/magicsock package uses for PMTU probing,
// generalized from a single long-lived conn to a short-lived connect-time
// race between two.
package happyeyeballs

import (
	"fmt"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Family distinguishes the two address families this package races.
type Family int

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
)

func (f Family) String() string {
	if f == FamilyIPv4 {
		return "ipv4"
	}
	return "ipv6"
}

func (f Family) other() Family {
	if f == FamilyIPv4 {
		return FamilyIPv6
	}
	return FamilyIPv4
}

// Socket is the narrow set of operations the racer needs from a UDP
// socket; production callers satisfy it with a thin wrapper around
// *net.UDPConn, tests with a fake.
type Socket interface {
	WriteTo(b []byte, addr net.Addr) (int, error)
	Close() error
}

// PMTUProber is implemented by sockets that can set the "probe, don't
// fragment, don't let the kernel fragment either" socket option used
// while racing (IP_PMTUDISC_PROBE / IPV6_PMTUDISC_PROBE on Linux, the DF
// bit elsewhere). It is optional: a Socket that doesn't implement it is
// raced without the hint.
type PMTUProber interface {
	SetDontFragmentProbe(family Family) error
}

// Canceler is the result of scheduling a callback; Stop cancels it if it
// has not fired yet.
type Canceler interface {
	Stop() bool
}

// Scheduler lets the racer schedule its delay timer without owning a real
// wall-clock timer itself, so the single event loop that owns the
// connection stays the only source of callbacks (the "no hidden
// suspension" rule) and so tests can fire the delay deterministically.
type Scheduler interface {
	AfterFunc(delayIndex int, fn func()) Canceler
}

// SecondarySetup performs the out-of-band socket work Start's step 4
// requires: binding the wildcard address for family, optionally
// connect()-ing it to peerAddr, and wiring its read/error callbacks. It
// returns the ready-to-race socket.
type SecondarySetup func(family Family, peerAddr net.Addr) (Socket, error)

// Racer holds the Happy-Eyeballs state from 
type Racer struct {
	mu sync.Mutex

	addresses map[Family]net.Addr
	primary   Family
	secondary Family

	primarySocket   Socket
	secondarySocket Socket

	peerAddress         net.Addr
	originalPeerAddress net.Addr

	timer Canceler

	finished      bool
	writeToFirst  bool
	writeToSecond bool

	started bool

	onSecondaryReply func()
}

// NewRacer returns an empty, pre-start racer.
func NewRacer() *Racer {
	return &Racer{addresses: make(map[Family]net.Addr)}
}

// AddPeerAddress registers the peer's address for one family. It must be
// called before Start; each family may be supplied at most once.
func (r *Racer) AddPeerAddress(family Family, addr net.Addr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("happyeyeballs: AddPeerAddress called after Start")
	}
	if _, exists := r.addresses[family]; exists {
		return fmt.Errorf("happyeyeballs: address for %s already set", family)
	}
	r.addresses[family] = addr
	return nil
}

// AddSocket registers the primary socket (used immediately) ahead of
// Start; the secondary socket, if any, is constructed by Start itself via
// SecondarySetup so it can be bound and have its options set atomically
// with the race beginning.
func (r *Racer) AddSocket(sock Socket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("happyeyeballs: AddSocket called after Start")
	}
	if r.primarySocket != nil {
		return fmt.Errorf("happyeyeballs: primary socket already set")
	}
	r.primarySocket = sock
	return nil
}

// Finished reports whether the race has been decided (including the
// single-family fast path, which is finished immediately).
func (r *Racer) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// WriteToFirst and WriteToSecond report which socket(s) outbound packets
// should currently go to.
func (r *Racer) WriteToFirst() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeToFirst
}

func (r *Racer) WriteToSecond() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeToSecond
}

// PeerAddress and OriginalPeerAddress report the (possibly just-swapped)
// winning address.
func (r *Racer) PeerAddress() net.Addr { r.mu.Lock(); defer r.mu.Unlock(); return r.peerAddress }
func (r *Racer) OriginalPeerAddress() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.originalPeerAddress
}

// PrimarySocket and SecondarySocket expose the current slots, e.g. so the
// connection can write an Initial copy to whichever is eligible.
func (r *Racer) PrimarySocket() Socket { r.mu.Lock(); defer r.mu.Unlock(); return r.primarySocket }
func (r *Racer) SecondarySocket() Socket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.secondarySocket
}

// SecondaryPeerAddress reports the address the secondary socket races
// against, or nil if there is no secondary leg (single-family case, or
// after the race has committed).
func (r *Racer) SecondaryPeerAddress() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.secondarySocket == nil {
		return nil
	}
	return r.addresses[r.secondary]
}

// Start begins the race. cachedFamilyHint, if non-nil, names the family
// that won a previous race to this same peer and becomes primary (RFC
// 8305); otherwise IPv6 is preferred. delayIndex is an opaque token
// handed to the Scheduler, letting tests identify which delay this is
// without depending on a concrete duration.
func (r *Racer) Start(cachedFamilyHint *Family, sched Scheduler, delayIndex int, setup SecondarySetup) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("happyeyeballs: Start called twice")
	}
	r.started = true

	v4, haveV4 := r.addresses[FamilyIPv4]
	v6, haveV6 := r.addresses[FamilyIPv6]

	if !haveV4 && !haveV6 {
		r.mu.Unlock()
		return fmt.Errorf("happyeyeballs: no peer address configured")
	}

	if haveV4 && haveV6 {
		primary := FamilyIPv6
		if cachedFamilyHint != nil {
			primary = *cachedFamilyHint
		}
		r.primary = primary
		r.secondary = primary.other()

		primaryAddr := v6
		if primary == FamilyIPv4 {
			primaryAddr = v4
		}
		r.peerAddress = primaryAddr
		r.originalPeerAddress = primaryAddr
		r.writeToFirst = true
		r.mu.Unlock()

		secondaryAddr := v4
		if r.secondary == FamilyIPv6 {
			secondaryAddr = v6
		}

		sock, err := setup(r.secondary, secondaryAddr)
		if err != nil {
			log.WithFields(log.Fields{
				"family": r.secondary,
				"error":  err,
			}).Warn("happy-eyeballs: secondary socket setup failed, continuing single-homed")
			r.mu.Lock()
			r.finished = true
			r.writeToFirst = true
			r.writeToSecond = false
			r.mu.Unlock()
			return nil
		}
		if prober, ok := sock.(PMTUProber); ok {
			if err := prober.SetDontFragmentProbe(r.secondary); err != nil {
				log.WithError(err).Debug("happy-eyeballs: could not set PMTU probe option")
			}
		}

		r.mu.Lock()
		r.secondarySocket = sock
		r.timer = sched.AfterFunc(delayIndex, r.onTimerExpired)
		r.mu.Unlock()
		return nil
	}

	// Single-family case: finished immediately, no timer, no secondary.
	only := v6
	if haveV4 {
		only = v4
	}
	r.peerAddress = only
	r.originalPeerAddress = only
	r.finished = true
	r.writeToFirst = true
	r.mu.Unlock()
	return nil
}

// onTimerExpired is the delay-timer callback: the secondary socket starts
// sending too.
func (r *Racer) onTimerExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.writeToSecond = true
}

// OnValidReply must be called whenever a datagram from source successfully
// decrypts, on either socket. fromSecondary tells the racer which socket
// produced it. It is a no-op once the race is already finished.
func (r *Racer) OnValidReply(fromSecondary bool, sourceAddr net.Addr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}

	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.finished = true
	r.writeToFirst = true
	r.writeToSecond = false

	loser := r.secondarySocket
	if fromSecondary {
		r.primarySocket, r.secondarySocket = r.secondarySocket, r.primarySocket
		loser = r.secondarySocket
		r.peerAddress = sourceAddr
		r.originalPeerAddress = sourceAddr
		r.primary, r.secondary = r.secondary, r.primary
	}
	r.secondarySocket = nil

	if loser != nil {
		_ = loser.Close()
	}
}
