// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package happyeyeballs

import (
	"fmt"
	"net"
	"testing"
)

type fakeSocket struct {
	name   string
	closed bool
}

func (s *fakeSocket) WriteTo(b []byte, addr net.Addr) (int, error) { return len(b), nil }
func (s *fakeSocket) Close() error                                 { s.closed = true; return nil }

type fakeCanceler struct{ stopped bool }

func (c *fakeCanceler) Stop() bool {
	already := c.stopped
	c.stopped = true
	return !already
}

// fakeScheduler captures the scheduled callback instead of running it on a
// real clock, so tests can fire the delay deterministically.
type fakeScheduler struct {
	fn       func()
	canceler *fakeCanceler
}

func (s *fakeScheduler) AfterFunc(delayIndex int, fn func()) Canceler {
	s.fn = fn
	s.canceler = &fakeCanceler{}
	return s.canceler
}

func (s *fakeScheduler) fire() {
	if s.fn != nil {
		s.fn()
	}
}

func addrV4() net.Addr { return &net.UDPAddr{IP: net.ParseIP("203.0.113.9"), Port: 443} }
func addrV6() net.Addr { return &net.UDPAddr{IP: net.ParseIP("2001:db8::9"), Port: 443} }

func newDualStackRacer(t *testing.T, sched Scheduler, secondary *fakeSocket) *Racer {
	t.Helper()
	r := NewRacer()
	if err := r.AddPeerAddress(FamilyIPv4, addrV4()); err != nil {
		t.Fatalf("AddPeerAddress(v4): %v", err)
	}
	if err := r.AddPeerAddress(FamilyIPv6, addrV6()); err != nil {
		t.Fatalf("AddPeerAddress(v6): %v", err)
	}
	primary := &fakeSocket{name: "primary"}
	if err := r.AddSocket(primary); err != nil {
		t.Fatalf("AddSocket(primary): %v", err)
	}

	setup := func(family Family, peerAddr net.Addr) (Socket, error) {
		return secondary, nil
	}
	if err := r.Start(nil, sched, 0, setup); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return r
}

// Scenario 3: the IPv6 (default-primary) reply arrives before the delay
// timer ever fires; the race finishes without ever writing to the
// secondary socket, and the secondary is torn down.
func TestHappyEyeballsIPv6WinsBeforeDelay(t *testing.T) {
	sched := &fakeScheduler{}
	secondary := &fakeSocket{name: "secondary"}
	r := newDualStackRacer(t, sched, secondary)

	if r.Finished() {
		t.Fatalf("race must not be finished immediately after Start")
	}
	if r.WriteToSecond() {
		t.Fatalf("must not write to the secondary before the delay fires")
	}

	r.OnValidReply(false, addrV6())

	if !r.Finished() {
		t.Fatalf("expected the race to be finished after a valid primary reply")
	}
	if !r.WriteToFirst() || r.WriteToSecond() {
		t.Fatalf("expected writeToFirst=true, writeToSecond=false, got %v/%v", r.WriteToFirst(), r.WriteToSecond())
	}
	if !secondary.closed {
		t.Errorf("expected the losing secondary socket to be closed")
	}
	if !sched.canceler.stopped {
		t.Errorf("expected the delay timer to be canceled")
	}
}

// Scenario 4: the delay expires first (so the secondary starts sending
// too), and the IPv4 secondary's reply is what finishes the race. The
// racer must swap the socket roles and update the peer address to the
// IPv4 one that actually answered.
func TestHappyEyeballsIPv4WinsAfterDelay(t *testing.T) {
	sched := &fakeScheduler{}
	secondary := &fakeSocket{name: "secondary"}
	r := newDualStackRacer(t, sched, secondary)

	sched.fire()
	if !r.WriteToSecond() {
		t.Fatalf("expected writeToSecond=true once the delay timer fires")
	}
	if !r.WriteToFirst() {
		t.Fatalf("expected writeToFirst to remain true while racing")
	}

	winningAddr := addrV4()
	r.OnValidReply(true, winningAddr)

	if !r.Finished() {
		t.Fatalf("expected the race to be finished")
	}
	if !r.WriteToFirst() || r.WriteToSecond() {
		t.Fatalf("expected writeToFirst=true, writeToSecond=false after commit, got %v/%v", r.WriteToFirst(), r.WriteToSecond())
	}
	if r.PeerAddress() != winningAddr {
		t.Errorf("expected peer address to be updated to the winning address")
	}
	if r.OriginalPeerAddress() != winningAddr {
		t.Errorf("expected original peer address to be updated too")
	}
	if r.SecondarySocket() != nil {
		t.Errorf("expected no secondary socket left after commit")
	}
	if r.PrimarySocket() != secondary {
		t.Errorf("expected the winning secondary socket to be promoted to primary")
	}
}

// A second OnValidReply after the race is already finished must be a
// strict no-op: it must not attempt to close an already-nil secondary
// socket or otherwise panic.
func TestHappyEyeballsIgnoresRepliesAfterFinish(t *testing.T) {
	sched := &fakeScheduler{}
	secondary := &fakeSocket{name: "secondary"}
	r := newDualStackRacer(t, sched, secondary)

	r.OnValidReply(false, addrV6())
	firstAddr := r.PeerAddress()

	r.OnValidReply(true, addrV4())

	if r.PeerAddress() != firstAddr {
		t.Errorf("a late reply after the race is decided must not change the peer address")
	}
}

// Exactly one address family configured: the race is finished
// immediately, with no secondary socket and no timer.
func TestHappyEyeballsSingleFamilyFastPath(t *testing.T) {
	r := NewRacer()
	if err := r.AddPeerAddress(FamilyIPv6, addrV6()); err != nil {
		t.Fatalf("AddPeerAddress: %v", err)
	}
	if err := r.AddSocket(&fakeSocket{name: "only"}); err != nil {
		t.Fatalf("AddSocket: %v", err)
	}

	setupCalled := false
	setup := func(family Family, peerAddr net.Addr) (Socket, error) {
		setupCalled = true
		return nil, nil
	}
	if err := r.Start(nil, &fakeScheduler{}, 0, setup); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if setupCalled {
		t.Errorf("a single-family race must never construct a secondary socket")
	}
	if !r.Finished() {
		t.Errorf("a single-family race must be finished immediately")
	}
	if !r.WriteToFirst() || r.WriteToSecond() {
		t.Errorf("expected writeToFirst=true, writeToSecond=false for the fast path")
	}
}

// AddPeerAddress and AddSocket must be rejected once Start has run.
func TestHappyEyeballsRejectsLateConfiguration(t *testing.T) {
	r := NewRacer()
	_ = r.AddPeerAddress(FamilyIPv6, addrV6())
	_ = r.AddSocket(&fakeSocket{name: "primary"})
	setup := func(family Family, peerAddr net.Addr) (Socket, error) { return nil, nil }
	if err := r.Start(nil, &fakeScheduler{}, 0, setup); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := r.AddPeerAddress(FamilyIPv4, addrV4()); err == nil {
		t.Errorf("expected AddPeerAddress after Start to fail")
	}
	if err := r.AddSocket(&fakeSocket{name: "late"}); err == nil {
		t.Errorf("expected AddSocket after Start to fail")
	}
}

// Each address family can only be supplied once.
func TestHappyEyeballsRejectsDuplicateFamily(t *testing.T) {
	r := NewRacer()
	if err := r.AddPeerAddress(FamilyIPv4, addrV4()); err != nil {
		t.Fatalf("AddPeerAddress: %v", err)
	}
	if err := r.AddPeerAddress(FamilyIPv4, addrV4()); err == nil {
		t.Errorf("expected a second IPv4 address to be rejected")
	}
}

// A cached family hint from a previous successful race must become
// primary even though IPv6 is the default preference.
func TestHappyEyeballsHonorsCachedFamilyHint(t *testing.T) {
	sched := &fakeScheduler{}
	secondary := &fakeSocket{name: "secondary"}
	r := NewRacer()
	_ = r.AddPeerAddress(FamilyIPv4, addrV4())
	_ = r.AddPeerAddress(FamilyIPv6, addrV6())
	_ = r.AddSocket(&fakeSocket{name: "primary"})

	var gotSecondaryFamily Family
	setup := func(family Family, peerAddr net.Addr) (Socket, error) {
		gotSecondaryFamily = family
		return secondary, nil
	}

	hint := FamilyIPv4
	if err := r.Start(&hint, sched, 0, setup); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if gotSecondaryFamily != FamilyIPv6 {
		t.Errorf("expected IPv6 to be raced as secondary when IPv4 is the cached hint, got %v", gotSecondaryFamily)
	}
	if r.PeerAddress().(*net.UDPAddr).IP.To4() == nil {
		t.Errorf("expected the primary peer address to be the IPv4 one")
	}
}

func TestFamilyOtherAndString(t *testing.T) {
	if FamilyIPv4.other() != FamilyIPv6 || FamilyIPv6.other() != FamilyIPv4 {
		t.Errorf("other() must swap families")
	}
	if fmt.Sprint(FamilyIPv4) != "ipv4" || fmt.Sprint(FamilyIPv6) != "ipv6" {
		t.Errorf("unexpected Family.String() output")
	}
}
