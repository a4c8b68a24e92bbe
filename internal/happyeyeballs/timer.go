// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package happyeyeballs

import "time"

// WallClockScheduler is the production Scheduler: it schedules the delay
// timer on the real clock. delayIndex is ignored; RFC 8305 recommends a
// single fixed delay (commonly 250ms) rather than a family of them, so
// production callers pass a constant.
type WallClockScheduler struct {
	Delay time.Duration
}

func (s WallClockScheduler) AfterFunc(delayIndex int, fn func()) Canceler {
	return &timerCanceler{timer: time.AfterFunc(s.Delay, fn)}
}

type timerCanceler struct {
	timer *time.Timer
}

func (c *timerCanceler) Stop() bool { return c.timer.Stop() }

// DefaultDelay is RFC 8305's recommended Connection Attempt Delay.
const DefaultDelay = 250 * time.Millisecond
