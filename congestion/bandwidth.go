// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package congestion declares the narrow interface the connection state
// machine consumes to stay congestion-controlled without needing to know
// which algorithm is in charge, plus the Bandwidth value type both sides of
// that interface exchange.
package congestion

import "time"

// Bandwidth is a bytes-over-time quantity, stored as whole bits per
// second. BandwidthFromDelta computes that rate once, by truncating
// integer division, so two samples whose rates differ by less than one
// bit per second become the same Bandwidth. CompareCrossMultiplied
// compares raw (bytes, interval) samples without dividing.
type Bandwidth int64

// bitsPerByte converts between the byte counts this package takes and
// returns and the bits-per-second unit Bandwidth is stored in.
const bitsPerByte = 8

// BandwidthFromDelta computes the bandwidth implied by sending n bytes over
// the given interval. A zero-byte delta always yields the zero Bandwidth,
// regardless of interval, matching the "zero-bytes is the zero
// element regardless of interval" rule.
func BandwidthFromDelta(bytes uint64, interval time.Duration) Bandwidth {
	if bytes == 0 || interval <= 0 {
		return 0
	}
	// bits/sec = bytes * 8 * 1e9 / interval_ns
	return Bandwidth(int64(bytes) * bitsPerByte * int64(time.Second) / int64(interval))
}

// BytesOverInterval returns how many bytes this bandwidth delivers across
// the given interval, truncating toward zero exactly like integer division
// does - callers relying on this for pacing need truncation, not rounding.
func (b Bandwidth) BytesOverInterval(interval time.Duration) uint64 {
	if b == 0 || interval <= 0 {
		return 0
	}
	return uint64(int64(b) * int64(interval) / int64(time.Second) / bitsPerByte)
}

// Scale multiplies a bandwidth by a rational factor num/den, both of which
// may be fractional via the caller pre-multiplying (used to implement "* 1.5"
// as Scale(3, 2)).
func (b Bandwidth) Scale(num, den int64) Bandwidth {
	if den == 0 {
		return 0
	}
	return Bandwidth(int64(b) * num / den)
}

// Add returns the sum of two bandwidths.
func (b Bandwidth) Add(other Bandwidth) Bandwidth { return b + other }

// Less reports b < other. Both values are stored in bits per second, so
// this is a plain integer comparison of the truncated rates, not a
// cross-multiplication of the original samples; the method exists so call sites never
// compare Bandwidth values with < directly and forget the zero-element
// rule if the representation ever changes.
func (b Bandwidth) Less(other Bandwidth) bool { return b < other }

// Equal reports whether two bandwidths compare equal. Both zero-byte
// bandwidths compare equal regardless of how they were constructed.
func (b Bandwidth) Equal(other Bandwidth) bool { return b == other }

func (b Bandwidth) String() string {
	return formatBitsPerSecond(int64(b))
}

func formatBitsPerSecond(bps int64) string {
	const unit = 1000
	if bps < unit {
		return itoa(bps) + " bit/s"
	}
	div, exp := int64(unit), 0
	for n := bps / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := "kMGT"
	return itoa(bps/div) + "." + itoa((bps%div)*10/div) + " " + string(units[exp]) + "bit/s"
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// CompareCrossMultiplied compares two (bytes, interval) samples without
// ever constructing a Bandwidth, by cross-multiplying n1*t2 against n2*t1 —
// the technique avoids to avoid division. It
// returns -1, 0 or 1 like bytes.Compare.
func CompareCrossMultiplied(n1 uint64, t1 time.Duration, n2 uint64, t2 time.Duration) int {
	lhs := int64(n1) * int64(t2)
	rhs := int64(n2) * int64(t1)
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}
