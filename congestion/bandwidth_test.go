// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package congestion

import (
	"testing"
	"time"
)

func TestBandwidthArithmetic(t *testing.T) {
	base := BandwidthFromDelta(1000, 10*time.Microsecond)

	tests := []struct {
		name string
		bw   Bandwidth
		dt   time.Duration
		want uint64
	}{
		{"times20", base, 20 * time.Microsecond, 2000},
		{"times5", base, 5 * time.Microsecond, 500},
		{"half-times20", base.Scale(1, 2), 20 * time.Microsecond, 1000},
		{"one-and-half-times5", base.Scale(3, 2), 5 * time.Microsecond, 750},
		{"third-times20", base.Scale(1, 3), 20 * time.Microsecond, 666},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bw.BytesOverInterval(tt.dt); got != tt.want {
				t.Errorf("BytesOverInterval() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBandwidthOrdering(t *testing.T) {
	a := BandwidthFromDelta(1000, 100*time.Microsecond)
	b := BandwidthFromDelta(2000, 150*time.Microsecond)
	if !a.Less(b) {
		t.Errorf("expected %v < %v", a, b)
	}

	c := BandwidthFromDelta(2000, 200*time.Microsecond)
	if !a.Equal(c) {
		t.Errorf("expected %v == %v", a, c)
	}
}

func TestBandwidthZeroIsZeroElement(t *testing.T) {
	z1 := BandwidthFromDelta(0, 10*time.Microsecond)
	z2 := BandwidthFromDelta(0, time.Hour)
	if !z1.Equal(z2) {
		t.Errorf("zero-byte bandwidths must compare equal regardless of interval")
	}
	if z1 != 0 {
		t.Errorf("zero-byte bandwidth must be the zero value")
	}
}

func TestBandwidthDoublingInvariant(t *testing.T) {
	base := BandwidthFromDelta(1000, 10*time.Microsecond)
	for k := int64(1); k <= 5; k++ {
		scaled := BandwidthFromDelta(1000*uint64(k), 10*time.Microsecond*time.Duration(k))
		if !base.Equal(scaled) {
			t.Errorf("Bandwidth(n,t) != Bandwidth(n*%d,t*%d): %v vs %v", k, k, base, scaled)
		}
	}
}

func TestCompareCrossMultiplied(t *testing.T) {
	if CompareCrossMultiplied(1000, 100*time.Microsecond, 2000, 150*time.Microsecond) >= 0 {
		t.Errorf("expected 1000/100us < 2000/150us")
	}
	if CompareCrossMultiplied(1000, 100*time.Microsecond, 2000, 200*time.Microsecond) != 0 {
		t.Errorf("expected 1000/100us == 2000/200us")
	}
}
