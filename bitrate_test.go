// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitrateEstimator(t *testing.T) {
	clock := &fakeClock{nowMs: 100000}
	est := NewBitrateEstimator(clock)

	est.Process() // arm measurement interval
	for i := 0; i < 10; i++ {
		est.Update(100)
	}
	clock.Advance(1000)
	est.Process()

	// 1000 bytes over 1s is 8000 bits/s, folded half half into zero
	assert.Equal(t, uint32(4000), est.Bitrate())
	assert.Equal(t, uint32(5), est.PacketRate())

	for i := 0; i < 10; i++ {
		est.Update(100)
	}
	clock.Advance(1000)
	est.Process()
	assert.Equal(t, uint32(6000), est.Bitrate())
	assert.Equal(t, uint32(7), est.PacketRate())
}

func TestBitrateEstimatorShortInterval(t *testing.T) {
	clock := &fakeClock{nowMs: 100000}
	est := NewBitrateEstimator(clock)

	est.Process()
	est.Update(1000)
	clock.Advance(50)
	est.Process()

	// Under 100ms nothing is computed
	assert.Equal(t, uint32(0), est.Bitrate())
}

func TestBitrateEstimatorStale(t *testing.T) {
	clock := &fakeClock{nowMs: 100000}
	est := NewBitrateEstimator(clock)

	est.Process()
	for i := 0; i < 10; i++ {
		est.Update(100)
	}
	clock.Advance(1000)
	est.Process()
	assert.NotZero(t, est.Bitrate())

	clock.Advance(20000)
	est.Process()
	assert.Equal(t, uint32(0), est.Bitrate())
	assert.Equal(t, uint32(0), est.PacketRate())
}
