// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

// BitrateEstimator tracks short window receive rate. Update is called per
// accepted packet, Process on a periodic tick. Each Process folds the rate
// of the elapsed interval into an exponential average, half old half new.
// Not safe on its own, Receiver keeps it under its lock.
type BitrateEstimator struct {
	clock Clock

	packetCount uint32
	byteCount   uint32

	lastProcessMs int64

	bitrate    uint32 // bits/s
	packetRate uint32 // packets/s
}

func NewBitrateEstimator(clock Clock) BitrateEstimator {
	return BitrateEstimator{clock: clock}
}

func (b *BitrateEstimator) Update(bytes int) {
	b.byteCount += uint32(bytes)
	b.packetCount++
}

// Process recomputes the smoothed rates. Intervals under 100ms are skipped
// to keep the math stable, intervals over 10s restart the estimate.
func (b *BitrateEstimator) Process() {
	now := b.clock.NowMs()
	if b.lastProcessMs == 0 {
		b.lastProcessMs = now
		return
	}
	diffMs := now - b.lastProcessMs
	if diffMs < 100 {
		return
	}
	if diffMs > 10000 {
		// Stale, restart measurement.
		b.lastProcessMs = now
		b.byteCount = 0
		b.packetCount = 0
		b.bitrate = 0
		b.packetRate = 0
		return
	}

	packetRate := uint32((int64(b.packetCount)*1000 + diffMs/2) / diffMs)
	bitrate := uint32(int64(b.byteCount) * 8 * 1000 / diffMs)

	b.packetRate = b.packetRate/2 + packetRate/2
	b.bitrate = b.bitrate/2 + bitrate/2

	b.lastProcessMs = now
	b.byteCount = 0
	b.packetCount = 0
}

// Bitrate is last smoothed receive rate in bits/s.
func (b *BitrateEstimator) Bitrate() uint32 {
	return b.bitrate
}

// PacketRate is last smoothed receive rate in packets/s.
func (b *BitrateEstimator) PacketRate() uint32 {
	return b.packetRate
}
