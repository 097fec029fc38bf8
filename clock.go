// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"time"
)

// Clock provides wall time in milliseconds. Receiver never calls time.Now
// directly so tests and simulations can drive it with their own time source.
type Clock interface {
	NowMs() int64
}

// SystemClock is default Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) NowMs() int64 {
	return time.Now().UnixMilli()
}

// CurrentRTP is current clock time expressed in samples of media clock.
// Wraps same as RTP timestamp does.
func CurrentRTP(c Clock, frequencyHz uint32) uint32 {
	return uint32(c.NowMs() * int64(frequencyHz) / 1000)
}
