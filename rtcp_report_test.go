// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceptionReport(t *testing.T) {
	clock := &fakeClock{nowMs: 100000}
	rec, _, _ := newTestAudioReceiver(clock)
	require.NoError(t, rec.RegisterReceivePayload("PCMU", 0, 8000, 1, 64000))

	_, err := rec.ReceptionReport(true)
	assert.ErrorIs(t, err, ErrNoData)

	deliver(t, rec, clock, 0x11, 1, 100)
	_, err = rec.ReceptionReport(true)
	require.NoError(t, err)

	deliver(t, rec, clock, 0x11, 111, 90) // 10 packets lost

	rr, err := rec.ReceptionReport(true)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x11), rr.SSRC)
	assert.Equal(t, uint8(25), rr.FractionLost)
	assert.Equal(t, uint32(10), rr.TotalLost)
	assert.Equal(t, uint32(200), rr.LastSequenceNumber)
}
