// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedPrimaryPayload(t *testing.T) {
	// Primary block only, one byte header
	primary, err := redPrimaryPayload([]byte{0x00, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, primary)

	// One redundant block of 4 bytes, then primary
	payload := []byte{
		0x80, 0x00, 0x00, 0x04, // redundant block header, length 4
		0x00,       // primary block header
		9, 9, 9, 9, // redundant data
		1, 2, 3, // primary data
	}
	primary, err = redPrimaryPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, primary)

	// Truncated headers
	_, err = redPrimaryPayload(nil)
	assert.ErrorIs(t, err, ErrInvalidPacket)
	_, err = redPrimaryPayload([]byte{0x80, 0x00})
	assert.ErrorIs(t, err, ErrInvalidPacket)
	_, err = redPrimaryPayload([]byte{0x80, 0x00, 0x03, 0xff, 0x00})
	assert.ErrorIs(t, err, ErrInvalidPacket)
}

func TestAudioReceiverTelephoneEvent(t *testing.T) {
	registry := NewPayloadRegistry(true)
	a := NewAudioReceiver(1, registry, nil)

	require.NoError(t, a.OnNewPayloadTypeCreated("telephone-event", 101, 8000))

	a.SetLastMediaSpecificPayload(PayloadSpecific{Audio: AudioPayload{Frequency: 8000, Channels: 1}})

	// Switching to the event side channel keeps the voice codec
	_, resetStats, discard := a.CheckPayloadChanged(101)
	assert.False(t, resetStats)
	assert.True(t, discard)

	// A normal codec switch passes through
	_, resetStats, discard = a.CheckPayloadChanged(8)
	assert.False(t, resetStats)
	assert.False(t, discard)
}

func TestAudioReceiverComfortNoise(t *testing.T) {
	registry := NewPayloadRegistry(true)
	a := NewAudioReceiver(1, registry, nil)

	require.NoError(t, a.OnNewPayloadTypeCreated("CN", 13, 8000))
	require.NoError(t, a.OnNewPayloadTypeCreated("CN", 98, 16000))

	a.SetLastMediaSpecificPayload(PayloadSpecific{Audio: AudioPayload{Frequency: 8000, Channels: 1}})

	// Same band comfort noise
	_, resetStats, discard := a.CheckPayloadChanged(13)
	assert.False(t, resetStats)
	assert.True(t, discard)

	// Wideband comfort noise against a narrowband stream resets stats
	_, resetStats, discard = a.CheckPayloadChanged(98)
	assert.True(t, resetStats)
	assert.True(t, discard)
}

func TestAudioReceiverDeadOrAlive(t *testing.T) {
	a := NewAudioReceiver(1, NewPayloadRegistry(true), nil)
	assert.Equal(t, RTPDead, a.ProcessDeadOrAlive(0))
	assert.Equal(t, RTPDead, a.ProcessDeadOrAlive(4))
	assert.Equal(t, RTPAlive, a.ProcessDeadOrAlive(160))
}

func TestAudioReceiverFrequency(t *testing.T) {
	a := NewAudioReceiver(1, NewPayloadRegistry(true), nil)
	assert.Equal(t, uint32(defaultAudioFrequency), a.FrequencyHz())

	a.SetLastMediaSpecificPayload(PayloadSpecific{Audio: AudioPayload{Frequency: 48000, Channels: 2}})
	assert.Equal(t, uint32(48000), a.FrequencyHz())
}

func TestVideoReceiverDefaults(t *testing.T) {
	v := NewVideoReceiver(1, nil)
	assert.Equal(t, uint32(DefaultVideoFrequency), v.FrequencyHz())
	assert.False(t, v.ShouldReportCSRCChanges(96))
	assert.Equal(t, RTPDead, v.ProcessDeadOrAlive(1000))
}
