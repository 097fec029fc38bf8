// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRegistryRoundTrip(t *testing.T) {
	reg := NewPayloadRegistry(true)

	created, err := reg.RegisterReceivePayload("PCMU", 0, 8000, 1, 64000)
	require.NoError(t, err)
	require.True(t, created)

	pt, err := reg.ReceivePayloadType("PCMU", 8000, 1, 64000)
	require.NoError(t, err)
	assert.Equal(t, int8(0), pt)

	// Registered rate 0 matches any rate on lookup
	created, err = reg.RegisterReceivePayload("opus", 96, 48000, 2, 0)
	require.NoError(t, err)
	require.True(t, created)
	pt, err = reg.ReceivePayloadType("opus", 48000, 2, 128000)
	require.NoError(t, err)
	assert.Equal(t, int8(96), pt)

	_, err = reg.ReceivePayloadType("PCMA", 8000, 1, 64000)
	assert.ErrorIs(t, err, ErrPayloadTypeNotFound)
}

func TestPayloadRegistryReRegister(t *testing.T) {
	reg := NewPayloadRegistry(true)

	created, err := reg.RegisterReceivePayload("PCMU", 0, 8000, 1, 64000)
	require.NoError(t, err)
	require.True(t, created)

	// Identical parameters again is a noop
	created, err = reg.RegisterReceivePayload("PCMU", 0, 8000, 1, 64000)
	require.NoError(t, err)
	assert.False(t, created)

	// Different parameters replace the descriptor and count as new
	created, err = reg.RegisterReceivePayload("PCMA", 0, 8000, 1, 64000)
	require.NoError(t, err)
	assert.True(t, created)

	p, ok := reg.PayloadTypeToPayload(0)
	require.True(t, ok)
	assert.Equal(t, "PCMA", p.Name)
}

func TestPayloadRegistryBadName(t *testing.T) {
	reg := NewPayloadRegistry(true)

	_, err := reg.RegisterReceivePayload("", 0, 8000, 1, 0)
	assert.ErrorIs(t, err, ErrPayloadName)

	long := make([]byte, PayloadNameSize)
	for i := range long {
		long[i] = 'a'
	}
	_, err = reg.RegisterReceivePayload(string(long), 0, 8000, 1, 0)
	assert.ErrorIs(t, err, ErrPayloadName)
}

func TestPayloadRegistryRed(t *testing.T) {
	reg := NewPayloadRegistry(true)
	assert.Equal(t, int8(-1), reg.RedPayloadType())

	_, err := reg.RegisterReceivePayload("RED", 127, 8000, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int8(127), reg.RedPayloadType())

	reg.DeregisterReceivePayload(127)
	assert.Equal(t, int8(-1), reg.RedPayloadType())
}

func TestPayloadRegistryLastReceived(t *testing.T) {
	reg := NewPayloadRegistry(true)
	assert.Equal(t, int8(-1), reg.LastReceivedPayloadType())

	reg.SetLastReceivedPayloadType(8)
	assert.Equal(t, int8(8), reg.LastReceivedPayloadType())

	assert.False(t, reg.ReportMediaPayloadType(8))
	assert.True(t, reg.ReportMediaPayloadType(8))
	assert.False(t, reg.ReportMediaPayloadType(0))

	reg.ResetLastReceivedPayloadTypes()
	assert.Equal(t, int8(-1), reg.LastReceivedPayloadType())
	assert.False(t, reg.ReportMediaPayloadType(8))
}

func TestPayloadRegistryVideo(t *testing.T) {
	reg := NewPayloadRegistry(false)

	created, err := reg.RegisterReceivePayload("VP8", 96, DefaultVideoFrequency, 0, 0)
	require.NoError(t, err)
	require.True(t, created)

	p, ok := reg.PayloadTypeToPayload(96)
	require.True(t, ok)
	assert.False(t, p.Audio)
	assert.Equal(t, VideoCodecVP8, p.Specific.Video.CodecType)

	created, err = reg.RegisterReceivePayload("ulpfec", 97, DefaultVideoFrequency, 0, 0)
	require.NoError(t, err)
	require.True(t, created)
	p, ok = reg.PayloadTypeToPayload(97)
	require.True(t, ok)
	assert.Equal(t, VideoCodecFEC, p.Specific.Video.CodecType)
}
