// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderFromPacket(t *testing.T) {
	p := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         true,
			PayloadType:    96,
			SequenceNumber: 1234,
			Timestamp:      56789,
			SSRC:           0xcafe,
			CSRC:           []uint32{11, 22},
		},
		Payload:     []byte{1, 2, 3},
		PaddingSize: 4,
	}

	h := HeaderFromPacket(&p, nil)
	assert.True(t, h.Marker)
	assert.Equal(t, uint8(96), h.PayloadType)
	assert.Equal(t, uint16(1234), h.SequenceNumber)
	assert.Equal(t, uint32(56789), h.Timestamp)
	assert.Equal(t, uint32(0xcafe), h.SSRC)
	assert.Equal(t, uint8(2), h.NumCSRC)
	assert.Equal(t, uint32(11), h.CSRC[0])
	assert.Equal(t, uint32(22), h.CSRC[1])
	assert.Equal(t, p.Header.MarshalSize(), h.HeaderLength)
	assert.Equal(t, 4, h.PaddingLength)
	assert.Equal(t, int32(0), h.Extension.TransmissionTimeOffset)
}

func TestHeaderFromPacketExtensions(t *testing.T) {
	extMap := NewHeaderExtensionMap()
	require.NoError(t, extMap.Register(ExtensionTransmissionTimeOffset, 5))
	require.NoError(t, extMap.Register(ExtensionCSRCAudioLevel, 6))

	p := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    0,
			SequenceNumber: 1,
			Timestamp:      160,
			SSRC:           0x11,
		},
		Payload: []byte{0xaa},
	}
	// -200 as 24 bit big endian
	require.NoError(t, p.Header.SetExtension(5, []byte{0xff, 0xff, 0x38}))
	require.NoError(t, p.Header.SetExtension(6, []byte{0x81, 0x12}))

	h := HeaderFromPacket(&p, extMap)
	assert.Equal(t, int32(-200), h.Extension.TransmissionTimeOffset)
	assert.Equal(t, uint8(2), h.NumEnergy)
	assert.Equal(t, uint8(0x01), h.Energy[0])
	assert.Equal(t, uint8(0x12), h.Energy[1])

	// Unregistered ids are skipped
	h = HeaderFromPacket(&p, NewHeaderExtensionMap())
	assert.Equal(t, int32(0), h.Extension.TransmissionTimeOffset)
	assert.Equal(t, uint8(0), h.NumEnergy)
}

func TestParseTransmissionOffset(t *testing.T) {
	assert.Equal(t, int32(0x123456), parseTransmissionOffset([]byte{0x12, 0x34, 0x56}))
	assert.Equal(t, int32(-1), parseTransmissionOffset([]byte{0xff, 0xff, 0xff}))
	assert.Equal(t, int32(0), parseTransmissionOffset([]byte{0x12}))
}
