// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"github.com/pion/rtp"
)

const (
	// MaxCSRC is RTP limit of contributing sources per packet
	MaxCSRC = 15
	// PayloadNameSize is max codec name length including terminator
	PayloadNameSize = 32
	// DefaultVideoFrequency is media clock rate used for all video codecs
	DefaultVideoFrequency = 90000
)

// HeaderExtension carries parsed extension fields receiver cares about.
type HeaderExtension struct {
	// TransmissionTimeOffset is RFC 5450 offset in media clock samples,
	// 0 when extension is absent.
	TransmissionTimeOffset int32
}

// Header is a parsed RTP header handed to Receiver.IncomingRTPPacket.
// Transport does the wire parsing, HeaderFromPacket builds it from pion
// packet. Receiver may rewrite SSRC, SequenceNumber and HeaderLength
// during RTX de-encapsulation.
type Header struct {
	Marker         bool
	PayloadType    uint8
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	NumCSRC        uint8
	CSRC           [MaxCSRC]uint32

	// HeaderLength is offset of payload start within the packet bytes
	HeaderLength int
	// PaddingLength is number of trailing padding bytes
	PaddingLength int

	Extension HeaderExtension

	// Audio level energies per CSRC, from RFC 6465 extension
	NumEnergy uint8
	Energy    [MaxCSRC]uint8
}

// HeaderFromPacket converts an unmarshaled pion packet into Header,
// resolving registered extensions through the map.
func HeaderFromPacket(p *rtp.Packet, extMap *HeaderExtensionMap) Header {
	h := Header{
		Marker:         p.Marker,
		PayloadType:    p.PayloadType,
		SequenceNumber: p.SequenceNumber,
		Timestamp:      p.Timestamp,
		SSRC:           p.SSRC,
		HeaderLength:   p.Header.MarshalSize(),
		PaddingLength:  int(p.PaddingSize),
	}
	n := len(p.CSRC)
	if n > MaxCSRC {
		n = MaxCSRC
	}
	h.NumCSRC = uint8(n)
	copy(h.CSRC[:], p.CSRC[:n])

	if !p.Header.Extension || extMap == nil {
		return h
	}
	for _, id := range p.Header.GetExtensionIDs() {
		kind, ok := extMap.Lookup(id)
		if !ok {
			continue
		}
		payload := p.Header.GetExtension(id)
		switch kind {
		case ExtensionTransmissionTimeOffset:
			h.Extension.TransmissionTimeOffset = parseTransmissionOffset(payload)
		case ExtensionCSRCAudioLevel:
			ne := len(payload)
			if ne > MaxCSRC {
				ne = MaxCSRC
			}
			h.NumEnergy = uint8(ne)
			for i := 0; i < ne; i++ {
				h.Energy[i] = payload[i] & 0x7f
			}
		case ExtensionAudioLevel:
			// Single source level, receiver tracks only CSRC energies.
		}
	}
	return h
}

// parseTransmissionOffset reads 24 bit signed big endian offset.
func parseTransmissionOffset(b []byte) int32 {
	if len(b) < 3 {
		return 0
	}
	v := int32(b[0])<<16 | int32(b[1])<<8 | int32(b[2])
	if v&0x800000 != 0 {
		v |= ^int32(0xffffff)
	}
	return v
}
