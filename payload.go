// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"fmt"
	"strings"
)

// AudioPayload is codec parameters for audio payload types.
type AudioPayload struct {
	Frequency uint32
	Channels  uint8
	// Rate is codec bitrate in bits/s, 0 when not negotiated
	Rate uint32
}

// VideoPayload is codec parameters for video payload types.
type VideoPayload struct {
	CodecType VideoCodecType
	// MaxRate is max configured bitrate in kbit/s
	MaxRate uint32
}

// PayloadSpecific is media specific part of a payload descriptor. Only the
// side matching Payload.Audio is meaningful.
type PayloadSpecific struct {
	Audio AudioPayload
	Video VideoPayload
}

// Payload describes a registered receive codec.
type Payload struct {
	Name     string
	Audio    bool
	Specific PayloadSpecific
}

func (p *Payload) String() string {
	if p.Audio {
		return fmt.Sprintf("%s pt audio freq=%d ch=%d rate=%d", p.Name,
			p.Specific.Audio.Frequency, p.Specific.Audio.Channels, p.Specific.Audio.Rate)
	}
	return fmt.Sprintf("%s pt video maxrate=%d", p.Name, p.Specific.Video.MaxRate)
}

// PayloadRegistry maps payload type numbers to codec descriptors and keeps
// track of last received payload types. Registry belongs to one media
// receiver, so it is created for audio or for video and all descriptors
// share that media type. Not locked on its own, Receiver serializes all
// access under its lock.
type PayloadRegistry struct {
	audio    bool
	payloads map[int8]*Payload

	lastReceivedPayloadType      int8
	lastReceivedMediaPayloadType int8
	redPayloadType               int8
}

func NewPayloadRegistry(audio bool) *PayloadRegistry {
	return &PayloadRegistry{
		audio:                        audio,
		payloads:                     map[int8]*Payload{},
		lastReceivedPayloadType:      -1,
		lastReceivedMediaPayloadType: -1,
		redPayloadType:               -1,
	}
}

// RegisterReceivePayload creates a descriptor for payload type. Registering
// identical parameters again is a noop. Different parameters on a used
// payload type replace the descriptor and report it as newly created, so
// the media receiver gets its OnNewPayloadTypeCreated hook again.
func (r *PayloadRegistry) RegisterReceivePayload(name string, payloadType int8, frequency uint32, channels uint8, rate uint32) (createdNew bool, err error) {
	if name == "" || len(name) >= PayloadNameSize {
		return false, ErrPayloadName
	}
	if payloadType < 0 {
		return false, ErrPayloadTypeNotFound
	}

	if existing, ok := r.payloads[payloadType]; ok {
		if existing.Name == name {
			if !r.audio {
				return false, nil
			}
			a := existing.Specific.Audio
			if a.Frequency == frequency && a.Channels == channels && a.Rate == rate {
				return false, nil
			}
		}
		// Parameters differ, replace and treat as newly created.
		delete(r.payloads, payloadType)
	}

	p := &Payload{
		Name:  name,
		Audio: r.audio,
	}
	if r.audio {
		p.Specific.Audio = AudioPayload{Frequency: frequency, Channels: channels, Rate: rate}
	} else {
		p.Specific.Video = VideoPayload{
			CodecType: videoCodecTypeFromName(name),
			MaxRate:   rate,
		}
	}
	r.payloads[payloadType] = p

	if strings.EqualFold(name, "red") {
		r.redPayloadType = payloadType
	}
	return true, nil
}

func (r *PayloadRegistry) DeregisterReceivePayload(payloadType int8) {
	delete(r.payloads, payloadType)
	if r.redPayloadType == payloadType {
		r.redPayloadType = -1
	}
}

// ReceivePayloadType is reverse lookup of payload type from codec
// parameters. Audio matches on name, frequency, channels and rate where
// registered rate 0 matches any. Video matches on name only.
func (r *PayloadRegistry) ReceivePayloadType(name string, frequency uint32, channels uint8, rate uint32) (int8, error) {
	for pt, p := range r.payloads {
		if !strings.EqualFold(p.Name, name) {
			continue
		}
		if !p.Audio {
			return pt, nil
		}
		a := p.Specific.Audio
		if a.Frequency == frequency && a.Channels == channels &&
			(a.Rate == rate || a.Rate == 0 || rate == 0) {
			return pt, nil
		}
	}
	return -1, ErrPayloadTypeNotFound
}

func (r *PayloadRegistry) PayloadTypeToPayload(payloadType int8) (*Payload, bool) {
	p, ok := r.payloads[payloadType]
	return p, ok
}

func (r *PayloadRegistry) LastReceivedPayloadType() int8 {
	return r.lastReceivedPayloadType
}

func (r *PayloadRegistry) SetLastReceivedPayloadType(payloadType int8) {
	r.lastReceivedPayloadType = payloadType
}

// RedPayloadType is payload type registered under name "red", -1 if none.
func (r *PayloadRegistry) RedPayloadType() int8 {
	return r.redPayloadType
}

func (r *PayloadRegistry) ResetLastReceivedPayloadTypes() {
	r.lastReceivedPayloadType = -1
	r.lastReceivedMediaPayloadType = -1
}

// ReportMediaPayloadType records last media payload type. It records any
// payload type it is given, callers leave out RED and FEC. Returns true when
// the media type did not change.
func (r *PayloadRegistry) ReportMediaPayloadType(payloadType int8) bool {
	if r.lastReceivedMediaPayloadType == payloadType {
		return true
	}
	r.lastReceivedMediaPayloadType = payloadType
	return false
}
