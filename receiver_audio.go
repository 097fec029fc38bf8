// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultAudioFrequency = 8000

// Payloads shorter than this do not count as liveness. Filters out comfort
// noise and keep alive padding when deciding dead or alive.
const minAudioAlivePayloadLength = 10

// AudioReceiver is MediaReceiver for audio streams. Knows about side
// channel payloads, telephone events (RFC 4733) and comfort noise, which
// must not tear down the voice decoder when they interleave with media.
type AudioReceiver struct {
	id       int32
	registry *PayloadRegistry
	sink     PayloadSink
	log      zerolog.Logger

	mu               sync.Mutex
	lastPayload      PayloadSpecific
	telephoneEventPT int8
	cngPayloadTypes  map[int8]uint32
}

func NewAudioReceiver(id int32, registry *PayloadRegistry, sink PayloadSink) *AudioReceiver {
	return &AudioReceiver{
		id:               id,
		registry:         registry,
		sink:             sink,
		log:              log.With().Str("caller", "rtprecv").Int32("id", id).Logger(),
		telephoneEventPT: -1,
		cngPayloadTypes:  map[int8]uint32{},
	}
}

func (a *AudioReceiver) ParseRTPPacket(header *Header, specific PayloadSpecific, isRED bool, packet []byte, nowMs int64, isFirstPacket bool) error {
	payloadLength := len(packet) - header.PaddingLength - header.HeaderLength
	if payloadLength < 0 {
		return ErrInvalidPacket
	}
	payload := packet[header.HeaderLength : header.HeaderLength+payloadLength]

	if isRED {
		primary, err := redPrimaryPayload(payload)
		if err != nil {
			return err
		}
		payload = primary
	}

	a.mu.Lock()
	telephoneEvent := a.telephoneEventPT == int8(header.PayloadType)
	a.mu.Unlock()
	if telephoneEvent && len(payload) > 0 {
		a.log.Debug().Uint8("event", payload[0]).Bool("end", len(payload) > 1 && payload[1]&0x80 != 0).Msg("Telephone event")
	}

	if a.sink == nil || len(payload) == 0 {
		return nil
	}
	return a.sink.OnReceivedPayloadData(payload, header)
}

func (a *AudioReceiver) FrequencyHz() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if f := a.lastPayload.Audio.Frequency; f > 0 {
		return f
	}
	return defaultAudioFrequency
}

func (a *AudioReceiver) OnNewPayloadTypeCreated(name string, payloadType int8, frequency uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if strings.EqualFold(name, "telephone-event") {
		a.telephoneEventPT = payloadType
	}
	if strings.EqualFold(name, "cn") {
		a.cngPayloadTypes[payloadType] = frequency
	}
	return nil
}

func (a *AudioReceiver) LastMediaSpecificPayload() PayloadSpecific {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastPayload
}

func (a *AudioReceiver) SetLastMediaSpecificPayload(specific PayloadSpecific) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastPayload = specific
}

// CheckPayloadChanged discards payload switches to telephone events and
// comfort noise. They are side channels, voice codec state stays as is.
// Comfort noise on a different sampling frequency resets statistics since
// jitter math is no longer comparable.
func (a *AudioReceiver) CheckPayloadChanged(payloadType int8) (PayloadSpecific, bool, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if payloadType == a.telephoneEventPT {
		return a.lastPayload, false, true
	}
	if freq, ok := a.cngPayloadTypes[payloadType]; ok {
		resetStatistics := a.lastPayload.Audio.Frequency != 0 && a.lastPayload.Audio.Frequency != freq
		return a.lastPayload, resetStatistics, true
	}
	return a.lastPayload, false, false
}

func (a *AudioReceiver) InvokeOnInitializeDecoder(feedback Feedback, id int32, payloadType int8, name string, specific PayloadSpecific) error {
	if err := feedback.OnInitializeDecoder(id, payloadType, name,
		specific.Audio.Frequency, specific.Audio.Channels, specific.Audio.Rate); err != nil {
		a.log.Error().Err(err).Int8("pt", payloadType).Msg("Failed to create audio decoder")
		return fmt.Errorf("audio decoder init pt=%d: %w", payloadType, err)
	}
	return nil
}

func (a *AudioReceiver) ShouldReportCSRCChanges(payloadType uint8) bool {
	return true
}

func (a *AudioReceiver) ProcessDeadOrAlive(lastPayloadLength int) AliveType {
	if lastPayloadLength < minAudioAlivePayloadLength {
		return RTPDead
	}
	return RTPAlive
}

// redPrimaryPayload strips RFC 2198 block headers and returns the primary
// encoding data, the last block. Redundant blocks are left for FEC layers.
func redPrimaryPayload(payload []byte) ([]byte, error) {
	offset := 0
	redundantLength := 0
	for {
		if offset >= len(payload) {
			return nil, ErrInvalidPacket
		}
		if payload[offset]&0x80 == 0 {
			offset++
			break
		}
		if offset+4 > len(payload) {
			return nil, ErrInvalidPacket
		}
		redundantLength += int(payload[offset+2]&0x03)<<8 | int(payload[offset+3])
		offset += 4
	}
	start := offset + redundantLength
	if start > len(payload) {
		return nil, ErrInvalidPacket
	}
	return payload[start:], nil
}
