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

// VideoCodecType classifies registered video payloads. FEC kinds carry
// repair data in band and never drive decoder initialization.
type VideoCodecType int

const (
	VideoCodecGeneric VideoCodecType = iota
	VideoCodecVP8
	VideoCodecI420
	VideoCodecFEC
)

func (t VideoCodecType) String() string {
	switch t {
	case VideoCodecVP8:
		return "VP8"
	case VideoCodecI420:
		return "I420"
	case VideoCodecFEC:
		return "FEC"
	}
	return "Generic"
}

func videoCodecTypeFromName(name string) VideoCodecType {
	switch {
	case strings.EqualFold(name, "vp8"):
		return VideoCodecVP8
	case strings.EqualFold(name, "i420"):
		return VideoCodecI420
	case strings.EqualFold(name, "red"), strings.EqualFold(name, "ulpfec"):
		return VideoCodecFEC
	}
	return VideoCodecGeneric
}

// VideoReceiver is MediaReceiver for video streams. All video codecs run
// on the 90kHz clock. CSRC mixing does not apply to video.
type VideoReceiver struct {
	id   int32
	sink PayloadSink
	log  zerolog.Logger

	mu          sync.Mutex
	lastPayload PayloadSpecific
}

func NewVideoReceiver(id int32, sink PayloadSink) *VideoReceiver {
	return &VideoReceiver{
		id:   id,
		sink: sink,
		log:  log.With().Str("caller", "rtprecv").Int32("id", id).Logger(),
	}
}

func (v *VideoReceiver) ParseRTPPacket(header *Header, specific PayloadSpecific, isRED bool, packet []byte, nowMs int64, isFirstPacket bool) error {
	payloadLength := len(packet) - header.PaddingLength - header.HeaderLength
	if payloadLength < 0 {
		return ErrInvalidPacket
	}
	payload := packet[header.HeaderLength : header.HeaderLength+payloadLength]

	if v.sink == nil || len(payload) == 0 {
		return nil
	}
	return v.sink.OnReceivedPayloadData(payload, header)
}

func (v *VideoReceiver) FrequencyHz() uint32 {
	return DefaultVideoFrequency
}

func (v *VideoReceiver) OnNewPayloadTypeCreated(name string, payloadType int8, frequency uint32) error {
	return nil
}

func (v *VideoReceiver) LastMediaSpecificPayload() PayloadSpecific {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastPayload
}

func (v *VideoReceiver) SetLastMediaSpecificPayload(specific PayloadSpecific) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastPayload = specific
}

func (v *VideoReceiver) CheckPayloadChanged(payloadType int8) (PayloadSpecific, bool, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastPayload, false, false
}

func (v *VideoReceiver) InvokeOnInitializeDecoder(feedback Feedback, id int32, payloadType int8, name string, specific PayloadSpecific) error {
	if err := feedback.OnInitializeDecoder(id, payloadType, name,
		DefaultVideoFrequency, 1, specific.Video.MaxRate); err != nil {
		v.log.Error().Err(err).Int8("pt", payloadType).Msg("Failed to create video decoder")
		return fmt.Errorf("video decoder init pt=%d: %w", payloadType, err)
	}
	return nil
}

func (v *VideoReceiver) ShouldReportCSRCChanges(payloadType uint8) bool {
	return false
}

// ProcessDeadOrAlive for video trusts RTP only. No RTP within the active
// window means dead regardless of RTCP.
func (v *VideoReceiver) ProcessDeadOrAlive(lastPayloadLength int) AliveType {
	return RTPDead
}
