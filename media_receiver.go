// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

// MediaReceiver is the media specific half of the receiver. Receiver core
// drives the state machine and statistics, the media receiver knows how
// to parse the payload and what clock the codec runs on. Two variants
// exist, AudioReceiver and VideoReceiver.
//
// ParseRTPPacket and InvokeOnInitializeDecoder are called with no receiver
// lock held. Everything else may run under it, so implementations must not
// call back into Receiver.
type MediaReceiver interface {
	// ParseRTPPacket hands the payload to the media layer. packet is the
	// full raw packet, payload starts at header.HeaderLength.
	ParseRTPPacket(header *Header, specific PayloadSpecific, isRED bool, packet []byte, nowMs int64, isFirstPacket bool) error

	// FrequencyHz is media clock rate of the current stream.
	FrequencyHz() uint32

	// OnNewPayloadTypeCreated runs whenever registry creates a descriptor.
	OnNewPayloadTypeCreated(name string, payloadType int8, frequency uint32) error

	LastMediaSpecificPayload() PayloadSpecific
	SetLastMediaSpecificPayload(specific PayloadSpecific)

	// CheckPayloadChanged lets the media layer veto or adjust handling of
	// a payload type switch before the registry lookup happens.
	// discardChanges keeps the previous payload state, used for side
	// channels like telephone events.
	CheckPayloadChanged(payloadType int8) (specific PayloadSpecific, resetStatistics bool, discardChanges bool)

	// InvokeOnInitializeDecoder translates the descriptor into the decoder
	// init callback with media appropriate parameters.
	InvokeOnInitializeDecoder(feedback Feedback, id int32, payloadType int8, name string, specific PayloadSpecific) error

	// ShouldReportCSRCChanges is true when CSRC diffing applies to this
	// payload type. Audio reports, video does not.
	ShouldReportCSRCChanges(payloadType uint8) bool

	// ProcessDeadOrAlive decides liveness when RTCP is alive but RTP has
	// been silent over the active window.
	ProcessDeadOrAlive(lastPayloadLength int) AliveType
}
