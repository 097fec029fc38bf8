// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"time"
)

// PacketKind tells what kind of packet opened the stream.
type PacketKind int

const (
	PacketRTP PacketKind = iota
	PacketKeepAlive
)

func (k PacketKind) String() string {
	switch k {
	case PacketRTP:
		return "rtp"
	case PacketKeepAlive:
		return "keepalive"
	}
	return "unknown"
}

// AliveType is result of periodic dead or alive processing.
type AliveType int

const (
	RTPDead AliveType = iota
	RTPAlive
)

func (a AliveType) String() string {
	if a == RTPAlive {
		return "alive"
	}
	return "dead"
}

// Feedback is the sink for receiver events. All callbacks are invoked with
// no receiver lock held, so implementations may call back into Receiver.
// Callbacks run on the caller thread of IncomingRTPPacket or the periodic
// timer thread. Must not block.
type Feedback interface {
	// OnReceivedPacket fires on the very first packet the receiver gets and
	// again on the first packet after a packet timeout. An SSRC change does
	// not fire it.
	OnReceivedPacket(id int32, kind PacketKind)
	OnIncomingSSRCChanged(id int32, ssrc uint32)
	// OnIncomingCSRCChanged reports contributing source entering (added) or
	// leaving the mix. CSRC 0 is used as signal when the list size changed
	// without any individual diff.
	OnIncomingCSRCChanged(id int32, csrc uint32, added bool)
	// OnInitializeDecoder tells upper layer to (re)create the decoder.
	// An error on a stream restart (SSRC change) only gets logged. An error
	// on a payload type switch is returned from IncomingRTPPacket for that
	// packet, later packets of the same payload type are processed.
	OnInitializeDecoder(id int32, payloadType int8, name string, frequency uint32, channels uint8, rate uint32) error
	OnPacketTimeout(id int32)
	OnPeriodicDeadOrAlive(id int32, alive AliveType)
}

// RTCPPeer is the RTCP side of the module the receiver lives in. Receiver
// pushes the remote SSRC there and reads back the minimum round trip time
// when classifying retransmissions.
type RTCPPeer interface {
	SetRemoteSSRC(ssrc uint32)
	// MinRTT returns minimum RTT estimate for given SSRC, 0 when unknown.
	MinRTT(ssrc uint32) time.Duration
}

// PayloadSink receives depacketized payload from the media receivers.
type PayloadSink interface {
	OnReceivedPayloadData(payload []byte, header *Header) error
}
