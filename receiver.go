// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/pion/rtp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NACKMethod selects how retransmissions are requested. With NACK enabled
// old packets are expected and are not counted as received for loss math.
type NACKMethod int

const (
	NACKOff NACKMethod = iota
	NACKRtcp
)

const (
	defaultMaxReorderingThreshold = 50

	// Stream counts as alive when RTP was seen within this window.
	receiverAliveWindowMs = 1000

	// Timestamp jumps beyond this many samples (5s at video clock) skip
	// the jitter update. Some senders deliver crazy timestamp jumps for
	// the same stream.
	maxTimestampDeltaSamples = 450000
)

// Statistics is a receiver report snapshot, the source material for RTCP
// receiver report blocks and the RFC 5450 extended jitter report.
type Statistics struct {
	// FractionLost is loss since previous report scaled 0..255
	FractionLost uint8
	// CumulativeLost counts packets lost since stream start, 24 bits valid
	CumulativeLost uint32
	// ExtendedHighSeqNum is wrap count in high 16 bits, max seq in low
	ExtendedHighSeqNum uint32
	// Jitter is interarrival jitter in media clock samples
	Jitter uint32
	// MaxJitter is running maximum of Jitter
	MaxJitter uint32
	// JitterTransmissionTimeOffset is jitter excluding sender side offsets
	JitterTransmissionTimeOffset uint32
	// Missing is packets lost since previous report
	Missing int32
}

// Config wires Receiver collaborators. Media, Registry and Feedback are
// required and must outlive the receiver. RTCP is optional.
type Config struct {
	ID       int32
	Clock    Clock
	Media    MediaReceiver
	Registry *PayloadRegistry
	Feedback Feedback
	RTCP     RTCPPeer
}

// Receiver is the RTP receive state machine for one stream. It validates
// and normalizes incoming headers, detects SSRC and payload type switches,
// classifies packets as in order or retransmissions and keeps statistics
// for building receiver reports.
//
// Safe for concurrent use. A single lock guards all state, and every
// feedback callback as well as media payload parsing runs with the lock
// released, so upper layers may call back into the receiver.
type Receiver struct {
	id       int32
	clock    Clock
	media    MediaReceiver
	registry *PayloadRegistry
	feedback Feedback
	rtcp     RTCPPeer
	log      zerolog.Logger

	mu sync.Mutex

	extensionMap *HeaderExtensionMap
	bitrate      BitrateEstimator

	lastReceiveTimeMs         int64
	lastReceivedPayloadLength int
	packetTimeoutMs           int64

	ssrc                uint32
	numCSRC             int
	currentRemoteCSRC   [MaxCSRC]uint32
	numEnergy           int
	currentRemoteEnergy [MaxCSRC]uint8

	useSSRCFilter bool
	ssrcFilter    uint32

	jitterQ4                       int32
	jitterMaxQ4                    int32
	cumulativeLoss                 int32
	jitterQ4TransmissionTimeOffset int32

	localTimeLastReceivedTimestamp     uint32
	lastReceivedFrameTimeMs            int64
	lastReceivedTimestamp              uint32
	lastReceivedSequenceNumber         uint16
	lastReceivedTransmissionTimeOffset int32

	receivedSeqFirst uint16
	receivedSeqMax   uint16
	receivedSeqWraps uint32

	receivedPacketOH           uint16
	receivedByteCount          uint32
	receivedOldPacketCount     uint32
	receivedInorderPacketCount uint32

	lastReportInorderPackets               uint32
	lastReportOldPackets                   uint32
	lastReportSeqMax                       uint16
	lastReportFractionLost                 uint8
	lastReportCumulativeLost               uint32
	lastReportExtendedHighSeqNum           uint32
	lastReportJitter                       uint32
	lastReportJitterTransmissionTimeOffset uint32

	nackMethod             NACKMethod
	maxReorderingThreshold int
	rtxEnabled             bool
	rtxSSRC                uint32
}

func NewReceiver(conf Config) *Receiver {
	clock := conf.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Receiver{
		id:       conf.ID,
		clock:    clock,
		media:    conf.Media,
		registry: conf.Registry,
		feedback: conf.Feedback,
		rtcp:     conf.RTCP,
		log:      log.With().Str("caller", "rtprecv").Int32("id", conf.ID).Logger(),

		extensionMap: NewHeaderExtensionMap(),
		bitrate:      NewBitrateEstimator(clock),

		receivedPacketOH:       12, // bare RTP header
		maxReorderingThreshold: defaultMaxReorderingThreshold,
	}
}

// Close tears the receiver down. Every currently tracked contributing
// source is reported as removed.
func (r *Receiver) Close() error {
	r.mu.Lock()
	num := r.numCSRC
	var csrcs [MaxCSRC]uint32
	copy(csrcs[:], r.currentRemoteCSRC[:num])
	r.numCSRC = 0
	r.mu.Unlock()

	for i := 0; i < num; i++ {
		r.feedback.OnIncomingCSRCChanged(r.id, csrcs[i], false)
	}
	return nil
}

// IncomingRTPPacket processes one parsed packet. header is the already
// parsed RTP header of packet, see HeaderFromPacket. The header may be
// rewritten in place during RTX de-encapsulation.
func (r *Receiver) IncomingRTPPacket(header *Header, packet []byte) error {
	packetLength := len(packet)
	length := packetLength - header.PaddingLength

	if length-header.HeaderLength < 0 {
		return fmt.Errorf("%w: padding overruns packet", ErrInvalidPacket)
	}

	r.mu.Lock()
	if r.rtxEnabled && r.rtxSSRC == header.SSRC {
		// De-encapsulate retransmission. Original sequence number is the
		// first two bytes after the header, big endian.
		if header.HeaderLength+2 > packetLength {
			r.mu.Unlock()
			return fmt.Errorf("%w: rtx header truncated", ErrInvalidPacket)
		}
		header.SSRC = r.ssrc
		header.SequenceNumber = binary.BigEndian.Uint16(packet[header.HeaderLength:])
		// Count the RTX header as part of the RTP header.
		header.HeaderLength += 2
	}
	if r.useSSRCFilter && header.SSRC != r.ssrcFilter {
		r.mu.Unlock()
		r.log.Warn().Uint32("ssrc", header.SSRC).Msg("Dropping packet due to SSRC filter")
		return ErrFilteredSSRC
	}
	firstEver := r.lastReceiveTimeMs == 0
	r.mu.Unlock()

	if firstEver {
		// Trigger only once.
		if length-header.HeaderLength == 0 {
			r.feedback.OnReceivedPacket(r.id, PacketKeepAlive)
		} else {
			r.feedback.OnReceivedPacket(r.id, PacketRTP)
		}
	}

	var firstPayloadByte uint8
	if length > header.HeaderLength {
		firstPayloadByte = packet[header.HeaderLength]
	}

	r.checkSSRCChanged(header)

	specific, isRED, err := r.checkPayloadChanged(header, firstPayloadByte)
	if err != nil {
		if length-header.HeaderLength == 0 {
			// OK, keep alive packet of a not yet known payload type.
			return nil
		}
		r.log.Warn().Err(err).Uint8("pt", header.PayloadType).Msg("Received invalid payload type")
		return err
	}

	r.checkCSRC(header)

	payloadDataLength := length - header.HeaderLength

	r.mu.Lock()
	isFirstPacketInFrame := r.lastReceivedSequenceNumber+1 == header.SequenceNumber &&
		r.lastReceivedTimestamp != header.Timestamp
	isFirstPacket := isFirstPacketInFrame || r.lastReceiveTimeMs == 0
	r.mu.Unlock()

	if err := r.media.ParseRTPPacket(header, specific, isRED, packet, r.clock.NowMs(), isFirstPacket); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Compares against receivedSeqMax, so runs before statistics move it.
	oldPacket := r.retransmitOfOldPacket(header.SequenceNumber, header.Timestamp)

	r.updateStatistics(header, payloadDataLength, oldPacket)

	r.lastReceiveTimeMs = r.clock.NowMs()
	r.lastReceivedPayloadLength = payloadDataLength

	if !oldPacket {
		if r.lastReceivedTimestamp != header.Timestamp {
			r.lastReceivedTimestamp = header.Timestamp
			r.lastReceivedFrameTimeMs = r.clock.NowMs()
		}
		r.lastReceivedSequenceNumber = header.SequenceNumber
		r.lastReceivedTransmissionTimeOffset = header.Extension.TransmissionTimeOffset
	}
	return nil
}

// checkSSRCChanged detects stream switch or bootstrap. Runs with no lock
// held, callbacks fire after state settles.
func (r *Receiver) checkSSRCChanged(header *Header) {
	newSSRC := false
	reinitDecoder := false
	var payloadName string
	var payloadType int8
	frequency := uint32(DefaultVideoFrequency)
	channels := uint8(1)
	rate := uint32(0)

	r.mu.Lock()
	lastReceivedPT := r.registry.LastReceivedPayloadType()
	if r.ssrc != header.SSRC || (lastReceivedPT == -1 && r.ssrc == 0) {
		newSSRC = true

		r.resetStatisticsLocked()

		r.lastReceivedTimestamp = 0
		r.lastReceivedSequenceNumber = 0
		r.lastReceivedTransmissionTimeOffset = 0
		r.lastReceivedFrameTimeMs = 0

		// A prior SSRC means the stream restarted. Same codec still needs
		// the decoder told about the restart.
		if r.ssrc != 0 && int8(header.PayloadType) == lastReceivedPT {
			payloadType = int8(header.PayloadType)
			payload, ok := r.registry.PayloadTypeToPayload(payloadType)
			if !ok {
				r.mu.Unlock()
				return
			}
			reinitDecoder = true
			payloadName = payload.Name
			if payload.Audio {
				frequency = payload.Specific.Audio.Frequency
				channels = payload.Specific.Audio.Channels
				rate = payload.Specific.Audio.Rate
			}
		}
		r.ssrc = header.SSRC
	}
	r.mu.Unlock()

	if newSSRC {
		r.log.Debug().Uint32("ssrc", header.SSRC).Msg("New remote SSRC")
		if r.rtcp != nil {
			r.rtcp.SetRemoteSSRC(header.SSRC)
		}
		r.feedback.OnIncomingSSRCChanged(r.id, header.SSRC)
	}
	if reinitDecoder {
		if err := r.feedback.OnInitializeDecoder(r.id, payloadType, payloadName, frequency, channels, rate); err != nil {
			r.log.Error().Err(err).Int8("pt", payloadType).Msg("Failed to create decoder on stream restart")
		}
	}
}

// checkPayloadChanged handles payload type switches including RED
// unwrapping. Runs with no lock held. ErrUnknownPayloadType covers both a
// payload type missing from the registry and a RED packet nesting RED.
func (r *Receiver) checkPayloadChanged(header *Header, firstPayloadByte uint8) (specific PayloadSpecific, isRED bool, err error) {
	reinitDecoder := false
	payloadType := int8(header.PayloadType)
	var payloadName string

	r.mu.Lock()
	lastReceivedPT := r.registry.LastReceivedPayloadType()
	if payloadType != lastReceivedPT {
		if redPT := r.registry.RedPayloadType(); redPT != -1 && payloadType == redPT {
			// Real codec payload type is the first payload byte.
			payloadType = int8(firstPayloadByte & 0x7f)
			isRED = true

			if payloadType == redPT {
				// RED inside RED would poison the last payload type
				// tracking, reject before it gets recorded.
				r.mu.Unlock()
				return specific, isRED, ErrUnknownPayloadType
			}
			if payloadType == lastReceivedPT {
				specific = r.media.LastMediaSpecificPayload()
				r.mu.Unlock()
				return specific, isRED, nil
			}
		}

		var resetStatistics, discardChanges bool
		specific, resetStatistics, discardChanges = r.media.CheckPayloadChanged(payloadType)
		if resetStatistics {
			r.resetStatisticsLocked()
		}
		if discardChanges {
			isRED = false
			r.mu.Unlock()
			return specific, isRED, nil
		}

		payload, ok := r.registry.PayloadTypeToPayload(payloadType)
		if !ok {
			r.mu.Unlock()
			return specific, isRED, ErrUnknownPayloadType
		}
		payloadName = payload.Name
		r.registry.SetLastReceivedPayloadType(payloadType)

		reinitDecoder = true

		r.media.SetLastMediaSpecificPayload(payload.Specific)
		specific = r.media.LastMediaSpecificPayload()

		if !payload.Audio {
			if specific.Video.CodecType == VideoCodecFEC {
				// FEC is in band repair data, decoder stays.
				reinitDecoder = false
			} else if r.registry.ReportMediaPayloadType(payloadType) {
				// Same media codec, no decoder churn.
				reinitDecoder = false
			}
		}
		if reinitDecoder {
			r.resetStatisticsLocked()
		}
	} else {
		specific = r.media.LastMediaSpecificPayload()
		isRED = false
	}
	r.mu.Unlock()

	if reinitDecoder {
		if err := r.media.InvokeOnInitializeDecoder(r.feedback, r.id, payloadType, payloadName, specific); err != nil {
			return specific, isRED, err
		}
	}
	return specific, isRED, nil
}

// checkCSRC diffs the contributing source list and records audio level
// energies. Runs with no lock held, callbacks fire after the new list is
// installed.
func (r *Receiver) checkCSRC(header *Header) {
	var oldCSRC [MaxCSRC]uint32
	oldNum := 0
	csrcDiff := 0

	numCSRC := int(header.NumCSRC)
	if numCSRC > MaxCSRC {
		numCSRC = MaxCSRC
	}
	numEnergy := int(header.NumEnergy)
	if numEnergy > MaxCSRC {
		numEnergy = MaxCSRC
	}

	r.mu.Lock()
	if !r.media.ShouldReportCSRCChanges(header.PayloadType) {
		r.mu.Unlock()
		return
	}
	r.numEnergy = numEnergy
	if numEnergy > 0 {
		copy(r.currentRemoteEnergy[:], header.Energy[:numEnergy])
	}

	oldNum = r.numCSRC
	copy(oldCSRC[:], r.currentRemoteCSRC[:oldNum])
	if numCSRC > 0 {
		copy(r.currentRemoteCSRC[:], header.CSRC[:numCSRC])
	}
	if numCSRC == 0 && oldNum == 0 {
		// No change.
		r.mu.Unlock()
		return
	}
	csrcDiff = numCSRC - oldNum
	r.numCSRC = numCSRC
	r.mu.Unlock()

	haveCalledCallback := false
	// New CSRCs not in the old list.
	for i := 0; i < numCSRC; i++ {
		csrc := header.CSRC[i]
		found := false
		for j := 0; j < oldNum; j++ {
			if csrc == oldCSRC[j] {
				found = true
				break
			}
		}
		if !found && csrc != 0 {
			haveCalledCallback = true
			r.feedback.OnIncomingCSRCChanged(r.id, csrc, true)
		}
	}
	// Old CSRCs gone from the new list.
	for i := 0; i < oldNum; i++ {
		csrc := oldCSRC[i]
		found := false
		for j := 0; j < numCSRC; j++ {
			if csrc == header.CSRC[j] {
				found = true
				break
			}
		}
		if !found && csrc != 0 {
			haveCalledCallback = true
			r.feedback.OnIncomingCSRCChanged(r.id, csrc, false)
		}
	}
	if !haveCalledCallback {
		// List contained non unique entries. CSRC 0 signals the size
		// change, not interop safe but other side already violated the
		// header format.
		if csrcDiff > 0 {
			r.feedback.OnIncomingCSRCChanged(r.id, 0, true)
		} else if csrcDiff < 0 {
			r.feedback.OnIncomingCSRCChanged(r.id, 0, false)
		}
	}
}

// updateStatistics accounts one packet. Caller holds the lock.
func (r *Receiver) updateStatistics(header *Header, bytes int, oldPacket bool) {
	frequencyHz := r.media.FrequencyHz()

	r.bitrate.Update(bytes)
	r.receivedByteCount += uint32(bytes)

	if r.receivedSeqMax == 0 && r.receivedSeqWraps == 0 {
		// First received packet of the epoch.
		r.receivedSeqFirst = header.SequenceNumber
		r.receivedSeqMax = header.SequenceNumber
		r.receivedInorderPacketCount = 1
		r.localTimeLastReceivedTimestamp = CurrentRTP(r.clock, frequencyHz)
		return
	}

	if r.inOrderPacket(header.SequenceNumber) {
		rtpTime := CurrentRTP(r.clock, frequencyHz)
		r.receivedInorderPacketCount++

		seqDiff := int(header.SequenceNumber) - int(r.receivedSeqMax)
		if seqDiff < 0 {
			// Wrap around.
			r.receivedSeqWraps++
		}
		r.receivedSeqMax = header.SequenceNumber

		if header.Timestamp != r.lastReceivedTimestamp && r.receivedInorderPacketCount > 1 {
			// RFC 3550 6.4.1 interarrival jitter, kept in Q4 to stay
			// integral.
			timeDiffSamples := int32((rtpTime - r.localTimeLastReceivedTimestamp) -
				(header.Timestamp - r.lastReceivedTimestamp))
			if timeDiffSamples < 0 {
				timeDiffSamples = -timeDiffSamples
			}
			if timeDiffSamples < maxTimestampDeltaSamples {
				jitterDiffQ4 := (timeDiffSamples << 4) - r.jitterQ4
				r.jitterQ4 += (jitterDiffQ4 + 8) >> 4
			}

			// Extended jitter report, RFC 5450. Actual network jitter,
			// excluding the source introduced jitter.
			timeDiffSamplesExt := int32((rtpTime - r.localTimeLastReceivedTimestamp) -
				((header.Timestamp + uint32(header.Extension.TransmissionTimeOffset)) -
					(r.lastReceivedTimestamp + uint32(r.lastReceivedTransmissionTimeOffset))))
			if timeDiffSamplesExt < 0 {
				timeDiffSamplesExt = -timeDiffSamplesExt
			}
			if timeDiffSamplesExt < maxTimestampDeltaSamples {
				jitterDiffQ4 := (timeDiffSamplesExt << 4) - r.jitterQ4TransmissionTimeOffset
				r.jitterQ4TransmissionTimeOffset += (jitterDiffQ4 + 8) >> 4
			}
		}
		r.localTimeLastReceivedTimestamp = rtpTime
	} else {
		if oldPacket {
			r.receivedOldPacketCount++
		} else {
			r.receivedInorderPacketCount++
		}
	}

	// Measured header overhead, filter from RFC 5104 4.2.1.2:
	// avg_OH (new) = 15/16*avg_OH (old) + 1/16*pckt_OH
	packetOH := header.HeaderLength + header.PaddingLength
	r.receivedPacketOH = uint16((15*int(r.receivedPacketOH) + packetOH) >> 4)
}

// retransmitOfOldPacket tells whether an out of order packet arrived too
// late to be plain reordering. Caller holds the lock.
func (r *Receiver) retransmitOfOldPacket(sequenceNumber uint16, timestamp uint32) bool {
	if r.inOrderPacket(sequenceNumber) {
		return false
	}

	frequencyKHz := r.media.FrequencyHz() / 1000
	if frequencyKHz == 0 {
		// Sub kHz codec clocks would divide by zero below.
		frequencyKHz = 1
	}
	timeDiffMs := r.clock.NowMs() - r.lastReceiveTimeMs

	// Diff in timestamp since last received in order.
	timestampDiffMs := int32(timestamp-r.lastReceivedTimestamp) / int32(frequencyKHz)

	var minRTTMs int64
	if r.rtcp != nil {
		minRTTMs = r.rtcp.MinRTT(r.ssrc).Milliseconds()
	}
	var maxDelayMs int64
	if minRTTMs == 0 {
		// Jitter standard deviation in samples, twice that for 95%
		// confidence, converted to ms by the frequency in kHz.
		jitterStd := math.Sqrt(float64(r.jitterQ4 >> 4))
		maxDelayMs = int64(2 * jitterStd / float64(frequencyKHz))
		if maxDelayMs == 0 {
			maxDelayMs = 1
		}
	} else {
		maxDelayMs = minRTTMs/3 + 1
	}
	return timeDiffMs > int64(timestampDiffMs)+maxDelayMs
}

// inOrderPacket classifies a sequence number against the current maximum.
// A packet far behind the maximum beyond the reordering threshold means
// the remote side restarted and counts as in order, compared signed so a
// small maximum cannot underflow.
func (r *Receiver) inOrderPacket(sequenceNumber uint16) bool {
	if r.receivedSeqMax >= sequenceNumber {
		// Detect wrap around.
		if !(r.receivedSeqMax > 0xff00 && sequenceNumber < 0x0ff) {
			if int(r.receivedSeqMax)-r.maxReorderingThreshold > int(sequenceNumber) {
				// Restart of the remote side.
			} else {
				// Retransmit of a packet we already have.
				return false
			}
		}
	} else {
		// Detect wrap around.
		if sequenceNumber > 0xff00 && r.receivedSeqMax < 0x0ff {
			if int(r.receivedSeqMax)-r.maxReorderingThreshold > int(sequenceNumber) {
				// Restart of the remote side.
			} else {
				// Retransmit of a packet we already have.
				return false
			}
		}
	}
	return true
}

// PacketTimeout checks for receive silence. Call it from a periodic timer.
// Fires OnPacketTimeout once, next received packet rearms it.
func (r *Receiver) PacketTimeout() {
	timedOut := false
	r.mu.Lock()
	if r.packetTimeoutMs == 0 || r.lastReceiveTimeMs == 0 {
		r.mu.Unlock()
		return
	}
	if r.clock.NowMs()-r.lastReceiveTimeMs > r.packetTimeoutMs {
		timedOut = true
		r.lastReceiveTimeMs = 0 // Only one callback.
		r.registry.ResetLastReceivedPayloadTypes()
	}
	r.mu.Unlock()

	if timedOut {
		r.log.Debug().Msg("Packet timeout")
		r.feedback.OnPacketTimeout(r.id)
	}
}

// ProcessDeadOrAlive reports periodic liveness. Alive when RTP was seen
// within the last second, otherwise RTCP liveness lets the media receiver
// decide, otherwise dead.
func (r *Receiver) ProcessDeadOrAlive(rtcpAlive bool, nowMs int64) {
	r.mu.Lock()
	lastReceive := r.lastReceiveTimeMs
	lastPayloadLength := r.lastReceivedPayloadLength
	r.mu.Unlock()

	alive := RTPDead
	if lastReceive+receiverAliveWindowMs > nowMs {
		alive = RTPAlive
	} else if rtcpAlive {
		alive = r.media.ProcessDeadOrAlive(lastPayloadLength)
	}

	r.feedback.OnPeriodicDeadOrAlive(r.id, alive)
}

// ProcessBitrate updates the bitrate estimate. Call from a periodic timer.
func (r *Receiver) ProcessBitrate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bitrate.Process()
}

// BitrateReceived is smoothed receive rate in bits/s.
func (r *Receiver) BitrateReceived() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bitrate.Bitrate()
}

// PacketRateReceived is smoothed receive rate in packets/s.
func (r *Receiver) PacketRateReceived() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bitrate.PacketRate()
}

func (r *Receiver) resetStatisticsLocked() {
	r.lastReportInorderPackets = 0
	r.lastReportOldPackets = 0
	r.lastReportSeqMax = 0
	r.lastReportFractionLost = 0
	r.lastReportCumulativeLost = 0
	r.lastReportExtendedHighSeqNum = 0
	r.lastReportJitter = 0
	r.lastReportJitterTransmissionTimeOffset = 0
	r.jitterQ4 = 0
	r.jitterMaxQ4 = 0
	r.cumulativeLoss = 0
	r.jitterQ4TransmissionTimeOffset = 0
	r.receivedSeqWraps = 0
	r.receivedSeqMax = 0
	r.receivedSeqFirst = 0
	r.receivedByteCount = 0
	r.receivedOldPacketCount = 0
	r.receivedInorderPacketCount = 0
}

// ResetStatistics starts a new statistics epoch.
func (r *Receiver) ResetStatistics() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetStatisticsLocked()
}

// ResetDataCounters zeroes byte and packet counters only.
func (r *Receiver) ResetDataCounters() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receivedByteCount = 0
	r.receivedOldPacketCount = 0
	r.receivedInorderPacketCount = 0
	r.lastReportInorderPackets = 0
}

// Statistics builds a receiver report snapshot. With reset the values are
// computed fresh and stored as the last report, without reset the last
// stored report is returned verbatim. ErrNoData before the first packet,
// and before the first reset read when called without reset.
func (r *Receiver) Statistics(reset bool) (Statistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Statistics

	if r.receivedSeqFirst == 0 && r.receivedByteCount == 0 {
		// Nothing received yet.
		return s, ErrNoData
	}

	if !reset {
		if r.lastReportInorderPackets == 0 {
			// No report yet.
			return s, ErrNoData
		}
		s.FractionLost = r.lastReportFractionLost
		s.CumulativeLost = r.lastReportCumulativeLost // 24 bits valid
		s.ExtendedHighSeqNum = r.lastReportExtendedHighSeqNum
		s.Jitter = r.lastReportJitter
		s.MaxJitter = uint32(r.jitterMaxQ4 >> 4)
		s.JitterTransmissionTimeOffset = r.lastReportJitterTransmissionTimeOffset
		return s, nil
	}

	if r.lastReportInorderPackets == 0 {
		// First report.
		r.lastReportSeqMax = r.receivedSeqFirst - 1
	}

	// Expected since last report, unsigned 16 bit diff.
	expSinceLast := r.receivedSeqMax - r.lastReportSeqMax
	if r.lastReportSeqMax > r.receivedSeqMax {
		// Assume seq num does not go backwards over a full RTCP period.
		expSinceLast = 0
	}

	// Received since last report. Counts all packets but not
	// retransmissions.
	recSinceLast := r.receivedInorderPacketCount - r.lastReportInorderPackets
	if r.nackMethod == NACKOff {
		// Needed for reordered packets. With NACK old packets are
		// retransmissions and not counted as received.
		recSinceLast += r.receivedOldPacketCount - r.lastReportOldPackets
	}

	if expSinceLast > 0 && uint32(expSinceLast) > recSinceLast {
		s.Missing = int32(uint32(expSinceLast) - recSinceLast)
	}
	if expSinceLast > 0 {
		// Scale 0 to 255, where 255 is 100% loss.
		s.FractionLost = uint8(255 * s.Missing / int32(expSinceLast))
	}

	r.cumulativeLoss += s.Missing

	if r.jitterQ4 > r.jitterMaxQ4 {
		r.jitterMaxQ4 = r.jitterQ4
	}

	s.CumulativeLost = uint32(r.cumulativeLoss)
	s.ExtendedHighSeqNum = r.receivedSeqWraps<<16 + uint32(r.receivedSeqMax)
	s.Jitter = uint32(r.jitterQ4 >> 4)
	s.MaxJitter = uint32(r.jitterMaxQ4 >> 4)
	s.JitterTransmissionTimeOffset = uint32(r.jitterQ4TransmissionTimeOffset >> 4)

	// Store this report.
	r.lastReportFractionLost = s.FractionLost
	r.lastReportCumulativeLost = s.CumulativeLost
	r.lastReportExtendedHighSeqNum = s.ExtendedHighSeqNum
	r.lastReportJitter = s.Jitter
	r.lastReportJitterTransmissionTimeOffset = s.JitterTransmissionTimeOffset
	r.lastReportInorderPackets = r.receivedInorderPacketCount
	r.lastReportOldPackets = r.receivedOldPacketCount
	r.lastReportSeqMax = r.receivedSeqMax

	return s, nil
}

// DataCounters returns bytes and packets received, retransmissions
// included.
func (r *Receiver) DataCounters() (bytesReceived uint32, packetsReceived uint32, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.receivedSeqFirst == 0 && r.receivedByteCount == 0 {
		return 0, 0, ErrNoData
	}
	return r.receivedByteCount, r.receivedOldPacketCount + r.receivedInorderPacketCount, nil
}

// EstimatedRemoteTimestamp extrapolates the remote RTP timestamp to now
// from the last in order packet that started a frame.
func (r *Receiver) EstimatedRemoteTimestamp() (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.localTimeLastReceivedTimestamp == 0 {
		return 0, ErrNotInitialized
	}
	diff := CurrentRTP(r.clock, r.media.FrequencyHz()) - r.localTimeLastReceivedTimestamp
	return r.lastReceivedTimestamp + diff, nil
}

// RegisterReceivePayload registers a codec for receiving. Newly created
// descriptors are announced to the media receiver, and a failing media
// hook rolls the registration back.
func (r *Receiver) RegisterReceivePayload(name string, payloadType int8, frequency uint32, channels uint8, rate uint32) error {
	r.mu.Lock()
	createdNew, err := r.registry.RegisterReceivePayload(name, payloadType, frequency, channels, rate)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	if !createdNew {
		return nil
	}
	if err := r.media.OnNewPayloadTypeCreated(name, payloadType, frequency); err != nil {
		r.mu.Lock()
		r.registry.DeregisterReceivePayload(payloadType)
		r.mu.Unlock()
		r.log.Error().Err(err).Str("name", name).Int8("pt", payloadType).Msg("Failed to register payload")
		return fmt.Errorf("register payload %q: %w", name, err)
	}
	return nil
}

func (r *Receiver) DeregisterReceivePayload(payloadType int8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry.DeregisterReceivePayload(payloadType)
}

// ReceivePayloadType is reverse lookup of a registered payload type.
func (r *Receiver) ReceivePayloadType(name string, frequency uint32, channels uint8, rate uint32) (int8, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.ReceivePayloadType(name, frequency, channels, rate)
}

// REDPayloadType is the payload type registered as RED, -1 if none.
func (r *Receiver) REDPayloadType() int8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.RedPayloadType()
}

// RegisterRtpHeaderExtension binds a header extension kind to its
// negotiated one byte id.
func (r *Receiver) RegisterRtpHeaderExtension(kind ExtensionType, id uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.extensionMap.Register(kind, id)
}

func (r *Receiver) DeregisterRtpHeaderExtension(kind ExtensionType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.extensionMap.Deregister(kind)
}

// HeaderExtensions returns a copy of the extension map.
func (r *Receiver) HeaderExtensions() *HeaderExtensionMap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.extensionMap.GetCopy()
}

// HeaderFromPacket converts an unmarshaled pion packet into Header using
// the receiver's registered extensions.
func (r *Receiver) HeaderFromPacket(p *rtp.Packet) Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return HeaderFromPacket(p, r.extensionMap)
}

// SetPacketTimeout arms packet timeout detection, 0 disables.
func (r *Receiver) SetPacketTimeout(timeoutMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packetTimeoutMs = timeoutMs
}

func (r *Receiver) NACK() NACKMethod {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nackMethod
}

// SetNACKStatus turns negative acknowledgment requests on or off. The
// reordering threshold only applies with NACK on, off restores the
// default.
func (r *Receiver) SetNACKStatus(method NACKMethod, maxReorderingThreshold int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if maxReorderingThreshold < 0 {
		return ErrReorderingThreshold
	}
	if method == NACKRtcp {
		r.maxReorderingThreshold = maxReorderingThreshold
	} else {
		r.maxReorderingThreshold = defaultMaxReorderingThreshold
	}
	r.nackMethod = method
	return nil
}

// SetRTXStatus enables de-encapsulation of a retransmission stream sent on
// its own SSRC.
func (r *Receiver) SetRTXStatus(enable bool, ssrc uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rtxEnabled = enable
	r.rtxSSRC = ssrc
}

func (r *Receiver) RTXStatus() (enabled bool, ssrc uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rtxEnabled, r.rtxSSRC
}

// SetSSRCFilter allows only one SSRC in. Disabling clears the filter.
func (r *Receiver) SetSSRCFilter(enable bool, allowedSSRC uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.useSSRCFilter = enable
	if enable {
		r.ssrcFilter = allowedSSRC
	} else {
		r.ssrcFilter = 0
	}
}

func (r *Receiver) SSRCFilter() (enabled bool, ssrc uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.useSSRCFilter, r.ssrcFilter
}

// SSRC is the currently tracked synchronization source, 0 before the
// first packet.
func (r *Receiver) SSRC() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ssrc
}

// CSRCs is the current contributing source list.
func (r *Receiver) CSRCs() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint32, r.numCSRC)
	copy(out, r.currentRemoteCSRC[:r.numCSRC])
	return out
}

// Energy is audio level energies of the contributing sources.
func (r *Receiver) Energy() []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint8, r.numEnergy)
	copy(out, r.currentRemoteEnergy[:r.numEnergy])
	return out
}

// SequenceNumber is sequence number of the last accepted in order packet.
func (r *Receiver) SequenceNumber() uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReceivedSequenceNumber
}

// Timestamp is RTP timestamp of the last accepted in order packet.
func (r *Receiver) Timestamp() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReceivedTimestamp
}

// LastReceivedFrameTimeMs is local receive time of the last packet that
// started a frame.
func (r *Receiver) LastReceivedFrameTimeMs() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReceivedFrameTimeMs
}

// HaveNotReceivedPackets is true before the first packet and again after a
// packet timeout fired. An SSRC change does not reset it.
func (r *Receiver) HaveNotReceivedPackets() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReceiveTimeMs == 0
}

// PacketOHReceived is smoothed header plus padding overhead in bytes.
func (r *Receiver) PacketOHReceived() uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.receivedPacketOH
}

func (r *Receiver) PacketCountReceived() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.receivedInorderPacketCount
}

func (r *Receiver) ByteCountReceived() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.receivedByteCount
}

// VideoCodecType is codec type of the last received video payload.
func (r *Receiver) VideoCodecType() VideoCodecType {
	return r.media.LastMediaSpecificPayload().Video.CodecType
}

// MaxConfiguredBitrate is max bitrate of the last received video payload.
func (r *Receiver) MaxConfiguredBitrate() uint32 {
	return r.media.LastMediaSpecificPayload().Video.MaxRate
}
