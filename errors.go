// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"errors"
)

var (
	// ErrInvalidPacket is returned for malformed packet lengths,
	// including a truncated RTX header.
	ErrInvalidPacket = errors.New("invalid packet")
	// ErrFilteredSSRC is returned when SSRC filtering is enabled and
	// packet SSRC does not match the allowed one.
	ErrFilteredSSRC = errors.New("ssrc filtered")
	// ErrUnknownPayloadType is returned when packet payload type is not
	// registered. Empty packets with unknown payload type are treated as
	// keep alive instead.
	ErrUnknownPayloadType = errors.New("unknown payload type")
	// ErrNoData is returned by statistics and counter getters before any
	// packet was received or reported.
	ErrNoData = errors.New("no packets received")
	// ErrNotInitialized is returned by EstimatedRemoteTimestamp before
	// any in order packet was received.
	ErrNotInitialized = errors.New("not initialized")

	ErrPayloadName         = errors.New("bad payload name")
	ErrReorderingThreshold = errors.New("reordering threshold negative")
	ErrExtensionIDRange    = errors.New("extension id out of range")
	ErrExtensionIDConflict = errors.New("extension id in use")
	ErrExtensionNotFound   = errors.New("extension not registered")
	ErrPayloadTypeNotFound = errors.New("payload type not registered")
)
