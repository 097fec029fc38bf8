// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

// ExtensionType is a recognized RTP header extension kind.
type ExtensionType int

const (
	ExtensionNone ExtensionType = iota
	// ExtensionTransmissionTimeOffset is RFC 5450 transmission time offset.
	ExtensionTransmissionTimeOffset
	// ExtensionAudioLevel is RFC 6464 audio level of the source.
	ExtensionAudioLevel
	// ExtensionCSRCAudioLevel is RFC 6465 mixer to client audio levels.
	ExtensionCSRCAudioLevel
)

func (t ExtensionType) String() string {
	switch t {
	case ExtensionTransmissionTimeOffset:
		return "toffset"
	case ExtensionAudioLevel:
		return "audio-level"
	case ExtensionCSRCAudioLevel:
		return "csrc-audio-level"
	}
	return "none"
}

// HeaderExtensionMap maps one byte extension IDs negotiated for the stream
// to extension kinds. IDs are limited to 1..14 as in one byte extension
// header form. Not safe for concurrent use, Receiver keeps it under its lock.
type HeaderExtensionMap struct {
	ids map[uint8]ExtensionType
}

func NewHeaderExtensionMap() *HeaderExtensionMap {
	return &HeaderExtensionMap{
		ids: map[uint8]ExtensionType{},
	}
}

// Register binds extension kind to id. Registering same pair again is noop.
// Different binding for a used id or kind fails.
func (m *HeaderExtensionMap) Register(kind ExtensionType, id uint8) error {
	if id < 1 || id > 14 {
		return ErrExtensionIDRange
	}
	if existing, ok := m.ids[id]; ok {
		if existing == kind {
			return nil
		}
		return ErrExtensionIDConflict
	}
	if _, ok := m.ID(kind); ok {
		return ErrExtensionIDConflict
	}
	m.ids[id] = kind
	return nil
}

func (m *HeaderExtensionMap) Deregister(kind ExtensionType) error {
	id, ok := m.ID(kind)
	if !ok {
		return ErrExtensionNotFound
	}
	delete(m.ids, id)
	return nil
}

func (m *HeaderExtensionMap) Lookup(id uint8) (ExtensionType, bool) {
	kind, ok := m.ids[id]
	return kind, ok
}

// ID is reverse lookup of Lookup.
func (m *HeaderExtensionMap) ID(kind ExtensionType) (uint8, bool) {
	for id, k := range m.ids {
		if k == kind {
			return id, true
		}
	}
	return 0, false
}

func (m *HeaderExtensionMap) Size() int {
	return len(m.ids)
}

// GetCopy returns detached copy safe to use outside the receiver lock.
func (m *HeaderExtensionMap) GetCopy() *HeaderExtensionMap {
	c := NewHeaderExtensionMap()
	for id, kind := range m.ids {
		c.ids[id] = kind
	}
	return c
}
