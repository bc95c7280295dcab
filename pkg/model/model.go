// Package model defines the core data model for decoded NFC frames.
// Frames are storage-friendly value types: payload octets plus the timing
// and signal metadata produced by the upstream demodulator.
package model

import "time"

// Tech identifies the NFC air-interface technology of a frame.
type Tech int

const (
	TechNone Tech = iota // carrier events carry no technology
	TechNfcA             // ISO/IEC 14443 Type A
	TechNfcB             // ISO/IEC 14443 Type B
	TechNfcF             // JIS X 6319-4 / FeliCa
	TechNfcV             // ISO/IEC 15693
)

// String returns the display name of the technology, empty for TechNone.
func (t Tech) String() string {
	switch t {
	case TechNfcA:
		return "NfcA"
	case TechNfcB:
		return "NfcB"
	case TechNfcF:
		return "NfcF"
	case TechNfcV:
		return "NfcV"
	}
	return ""
}

// Type identifies the direction or carrier event a frame represents.
// The numeric values are packed into the low byte of the display flag
// word and into the trace file format, so they must not be reordered.
type Type int

const (
	TypeCarrierOff Type = iota // field switched off
	TypeCarrierOn              // field switched on
	TypePoll                   // reader to tag command
	TypeListen                 // tag to reader response
)

// Flag bits describing demodulation quality, stored in Frame.Flags.
const (
	FlagCRCError    = 1 << 0
	FlagParityError = 1 << 1
	FlagSyncError   = 1 << 2
	FlagEncrypted   = 1 << 3
	FlagTruncated   = 1 << 4
)

// Frame is one decoded NFC frame. Frames are immutable once stored; the
// store assigns Number on insertion and nothing mutates them afterwards.
type Frame struct {
	// Number is the 0-based row index assigned by the frame store.
	Number int

	Tech  Tech
	Type  Type
	Flags int // FlagCRCError | FlagParityError | ...

	// Payload holds the frame octets as decoded off the air. May be
	// empty for carrier events.
	Payload []byte

	// TimeStart and TimeEnd are seconds relative to the start of the
	// capture; TimeEnd >= TimeStart.
	TimeStart float64
	TimeEnd   float64

	// DateTime is the absolute wall-clock timestamp of TimeStart.
	DateTime time.Time

	// Rate is the air bit rate in bits per second.
	Rate int
}

func (f *Frame) IsPoll() bool       { return f.Type == TypePoll }
func (f *Frame) IsListen() bool     { return f.Type == TypeListen }
func (f *Frame) IsCarrierOn() bool  { return f.Type == TypeCarrierOn }
func (f *Frame) IsCarrierOff() bool { return f.Type == TypeCarrierOff }

// IsEncrypted reports whether the payload could not be decoded in clear.
func (f *Frame) IsEncrypted() bool { return f.Flags&FlagEncrypted != 0 }

// HasErrors reports whether any demodulation error flag is set.
func (f *Frame) HasErrors() bool {
	return f.Flags&(FlagCRCError|FlagParityError|FlagSyncError) != 0
}

// Len returns the payload length in octets.
func (f *Frame) Len() int { return len(f.Payload) }

// Duration returns the on-air duration of the frame in seconds.
func (f *Frame) Duration() float64 { return f.TimeEnd - f.TimeStart }
