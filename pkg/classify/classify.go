// Package classify maps decoded NFC frames to human-readable protocol
// events. Classification is a pure function of a frame and its immediate
// predecessor: no state is kept between calls, and adjacency is passed
// explicitly by the caller.
//
// Every rule that indexes into the payload checks the length first; a
// payload too short for a rule makes that rule a non-match, never a
// fault. An unmatched frame yields an empty event label, not an error.
package classify

import (
	"fmt"

	"github.com/nfclab/nfctrace/pkg/model"
)

// Result holds the labels derived from one frame. Empty strings mean the
// label is absent for this frame.
type Result struct {
	Event string // protocol event, e.g. "REQA", "S(Deselect)"
	Tech  string // "NfcA".."NfcV", empty for carrier events
	Rate  string // bit rate label, poll/listen frames only
	Delta string // gap since the previous frame, empty for the first
	Flags int    // frame flag bits << 8 | frame type code
}

// Frame classifies frame against its immediate predecessor. prev may be
// nil for the first row.
func Frame(frame, prev *model.Frame) Result {
	return Result{
		Event: Event(frame, prev),
		Tech:  frame.Tech.String(),
		Rate:  RateLabel(frame),
		Delta: DeltaLabel(frame, prev),
		Flags: Flags(frame),
	}
}

// Event returns the protocol event label for frame, or the empty string
// when no rule matches. Carrier events are labeled independent of
// technology; everything else dispatches on the frame's technology.
func Event(frame, prev *model.Frame) string {
	if frame.IsCarrierOn() {
		return "RF-On"
	}

	if frame.IsCarrierOff() {
		return "RF-Off"
	}

	switch frame.Tech {
	case model.TechNfcA:
		return eventNfcA(frame, prev)
	case model.TechNfcB:
		return eventNfcB(frame)
	case model.TechNfcF:
		return eventNfcF(frame)
	case model.TechNfcV:
		return eventNfcV(frame)
	}

	return ""
}

// Flags packs the frame flag bits and the frame type code into the
// single integer word exposed to presentation layers.
func Flags(frame *model.Frame) int {
	return frame.Flags<<8 | int(frame.Type)
}

func eventNfcA(frame, prev *model.Frame) string {
	// Encrypted exchanges (MIFARE Classic crypto1) cannot be decoded.
	if frame.IsEncrypted() {
		return ""
	}

	if frame.IsPoll() {
		if frame.Len() < 1 {
			return ""
		}

		cmd := frame.Payload[0]

		if cmd == 0x50 && frame.Len() == 4 {
			return "HALT"
		}

		// Protocol and Parameter Selection
		if cmd&0xF0 == 0xD0 && frame.Len() == 5 {
			return "PPS"
		}

		if event := isoDepEvent(frame); event != "" {
			return event
		}

		if name, ok := nfcACmd[cmd]; ok {
			return name
		}

		return ""
	}

	// Listen frames are only meaningful relative to the poll frame they
	// answer.
	if prev == nil || !prev.IsPoll() || prev.Len() < 1 {
		return ""
	}

	cmd := prev.Payload[0]

	// Anticollision cascade levels answer with UID fragments or SAK.
	if cmd == 0x93 || cmd == 0x95 || cmd == 0x97 {
		if frame.Len() == 3 {
			return "SAK"
		}

		if frame.Len() == 5 {
			return "UID"
		}
	}

	// ATS starts with its own length byte (TL), which excludes the CRC.
	if cmd == 0xE0 && frame.Len() >= 1 && int(frame.Payload[0]) == frame.Len()-2 {
		return "ATS"
	}

	if event := isoDepEvent(frame); event != "" {
		return event
	}

	if name, ok := nfcAResp[cmd]; ok {
		return name
	}

	return ""
}

func eventNfcB(frame *model.Frame) string {
	if frame.Len() < 1 {
		return ""
	}

	cmd := frame.Payload[0]

	if frame.IsPoll() {
		if event := isoDepEvent(frame); event != "" {
			return event
		}

		if name, ok := nfcBCmd[cmd]; ok {
			return name
		}
	} else if frame.IsListen() {
		if event := isoDepEvent(frame); event != "" {
			return event
		}

		if name, ok := nfcBResp[cmd]; ok {
			return name
		}
	}

	return ""
}

func eventNfcF(frame *model.Frame) string {
	// NFC-F carries the command code after the length octet.
	if frame.Len() < 2 {
		return ""
	}

	cmd := frame.Payload[1]

	if frame.IsPoll() {
		if name, ok := nfcFCmd[cmd]; ok {
			return name
		}

		return fmt.Sprintf("CMD %02x", cmd)
	}

	if frame.IsListen() {
		if name, ok := nfcFResp[cmd]; ok {
			return name
		}
	}

	return ""
}

func eventNfcV(frame *model.Frame) string {
	// NFC-V requests start with the flags octet, command second.
	if !frame.IsPoll() || frame.Len() < 2 {
		return ""
	}

	cmd := frame.Payload[1]

	if name, ok := nfcVCmd[cmd]; ok {
		return name
	}

	return fmt.Sprintf("CMD %02x", cmd)
}
