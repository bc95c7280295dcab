package classify

import "github.com/nfclab/nfctrace/pkg/model"

// isoDepEvent matches the ISO/IEC 14443-4 block framing shared by NFC-A
// and NFC-B. The masks overlap: S(Deselect) and S(WTX) are strict subsets
// of the trailing S-Block pattern, and R(ACK)/R(NACK) of R-Block, so the
// rules must be evaluated in exactly this order. Returns the empty string
// when nothing matches.
func isoDepEvent(frame *model.Frame) string {
	if frame.Len() < 1 {
		return ""
	}

	cmd := frame.Payload[0]
	n := frame.Len()

	if cmd&0xF7 == 0xC2 && n >= 3 && n <= 4 {
		return "S(Deselect)"
	}

	if cmd&0xF7 == 0xF2 && n >= 3 && n <= 4 {
		return "S(WTX)"
	}

	if cmd&0xF6 == 0xA2 && n == 3 {
		return "R(ACK)"
	}

	if cmd&0xF6 == 0xB2 && n == 3 {
		return "R(NACK)"
	}

	if cmd&0xE2 == 0x02 && n >= 4 {
		return "I-Block"
	}

	if cmd&0xE6 == 0xA2 && n == 3 {
		return "R-Block"
	}

	if cmd&0xC7 == 0xC2 && n >= 3 && n <= 4 {
		return "S-Block"
	}

	return ""
}
