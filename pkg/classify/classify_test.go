package classify

import (
	"testing"

	"github.com/nfclab/nfctrace/pkg/model"
)

func poll(tech model.Tech, payload ...byte) *model.Frame {
	return &model.Frame{Tech: tech, Type: model.TypePoll, Payload: payload, Rate: 106000}
}

func listen(tech model.Tech, payload ...byte) *model.Frame {
	return &model.Frame{Tech: tech, Type: model.TypeListen, Payload: payload, Rate: 106000}
}

func TestCarrierEvents(t *testing.T) {
	on := &model.Frame{Type: model.TypeCarrierOn}
	off := &model.Frame{Type: model.TypeCarrierOff}

	if got := Event(on, nil); got != "RF-On" {
		t.Errorf("CarrierOn = %q, want RF-On", got)
	}
	if got := Event(off, nil); got != "RF-Off" {
		t.Errorf("CarrierOff = %q, want RF-Off", got)
	}

	// Carrier labels ignore technology entirely.
	on.Tech = model.TechNfcA
	on.Payload = []byte{0x26}
	if got := Event(on, nil); got != "RF-On" {
		t.Errorf("CarrierOn with NfcA payload = %q, want RF-On", got)
	}
}

func TestNfcAPollCommands(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{"REQA", []byte{0x26}, "REQA"},
		{"WUPA", []byte{0x52}, "WUPA"},
		{"SEL1", []byte{0x93, 0x20}, "SEL1"},
		{"SEL2", []byte{0x95, 0x20}, "SEL2"},
		{"SEL3", []byte{0x97, 0x20}, "SEL3"},
		{"RATS", []byte{0xE0, 0x80, 0x31, 0x73}, "RATS"},
		{"HALT", []byte{0x50, 0x00, 0x57, 0xCD}, "HALT"},
		{"HLTA short", []byte{0x50}, "HLTA"}, // wrong length for HALT, falls to table
		{"PPS", []byte{0xD0, 0x11, 0x00, 0x2B, 0x49}, "PPS"},
		{"AUTH classic", []byte{0x60, 0x04, 0xD1, 0x3D}, "AUTH"},
		{"PWD_AUTH", []byte{0x1B, 0x01, 0x02, 0x03, 0x04}, "PWD_AUTH"},
		{"READ", []byte{0x30, 0x04, 0x26, 0xEE}, "READ"},
		{"FAST_READ", []byte{0x3A, 0x00, 0x04}, "FAST_READ"},
		{"WRITE", []byte{0xA2, 0x04, 0xDE, 0xAD, 0xBE, 0xEF}, "WRITE"},
		{"unknown command", []byte{0x42, 0x00}, ""},
		{"empty payload", nil, ""},
	}

	for _, tt := range tests {
		if got := Event(poll(model.TechNfcA, tt.payload...), nil); got != tt.want {
			t.Errorf("%s: Event = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNfcAEncryptedSkipsClassification(t *testing.T) {
	payloads := [][]byte{
		{0x26},
		{0x50, 0x00, 0x57, 0xCD},
		{0xC2, 0x00, 0x00},
		{0xE0, 0x80},
	}

	for _, p := range payloads {
		f := poll(model.TechNfcA, p...)
		f.Flags = model.FlagEncrypted
		if got := Event(f, nil); got != "" {
			t.Errorf("encrypted payload % x: Event = %q, want empty", p, got)
		}
	}
}

func TestNfcAAnticollisionResponses(t *testing.T) {
	sel := poll(model.TechNfcA, 0x93, 0x20)

	if got := Event(listen(model.TechNfcA, 0x08, 0xB6, 0xDD), sel); got != "SAK" {
		t.Errorf("3-byte response to SEL1 = %q, want SAK", got)
	}
	if got := Event(listen(model.TechNfcA, 0x88, 0x04, 0x61, 0x3D, 0x50), sel); got != "UID" {
		t.Errorf("5-byte response to SEL1 = %q, want UID", got)
	}

	// 4-byte response to a select matches neither SAK nor UID.
	if got := Event(listen(model.TechNfcA, 0x88, 0x04, 0x61, 0x3D), sel); got != "" {
		t.Errorf("4-byte response to SEL1 = %q, want empty", got)
	}

	reqa := poll(model.TechNfcA, 0x26)
	if got := Event(listen(model.TechNfcA, 0x44, 0x00), reqa); got != "ATQA" {
		t.Errorf("response to REQA = %q, want ATQA", got)
	}

	wupa := poll(model.TechNfcA, 0x52)
	if got := Event(listen(model.TechNfcA, 0x44, 0x00), wupa); got != "ATQA" {
		t.Errorf("response to WUPA = %q, want ATQA", got)
	}
}

func TestNfcAATS(t *testing.T) {
	rats := poll(model.TechNfcA, 0xE0, 0x80, 0x31, 0x73)

	// TL octet equals frame length minus the two CRC octets.
	ats := listen(model.TechNfcA, 0x05, 0x78, 0x80, 0x70, 0x02, 0xA5, 0x46)
	if got := Event(ats, rats); got != "ATS" {
		t.Errorf("ATS = %q, want ATS", got)
	}

	// Wrong TL octet is not an ATS.
	notATS := listen(model.TechNfcA, 0x44, 0x78, 0x80, 0x70, 0x02, 0xA5, 0x46)
	if got := Event(notATS, rats); got != "" {
		t.Errorf("bad TL = %q, want empty", got)
	}
}

func TestNfcAListenRequiresPrecedingPoll(t *testing.T) {
	resp := listen(model.TechNfcA, 0x44, 0x00)

	if got := Event(resp, nil); got != "" {
		t.Errorf("listen with no previous = %q, want empty", got)
	}
	if got := Event(resp, listen(model.TechNfcA, 0x44, 0x00)); got != "" {
		t.Errorf("listen after listen = %q, want empty", got)
	}
	if got := Event(resp, poll(model.TechNfcA)); got != "" {
		t.Errorf("listen after empty poll = %q, want empty", got)
	}
}

// Poll 0xC2 length 3 must classify as S(Deselect), not the broader
// S-Block pattern that also matches it.
func TestIsoDepPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{"S(Deselect)", []byte{0xC2, 0xE0, 0xB4}, "S(Deselect)"},
		{"S(Deselect) with CID", []byte{0xCA, 0x00, 0xE0, 0xB4}, "S(Deselect)"},
		{"S(WTX)", []byte{0xF2, 0x01, 0x91}, "S(WTX)"},
		{"R(ACK)", []byte{0xA2, 0xE0, 0xB4}, "R(ACK)"},
		{"R(ACK) toggled", []byte{0xA3, 0xE0, 0xB4}, "R(ACK)"},
		{"R(NACK)", []byte{0xB2, 0xE0, 0xB4}, "R(NACK)"},
		{"I-Block", []byte{0x02, 0x6A, 0x82, 0x93, 0x2F}, "I-Block"},
		{"I-Block chaining", []byte{0x12, 0x00, 0xA4, 0x04}, "I-Block"},
		// Every octet matching the R-Block mask also matches R(ACK) or
		// R(NACK), which are checked first; R(ACK)/R(NACK) win.
		{"R-Block shadowed by R(NACK)", []byte{0xB2, 0xE0, 0xB4}, "R(NACK)"},
		{"S-Block", []byte{0xD2, 0xE0, 0xB4}, "S-Block"},
		{"S(Deselect) too long", []byte{0xC2, 0x00, 0x00, 0x00, 0x00}, ""},
		{"R(ACK) wrong length", []byte{0xA2, 0xE0}, ""},
		{"I-Block too short", []byte{0x02, 0x6A, 0x82}, ""},
	}

	for _, tt := range tests {
		got := isoDepEvent(&model.Frame{Payload: tt.payload})
		if got != tt.want {
			t.Errorf("%s (% x): isoDepEvent = %q, want %q", tt.name, tt.payload, got, tt.want)
		}
	}

	// The same precedence applies through the NfcA poll path, after the
	// HALT and PPS rules pass it over.
	f := poll(model.TechNfcA, 0xC2, 0xE0, 0xB4)
	if got := Event(f, nil); got != "S(Deselect)" {
		t.Errorf("NfcA poll 0xC2 = %q, want S(Deselect)", got)
	}
}

func TestNfcBEvents(t *testing.T) {
	tests := []struct {
		name  string
		frame *model.Frame
		want  string
	}{
		{"REQB", poll(model.TechNfcB, 0x05, 0x00, 0x08), "REQB"},
		{"ATTRIB", poll(model.TechNfcB, 0x1D, 0x01, 0x02, 0x03, 0x04, 0x00, 0x08, 0x01, 0x00), "ATTRIB"},
		{"HLTB", poll(model.TechNfcB, 0x50, 0x01, 0x02, 0x03, 0x04), "HLTB"},
		{"ATQB", listen(model.TechNfcB, 0x05, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B), "ATQB"},
		{"poll I-Block", poll(model.TechNfcB, 0x02, 0x00, 0xA4, 0x04, 0x00), "I-Block"},
		{"listen S(WTX)", listen(model.TechNfcB, 0xF2, 0x01, 0x91), "S(WTX)"},
		{"unknown poll", poll(model.TechNfcB, 0x42), ""},
		{"unknown listen", listen(model.TechNfcB, 0x42), ""},
		{"empty", poll(model.TechNfcB), ""},
	}

	for _, tt := range tests {
		if got := Event(tt.frame, nil); got != tt.want {
			t.Errorf("%s: Event = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNfcFEvents(t *testing.T) {
	if got := Event(poll(model.TechNfcF, 0x06, 0x00, 0xFF, 0xFF, 0x00, 0x00), nil); got != "REQC" {
		t.Errorf("REQC = %q", got)
	}
	if got := Event(listen(model.TechNfcF, 0x12, 0x00, 0x01), nil); got != "ATQC" {
		t.Errorf("ATQC = %q", got)
	}

	// Unknown poll commands are synthesized, unknown responses are not.
	if got := Event(poll(model.TechNfcF, 0x10, 0x06, 0x01), nil); got != "CMD 06" {
		t.Errorf("unknown NfcF poll = %q, want CMD 06", got)
	}
	if got := Event(listen(model.TechNfcF, 0x10, 0x07), nil); got != "" {
		t.Errorf("unknown NfcF listen = %q, want empty", got)
	}

	// Single-octet payload cannot reach the command byte.
	if got := Event(poll(model.TechNfcF, 0x06), nil); got != "" {
		t.Errorf("short NfcF poll = %q, want empty", got)
	}
}

func TestNfcVEvents(t *testing.T) {
	tests := []struct {
		payload []byte
		want    string
	}{
		{[]byte{0x26, 0x01, 0x00}, "Inventory"},
		{[]byte{0x02, 0x02}, "StayQuiet"},
		{[]byte{0x22, 0x20, 0x04}, "ReadBlock"},
		{[]byte{0x22, 0x21, 0x04, 0xDE}, "WriteBlock"},
		{[]byte{0x02, 0x2B}, "SysInfo"},
		{[]byte{0x02, 0x2C, 0x00}, "GetSecurity"},
		{[]byte{0x02, 0xA0}, "CMD a0"},
		{[]byte{0x02}, ""},
	}

	for _, tt := range tests {
		if got := Event(poll(model.TechNfcV, tt.payload...), nil); got != tt.want {
			t.Errorf("NfcV poll % x: Event = %q, want %q", tt.payload, got, tt.want)
		}
	}

	// NFC-V responses are never labeled.
	if got := Event(listen(model.TechNfcV, 0x00, 0x0F), nil); got != "" {
		t.Errorf("NfcV listen = %q, want empty", got)
	}
}

func TestFlagsWord(t *testing.T) {
	f := &model.Frame{
		Type:  model.TypeListen,
		Flags: model.FlagCRCError | model.FlagParityError,
	}

	want := (model.FlagCRCError|model.FlagParityError)<<8 | int(model.TypeListen)
	if got := Flags(f); got != want {
		t.Errorf("Flags = %#x, want %#x", got, want)
	}
}

func TestRateLabel(t *testing.T) {
	if got := RateLabel(poll(model.TechNfcA, 0x26)); got != "106k" {
		t.Errorf("poll rate = %q, want 106k", got)
	}

	f := listen(model.TechNfcA, 0x44, 0x00)
	f.Rate = 423936
	if got := RateLabel(f); got != "424k" {
		t.Errorf("listen rate = %q, want 424k", got)
	}

	carrier := &model.Frame{Type: model.TypeCarrierOn, Rate: 106000}
	if got := RateLabel(carrier); got != "" {
		t.Errorf("carrier rate = %q, want empty", got)
	}
}

func TestDeltaLabel(t *testing.T) {
	tests := []struct {
		name    string
		prevEnd float64
		start   float64
		want    string
	}{
		{"15 microseconds", 1.0, 1.000015, "15 us"},
		{"1.5 milliseconds rounds up", 1.0, 1.0015, "2 ms"},
		{"250 milliseconds", 1.0, 1.25, "250 ms"},
		{"3 seconds", 1.0, 4.0, "3 s"},
	}

	for _, tt := range tests {
		prev := &model.Frame{TimeEnd: tt.prevEnd}
		cur := &model.Frame{TimeStart: tt.start}
		if got := DeltaLabel(cur, prev); got != tt.want {
			t.Errorf("%s: DeltaLabel = %q, want %q", tt.name, got, tt.want)
		}
	}

	if got := DeltaLabel(&model.Frame{TimeStart: 5}, nil); got != "" {
		t.Errorf("no previous frame: DeltaLabel = %q, want empty", got)
	}
}

func TestFrameResult(t *testing.T) {
	prev := poll(model.TechNfcA, 0x26)
	prev.TimeStart = 0.5
	prev.TimeEnd = 0.50009

	cur := listen(model.TechNfcA, 0x44, 0x00)
	cur.TimeStart = 0.50014
	cur.TimeEnd = 0.50032

	r := Frame(cur, prev)
	if r.Event != "ATQA" {
		t.Errorf("Event = %q, want ATQA", r.Event)
	}
	if r.Tech != "NfcA" {
		t.Errorf("Tech = %q, want NfcA", r.Tech)
	}
	if r.Rate != "106k" {
		t.Errorf("Rate = %q, want 106k", r.Rate)
	}
	if r.Delta != "50 us" {
		t.Errorf("Delta = %q, want 50 us", r.Delta)
	}
	if r.Flags != int(model.TypeListen) {
		t.Errorf("Flags = %#x, want %#x", r.Flags, int(model.TypeListen))
	}
}
