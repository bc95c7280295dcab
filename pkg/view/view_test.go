package view

import (
	"testing"
	"time"

	"github.com/nfclab/nfctrace/pkg/ingest"
	"github.com/nfclab/nfctrace/pkg/model"
)

func TestFormatTime(t *testing.T) {
	frame := &model.Frame{
		TimeStart: 1.234567,
		DateTime:  time.Date(2024, 3, 15, 10, 30, 45, 123_000_000, time.UTC),
	}

	if got := FormatTime(frame, ElapsedTimeFormat); got != " 1.234567" {
		t.Errorf("elapsed = %q, want %q", got, " 1.234567")
	}
	if got := FormatTime(frame, DateTimeFormat); got != "24-03-15 10:30:45.123" {
		t.Errorf("datetime = %q, want %q", got, "24-03-15 10:30:45.123")
	}
}

func TestFormatData(t *testing.T) {
	frame := &model.Frame{Payload: []byte{0x93, 0x20, 0xAB}}
	if got := FormatData(frame); got != "93 20 ab" {
		t.Errorf("FormatData = %q, want %q", got, "93 20 ab")
	}

	if got := FormatData(&model.Frame{}); got != "" {
		t.Errorf("FormatData(empty) = %q, want empty", got)
	}
}

func TestBuilderRows(t *testing.T) {
	s := ingest.New(ingest.Config{})
	s.Push(&model.Frame{
		Tech: model.TechNfcA, Type: model.TypePoll,
		Payload: []byte{0x26}, Rate: 106000,
		TimeStart: 0.001, TimeEnd: 0.00105,
	})
	s.Push(&model.Frame{
		Tech: model.TechNfcA, Type: model.TypeListen,
		Payload: []byte{0x44, 0x00}, Rate: 106000,
		TimeStart: 0.00115, TimeEnd: 0.00133,
	})
	s.Refresh()

	b := NewBuilder(s)
	if got := b.RowCount(); got != 2 {
		t.Fatalf("RowCount = %d, want 2", got)
	}

	first := b.RowAt(0)
	if first.Event != "REQA" || first.Tech != "NfcA" || first.Delta != "" {
		t.Errorf("row 0 = %+v", first)
	}
	if first.Data != "26" {
		t.Errorf("row 0 Data = %q, want 26", first.Data)
	}

	second := b.RowAt(1)
	if second.Event != "ATQA" {
		t.Errorf("row 1 Event = %q, want ATQA", second.Event)
	}
	if second.Delta != "100 us" {
		t.Errorf("row 1 Delta = %q, want 100 us", second.Delta)
	}

	if b.RowAt(2) != nil {
		t.Error("RowAt(2) should be nil")
	}

	rows := b.Rows(0, 10)
	if len(rows) != 2 {
		t.Fatalf("Rows(0, 10) returned %d rows", len(rows))
	}
	rows = b.Rows(1, 10)
	if len(rows) != 1 || rows[0].ID != 1 {
		t.Fatalf("Rows(1, 10) = %+v", rows)
	}
}
