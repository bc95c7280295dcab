// Package view assembles classified frames into display rows for any
// presentation layer. It is read-only over the stream: rows are built on
// demand from a frame and its predecessor, never cached.
package view

import (
	"fmt"
	"strings"

	"github.com/nfclab/nfctrace/pkg/classify"
	"github.com/nfclab/nfctrace/pkg/model"
)

// TimeFormat selects how the time column is rendered. It affects
// presentation only; stored frames are never mutated.
type TimeFormat int

const (
	// ElapsedTimeFormat renders seconds since the start of capture.
	ElapsedTimeFormat TimeFormat = iota
	// DateTimeFormat renders the absolute wall-clock timestamp.
	DateTimeFormat
)

// Row is one line of the frame stream table.
type Row struct {
	ID    int    // row number
	Time  string // per the selected TimeFormat
	Delta string // gap since the previous frame
	Rate  string // bit rate label
	Tech  string // technology label
	Event string // protocol event label
	Flags int    // frame flag bits << 8 | frame type
	Data  string // payload as spaced hex octets
}

// Source is the read-only query surface a row builder needs; the ingest
// Stream satisfies it.
type Source interface {
	RowCount() int
	FrameAt(row int) *model.Frame
	PrevFrame(row int) *model.Frame
}

// Builder renders rows from a frame source.
type Builder struct {
	src    Source
	format TimeFormat
}

// NewBuilder creates a row builder over src using elapsed-time display.
func NewBuilder(src Source) *Builder {
	return &Builder{src: src}
}

// SetTimeFormat switches the time column rendering mode.
func (b *Builder) SetTimeFormat(format TimeFormat) {
	b.format = format
}

// RowCount returns the number of rows available.
func (b *Builder) RowCount() int {
	return b.src.RowCount()
}

// RowAt builds the display row at the given index, or nil when out of
// range.
func (b *Builder) RowAt(row int) *Row {
	frame := b.src.FrameAt(row)
	if frame == nil {
		return nil
	}
	prev := b.src.PrevFrame(row)

	r := classify.Frame(frame, prev)

	return &Row{
		ID:    row,
		Time:  FormatTime(frame, b.format),
		Delta: r.Delta,
		Rate:  r.Rate,
		Tech:  r.Tech,
		Event: r.Event,
		Flags: r.Flags,
		Data:  FormatData(frame),
	}
}

// Rows builds up to limit rows starting at offset.
func (b *Builder) Rows(offset, limit int) []*Row {
	count := b.src.RowCount()
	if offset < 0 {
		offset = 0
	}
	if offset >= count {
		return nil
	}

	end := offset + limit
	if limit <= 0 || end > count {
		end = count
	}

	rows := make([]*Row, 0, end-offset)
	for i := offset; i < end; i++ {
		if r := b.RowAt(i); r != nil {
			rows = append(rows, r)
		}
	}
	return rows
}

// FormatTime renders the time column for a frame.
func FormatTime(frame *model.Frame, format TimeFormat) string {
	if format == DateTimeFormat {
		ms := frame.DateTime.Nanosecond() / 1e6
		return fmt.Sprintf("%s.%03d", frame.DateTime.Format("06-01-02 15:04:05"), ms)
	}

	return fmt.Sprintf("%9.6f", frame.TimeStart)
}

// FormatData renders the payload as lower-case hex octets separated by
// single spaces.
func FormatData(frame *model.Frame) string {
	if frame.Len() == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(frame.Len() * 3)
	for i, b := range frame.Payload {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}
