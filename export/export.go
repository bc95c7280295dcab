// Package export provides frame export functionality in text and JSON formats
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nfclab/nfctrace/pkg/classify"
	"github.com/nfclab/nfctrace/pkg/model"
	"github.com/nfclab/nfctrace/pkg/view"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Exporter handles frame export
type Exporter struct {
	format     OutputFormat
	writer     io.Writer
	timeFormat view.TimeFormat
	showHex    bool // hex dump after each text row
	count      int  // frames exported
	maxCount   int  // limit (0 = unlimited)
	firstFrame bool // track first frame for JSON array
}

// NewExporter creates a new exporter
func NewExporter(w io.Writer, format OutputFormat) *Exporter {
	return &Exporter{
		format:     format,
		writer:     w,
		firstFrame: true,
	}
}

// SetTimeFormat selects elapsed or wall-clock times in text output
func (e *Exporter) SetTimeFormat(format view.TimeFormat) {
	e.timeFormat = format
}

// SetMaxCount sets the maximum frame count
func (e *Exporter) SetMaxCount(n int) {
	e.maxCount = n
}

// SetShowHex enables hex dump output
func (e *Exporter) SetShowHex(v bool) {
	e.showHex = v
}

// ShouldStop returns true if we've reached the frame limit
func (e *Exporter) ShouldStop() bool {
	return e.maxCount > 0 && e.count >= e.maxCount
}

// ExportFrame exports a single frame with its predecessor for context
func (e *Exporter) ExportFrame(frame, prev *model.Frame) error {
	if e.ShouldStop() {
		return nil
	}

	var err error
	switch e.format {
	case FormatJSON:
		err = e.exportJSON(frame, prev)
	default:
		err = e.exportText(frame, prev)
	}

	if err == nil {
		e.count++
	}
	return err
}

// Start writes any header needed for the format
func (e *Exporter) Start() error {
	if e.format == FormatJSON {
		_, err := fmt.Fprintln(e.writer, "[")
		return err
	}
	return nil
}

// Finish writes any footer needed for the format
func (e *Exporter) Finish() error {
	if e.format == FormatJSON {
		_, err := fmt.Fprintln(e.writer, "\n]")
		return err
	}
	return nil
}

// exportText exports a frame as a one line summary:
// No. Time Delta Rate Tech Event Data
func (e *Exporter) exportText(frame, prev *model.Frame) error {
	r := classify.Frame(frame, prev)

	line := fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s\t%s",
		frame.Number,
		view.FormatTime(frame, e.timeFormat),
		r.Delta,
		r.Rate,
		r.Tech,
		r.Event,
		view.FormatData(frame),
	)

	if _, err := fmt.Fprintln(e.writer, line); err != nil {
		return err
	}

	if e.showHex {
		return e.exportHexDump(frame)
	}
	return nil
}

// FrameJSON represents a frame in JSON format
type FrameJSON struct {
	Number    int     `json:"frame.number"`
	TimeStart float64 `json:"frame.time_start"`
	TimeEnd   float64 `json:"frame.time_end"`
	DateTime  string  `json:"frame.date,omitempty"`
	Len       int     `json:"frame.len"`
	Tech      string  `json:"tech"`
	Event     string  `json:"event"`
	Rate      string  `json:"rate,omitempty"`
	Delta     string  `json:"delta,omitempty"`
	Flags     int     `json:"flags"`
	Data      string  `json:"data,omitempty"`
}

// exportJSON exports a frame as one element of a JSON array
func (e *Exporter) exportJSON(frame, prev *model.Frame) error {
	r := classify.Frame(frame, prev)

	fj := FrameJSON{
		Number:    frame.Number,
		TimeStart: frame.TimeStart,
		TimeEnd:   frame.TimeEnd,
		Len:       frame.Len(),
		Tech:      r.Tech,
		Event:     r.Event,
		Rate:      r.Rate,
		Delta:     r.Delta,
		Flags:     r.Flags,
		Data:      view.FormatData(frame),
	}
	if !frame.DateTime.IsZero() {
		fj.DateTime = frame.DateTime.Format("2006-01-02T15:04:05.000000Z07:00")
	}

	data, err := json.Marshal(fj)
	if err != nil {
		return err
	}

	if e.firstFrame {
		e.firstFrame = false
		_, err = fmt.Fprintf(e.writer, "  %s", data)
	} else {
		_, err = fmt.Fprintf(e.writer, ",\n  %s", data)
	}

	return err
}

// exportHexDump writes a wireshark style hex dump of the payload
func (e *Exporter) exportHexDump(frame *model.Frame) error {
	data := frame.Payload
	fmt.Fprintf(e.writer, "\nHex dump of frame %d (%d bytes):\n", frame.Number, len(data))

	bytesPerLine := 16
	for i := 0; i < len(data); i += bytesPerLine {
		fmt.Fprintf(e.writer, "%08x  ", i)

		for j := 0; j < bytesPerLine; j++ {
			if i+j < len(data) {
				fmt.Fprintf(e.writer, "%02x ", data[i+j])
			} else {
				fmt.Fprint(e.writer, "   ")
			}
			if j == 7 {
				fmt.Fprint(e.writer, " ")
			}
		}

		fmt.Fprint(e.writer, " |")
		for j := 0; j < bytesPerLine && i+j < len(data); j++ {
			b := data[i+j]
			if b >= 32 && b <= 126 {
				fmt.Fprintf(e.writer, "%c", b)
			} else {
				fmt.Fprint(e.writer, ".")
			}
		}
		fmt.Fprintln(e.writer, "|")
	}

	fmt.Fprintln(e.writer)
	return nil
}
