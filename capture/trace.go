// Package capture reads and writes NFC frame traces. Traces are pcap
// files with the private DLT_USER0 link type; each record carries a
// fixed 12-byte pseudo-header followed by the frame payload:
//
//	offset 0    format version (currently 1)
//	offset 1    technology code (model.Tech)
//	offset 2    frame type code (model.Type)
//	offset 3    flag bits (model.Flag*)
//	offset 4-7  bit rate in bits/second, big endian
//	offset 8-11 on-air duration in nanoseconds, big endian
//
// The pcap record timestamp is the absolute start time of the frame;
// relative times are recovered against the first record in the file.
package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/nfclab/nfctrace/pkg/model"
)

// LinkTypeNFC is the pcap link type used for NFC trace records:
// DLT_USER0, the first of the reserved private-use link types.
const LinkTypeNFC = layers.LinkType(147)

// TraceVersion is the pseudo-header format version this package writes.
const TraceVersion = 1

const headerLen = 12

// snapLen is the pcap snapshot length; NFC frames are at most a few
// hundred octets.
const snapLen = 4096

var errShortRecord = fmt.Errorf("record shorter than %d byte header", headerLen)

// marshalRecord encodes one frame into a trace record.
func marshalRecord(frame *model.Frame) []byte {
	rec := make([]byte, headerLen+frame.Len())
	rec[0] = TraceVersion
	rec[1] = byte(frame.Tech)
	rec[2] = byte(frame.Type)
	rec[3] = byte(frame.Flags)
	binary.BigEndian.PutUint32(rec[4:8], uint32(frame.Rate))
	binary.BigEndian.PutUint32(rec[8:12], uint32(frame.Duration()*1e9))
	copy(rec[headerLen:], frame.Payload)
	return rec
}

// unmarshalRecord decodes one trace record. The timing fields are left
// for the caller, which owns the record timestamp and time base.
func unmarshalRecord(data []byte) (*model.Frame, time.Duration, error) {
	if len(data) < headerLen {
		return nil, 0, errShortRecord
	}

	if data[0] != TraceVersion {
		return nil, 0, fmt.Errorf("unsupported trace version %d", data[0])
	}

	frame := &model.Frame{
		Tech:  model.Tech(data[1]),
		Type:  model.Type(data[2]),
		Flags: int(data[3]),
		Rate:  int(binary.BigEndian.Uint32(data[4:8])),
	}

	if len(data) > headerLen {
		frame.Payload = append([]byte(nil), data[headerLen:]...)
	}

	duration := time.Duration(binary.BigEndian.Uint32(data[8:12]))
	return frame, duration, nil
}

// Reader decodes frames from a trace stream.
type Reader struct {
	r    *pcapgo.Reader
	base time.Time // timestamp of the first record
}

// NewReader creates a trace reader over r.
func NewReader(r io.Reader) (*Reader, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}

	if pr.LinkType() != LinkTypeNFC {
		return nil, fmt.Errorf("unexpected link type %d, want %d", pr.LinkType(), LinkTypeNFC)
	}

	return &Reader{r: pr}, nil
}

// Next reads the next frame, returning io.EOF at end of trace.
func (r *Reader) Next() (*model.Frame, error) {
	data, ci, err := r.r.ReadPacketData()
	if err != nil {
		return nil, err
	}

	frame, duration, err := unmarshalRecord(data)
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	if r.base.IsZero() {
		r.base = ci.Timestamp
	}

	frame.DateTime = ci.Timestamp
	frame.TimeStart = ci.Timestamp.Sub(r.base).Seconds()
	frame.TimeEnd = frame.TimeStart + duration.Seconds()
	return frame, nil
}

// Writer encodes frames into a trace stream.
type Writer struct {
	w    *pcapgo.Writer
	base time.Time // used when frames carry only relative times
}

// NewWriter creates a trace writer on w and writes the file header.
// base anchors frames that have no absolute timestamp of their own.
func NewWriter(w io.Writer, base time.Time) (*Writer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, LinkTypeNFC); err != nil {
		return nil, fmt.Errorf("write trace header: %w", err)
	}

	if base.IsZero() {
		base = time.Now()
	}

	return &Writer{w: pw, base: base}, nil
}

// Write appends one frame to the trace.
func (w *Writer) Write(frame *model.Frame) error {
	ts := frame.DateTime
	if ts.IsZero() {
		ts = w.base.Add(time.Duration(frame.TimeStart * float64(time.Second)))
	}

	rec := marshalRecord(frame)
	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(rec),
		Length:        len(rec),
	}

	if err := w.w.WritePacket(ci, rec); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Capturer replays frames from a trace file to a channel, the consumer
// side of which is typically an ingest.Stream producer loop.
type Capturer struct {
	file      *os.File
	reader    *Reader
	frameChan chan *model.Frame
	stopChan  chan struct{}
	err       error
}

// NewFileCapturer opens a trace file for replay.
func NewFileCapturer(filename string) (*Capturer, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open trace file %s: %w", filename, err)
	}

	reader, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Capturer{
		file:      f,
		reader:    reader,
		frameChan: make(chan *model.Frame, 1000),
		stopChan:  make(chan struct{}),
	}, nil
}

// Start begins the replay and returns the frame channel. The channel is
// closed when the trace is exhausted or Stop is called.
func (c *Capturer) Start() <-chan *model.Frame {
	go c.replayLoop()
	return c.frameChan
}

// Stop aborts the replay.
func (c *Capturer) Stop() {
	select {
	case <-c.stopChan:
	default:
		close(c.stopChan)
	}
}

// Err returns the first read error other than end of trace.
func (c *Capturer) Err() error {
	return c.err
}

func (c *Capturer) replayLoop() {
	defer close(c.frameChan)
	defer c.file.Close()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		frame, err := c.reader.Next()
		if err != nil {
			if err != io.EOF {
				c.err = err
			}
			return
		}

		select {
		case c.frameChan <- frame:
		case <-c.stopChan:
			return
		}
	}
}
