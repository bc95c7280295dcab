// Package stats provides NFC session statistics over classified frames
package stats

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/nfclab/nfctrace/pkg/classify"
	"github.com/nfclab/nfctrace/pkg/model"
)

// Manager collects and reports per-session frame statistics
type Manager struct {
	techs       map[model.Tech]*TechStats
	events      map[string]*EventStats
	ioBuckets   []*IOBucket
	bucketSize  time.Duration
	prev        *model.Frame
	firstTime   float64
	lastTime    float64
	totalFrames int
	totalBytes  int64
	crcErrors   int
	parityErrs  int
	syncErrors  int
	encrypted   int
}

// TechStats aggregates traffic for one technology
type TechStats struct {
	Tech         model.Tech
	PollFrames   int
	ListenFrames int
	PollBytes    int64
	ListenBytes  int64
}

// EventStats counts occurrences of one protocol event
type EventStats struct {
	Event  string
	Tech   model.Tech
	Frames int
	Bytes  int64
}

// IOBucket represents frame/byte counts for a time interval
type IOBucket struct {
	Frames int
	Bytes  int64
}

// NewManager creates a new statistics manager
func NewManager() *Manager {
	return &Manager{
		techs:      make(map[model.Tech]*TechStats),
		events:     make(map[string]*EventStats),
		bucketSize: time.Second,
		firstTime:  -1,
	}
}

// SetBucketSize sets the I/O stats time interval
func (m *Manager) SetBucketSize(d time.Duration) {
	m.bucketSize = d
}

// ProcessFrame updates statistics with a new frame. Frames must be fed
// in stream order so event classification sees the right predecessor.
func (m *Manager) ProcessFrame(frame *model.Frame) {
	if m.firstTime < 0 {
		m.firstTime = frame.TimeStart
	}
	m.lastTime = frame.TimeEnd

	m.totalFrames++
	m.totalBytes += int64(frame.Len())

	if frame.Flags&model.FlagCRCError != 0 {
		m.crcErrors++
	}
	if frame.Flags&model.FlagParityError != 0 {
		m.parityErrs++
	}
	if frame.Flags&model.FlagSyncError != 0 {
		m.syncErrors++
	}
	if frame.IsEncrypted() {
		m.encrypted++
	}

	m.updateTechs(frame)
	m.updateEvents(frame)
	m.updateIOBuckets(frame)

	m.prev = frame
}

func (m *Manager) updateTechs(frame *model.Frame) {
	if frame.Tech == model.TechNone {
		return
	}

	ts, ok := m.techs[frame.Tech]
	if !ok {
		ts = &TechStats{Tech: frame.Tech}
		m.techs[frame.Tech] = ts
	}

	switch {
	case frame.IsPoll():
		ts.PollFrames++
		ts.PollBytes += int64(frame.Len())
	case frame.IsListen():
		ts.ListenFrames++
		ts.ListenBytes += int64(frame.Len())
	}
}

func (m *Manager) updateEvents(frame *model.Frame) {
	event := classify.Event(frame, m.prev)
	if event == "" {
		return
	}

	es, ok := m.events[event]
	if !ok {
		es = &EventStats{Event: event, Tech: frame.Tech}
		m.events[event] = es
	}
	es.Frames++
	es.Bytes += int64(frame.Len())
}

func (m *Manager) updateIOBuckets(frame *model.Frame) {
	if m.bucketSize <= 0 {
		return
	}

	elapsed := frame.TimeStart - m.firstTime
	bucketIdx := int(elapsed / m.bucketSize.Seconds())
	if bucketIdx < 0 {
		return
	}

	for len(m.ioBuckets) <= bucketIdx {
		m.ioBuckets = append(m.ioBuckets, &IOBucket{})
	}

	m.ioBuckets[bucketIdx].Frames++
	m.ioBuckets[bucketIdx].Bytes += int64(frame.Len())
}

// TotalFrames returns the number of frames processed.
func (m *Manager) TotalFrames() int {
	return m.totalFrames
}

// Duration returns the elapsed time covered by the session.
func (m *Manager) Duration() float64 {
	if m.firstTime < 0 {
		return 0
	}
	return m.lastTime - m.firstTime
}

// EventCount returns the frame count for one event label.
func (m *Manager) EventCount(event string) int {
	if es, ok := m.events[event]; ok {
		return es.Frames
	}
	return 0
}

// PrintTechs writes per-technology statistics to the writer
func (m *Manager) PrintTechs(w io.Writer) {
	fmt.Fprintln(w, "================================================================================")
	fmt.Fprintln(w, "Technologies")
	fmt.Fprintln(w, "================================================================================")
	fmt.Fprintf(w, "%-10s %12s %12s %12s %12s\n",
		"Tech", "Poll Frames", "Poll Bytes", "Resp Frames", "Resp Bytes")

	var techs []*TechStats
	for _, ts := range m.techs {
		techs = append(techs, ts)
	}
	sort.Slice(techs, func(i, j int) bool {
		return techs[i].Tech < techs[j].Tech
	})

	for _, ts := range techs {
		fmt.Fprintf(w, "%-10s %12d %12s %12d %12s\n",
			ts.Tech.String(),
			ts.PollFrames,
			formatBytes(ts.PollBytes),
			ts.ListenFrames,
			formatBytes(ts.ListenBytes),
		)
	}
	fmt.Fprintf(w, "================================================================================\n")
}

// PrintEvents writes per-event statistics to the writer
func (m *Manager) PrintEvents(w io.Writer) {
	fmt.Fprintln(w, "================================================================================")
	fmt.Fprintln(w, "Protocol Events")
	fmt.Fprintln(w, "================================================================================")
	fmt.Fprintf(w, "%-16s %-10s %10s %12s\n", "Event", "Tech", "Frames", "Bytes")

	var events []*EventStats
	for _, es := range m.events {
		events = append(events, es)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Frames != events[j].Frames {
			return events[i].Frames > events[j].Frames
		}
		return events[i].Event < events[j].Event
	})

	for _, es := range events {
		fmt.Fprintf(w, "%-16s %-10s %10d %12s\n",
			es.Event,
			es.Tech.String(),
			es.Frames,
			formatBytes(es.Bytes),
		)
	}
	fmt.Fprintf(w, "================================================================================\n")
}

// PrintSummary writes the session summary to the writer
func (m *Manager) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "================================================================================")
	fmt.Fprintln(w, "Session Summary")
	fmt.Fprintln(w, "================================================================================")
	fmt.Fprintf(w, "%-20s %d\n", "Total frames:", m.totalFrames)
	fmt.Fprintf(w, "%-20s %s\n", "Total bytes:", formatBytes(m.totalBytes))
	fmt.Fprintf(w, "%-20s %.3fs\n", "Duration:", m.Duration())
	fmt.Fprintf(w, "%-20s %d\n", "CRC errors:", m.crcErrors)
	fmt.Fprintf(w, "%-20s %d\n", "Parity errors:", m.parityErrs)
	fmt.Fprintf(w, "%-20s %d\n", "Sync errors:", m.syncErrors)
	fmt.Fprintf(w, "%-20s %d\n", "Encrypted frames:", m.encrypted)
	fmt.Fprintln(w, "================================================================================")
}

// PrintIOStats writes I/O statistics to the writer
func (m *Manager) PrintIOStats(w io.Writer) {
	interval := m.bucketSize.Seconds()

	fmt.Fprintln(w, "================================================================================")
	fmt.Fprintf(w, "IO Statistics (interval: %.1fs)\n", interval)
	fmt.Fprintln(w, "================================================================================")
	fmt.Fprintf(w, "%-20s %12s %15s %12s\n", "Interval", "Frames", "Bytes", "Frames/s")

	for i, bucket := range m.ioBuckets {
		start := float64(i) * interval
		end := start + interval
		fps := float64(bucket.Frames) / interval

		fmt.Fprintf(w, "%-20s %12d %15s %12.1f\n",
			fmt.Sprintf("%.1f - %.1f", start, end),
			bucket.Frames,
			formatBytes(bucket.Bytes),
			fps,
		)
	}

	fmt.Fprintln(w, strings.Repeat("-", 80))
	duration := float64(len(m.ioBuckets)) * interval
	avgFps := 0.0
	if duration > 0 {
		avgFps = float64(m.totalFrames) / duration
	}

	fmt.Fprintf(w, "%-20s %12d %15s %12.1f\n",
		"Total",
		m.totalFrames,
		formatBytes(m.totalBytes),
		avgFps,
	)
	fmt.Fprintln(w, "================================================================================")
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
