// Package ingest connects the capture context to the frame store: a
// producer pushes decoded frames into an inbox, and a periodic refresh
// drains them into the store in batches.
package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nfclab/nfctrace/pkg/model"
	"github.com/nfclab/nfctrace/pkg/store"
)

// DefaultRefreshInterval is how often the consumer drains the inbox
// when running the refresh loop.
const DefaultRefreshInterval = 250 * time.Millisecond

// Config holds configuration for a Stream.
type Config struct {
	// RefreshInterval between drains in Run. Defaults to
	// DefaultRefreshInterval if <= 0.
	RefreshInterval time.Duration

	// InboxCapacity bounds the inbox with a drop-oldest policy.
	// 0 means unbounded.
	InboxCapacity int

	// Logger for the refresh loop. Defaults to a disabled logger.
	Logger zerolog.Logger
}

// Stream owns the inbox and the frame store for one capture session.
// One producer calls Push, one consumer calls Refresh (directly or via
// Run); queries go through the read-only accessors.
type Stream struct {
	cfg   Config
	inbox *Inbox
	store *store.FrameStore
}

// New creates a stream with the given configuration.
func New(cfg Config) *Stream {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}

	return &Stream{
		cfg:   cfg,
		inbox: NewBoundedInbox(cfg.InboxCapacity),
		store: store.NewFrameStore(),
	}
}

// Push enqueues one decoded frame from the capture context. The frame
// is not visible to row queries until the next Refresh.
func (s *Stream) Push(frame *model.Frame) {
	s.inbox.Append(frame)
}

// HasPending reports whether queued frames are waiting for a refresh.
func (s *Stream) HasPending() bool {
	return s.inbox.HasPending()
}

// Refresh drains the inbox into the store and returns the number of
// frames migrated. The inbox lock is released before insertion.
func (s *Stream) Refresh() int {
	batch := s.inbox.Drain()
	if len(batch) == 0 {
		return 0
	}

	s.store.AppendBatch(batch)
	return len(batch)
}

// Reset discards queued and stored frames together, e.g. on a new
// capture session or file load. Safe to call while the producer is
// appending.
func (s *Stream) Reset() {
	s.inbox.clear()
	s.store.Reset()
}

// Run drains the inbox at the configured interval until ctx is
// cancelled, performing a final drain on the way out.
func (s *Stream) Run(ctx context.Context) {
	log := s.cfg.Logger

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if n := s.Refresh(); n > 0 {
				log.Debug().Int("frames", n).Msg("final drain")
			}
			return
		case <-ticker.C:
			if n := s.Refresh(); n > 0 {
				log.Debug().Int("frames", n).Int("rows", s.store.RowCount()).Msg("drained inbox")
			}
		}
	}
}

// RowCount returns the number of frames visible to row queries.
func (s *Stream) RowCount() int {
	return s.store.RowCount()
}

// FrameAt returns the stored frame at the given row, or nil.
func (s *Stream) FrameAt(row int) *model.Frame {
	return s.store.FrameAt(row)
}

// PrevFrame returns the frame immediately before row, or nil for the
// first row. Classification looks back exactly one frame.
func (s *Stream) PrevFrame(row int) *model.Frame {
	if row <= 0 {
		return nil
	}
	return s.store.FrameAt(row - 1)
}

// RangeQuery returns the rows of frames fully inside [from, to], used
// to correlate the stream with time-domain views.
func (s *Stream) RangeQuery(from, to float64) []int {
	return s.store.RangeQuery(from, to)
}

// Dropped returns the number of frames discarded by the inbox bound.
func (s *Stream) Dropped() uint64 {
	return s.inbox.Dropped()
}
