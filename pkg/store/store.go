// Package store holds decoded frames for row-based and time-based
// queries. The FrameStore is append-only: rows are assigned once, never
// renumbered, and the store only grows until an explicit Reset.
package store

import (
	"sync"

	"github.com/nfclab/nfctrace/pkg/model"
)

// FrameStore is the ordered, indexed collection of stored frames.
//
// Thread-safe for concurrent read access; writes come from the single
// drain path.
type FrameStore struct {
	mu     sync.RWMutex
	frames []*model.Frame
}

// NewFrameStore creates an empty frame store.
func NewFrameStore() *FrameStore {
	return &FrameStore{}
}

// AppendBatch inserts frames in order, assigning each the next
// sequential row number. Called only by the drain path.
func (s *FrameStore) AppendBatch(frames []*model.Frame) {
	if len(frames) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range frames {
		f.Number = len(s.frames)
		s.frames = append(s.frames, f)
	}
}

// RowCount returns the number of stored frames.
func (s *FrameStore) RowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

// FrameAt returns the frame at the given row, or nil if out of range.
// The returned frame is shared and must not be mutated; it stays valid
// until the next Reset.
func (s *FrameStore) FrameAt(row int) *model.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if row < 0 || row >= len(s.frames) {
		return nil
	}
	return s.frames[row]
}

// RangeQuery returns the rows of all frames fully contained in the
// closed interval [from, to], i.e. timeStart >= from and timeEnd <= to,
// in ascending row order.
func (s *FrameStore) RangeQuery(from, to float64) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []int
	for i, f := range s.frames {
		if f.TimeStart >= from && f.TimeEnd <= to {
			rows = append(rows, i)
		}
	}
	return rows
}

// Reset removes all stored frames. Row numbering restarts at 0 on the
// next batch. Any previously computed range-query results are invalid
// after a reset.
func (s *FrameStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
}
