package ingest

import (
	"sync"

	"github.com/nfclab/nfctrace/pkg/model"
)

// Inbox is the single-producer/single-consumer holding area between the
// capture context and the frame store. Frames queued here are not yet
// visible to row-based queries; ownership transfers to the store when
// the consumer drains.
//
// The mutex guards only queue mutation. It is never held while frames
// are classified or inserted into the store, so the producer is never
// blocked behind consumer work.
type Inbox struct {
	mu       sync.Mutex
	queue    []*model.Frame
	capacity int // 0 = unbounded
	dropped  uint64
}

// NewInbox creates an unbounded inbox.
func NewInbox() *Inbox {
	return &Inbox{}
}

// NewBoundedInbox creates an inbox that keeps at most capacity frames,
// dropping the oldest queued frame when a new one arrives over capacity.
// capacity <= 0 means unbounded.
func NewBoundedInbox(capacity int) *Inbox {
	return &Inbox{capacity: capacity}
}

// Append enqueues one frame. Called from the single producer context.
func (b *Inbox) Append(frame *model.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queue = append(b.queue, frame)

	if b.capacity > 0 && len(b.queue) > b.capacity {
		excess := len(b.queue) - b.capacity
		b.queue = b.queue[excess:]
		b.dropped += uint64(excess)
	}
}

// HasPending reports whether any frames are queued.
func (b *Inbox) HasPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue) > 0
}

// Drain atomically removes and returns all queued frames in arrival
// order. Called from the single consumer context.
func (b *Inbox) Drain() []*model.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	queued := b.queue
	b.queue = nil
	return queued
}

// Dropped returns the number of frames discarded by the drop-oldest
// policy since creation.
func (b *Inbox) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// clear discards all queued frames. Used by Stream.Reset, which holds
// no other lock while calling it, so it is safe against an in-flight
// Append.
func (b *Inbox) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = nil
}
