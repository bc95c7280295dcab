package ingest

import (
	"sync"
	"testing"

	"github.com/nfclab/nfctrace/pkg/model"
)

func TestInboxDrainPreservesOrder(t *testing.T) {
	b := NewInbox()

	for i := 0; i < 5; i++ {
		b.Append(&model.Frame{TimeStart: float64(i)})
	}

	if !b.HasPending() {
		t.Fatal("HasPending = false after Append")
	}

	frames := b.Drain()
	if len(frames) != 5 {
		t.Fatalf("Drain returned %d frames, want 5", len(frames))
	}
	for i, f := range frames {
		if f.TimeStart != float64(i) {
			t.Errorf("frame %d out of order: TimeStart = %v", i, f.TimeStart)
		}
	}

	if b.HasPending() {
		t.Error("HasPending = true after Drain")
	}
	if got := b.Drain(); len(got) != 0 {
		t.Errorf("second Drain returned %d frames, want 0", len(got))
	}
}

func TestBoundedInboxDropsOldest(t *testing.T) {
	b := NewBoundedInbox(3)

	for i := 0; i < 5; i++ {
		b.Append(&model.Frame{TimeStart: float64(i)})
	}

	frames := b.Drain()
	if len(frames) != 3 {
		t.Fatalf("Drain returned %d frames, want 3", len(frames))
	}
	// Oldest two were dropped.
	if frames[0].TimeStart != 2 || frames[2].TimeStart != 4 {
		t.Errorf("kept frames start at %v..%v, want 2..4", frames[0].TimeStart, frames[2].TimeStart)
	}
	if got := b.Dropped(); got != 2 {
		t.Errorf("Dropped = %d, want 2", got)
	}
}

func TestInboxConcurrentAppendDrain(t *testing.T) {
	b := NewInbox()
	const total = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			b.Append(&model.Frame{TimeStart: float64(i)})
		}
	}()

	var drained []*model.Frame
	for len(drained) < total {
		drained = append(drained, b.Drain()...)
	}
	wg.Wait()

	for i, f := range drained {
		if f.TimeStart != float64(i) {
			t.Fatalf("frame %d out of order: TimeStart = %v", i, f.TimeStart)
		}
	}
}
