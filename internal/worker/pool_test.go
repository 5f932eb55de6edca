package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
)

type recordingFetcher struct {
	mu      sync.Mutex
	batches [][]string
	release chan struct{}
}

func (f *recordingFetcher) Fetch(ctx context.Context, ids []string) []*domain.TrackMetadata {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, ids)
	out := make([]*domain.TrackMetadata, len(ids))
	for i, id := range ids {
		out[i] = &domain.TrackMetadata{ID: id}
	}
	return out
}

func TestPool_ProcessesSubmittedBatches(t *testing.T) {
	f := &recordingFetcher{}
	p := NewPool(f, nil, 10)
	p.Start(2)

	p.Submit([]string{"a", "b"})
	p.Submit([]string{"c"})
	p.Submit(nil)
	p.Stop()

	if len(f.batches) != 2 {
		t.Fatalf("batches: got %d, want 2", len(f.batches))
	}
}

func TestPool_SubmitCopiesIDs(t *testing.T) {
	f := &recordingFetcher{}
	p := NewPool(f, nil, 1)

	ids := []string{"a"}
	p.Submit(ids)
	ids[0] = "mutated"

	p.Start(1)
	p.Stop()

	if got := f.batches[0][0]; got != "a" {
		t.Fatalf("id: got %q, want a", got)
	}
}

func TestPool_DropsWhenQueueFull(t *testing.T) {
	f := &recordingFetcher{}
	p := NewPool(f, nil, 1)

	// not started: the first job fills the queue, the second is dropped
	p.Submit([]string{"a"})
	p.Submit([]string{"b"})

	p.Start(1)
	p.Stop()

	if len(f.batches) != 1 || f.batches[0][0] != "a" {
		t.Fatalf("unexpected batches: %v", f.batches)
	}
}
