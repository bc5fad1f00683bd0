package history

import (
	"context"
	"sync"

	"github.com/wonny/etfbalancer/internal/contracts"
)

// feedBuffer is the per-subscriber backlog before summaries are dropped
const feedBuffer = 16

// Feed wraps a RunRecorder and publishes a summary of every recorded run.
// Slow subscribers miss summaries instead of blocking Record.
type Feed struct {
	contracts.RunRecorder

	mu   sync.RWMutex
	subs map[chan contracts.RunSummary]struct{}
}

// NewFeed wraps recorder
func NewFeed(recorder contracts.RunRecorder) *Feed {
	return &Feed{
		RunRecorder: recorder,
		subs:        make(map[chan contracts.RunSummary]struct{}),
	}
}

// Record stores the run, then publishes its summary
func (f *Feed) Record(ctx context.Context, run *contracts.Run) error {
	if err := f.RunRecorder.Record(ctx, run); err != nil {
		return err
	}
	f.publish(run.Summary())
	return nil
}

// Subscribe registers a new listener. Callers must Unsubscribe.
func (f *Feed) Subscribe() <-chan contracts.RunSummary {
	ch := make(chan contracts.RunSummary, feedBuffer)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	return ch
}

// Unsubscribe removes the listener and closes its channel
func (f *Feed) Unsubscribe(sub <-chan contracts.RunSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs {
		if ch == sub {
			delete(f.subs, ch)
			close(ch)
			return
		}
	}
}

// Subscribers returns the current listener count
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Close closes every subscriber channel and the wrapped recorder
func (f *Feed) Close() error {
	f.mu.Lock()
	for ch := range f.subs {
		delete(f.subs, ch)
		close(ch)
	}
	f.mu.Unlock()

	return f.RunRecorder.Close()
}

func (f *Feed) publish(s contracts.RunSummary) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
