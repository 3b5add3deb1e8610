package events

import (
	"context"
	"sync"
	"time"
)

// Fake is an in-memory [Provider] for tests.
type Fake struct {
	mu     sync.Mutex
	seq    uint64
	Events []Event
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{}
}

// Record assigns Seq, fills Ts if zero and appends e.
func (f *Fake) Record(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	e.Seq = f.seq
	if e.Ts.IsZero() {
		e.Ts = time.Now()
	}
	f.Events = append(f.Events, e)
}

// List returns the recorded events matching filter.
func (f *Fake) List(filter Filter) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return filter.apply(f.Events), nil
}

// LatestSeq returns the last assigned sequence number.
func (f *Fake) LatestSeq() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq, nil
}

// Types returns the recorded event types in order.
func (f *Fake) Types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Events))
	for i, e := range f.Events {
		out[i] = e.Type
	}
	return out
}

// Watch polls the in-memory list.
func (f *Fake) Watch(ctx context.Context, afterSeq uint64) (Watcher, error) {
	return &pollWatcher{
		ctx:      ctx,
		afterSeq: afterSeq,
		poll:     5 * time.Millisecond,
		fetch: func(after uint64) ([]Event, error) {
			return f.List(Filter{AfterSeq: after})
		},
	}, nil
}
