// Package eventstest is a conformance suite for events.Provider
// implementations. Each implementation's test calls RunProviderTests with
// a factory returning a fresh, empty provider.
package eventstest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mpremote-tools/mpfs/internal/events"
)

// Factory returns an empty provider and its cleanup.
type Factory func(t *testing.T) (events.Provider, func())

// RunProviderTests checks recording, filtering and sequencing.
func RunProviderTests(t *testing.T, newProvider Factory) {
	t.Helper()

	t.Run("RecordAndList", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		p.Record(events.Event{
			Type:    events.FileDeleted,
			Actor:   "cli",
			Subject: "/data.txt",
			Status:  events.StatusDone,
		})
		got, err := p.List(events.Filter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("List returned %d events, want 1", len(got))
		}
		e := got[0]
		if e.Type != events.FileDeleted || e.Actor != "cli" || e.Subject != "/data.txt" || e.Status != events.StatusDone {
			t.Errorf("event = %+v", e)
		}
		if e.Seq == 0 || e.Ts.IsZero() {
			t.Errorf("Seq/Ts not filled: %+v", e)
		}
	})

	t.Run("ExplicitTimestampKept", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		p.Record(events.Event{Type: events.Wiped, Actor: "cli", Ts: ts})
		got, err := p.List(events.Filter{})
		if err != nil || len(got) != 1 {
			t.Fatalf("List = %v, %v", got, err)
		}
		if !got[0].Ts.Equal(ts) {
			t.Errorf("Ts = %v, want %v", got[0].Ts, ts)
		}
	})

	t.Run("Filters", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		old := time.Now().Add(-time.Hour)
		p.Record(events.Event{Type: events.EntryUploaded, Actor: "cli", Subject: "main.py", Ts: old})
		p.Record(events.Event{Type: events.EntryUploaded, Actor: "cli", Subject: "lib"})
		p.Record(events.Event{Type: events.SyncCompleted, Actor: "cli"})
		p.Record(events.Event{Type: events.FolderDeleted, Actor: "cli", Subject: "/lib"})

		count := func(f events.Filter) int {
			t.Helper()
			got, err := p.List(f)
			if err != nil {
				t.Fatalf("List(%+v): %v", f, err)
			}
			return len(got)
		}
		if n := count(events.Filter{Type: events.EntryUploaded}); n != 2 {
			t.Errorf("by type = %d, want 2", n)
		}
		if n := count(events.Filter{Subject: "/lib"}); n != 1 {
			t.Errorf("by subject = %d, want 1", n)
		}
		if n := count(events.Filter{Since: time.Now().Add(-time.Minute)}); n != 3 {
			t.Errorf("since = %d, want 3", n)
		}
		if n := count(events.Filter{AfterSeq: 2}); n != 2 {
			t.Errorf("after seq = %d, want 2", n)
		}
		if n := count(events.Filter{Type: events.EntryUploaded, AfterSeq: 1}); n != 1 {
			t.Errorf("combined = %d, want 1", n)
		}
		last, err := p.List(events.Filter{Limit: 1})
		if err != nil || len(last) != 1 || last[0].Type != events.FolderDeleted {
			t.Errorf("limit = %+v, %v", last, err)
		}
		if n := count(events.Filter{Type: "nope"}); n != 0 {
			t.Errorf("no match = %d", n)
		}
	})

	t.Run("LatestSeq", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		if seq, err := p.LatestSeq(); err != nil || seq != 0 {
			t.Fatalf("empty LatestSeq = %d, %v", seq, err)
		}
		var prev uint64
		for i := 0; i < 3; i++ {
			p.Record(events.Event{Type: events.SoftReset, Actor: "cli"})
			seq, err := p.LatestSeq()
			if err != nil {
				t.Fatal(err)
			}
			if seq <= prev {
				t.Errorf("LatestSeq %d not above %d", seq, prev)
			}
			prev = seq
		}
	})

	t.Run("Watch", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		p.Record(events.Event{Type: events.HardReset, Actor: "cli"})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		w, err := p.Watch(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		defer w.Close() //nolint:errcheck // test cleanup

		go p.Record(events.Event{Type: events.PackageInstalled, Actor: "cli", Subject: "umqtt.simple"})
		e, err := w.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if e.Type != events.PackageInstalled || e.Seq != 2 {
			t.Errorf("Next = %+v", e)
		}

		short, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer stop()
		w2, _ := p.Watch(short, 2)
		if _, err := w2.Next(); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("idle Next err = %v, want deadline", err)
		}
	})
}

// RunConcurrencyTests checks that concurrent Record calls lose nothing and
// assign distinct sequence numbers.
func RunConcurrencyTests(t *testing.T, newProvider Factory) {
	t.Helper()
	t.Run("ConcurrentRecord", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		const n = 50
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.Record(events.Event{Type: events.EntryUploaded, Actor: "cli"})
			}()
		}
		wg.Wait()
		got, err := p.List(events.Filter{})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != n {
			t.Fatalf("got %d events, want %d", len(got), n)
		}
		seen := make(map[uint64]bool)
		for _, e := range got {
			if seen[e.Seq] {
				t.Errorf("duplicate Seq %d", e.Seq)
			}
			seen[e.Seq] = true
		}
	})
}
