package events_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/mpremote-tools/mpfs/internal/events"
	"github.com/mpremote-tools/mpfs/internal/events/eventstest"
)

func TestFileRecorderConformance(t *testing.T) {
	factory := func(t *testing.T) (events.Provider, func()) {
		t.Helper()
		var stderr bytes.Buffer
		rec, err := events.NewFileRecorder(filepath.Join(t.TempDir(), events.FileName), &stderr)
		if err != nil {
			t.Fatal(err)
		}
		return rec, func() { rec.Close() } //nolint:errcheck // test cleanup
	}
	eventstest.RunProviderTests(t, factory)
	eventstest.RunConcurrencyTests(t, factory)
}

func TestFakeConformance(t *testing.T) {
	factory := func(t *testing.T) (events.Provider, func()) {
		t.Helper()
		return events.NewFake(), func() {}
	}
	eventstest.RunProviderTests(t, factory)
	eventstest.RunConcurrencyTests(t, factory)
}
