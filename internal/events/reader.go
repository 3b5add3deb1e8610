package events

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Filter selects events. Zero fields match everything.
type Filter struct {
	Type     string
	Subject  string
	Since    time.Time
	AfterSeq uint64
	Limit    int // keep only the last Limit matches
}

func (f Filter) match(e Event) bool {
	switch {
	case f.AfterSeq > 0 && e.Seq <= f.AfterSeq:
		return false
	case f.Type != "" && e.Type != f.Type:
		return false
	case f.Subject != "" && e.Subject != f.Subject:
		return false
	case !f.Since.IsZero() && e.Ts.Before(f.Since):
		return false
	}
	return true
}

func (f Filter) apply(all []Event) []Event {
	var out []Event
	for _, e := range all {
		if f.match(e) {
			out = append(out, e)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return f, nil
}

// ReadAll returns every event in the file at path. A missing file has none.
func ReadAll(path string) ([]Event, error) {
	f, err := open(path)
	if f == nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	var out []Event
	err = scanLines(f, func(e Event, _ int) {
		if e.Seq != 0 {
			out = append(out, e)
		}
	})
	if err != nil {
		return out, fmt.Errorf("scanning events: %w", err)
	}
	return out, nil
}

// ReadFiltered returns the events at path that match filter.
func ReadFiltered(path string, filter Filter) ([]Event, error) {
	all, err := ReadAll(path)
	if err != nil {
		return nil, err
	}
	return filter.apply(all), nil
}

// ReadLatestSeq returns the highest Seq at path, or 0.
func ReadLatestSeq(path string) (uint64, error) {
	all, err := ReadAll(path)
	var maxSeq uint64
	for _, e := range all {
		if e.Seq > maxSeq {
			maxSeq = e.Seq
		}
	}
	if err != nil {
		return maxSeq, fmt.Errorf("reading latest seq: %w", err)
	}
	return maxSeq, nil
}

// ReadFrom returns the events after byte offset and the offset just past
// the last line read.
func ReadFrom(path string, offset int64) ([]Event, int64, error) {
	f, err := open(path)
	if f == nil {
		return nil, offset, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seeking events: %w", err)
	}
	var out []Event
	err = scanLines(f, func(e Event, n int) {
		offset += int64(n)
		if e.Seq != 0 {
			out = append(out, e)
		}
	})
	if err != nil {
		return out, offset, fmt.Errorf("scanning events: %w", err)
	}
	return out, offset, nil
}
