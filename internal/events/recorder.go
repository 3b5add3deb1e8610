package events

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileName is the event log inside the state directory.
const FileName = "events.jsonl"

// FileRecorder appends events to a JSONL file opened with O_APPEND, so
// several mpfs processes can share one log.
type FileRecorder struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	seq    uint64
	stderr io.Writer
}

// NewFileRecorder opens or creates the log at path and continues numbering
// after the highest Seq already in it.
func NewFileRecorder(path string, stderr io.Writer) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	maxSeq, err := ReadLatestSeq(path)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &FileRecorder{path: path, file: file, seq: maxSeq, stderr: stderr}, nil
}

// Record appends e, filling Seq and a zero Ts.
func (r *FileRecorder) Record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e.Seq = r.seq
	if e.Ts.IsZero() {
		e.Ts = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		fmt.Fprintf(r.stderr, "events: marshal: %v\n", err) //nolint:errcheck // best-effort stderr
		return
	}
	if _, err := r.file.Write(append(data, '\n')); err != nil {
		fmt.Fprintf(r.stderr, "events: write: %v\n", err) //nolint:errcheck // best-effort stderr
	}
}

// Path returns the log file.
func (r *FileRecorder) Path() string { return r.path }

// List reads matching events back from the file.
func (r *FileRecorder) List(filter Filter) ([]Event, error) {
	return ReadFiltered(r.path, filter)
}

// LatestSeq returns the highest Seq in the file.
func (r *FileRecorder) LatestSeq() (uint64, error) {
	return ReadLatestSeq(r.path)
}

// Watch tails the file from its start, yielding events after afterSeq.
func (r *FileRecorder) Watch(ctx context.Context, afterSeq uint64) (Watcher, error) {
	var offset int64
	return &pollWatcher{
		ctx:      ctx,
		afterSeq: afterSeq,
		poll:     250 * time.Millisecond,
		fetch: func(uint64) ([]Event, error) {
			evts, next, err := ReadFrom(r.path, offset)
			offset = next
			return evts, err
		},
	}, nil
}

// Close closes the file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

// pollWatcher calls fetch until it yields something newer than afterSeq.
type pollWatcher struct {
	ctx      context.Context
	afterSeq uint64
	poll     time.Duration
	fetch    func(afterSeq uint64) ([]Event, error)
	buf      []Event
}

func (w *pollWatcher) Next() (Event, error) {
	for {
		if len(w.buf) > 0 {
			e := w.buf[0]
			w.buf = w.buf[1:]
			return e, nil
		}
		if err := w.ctx.Err(); err != nil {
			return Event{}, err
		}
		evts, err := w.fetch(w.afterSeq)
		if err != nil {
			return Event{}, err
		}
		for _, e := range evts {
			if e.Seq > w.afterSeq {
				w.afterSeq = e.Seq
				w.buf = append(w.buf, e)
			}
		}
		if len(w.buf) > 0 {
			continue
		}
		select {
		case <-w.ctx.Done():
			return Event{}, w.ctx.Err()
		case <-time.After(w.poll):
		}
	}
}

func (w *pollWatcher) Close() error { return nil }

// scanLines calls fn for each well-formed event line in f. Partial or
// malformed lines are skipped.
func scanLines(f io.Reader, fn func(e Event, n int)) error {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		var e Event
		if json.Unmarshal(line, &e) != nil {
			fn(Event{}, len(line)+1)
			continue
		}
		fn(e, len(line)+1)
	}
	return sc.Err()
}
