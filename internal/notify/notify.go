// Package notify carries user-facing messages out of the bridge.
//
// Components decide what to report and at which severity; presentation is
// up to the host. The CLI prints notifications to stderr via [Writer];
// tests capture them with [Recorder].
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mpremote-tools/mpfs/internal/classify"
	"github.com/mpremote-tools/mpfs/internal/telemetry"
)

// Severity ranks a notification.
type Severity int

const (
	// Info is a neutral status message.
	Info Severity = iota
	// Warning needs attention but nothing failed.
	Warning
	// Error means the requested operation did not happen.
	Error
)

// String returns "info", "warning" or "error".
func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "info"
}

// Notification is one message for the user.
type Notification struct {
	Severity Severity
	Kind     classify.Kind // classification that triggered it; None for plain status
	Message  string
}

// Reporter receives notifications. Implementations must be safe for
// concurrent use.
type Reporter interface {
	Report(n Notification)
}

// Discard drops every notification.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Notification) {}

// Writer prints notifications to w as "mpfs: <message>" lines.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer printing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Report prints n and records it in telemetry.
func (p *Writer) Report(n Notification) {
	telemetry.RecordNotification(context.Background(), n.Severity.String(), n.Kind.String(), n.Message)
	p.mu.Lock()
	defer p.mu.Unlock()
	prefix := "mpfs: "
	if n.Severity == Warning {
		prefix = "mpfs: warning: "
	}
	fmt.Fprintf(p.w, "%s%s\n", prefix, n.Message) //nolint:errcheck // best-effort stderr
}

// Dedup forwards to an inner Reporter but drops a notification identical to
// one already forwarded within the window, so one failure surfaces once
// even when several concurrent expansions hit it.
type Dedup struct {
	mu     sync.Mutex
	inner  Reporter
	window time.Duration
	now    func() time.Time
	seen   map[Notification]time.Time
}

// NewDedup wraps inner with a de-duplication window.
func NewDedup(inner Reporter, window time.Duration) *Dedup {
	return &Dedup{
		inner:  inner,
		window: window,
		now:    time.Now,
		seen:   make(map[Notification]time.Time),
	}
}

// Report forwards n unless it was forwarded within the window.
func (d *Dedup) Report(n Notification) {
	d.mu.Lock()
	now := d.now()
	if last, ok := d.seen[n]; ok && now.Sub(last) < d.window {
		d.mu.Unlock()
		return
	}
	d.seen[n] = now
	for k, t := range d.seen {
		if now.Sub(t) >= d.window {
			delete(d.seen, k)
		}
	}
	d.mu.Unlock()
	d.inner.Report(n)
}

// Recorder captures notifications for tests.
type Recorder struct {
	mu            sync.Mutex
	Notifications []Notification
}

// Report appends n.
func (r *Recorder) Report(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notifications = append(r.Notifications, n)
}

// Messages returns the recorded messages in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Notifications))
	for i, n := range r.Notifications {
		out[i] = n.Message
	}
	return out
}

// Len returns the number of recorded notifications.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Notifications)
}

// Failure builds the notification for a classified failure of action (for
// example "Error deleting /main.py"). text is the classified stderr or
// failure message; only its first line is shown.
func Failure(kind classify.Kind, action, text string) Notification {
	n := Notification{Severity: Error, Kind: kind}
	switch kind {
	case classify.DeviceNotFound:
		n.Message = "No device found, or another process is using the device."
	case classify.NotConnected:
		n.Message = "No device connected."
	case classify.PathNotFound:
		n.Message = action + ": no such file or directory"
	default:
		if line := classify.FirstLine(text); line != "" {
			n.Message = action + ": " + line
		} else {
			n.Message = action + ": unknown error"
		}
	}
	return n
}
