package notify

import (
	"bytes"
	"testing"
	"time"

	"github.com/mpremote-tools/mpfs/internal/classify"
)

func TestWriterFormats(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Report(Notification{Severity: Error, Kind: classify.OperationError, Message: "Error deleting /x: Error: EACCES"})
	w.Report(Notification{Severity: Warning, Message: "device busy"})
	want := "mpfs: Error deleting /x: Error: EACCES\nmpfs: warning: device busy\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestDedupWindow(t *testing.T) {
	rec := &Recorder{}
	d := NewDedup(rec, time.Second)
	now := time.Unix(1000, 0)
	d.now = func() time.Time { return now }

	n := Notification{Severity: Error, Kind: classify.DeviceNotFound, Message: "no device"}
	d.Report(n)
	d.Report(n)
	d.Report(Notification{Severity: Error, Message: "other"})
	if rec.Len() != 2 {
		t.Fatalf("forwarded %d, want 2: %v", rec.Len(), rec.Messages())
	}

	now = now.Add(2 * time.Second)
	d.Report(n)
	if rec.Len() != 3 {
		t.Errorf("after window forwarded %d, want 3", rec.Len())
	}
}

func TestSeverityString(t *testing.T) {
	for s, want := range map[Severity]string{Info: "info", Warning: "warning", Error: "error"} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}

func TestDiscard(t *testing.T) {
	Discard.Report(Notification{Message: "dropped"})
}

func TestFailureMessages(t *testing.T) {
	tests := []struct {
		kind classify.Kind
		text string
		want string
	}{
		{classify.DeviceNotFound, "mpremote: no device found", "No device found, or another process is using the device."},
		{classify.NotConnected, "mpremote: no device connected", "No device connected."},
		{classify.PathNotFound, "x: No such file or directory", "Error deleting /x: no such file or directory"},
		{classify.OperationError, "\nError: EACCES\nTraceback", "Error deleting /x: Error: EACCES"},
		{classify.Unknown, "", "Error deleting /x: unknown error"},
	}
	for _, tt := range tests {
		n := Failure(tt.kind, "Error deleting /x", tt.text)
		if n.Message != tt.want {
			t.Errorf("Failure(%v).Message = %q, want %q", tt.kind, n.Message, tt.want)
		}
		if n.Severity != Error || n.Kind != tt.kind {
			t.Errorf("Failure(%v) = %+v", tt.kind, n)
		}
	}
}
