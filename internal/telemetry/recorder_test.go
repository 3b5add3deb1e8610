package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"

	otellog "go.opentelemetry.io/otel/log"
)

// freshInstruments makes the next recording register its instruments
// against the current (noop) global MeterProvider.
func freshInstruments(t *testing.T) {
	t.Helper()
	resetInstruments()
	t.Cleanup(resetInstruments)
}

func TestStatusStr(t *testing.T) {
	if got := statusStr(nil); got != "ok" {
		t.Errorf("statusStr(nil) = %q, want \"ok\"", got)
	}
	if got := statusStr(errors.New("boom")); got != "error" {
		t.Errorf("statusStr(err) = %q, want \"error\"", got)
	}
}

func TestTruncateOutput(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"abcde", 5, "abcde"},
		{"abcdefghij", 5, "abcde…"},
		{"", 10, ""},
		// "é" is two bytes; cutting at 2 would split it.
		{"aé", 2, "a…"},
	}
	for _, tt := range tests {
		if got := truncateOutput(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncateOutput(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestSeverity(t *testing.T) {
	if got := severity(nil); got != otellog.SeverityInfo {
		t.Errorf("severity(nil) = %v, want SeverityInfo", got)
	}
	if got := severity(errors.New("err")); got != otellog.SeverityError {
		t.Errorf("severity(err) = %v, want SeverityError", got)
	}
}

func TestErrKV(t *testing.T) {
	if kv := errKV(nil); kv.Value.AsString() != "" {
		t.Errorf("errKV(nil) value = %q, want empty", kv.Value.AsString())
	}
	if kv := errKV(errors.New("test error")); kv.Value.AsString() != "test error" {
		t.Errorf("errKV(err) value = %q, want %q", kv.Value.AsString(), "test error")
	}
}

// The Record functions must not panic against the no-op providers.
func TestRecordFunctionsNoop(t *testing.T) {
	freshInstruments(t)
	t.Setenv(EnvLogDeviceOutput, "true")
	ctx := context.Background()
	RecordDeviceCall(ctx, []string{"ls", "/"}, 12.5, nil, "  120 boot.py\n", "")
	RecordDeviceCall(ctx, nil, 1, errors.New("boom"), "", "mpremote: no device found")
	RecordConfirm(ctx, "file-delete", "/boot.py", "cancelled", true, true)
	RecordMutation(ctx, "wipe", ":/", "failed", "unknown")
	RecordNotification(ctx, "warning", "device-not-found", "no device")
}

// Re-binding the instruments while other goroutines record must be safe.
func TestResetWhileRecording(t *testing.T) {
	freshInstruments(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordMutation(ctx, "file-delete", "/a.txt", "done", "none")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				resetInstruments()
			}
		}()
	}
	wg.Wait()
	instMu.Lock()
	defer instMu.Unlock()
	if inst.mutationTotal == nil {
		t.Error("instruments never registered")
	}
}

func TestInitDisabledWithoutURL(t *testing.T) {
	t.Setenv(EnvMetricsURL, "")
	p, err := Init(context.Background(), "dev")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if p != nil {
		t.Fatalf("Init returned provider without %s", EnvMetricsURL)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown(nil) = %v", err)
	}
}
