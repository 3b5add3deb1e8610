// Package telemetry records mpfs activity as OpenTelemetry metrics and log
// events. Each Record function increments a counter (and, for device calls,
// a latency histogram) and emits one log record. When [Init] has not
// installed real providers the global no-op providers absorb everything.
package telemetry

import (
	"context"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterRecorderName = "github.com/mpremote-tools/mpfs"
	loggerName        = "mpfs"
)

// EnvLogDeviceOutput opts in to attaching raw tool stdout/stderr to
// device call log records. File contents read with cat pass through here.
const EnvLogDeviceOutput = "MPFS_LOG_DEVICE_OUTPUT"

// recorderInstruments holds all lazy-initialized OTel metric instruments.
type recorderInstruments struct {
	deviceCallTotal   metric.Int64Counter
	confirmTotal      metric.Int64Counter
	mutationTotal     metric.Int64Counter
	notifyTotal       metric.Int64Counter
	deviceCallLatency metric.Float64Histogram
}

var (
	instMu    sync.Mutex
	instReady bool
	inst      recorderInstruments
)

// instruments returns the metric instruments, registering them against the
// current global MeterProvider on first use so that [Init] can run first.
func instruments() recorderInstruments {
	instMu.Lock()
	defer instMu.Unlock()
	if instReady {
		return inst
	}
	m := otel.GetMeterProvider().Meter(meterRecorderName)

	inst.deviceCallTotal, _ = m.Int64Counter("mpfs.device.calls.total",
		metric.WithDescription("Total device tool invocations"),
	)
	inst.confirmTotal, _ = m.Int64Counter("mpfs.confirm.decisions.total",
		metric.WithDescription("Total destructive-operation confirmation decisions"),
	)
	inst.mutationTotal, _ = m.Int64Counter("mpfs.mutations.total",
		metric.WithDescription("Total device mutations (delete, wipe, upload, control)"),
	)
	inst.notifyTotal, _ = m.Int64Counter("mpfs.notifications.total",
		metric.WithDescription("Total user-facing notifications"),
	)
	inst.deviceCallLatency, _ = m.Float64Histogram("mpfs.device.duration_ms",
		metric.WithDescription("Device tool round-trip latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	instReady = true
	return inst
}

// resetInstruments drops the registered instruments so the next recording
// binds to the MeterProvider installed since.
func resetInstruments() {
	instMu.Lock()
	defer instMu.Unlock()
	instReady = false
}

// statusStr returns "ok" or "error" depending on whether err is nil.
func statusStr(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// emit sends an OTel log event with the given body and key-value attributes.
func emit(ctx context.Context, body string, sev otellog.Severity, attrs ...otellog.KeyValue) {
	logger := global.GetLoggerProvider().Logger(loggerName)
	var r otellog.Record
	r.SetBody(otellog.StringValue(body))
	r.SetSeverity(sev)
	r.AddAttributes(attrs...)
	logger.Emit(ctx, r)
}

// errKV returns a log KeyValue with the error message, or empty string if nil.
func errKV(err error) otellog.KeyValue {
	if err != nil {
		return otellog.String("error", err.Error())
	}
	return otellog.String("error", "")
}

// severity returns SeverityInfo on success, SeverityError on failure.
func severity(err error) otellog.Severity {
	if err != nil {
		return otellog.SeverityError
	}
	return otellog.SeverityInfo
}

const (
	maxStdoutLog = 2048
	maxStderrLog = 1024
)

// truncateOutput trims s to limit bytes and appends "…" when truncated,
// without splitting a multi-byte rune.
func truncateOutput(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	truncated := s[:limit]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "…"
}

// RecordDeviceCall records one device tool invocation. args[0] is the tool
// subcommand (ls, cat, rm, cp, ...). stdout and stderr are attached only when
// MPFS_LOG_DEVICE_OUTPUT=true.
func RecordDeviceCall(ctx context.Context, args []string, durationMs float64, err error, stdout, stderr string) {
	in := instruments()
	subcommand := ""
	if len(args) > 0 {
		subcommand = args[0]
	}
	status := statusStr(err)
	attrs := metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("subcommand", subcommand),
	)
	in.deviceCallTotal.Add(ctx, 1, attrs)
	in.deviceCallLatency.Record(ctx, durationMs, attrs)
	kvs := []otellog.KeyValue{
		otellog.String("subcommand", subcommand),
		otellog.String("args", strings.Join(args, " ")),
		otellog.Float64("duration_ms", durationMs),
		otellog.String("status", status),
		errKV(err),
	}
	if os.Getenv(EnvLogDeviceOutput) == "true" {
		kvs = append(kvs,
			otellog.String("stdout", truncateOutput(stdout, maxStdoutLog)),
			otellog.String("stderr", truncateOutput(stderr, maxStderrLog)),
		)
	}
	emit(ctx, "device.call", severity(err), kvs...)
}

// RecordConfirm records the terminal state of one confirmation request.
func RecordConfirm(ctx context.Context, op, path, outcome string, critical, prompted bool) {
	in := instruments()
	in.confirmTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("outcome", outcome),
			attribute.Bool("critical", critical),
		),
	)
	emit(ctx, "confirm.decision", otellog.SeverityInfo,
		otellog.String("op", op),
		otellog.String("path", path),
		otellog.String("outcome", outcome),
		otellog.Bool("critical", critical),
		otellog.Bool("prompted", prompted),
	)
}

// RecordMutation records the result of a device mutation. kind is the
// classification of the tool output ("none" on clean success).
func RecordMutation(ctx context.Context, op, target, status, kind string) {
	in := instruments()
	in.mutationTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", status),
			attribute.String("kind", kind),
		),
	)
	sev := otellog.SeverityInfo
	if status == "failed" {
		sev = otellog.SeverityError
	}
	emit(ctx, "device.mutation", sev,
		otellog.String("op", op),
		otellog.String("target", target),
		otellog.String("status", status),
		otellog.String("kind", kind),
	)
}

// RecordNotification records a notification shown to the user.
func RecordNotification(ctx context.Context, severityName, kind, message string) {
	in := instruments()
	in.notifyTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("severity", severityName),
			attribute.String("kind", kind),
		),
	)
	sev := otellog.SeverityInfo
	switch severityName {
	case "warning":
		sev = otellog.SeverityWarn
	case "error":
		sev = otellog.SeverityError
	}
	emit(ctx, "notify", sev,
		otellog.String("kind", kind),
		otellog.String("message", truncateOutput(message, maxStderrLog)),
	)
}
