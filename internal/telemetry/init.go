package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Environment variables that switch telemetry export on.
const (
	EnvMetricsURL = "MPFS_OTEL_METRICS_URL"
	EnvLogsURL    = "MPFS_OTEL_LOGS_URL"
)

// Provider owns the SDK providers installed by [Init].
type Provider struct {
	meter  *sdkmetric.MeterProvider
	logger *sdklog.LoggerProvider
}

// Init installs OTLP/HTTP metric and log exporters as the global providers
// when MPFS_OTEL_METRICS_URL (and optionally MPFS_OTEL_LOGS_URL) are set.
// Returns (nil, nil) when telemetry is not configured; the global no-op
// providers then stay in place.
func Init(ctx context.Context, version string) (*Provider, error) {
	metricsURL := os.Getenv(EnvMetricsURL)
	if metricsURL == "" {
		return nil, nil
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", "mpfs"),
		attribute.String("service.version", version),
	)

	mexp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(metricsURL))
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	p := &Provider{
		meter: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(mexp,
				sdkmetric.WithInterval(15*time.Second))),
		),
	}
	otel.SetMeterProvider(p.meter)

	if logsURL := os.Getenv(EnvLogsURL); logsURL != "" {
		lexp, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(logsURL))
		if err != nil {
			_ = p.meter.Shutdown(ctx)
			return nil, fmt.Errorf("creating log exporter: %w", err)
		}
		p.logger = sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(lexp)),
		)
		global.SetLoggerProvider(p.logger)
	}

	// Instruments may have been bound to the no-op provider already.
	resetInstruments()
	return p, nil
}

// Shutdown flushes and stops the installed providers. Safe on nil.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.logger != nil {
		errs = append(errs, p.logger.Shutdown(ctx))
	}
	errs = append(errs, p.meter.Shutdown(ctx))
	return errors.Join(errs...)
}
