// Package telemetry installs the OpenTelemetry providers the translation helpers report to.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklogs "go.opentelemetry.io/otel/sdk/log"
	sdkmetrics "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/pitabwire/translationtools/config"
)

type Manager interface {
	Init(ctx context.Context) error
	Disabled() bool
	// LogHandler forwards records to the logs exporter, nil until Init ran.
	LogHandler() slog.Handler
	Shutdown(ctx context.Context) error
}

type Option func(m *manager)

// WithDisableTracing leaves the global providers untouched.
func WithDisableTracing() Option {
	return func(m *manager) {
		m.disabled = true
	}
}

// WithServiceName sets the service name resources are tagged with.
func WithServiceName(name string) Option {
	return func(m *manager) {
		m.serviceName = name
	}
}

func WithPropagationTextMap(carrier propagation.TextMapPropagator) Option {
	return func(m *manager) {
		m.textMap = carrier
	}
}

func WithTraceExporter(exporter sdktrace.SpanExporter) Option {
	return func(m *manager) {
		m.traceExporter = exporter
	}
}

func WithTraceSampler(sampler sdktrace.Sampler) Option {
	return func(m *manager) {
		m.traceSampler = sampler
	}
}

func WithMetricsReader(reader sdkmetrics.Reader) Option {
	return func(m *manager) {
		m.metricsReader = reader
	}
}

func WithLogsExporter(exporter sdklogs.Exporter) Option {
	return func(m *manager) {
		m.logsExporter = exporter
	}
}

type manager struct {
	serviceName string
	cfg         config.ConfigurationTelemetry
	disabled    bool

	textMap       propagation.TextMapPropagator
	traceExporter sdktrace.SpanExporter
	traceSampler  sdktrace.Sampler
	metricsReader sdkmetrics.Reader
	logsExporter  sdklogs.Exporter

	logHandler slog.Handler
	shutdown   []func(ctx context.Context) error
}

// NewManager creates a telemetry manager, cfg may be nil.
func NewManager(cfg config.ConfigurationTelemetry, opts ...Option) Manager {
	m := &manager{cfg: cfg}
	if cfg != nil && cfg.DisableOpenTelemetry() {
		m.disabled = true
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *manager) Disabled() bool {
	return m.disabled
}

func (m *manager) LogHandler() slog.Handler {
	return m.logHandler
}

func (m *manager) Init(ctx context.Context) error {
	if m.Disabled() {
		return nil
	}

	// Schemaless attributes take the schema of the sdk default resource.
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(m.serviceName),
		semconv.ProcessPID(os.Getpid()),
		semconv.ProcessRuntimeName("go"),
		semconv.ProcessRuntimeVersion(runtime.Version()),
	))
	if err != nil {
		return err
	}

	if m.textMap == nil {
		m.textMap = autoprop.NewTextMapPropagator()
	}

	if m.traceSampler == nil {
		ratio := 1.0
		if m.cfg != nil {
			ratio = m.cfg.SamplingRatio()
		}
		m.traceSampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}

	if m.traceExporter == nil {
		defaultExporter("OTEL_TRACES_EXPORTER")
		if m.traceExporter, err = autoexport.NewSpanExporter(ctx); err != nil {
			return err
		}
	}

	if m.metricsReader == nil {
		defaultExporter("OTEL_METRICS_EXPORTER")
		if m.metricsReader, err = autoexport.NewMetricReader(ctx); err != nil {
			return err
		}
	}

	if m.logsExporter == nil {
		defaultExporter("OTEL_LOGS_EXPORTER")
		if m.logsExporter, err = autoexport.NewLogExporter(ctx); err != nil {
			return err
		}
	}

	m.setupProviders(res)
	return nil
}

// defaultExporter selects no exporter unless the environment names one.
func defaultExporter(key string) {
	if os.Getenv(key) == "" {
		_ = os.Setenv(key, "none")
	}
}

func (m *manager) setupProviders(res *resource.Resource) {
	otel.SetTextMapPropagator(m.textMap)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(m.traceSampler),
		sdktrace.WithBatcher(m.traceExporter),
		sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)

	mp := sdkmetrics.NewMeterProvider(
		sdkmetrics.WithReader(m.metricsReader),
		sdkmetrics.WithResource(res))
	otel.SetMeterProvider(mp)

	lp := sdklogs.NewLoggerProvider(
		sdklogs.WithResource(res),
		sdklogs.WithProcessor(sdklogs.NewBatchProcessor(m.logsExporter)))
	global.SetLoggerProvider(lp)

	m.logHandler = otelslog.NewHandler(m.serviceName,
		otelslog.WithSource(true),
		otelslog.WithLoggerProvider(lp),
		otelslog.WithAttributes(attribute.String("service.name", m.serviceName)))

	m.shutdown = []func(ctx context.Context) error{tp.Shutdown, mp.Shutdown, lp.Shutdown}
}

// Shutdown flushes and stops the providers installed by Init.
func (m *manager) Shutdown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range m.shutdown {
		errs = append(errs, shutdown(ctx))
	}
	m.shutdown = nil
	return errors.Join(errs...)
}
