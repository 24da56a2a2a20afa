package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	entitiesCreated metric.Int64Counter
	edgesLinked     metric.Int64Counter
	tracesServed    metric.Int64Counter
	auditsServed    metric.Int64Counter
}

// NewProvider configures and registers the meter provider. When metrics are
// disabled every instrument is a noop.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "settletrace"
	}
	meter := provider.Meter(name)

	entitiesCreated, err := meter.Int64Counter("settletrace_entities_created_total")
	if err != nil {
		return nil, err
	}
	edgesLinked, err := meter.Int64Counter("settletrace_edges_linked_total")
	if err != nil {
		return nil, err
	}
	tracesServed, err := meter.Int64Counter("settletrace_traces_total")
	if err != nil {
		return nil, err
	}
	auditsServed, err := meter.Int64Counter("settletrace_audits_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		entitiesCreated: entitiesCreated,
		edgesLinked:     edgesLinked,
		tracesServed:    tracesServed,
		auditsServed:    auditsServed,
	}, nil
}

// RecordEntityCreated increments creation counts per entity kind.
func (m *Metrics) RecordEntityCreated(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.entitiesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordEdgeLinked increments link counts per relation.
func (m *Metrics) RecordEdgeLinked(ctx context.Context, relation string) {
	if m == nil {
		return
	}
	m.edgesLinked.Add(ctx, 1, metric.WithAttributes(attribute.String("relation", relation)))
}

// RecordTrace increments traversal counts per direction.
func (m *Metrics) RecordTrace(ctx context.Context, direction string) {
	if m == nil {
		return
	}
	m.tracesServed.Add(ctx, 1, metric.WithAttributes(attribute.String("direction", direction)))
}

// RecordAudit increments audit query counts.
func (m *Metrics) RecordAudit(ctx context.Context) {
	if m == nil {
		return
	}
	m.auditsServed.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
