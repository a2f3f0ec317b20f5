// Package telemetry sets up OpenTelemetry tracing and wraps span handling
// for the consultation pipeline.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const tracerName = "github.com/sweetpotato0/ai-lawdesk"

// Exporter names.
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

const shutdownTimeout = 5 * time.Second

// Config selects where spans go.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Disable        bool
	// Exporter is "otlp" or "stdout". Empty picks otlp when an endpoint is
	// known and stdout otherwise.
	Exporter string
	// Endpoint of the OTLP collector; OTEL_EXPORTER_OTLP_ENDPOINT when empty.
	Endpoint string
	// SampleRatio of root traces kept, in (0, 1]. Zero keeps all.
	SampleRatio float64
	Logger      *slog.Logger
}

// Init installs a global tracer provider and returns its shutdown. A
// disabled config installs nothing and Start yields no-op spans.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if cfg.Disable {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ai-lawdesk"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.WithComponent("telemetry")
	}

	exp, err := exporter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	res, err := serviceResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("flushing spans failed", "error", err)
			return fmt.Errorf("telemetry: shutdown: %w", err)
		}
		return nil
	}, nil
}

func exporter(ctx context.Context, cfg Config, logger *slog.Logger) (sdktrace.SpanExporter, error) {
	kind := cfg.Exporter
	if kind == "" {
		kind = ExporterStdout
		if cfg.Endpoint != "" {
			kind = ExporterOTLP
		}
	}

	switch kind {
	case ExporterStdout:
		logger.Debug("tracing to stderr")
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	case ExporterOTLP:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("telemetry: otlp exporter needs an endpoint")
		}
		dialCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		exp, err := otlptracegrpc.New(dialCtx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
		if err != nil {
			return nil, fmt.Errorf("telemetry: otlp exporter for %s: %w", cfg.Endpoint, err)
		}
		logger.Info("tracing to collector", "endpoint", cfg.Endpoint)
		return exp, nil
	default:
		return nil, fmt.Errorf("telemetry: unknown exporter %q", kind)
	}
}

func serviceResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(cfg.ServiceName)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentKey.String(cfg.Environment))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...), resource.WithFromEnv(), resource.WithProcess())
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}
	return res, nil
}

// sampler keeps ratio of new traces and follows the parent otherwise.
func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// Start opens a span on the global tracer provider.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err, if any, and ends span. A nil span is ignored.
func End(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
