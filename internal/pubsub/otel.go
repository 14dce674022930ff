package pubsub

import (
	"context"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracingConfig holds configuration for OpenTelemetry tracing of the bus.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	ZipkinURL   string
}

// DefaultTracingConfig returns a default tracing configuration. Tracing is
// disabled by default.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:     false,
		ServiceName: "parley",
		ZipkinURL:   "http://localhost:9411/api/v2/spans",
	}
}

// LoadTracingConfigFromEnv loads tracing configuration from environment variables.
func LoadTracingConfigFromEnv() TracingConfig {
	config := DefaultTracingConfig()

	if enabledStr := os.Getenv("PUBSUB_TRACING_ENABLED"); enabledStr != "" {
		if enabled, err := strconv.ParseBool(enabledStr); err == nil {
			config.Enabled = enabled
		}
	}
	if serviceName := os.Getenv("PUBSUB_TRACING_SERVICE_NAME"); serviceName != "" {
		config.ServiceName = serviceName
	}
	if zipkinURL := os.Getenv("PUBSUB_TRACING_ZIPKIN_URL"); zipkinURL != "" {
		config.ZipkinURL = zipkinURL
	}

	return config
}

// SetupOTel initializes OpenTelemetry with a Zipkin exporter for pub/sub
// observability. If config.Enabled is false, it returns a no-op tracer.
func SetupOTel(ctx context.Context, config TracingConfig) (trace.Tracer, func(), error) {
	if !config.Enabled {
		tracer := noop.NewTracerProvider().Tracer("parley-pubsub")
		return tracer, func() {}, nil
	}

	exporter, err := zipkin.New(config.ZipkinURL)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	cleanup := func() {
		_ = tp.Shutdown(ctx)
	}
	return tp.Tracer("parley-pubsub"), cleanup, nil
}

// TracingPublisher wraps a Publisher with a span per published message.
type TracingPublisher struct {
	publisher Publisher
	tracer    trace.Tracer
}

// NewTracingPublisher creates a publisher that records a span for every
// message it publishes.
func NewTracingPublisher(publisher Publisher, tracer trace.Tracer) *TracingPublisher {
	return &TracingPublisher{publisher: publisher, tracer: tracer}
}

// Publish records a span around the wrapped publisher's Publish.
func (p *TracingPublisher) Publish(ctx context.Context, msg Message) error {
	spanCtx, span := p.tracer.Start(ctx, "pubsub.publish."+msg.Topic,
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill"),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.String("user.id", msg.UserID),
			attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
		),
	)
	defer span.End()

	err := p.publisher.Publish(spanCtx, msg)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Close closes the underlying publisher.
func (p *TracingPublisher) Close() error {
	return p.publisher.Close()
}
