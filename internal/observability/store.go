package observability

import (
	"context"
	"time"

	"gatekeeper/internal/models"
	"gatekeeper/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedStore wraps a storage.Store implementation with OpenTelemetry
// tracing and metrics instrumentation.
type InstrumentedStore struct {
	inner    storage.Store
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

var _ storage.Store = (*InstrumentedStore)(nil)

// NewInstrumentedStore creates a store wrapper that records trace spans,
// operation latency histograms, and error counters for every store method
// call.
func NewInstrumentedStore(inner storage.Store) (*InstrumentedStore, error) {
	tracer := otel.Tracer("gatekeeper/storage")
	meter := otel.Meter("gatekeeper/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStore{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedStore) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "storage."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
		}, attrs...)...),
	)
	return ctx, span
}

func (s *InstrumentedStore) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	s.duration.Record(ctx, elapsed, attrs)

	if err != nil {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

func (s *InstrumentedStore) RecordDecision(ctx context.Context, rec *models.DecisionRecord) error {
	ctx, span := s.startSpan(ctx, "RecordDecision",
		attribute.Bool("decision.allowed", rec.Allowed))
	start := time.Now()
	err := s.inner.RecordDecision(ctx, rec)
	s.record(ctx, span, "RecordDecision", start, err)
	return err
}

func (s *InstrumentedStore) RecentDecisions(ctx context.Context, limit int) ([]*models.DecisionRecord, error) {
	ctx, span := s.startSpan(ctx, "RecentDecisions",
		attribute.Int("query.limit", limit))
	start := time.Now()
	result, err := s.inner.RecentDecisions(ctx, limit)
	s.record(ctx, span, "RecentDecisions", start, err)
	return result, err
}

func (s *InstrumentedStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, span := s.startSpan(ctx, "PurgeBefore")
	start := time.Now()
	removed, err := s.inner.PurgeBefore(ctx, cutoff)
	s.record(ctx, span, "PurgeBefore", start, err)
	return removed, err
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record(ctx, span, "Ping", start, err)
	return err
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
