package observability

import (
	"context"
	"time"

	"gatekeeper/internal/admission"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentedGate wraps an admission.Gate and records a counter per decision
// (partitioned by outcome and deny reason) plus the tokens remaining after
// each call. The inner gate's semantics are untouched.
type InstrumentedGate struct {
	inner     admission.Gate
	decisions metric.Int64Counter
	tokens    metric.Int64Histogram
}

var _ admission.Gate = (*InstrumentedGate)(nil)

// NewInstrumentedGate creates a gate wrapper that records admission metrics.
func NewInstrumentedGate(inner admission.Gate) (*InstrumentedGate, error) {
	meter := otel.Meter("gatekeeper/admission")

	decisions, err := meter.Int64Counter(
		"admission.decisions",
		metric.WithDescription("Number of admission decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	tokens, err := meter.Int64Histogram(
		"admission.tokens_remaining",
		metric.WithDescription("Global tokens remaining after each decision"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedGate{
		inner:     inner,
		decisions: decisions,
		tokens:    tokens,
	}, nil
}

// Decide delegates to the inner gate and records the outcome.
func (g *InstrumentedGate) Decide(clientID string, now time.Time) admission.Decision {
	d := g.inner.Decide(clientID, now)

	outcome := "denied"
	if d.Allowed {
		outcome = "allowed"
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("reason", d.Reason),
	)

	ctx := context.Background()
	g.decisions.Add(ctx, 1, attrs)
	g.tokens.Record(ctx, int64(d.TokensRemaining))

	return d
}

// Maintenance delegates to the inner gate.
func (g *InstrumentedGate) Maintenance(now time.Time) {
	g.inner.Maintenance(now)
}
