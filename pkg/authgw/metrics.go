package authgw

import (
	"context"

	"go.od2.network/bearergw/pkg/oauth2err"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Request outcomes.
const (
	OutcomeAdmitted = "admitted"
	OutcomeRejected = "rejected"
	OutcomeAborted  = "aborted"
)

// Metrics counts authorization outcomes.
type Metrics struct {
	requests metric.Int64Counter
}

// NewMetrics registers the authorization instruments on a meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requests, err := meter.NewInt64Counter("bearergw_requests",
		metric.WithDescription("Authorization outcomes by error kind"))
	if err != nil {
		return nil, err
	}
	return &Metrics{requests: requests}, nil
}

func (m *Metrics) observe(ctx context.Context, outcome string, kind oauth2err.Kind) {
	if m == nil {
		return
	}
	m.requests.Add(ctx, 1,
		attribute.String("outcome", outcome),
		attribute.String("kind", string(kind)))
}
