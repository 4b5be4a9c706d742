// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package exchange

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics tracks submission outcomes and latency with OTEL meters.
// A nil *Metrics is a no-op, so wiring it stays optional.
type Metrics struct {
	// submissionCounter counts submissions by terminal state
	submissionCounter metric.Int64Counter

	// latencyHistogram tracks wall time per submission in milliseconds
	latencyHistogram metric.Float64Histogram
}

// NewMetrics creates a submission metrics tracker with OTEL meters.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("claimforge/exchange")

	submissionCounter, err := meter.Int64Counter(
		"claimforge.exchange.submissions",
		metric.WithDescription("Submissions by terminal state"),
	)
	if err != nil {
		return nil, err
	}

	latencyHistogram, err := meter.Float64Histogram(
		"claimforge.exchange.latency",
		metric.WithDescription("Submission wall time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		submissionCounter: submissionCounter,
		latencyHistogram:  latencyHistogram,
	}, nil
}

// RecordSubmission records one finished submission.
func (m *Metrics) RecordSubmission(ctx context.Context, state State, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("state", string(state)))
	m.submissionCounter.Add(ctx, 1, attrs)
	m.latencyHistogram.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}
