// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zebrarx/claimforge/pkg/errors"
)

// GenerationMetrics tracks factory throughput and error rates.
type GenerationMetrics struct {
	// instanceCounter counts generated instances by schema
	instanceCounter metric.Int64Counter

	// durationHistogram tracks wall time per generation run
	durationHistogram metric.Float64Histogram

	// errorCounter counts errors by code and component
	errorCounter metric.Int64Counter
}

// NewGenerationMetrics creates a generation metrics tracker with OTEL meters.
func NewGenerationMetrics() (*GenerationMetrics, error) {
	meter := otel.Meter("claimforge/factory")

	instanceCounter, err := meter.Int64Counter(
		"claimforge.factory.instances",
		metric.WithDescription("Generated instances by schema"),
	)
	if err != nil {
		return nil, err
	}

	durationHistogram, err := meter.Float64Histogram(
		"claimforge.factory.duration",
		metric.WithDescription("Generation run wall time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"claimforge.errors",
		metric.WithDescription("Errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	return &GenerationMetrics{
		instanceCounter:   instanceCounter,
		durationHistogram: durationHistogram,
		errorCounter:      errorCounter,
	}, nil
}

// RecordGeneration records one finished generation run.
func (gm *GenerationMetrics) RecordGeneration(ctx context.Context, schemaName string, count int, elapsed time.Duration) {
	if gm == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("schema", schemaName))
	gm.instanceCounter.Add(ctx, int64(count), attrs)
	gm.durationHistogram.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}

// RecordError increments the error counter for the given error and component.
func (gm *GenerationMetrics) RecordError(ctx context.Context, err error, component string) {
	if gm == nil || err == nil {
		return
	}
	fe := errors.AsForgeError(err)
	gm.errorCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error.code", string(fe.Code)),
			attribute.String("component", component),
			attribute.String("recoverable", fe.RecoverableString()),
		),
	)
}
