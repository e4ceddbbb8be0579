// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"time"

	"github.com/jcodagnone/projectmap/spatial"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Outcome labels of the projectmap_geocoding_requests_total counter.
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeQuota     = "quota_exceeded"
	OutcomeRejected  = "rejected"
	OutcomeTimeout   = "timeout"
	OutcomeTransport = "transport_error"
)

// Instrumented decorates a Geocoder with logging and Prometheus metrics.
type Instrumented struct {
	next     Geocoder
	logger   *zap.Logger
	requests *prometheus.CounterVec
	latency  prometheus.Histogram
}

// NewInstrumented wraps next. Collectors are registered with reg unless it is
// nil.
func NewInstrumented(next Geocoder, logger *zap.Logger, reg prometheus.Registerer) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}

	factory := promauto.With(reg)

	return &Instrumented{
		next:   next,
		logger: logger,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "projectmap_geocoding_requests_total",
				Help: "Total number of geocoding requests by outcome",
			},
			[]string{"outcome"},
		),
		latency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "projectmap_geocoding_request_duration_seconds",
				Help:    "Geocoding request latency",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// Resolve implements Geocoder.
func (g *Instrumented) Resolve(ctx context.Context, address string) (spatial.Point, error) {
	start := time.Now()
	p, err := g.next.Resolve(ctx, address)
	elapsed := time.Since(start)

	g.latency.Observe(elapsed.Seconds())

	outcome := classify(err)
	g.requests.WithLabelValues(outcome).Inc()

	fields := []zap.Field{
		zap.String("address", address),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
	}

	switch outcome {
	case OutcomeOK:
		g.logger.Debug("address resolved", append(fields, zap.Float64("lat", p.Lat), zap.Float64("lng", p.Lng))...)
	case OutcomeTimeout, OutcomeTransport:
		g.logger.Error("geocoding failed", append(fields, zap.Error(err))...)
	default:
		g.logger.Info("address not resolved", append(fields, zap.Error(err))...)
	}

	return p, err
}

func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case IsNotFoundError(err):
		return OutcomeNotFound
	case IsQuotaExceededError(err):
		return OutcomeQuota
	case IsResolutionError(err):
		return OutcomeRejected
	case IsTimeoutError(err):
		return OutcomeTimeout
	default:
		return OutcomeTransport
	}
}
