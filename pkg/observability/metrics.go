package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "simsketch.requests.total"
	metricRequestDuration  = "simsketch.request.duration.seconds"
	metricErrorsTotal      = "simsketch.errors.total"
	metricInflightRequests = "simsketch.inflight.requests"

	attrOp     = "op"
	attrStatus = "status"

	statusOK    = "ok"
	statusError = "error"
)

// durationBuckets spans 100µs to 30s: one signature is sub-millisecond while
// a large corpus compare takes seconds.
var durationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30}

// REDMetrics records rate, errors and duration per operation. A nil
// *REDMetrics is valid and records nothing.
type REDMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
	inflight metric.Int64UpDownCounter
}

// NewREDMetrics creates the instruments on mt.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	requests, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Operations handled"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Operation latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errs, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Operations that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Operations in progress"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{requests: requests, duration: duration, errors: errs, inflight: inflight}, nil
}

// Begin marks op as in flight and returns the function that completes it.
// The returned function must be called exactly once.
func (rm *REDMetrics) Begin(ctx context.Context, op string) (end func(failed bool)) {
	if rm == nil {
		return func(bool) {}
	}

	start := time.Now()
	opAttr := attribute.String(attrOp, op)

	rm.inflight.Add(ctx, 1, metric.WithAttributes(opAttr))

	return func(failed bool) {
		rm.inflight.Add(ctx, -1, metric.WithAttributes(opAttr))

		status := statusOK
		if failed {
			status = statusError

			rm.errors.Add(ctx, 1, metric.WithAttributes(opAttr))
		}

		attrs := metric.WithAttributes(opAttr, attribute.String(attrStatus, status))

		rm.requests.Add(ctx, 1, attrs)
		rm.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
