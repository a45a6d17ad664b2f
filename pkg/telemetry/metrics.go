package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache and remote call instruments. It satisfies both the
// cache observer and the remote client call observer.
type Metrics struct {
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	cacheFaults    metric.Int64Counter
	cacheClears    metric.Int64Counter
	remoteCalls    metric.Int64Counter
	remoteErrors   metric.Int64Counter
	remoteDuration metric.Float64Histogram
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.cacheHits, err = meter.Int64Counter("backstore.cache.hits",
		metric.WithDescription("Reads served from the result cache")); err != nil {
		return nil, err
	}
	if m.cacheMisses, err = meter.Int64Counter("backstore.cache.misses",
		metric.WithDescription("Reads that reached the remote API")); err != nil {
		return nil, err
	}
	if m.cacheFaults, err = meter.Int64Counter("backstore.cache.faults",
		metric.WithDescription("Cache backend failures bypassed with a direct fetch")); err != nil {
		return nil, err
	}
	if m.cacheClears, err = meter.Int64Counter("backstore.cache.clears",
		metric.WithDescription("Category invalidations")); err != nil {
		return nil, err
	}
	if m.remoteCalls, err = meter.Int64Counter("backstore.remote.calls",
		metric.WithDescription("Remote API calls")); err != nil {
		return nil, err
	}
	if m.remoteErrors, err = meter.Int64Counter("backstore.remote.errors",
		metric.WithDescription("Failed remote API calls")); err != nil {
		return nil, err
	}
	if m.remoteDuration, err = meter.Float64Histogram("backstore.remote.duration",
		metric.WithDescription("Remote API call latency"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}

	return m, nil
}

func queryAttrs(category, name string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("category", category),
		attribute.String("query", name),
	)
}

// Hit records a cached read.
func (m *Metrics) Hit(ctx context.Context, category, name string) {
	m.cacheHits.Add(ctx, 1, queryAttrs(category, name))
}

// Miss records a read that fetched.
func (m *Metrics) Miss(ctx context.Context, category, name string) {
	m.cacheMisses.Add(ctx, 1, queryAttrs(category, name))
}

// Fault records a cache backend failure.
func (m *Metrics) Fault(ctx context.Context, category, name string) {
	m.cacheFaults.Add(ctx, 1, queryAttrs(category, name))
}

// Cleared records a category invalidation.
func (m *Metrics) Cleared(ctx context.Context, category string) {
	m.cacheClears.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

// ObserveCall records one remote call.
func (m *Metrics) ObserveCall(ctx context.Context, operation string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.remoteCalls.Add(ctx, 1, attrs)
	m.remoteDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.remoteErrors.Add(ctx, 1, attrs)
	}
}
