package fadgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus. The cache counters double as the instrumentation hook for
// verifying at-most-once computation.
type MetricsCollector interface {
	// RecordEmbeddingCompute is called once per embedding actually computed
	// (cache misses only). duration covers audio load plus inference.
	RecordEmbeddingCompute(duration time.Duration, err error)

	// RecordEmbeddingCache is called on every cache probe.
	RecordEmbeddingCache(hit bool)

	// RecordStatsCache is called on every statistics load.
	RecordStatsCache(hit bool)

	// RecordDistance is called after each Frechet distance calculation.
	RecordDistance(duration time.Duration, err error)

	// RecordRank is called after each individual-score ranking batch.
	// scored is the number of files ranked, failed the number excluded.
	RecordRank(scored, failed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordEmbeddingCompute(time.Duration, error) {}
func (NoopMetricsCollector) RecordEmbeddingCache(bool)                   {}
func (NoopMetricsCollector) RecordStatsCache(bool)                       {}
func (NoopMetricsCollector) RecordDistance(time.Duration, error)         {}
func (NoopMetricsCollector) RecordRank(int, int, time.Duration)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	EmbeddingComputes    atomic.Int64
	EmbeddingErrors      atomic.Int64
	EmbeddingTotalNanos  atomic.Int64
	EmbeddingCacheHits   atomic.Int64
	EmbeddingCacheMisses atomic.Int64
	StatsCacheHits       atomic.Int64
	StatsCacheMisses     atomic.Int64
	DistanceCount        atomic.Int64
	DistanceErrors       atomic.Int64
	DistanceTotalNanos   atomic.Int64
	RankBatches          atomic.Int64
	RankScored           atomic.Int64
	RankFailed           atomic.Int64
}

// RecordEmbeddingCompute implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEmbeddingCompute(duration time.Duration, err error) {
	b.EmbeddingComputes.Add(1)
	b.EmbeddingTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EmbeddingErrors.Add(1)
	}
}

// RecordEmbeddingCache implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEmbeddingCache(hit bool) {
	if hit {
		b.EmbeddingCacheHits.Add(1)
	} else {
		b.EmbeddingCacheMisses.Add(1)
	}
}

// RecordStatsCache implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStatsCache(hit bool) {
	if hit {
		b.StatsCacheHits.Add(1)
	} else {
		b.StatsCacheMisses.Add(1)
	}
}

// RecordDistance implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDistance(duration time.Duration, err error) {
	b.DistanceCount.Add(1)
	b.DistanceTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DistanceErrors.Add(1)
	}
}

// RecordRank implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRank(scored, failed int, duration time.Duration) {
	b.RankBatches.Add(1)
	b.RankScored.Add(int64(scored))
	b.RankFailed.Add(int64(failed))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		EmbeddingComputes:    b.EmbeddingComputes.Load(),
		EmbeddingErrors:      b.EmbeddingErrors.Load(),
		EmbeddingAvgNanos:    avgNanos(b.EmbeddingTotalNanos.Load(), b.EmbeddingComputes.Load()),
		EmbeddingCacheHits:   b.EmbeddingCacheHits.Load(),
		EmbeddingCacheMisses: b.EmbeddingCacheMisses.Load(),
		StatsCacheHits:       b.StatsCacheHits.Load(),
		StatsCacheMisses:     b.StatsCacheMisses.Load(),
		DistanceCount:        b.DistanceCount.Load(),
		DistanceErrors:       b.DistanceErrors.Load(),
		DistanceAvgNanos:     avgNanos(b.DistanceTotalNanos.Load(), b.DistanceCount.Load()),
		RankBatches:          b.RankBatches.Load(),
		RankScored:           b.RankScored.Load(),
		RankFailed:           b.RankFailed.Load(),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	EmbeddingComputes    int64
	EmbeddingErrors      int64
	EmbeddingAvgNanos    int64
	EmbeddingCacheHits   int64
	EmbeddingCacheMisses int64
	StatsCacheHits       int64
	StatsCacheMisses     int64
	DistanceCount        int64
	DistanceErrors       int64
	DistanceAvgNanos     int64
	RankBatches          int64
	RankScored           int64
	RankFailed           int64
}
