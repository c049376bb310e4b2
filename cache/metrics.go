package cache

// Metrics 指标常量定义
const (
	// MetricHitsTotal 本地存储命中数 (Counter)
	MetricHitsTotal = "cache_hits_total"

	// MetricMissesTotal 本地存储未命中数 (Counter)
	MetricMissesTotal = "cache_misses_total"

	// MetricEvictionsTotal LRU 淘汰数 (Counter)
	MetricEvictionsTotal = "cache_evictions_total"
)
