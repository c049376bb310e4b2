package memo

// Metrics 指标常量定义
const (
	// MetricHitsTotal 缓存命中数 (Counter)
	MetricHitsTotal = "memo_hits_total"

	// MetricMissesTotal 两级都未命中数 (Counter)
	MetricMissesTotal = "memo_misses_total"

	// MetricComputeTotal 底层函数实际执行次数 (Counter)
	MetricComputeTotal = "memo_compute_total"

	// LabelTier 命中层级标签 (local/remote)
	LabelTier = "tier"
)
