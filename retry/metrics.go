package retry

// Metrics 指标常量定义
const (
	// MetricAttemptsTotal 尝试总数 (Counter)
	MetricAttemptsTotal = "retry_attempts_total"

	// MetricExhaustedTotal 重试耗尽总数 (Counter)
	MetricExhaustedTotal = "retry_exhausted_total"

	// MetricWaitDuration 退避等待耗时 (Histogram)
	MetricWaitDuration = "retry_wait_duration_seconds"

	// LabelResult 结果标签 (success/failure)
	LabelResult = "result"

	// LabelAttempt 尝试序号标签
	LabelAttempt = "attempt"
)
