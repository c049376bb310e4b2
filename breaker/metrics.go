package breaker

// Metrics 指标常量定义
const (
	// MetricRequestsTotal 放行的请求总数 (Counter)
	MetricRequestsTotal = "breaker_requests_total"

	// MetricRejectsTotal 被熔断拒绝的请求数 (Counter)
	MetricRejectsTotal = "breaker_rejects_total"

	// MetricStateChanges 状态变更次数 (Counter)
	MetricStateChanges = "breaker_state_changes_total"

	// MetricRequestDuration 请求耗时 (Histogram)
	MetricRequestDuration = "breaker_request_duration_seconds"

	// LabelKey 熔断键标签
	LabelKey = "key"

	// LabelResult 结果标签 (success/failure)
	LabelResult = "result"

	// LabelFromState 源状态标签
	LabelFromState = "from_state"

	// LabelToState 目标状态标签
	LabelToState = "to_state"
)
