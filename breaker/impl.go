package breaker

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
)

// circuitBreaker 熔断器实现（非导出）
type circuitBreaker struct {
	cfg      Config
	logger   clog.Logger
	fallback FallbackFunc
	now      func() time.Time

	// 键级熔断器管理
	trackers sync.Map // map[string]*tracker

	requests  metrics.Counter
	rejects   metrics.Counter
	changes   metrics.Counter
	durations metrics.Histogram
}

// newBreaker 创建熔断器实例（内部函数）
func newBreaker(cfg *Config, opts ...Option) (Breaker, error) {
	o := applyOptions(opts...)

	c := *cfg
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout == 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenSuccesses == 0 {
		c.HalfOpenSuccesses = 1
	}
	if c.FailureThreshold < 0 || c.OpenTimeout < 0 || c.HalfOpenSuccesses < 0 {
		return nil, ErrBadConfig
	}

	cb := &circuitBreaker{
		cfg:      c,
		logger:   o.logger,
		fallback: o.fallback,
		now:      o.now,
	}

	var err error
	if cb.requests, err = o.meter.Counter(MetricRequestsTotal, "Total requests through the breaker"); err != nil {
		return nil, err
	}
	if cb.rejects, err = o.meter.Counter(MetricRejectsTotal, "Requests rejected while open"); err != nil {
		return nil, err
	}
	if cb.changes, err = o.meter.Counter(MetricStateChanges, "Breaker state transitions"); err != nil {
		return nil, err
	}
	if cb.durations, err = o.meter.Histogram(MetricRequestDuration, "Protected call duration", metrics.WithUnit("s")); err != nil {
		return nil, err
	}

	cb.logger.Info("circuit breaker created",
		clog.Int("failure_threshold", c.FailureThreshold),
		clog.Duration("open_timeout", c.OpenTimeout),
		clog.Int("half_open_successes", c.HalfOpenSuccesses))

	return cb, nil
}

// Execute 执行受熔断保护的函数
func (cb *circuitBreaker) Execute(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	if key == "" {
		return nil, ErrKeyEmpty
	}

	t := cb.getOrCreateTracker(key)

	allowed, isProbe, retryAfter := t.allow()
	if !allowed {
		cb.rejects.Inc(ctx, metrics.L(LabelKey, key))
		openErr := &OpenError{Key: key, RetryAfter: retryAfter}
		cb.logger.Warn("circuit breaker open, request rejected",
			clog.String("key", key),
			clog.Duration("retry_after", retryAfter))

		if cb.fallback != nil {
			return cb.fallback(ctx, key, openErr)
		}
		return nil, openErr
	}

	start := cb.now()
	result, err := fn()
	elapsed := cb.now().Sub(start)

	failed := err != nil
	if failed && cb.cfg.IsFailure != nil {
		failed = cb.cfg.IsFailure(err)
	}
	t.report(isProbe, failed)

	outcome := "success"
	if failed {
		outcome = "failure"
	}
	cb.requests.Inc(ctx, metrics.L(LabelKey, key), metrics.L(LabelResult, outcome))
	cb.durations.Record(ctx, elapsed.Seconds(), metrics.L(LabelKey, key))

	return result, err
}

// State 获取指定键的熔断器状态
func (cb *circuitBreaker) State(key string) (State, error) {
	if key == "" {
		return StateClosed, ErrKeyEmpty
	}
	val, ok := cb.trackers.Load(key)
	if !ok {
		return StateClosed, ErrBreakerNotFound
	}
	return val.(*tracker).current(), nil
}

// Reset 将指定键的熔断器恢复到闭合状态
func (cb *circuitBreaker) Reset(key string) {
	if val, ok := cb.trackers.Load(key); ok {
		val.(*tracker).reset()
	}
}

// getOrCreateTracker 获取或创建键级状态机
func (cb *circuitBreaker) getOrCreateTracker(key string) *tracker {
	if val, ok := cb.trackers.Load(key); ok {
		return val.(*tracker)
	}

	t := &tracker{
		state:       StateClosed,
		threshold:   cb.cfg.FailureThreshold,
		openTimeout: cb.cfg.OpenTimeout,
		needProbes:  cb.cfg.HalfOpenSuccesses,
		now:         cb.now,
	}
	t.onChange = func(from, to State) {
		cb.changes.Inc(context.Background(),
			metrics.L(LabelKey, key),
			metrics.L(LabelFromState, from.String()),
			metrics.L(LabelToState, to.String()))
		cb.logger.Info("circuit breaker state changed",
			clog.String("key", key),
			clog.String("from", from.String()),
			clog.String("to", to.String()))
	}

	actual, _ := cb.trackers.LoadOrStore(key, t)
	return actual.(*tracker)
}
