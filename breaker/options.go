package breaker

import (
	"context"
	"time"

	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
)

// Option 组件初始化选项函数
type Option func(*options)

// FallbackFunc 降级函数类型
// 当熔断器打开时，替代被保护的函数返回结果
// 参数:
//   - ctx: 上下文
//   - key: 熔断键
//   - err: 拒绝错误（*OpenError）
//
// 返回:
//   - any: 降级结果
//   - error: 降级逻辑的错误，nil 表示降级成功
type FallbackFunc func(ctx context.Context, key string, err error) (any, error)

// options 组件初始化选项配置（内部使用，小写）
type options struct {
	logger   clog.Logger
	meter    metrics.Meter
	fallback FallbackFunc
	now      func() time.Time
}

// WithLogger 设置 Logger，传入 nil 时使用 clog.Discard()
// 内部会自动添加 namespace: "breaker"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			o.logger = clog.Discard()
		} else {
			o.logger = logger.WithNamespace("breaker")
		}
	}
}

// WithMeter 设置 Meter，传入 nil 时使用 metrics.Discard()
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		if meter == nil {
			o.meter = metrics.Discard()
		} else {
			o.meter = meter
		}
	}
}

// WithFallback 设置降级函数
// 当熔断器打开时，会调用此函数进行降级处理
//
// 使用示例:
//
//	brk, _ := breaker.New(cfg,
//		breaker.WithFallback(func(ctx context.Context, key string, err error) (any, error) {
//			logger.Info("circuit breaker open, using fallback", clog.String("key", key))
//			return cached, nil
//		}),
//	)
func WithFallback(fallback FallbackFunc) Option {
	return func(o *options) {
		o.fallback = fallback
	}
}

// WithClock 设置时钟源，测试时注入假时钟
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{
		logger: clog.Discard(),
		meter:  metrics.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
