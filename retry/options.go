package retry

import (
	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
)

// Option 组件初始化选项函数
type Option func(*options)

// options 组件初始化选项配置（内部使用，小写）
type options struct {
	logger clog.Logger
	meter  metrics.Meter
}

// WithLogger 设置 Logger，传入 nil 时使用 clog.Discard()
// 内部会自动添加 namespace: "retry"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			o.logger = clog.Discard()
		} else {
			o.logger = logger.WithNamespace("retry")
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

func applyOptions(opts ...Option) *options {
	o := &options{
		logger: clog.Discard(),
		meter:  metrics.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
