package cache

import (
	"time"

	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
)

// Option 缓存组件选项函数
type Option func(*options)

// options 选项结构（内部使用）
type options struct {
	logger clog.Logger
	meter  metrics.Meter
	now    func() time.Time
}

// WithLogger 注入日志记录器
// 组件内部会自动追加 Namespace: logger.WithNamespace("cache")
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l == nil {
			o.logger = clog.Discard()
		} else {
			o.logger = l.WithNamespace("cache")
		}
	}
}

// WithMeter 注入指标 Meter
func WithMeter(m metrics.Meter) Option {
	return func(o *options) {
		if m == nil {
			o.meter = metrics.Discard()
		} else {
			o.meter = m
		}
	}
}

// WithClock 设置时钟源，测试时注入假时钟（仅进程内存储使用）
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
