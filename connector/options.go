package connector

import (
	"github.com/ceyewan/aegis/clog"
)

type options struct {
	logger clog.Logger
}

// Option 配置连接器的选项
type Option func(*options)

// WithLogger 设置日志记录器
// 内部会自动追加 namespace: "connector"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			o.logger = clog.Discard()
		} else {
			o.logger = logger.WithNamespace("connector")
		}
	}
}

// applyDefaults 填充未设置的选项（内部使用）
func (o *options) applyDefaults() {
	if o.logger == nil {
		o.logger = clog.Discard()
	}
}
