package memo

import (
	"github.com/ceyewan/aegis/cache"
	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
)

// Option 组件初始化选项函数
type Option func(*options)

// ErrorCacheableFunc 负缓存判定函数，返回 true 表示该错误可以被缓存。
// 仅对 Do 生效；DoResult 的错误结果永远不缓存。
type ErrorCacheableFunc func(err error) bool

// options 组件初始化选项配置（内部使用，小写）
type options struct {
	logger       clog.Logger
	meter        metrics.Meter
	store        cache.Store
	provider     cache.Provider
	errCacheable ErrorCacheableFunc
}

// WithLogger 设置 Logger，传入 nil 时使用 clog.Discard()
// 内部会自动添加 namespace: "memo"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			o.logger = clog.Discard()
		} else {
			o.logger = logger.WithNamespace("memo")
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

// WithStore 注入自定义 L1 存储，替代按 Config.Capacity 创建的默认存储
func WithStore(store cache.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithProvider 注入 L2 分布式缓存提供方
//
// 使用示例:
//
//	provider, _ := cache.NewRedisProvider(redisConn, &cache.ProviderConfig{Prefix: "memo:"})
//	m, _ := memo.New(cfg, memo.WithProvider(provider))
func WithProvider(provider cache.Provider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithErrorCacheable 设置负缓存判定。
// 默认错误永不缓存；配置后谓词放行的错误会以 TTL 写入 L1，
// 窗口内同键调用直接返回该错误，适合确定性失败（如参数校验）。
func WithErrorCacheable(fn ErrorCacheableFunc) Option {
	return func(o *options) {
		o.errCacheable = fn
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
