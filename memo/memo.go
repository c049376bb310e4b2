// Package memo 提供函数记忆化组件：把昂贵计算的结果按键缓存一段时间。
//
// Memoizer 组合了进程内 LRU 存储（L1）和可选的分布式提供方（L2，如 Redis）：
// 读取顺序 L1 -> L2 -> 计算；L2 命中会回填 L1，计算成功会同时写入两级。
// 计算失败默认不缓存，下一次调用会重新计算，瞬时错误不会毒化缓存窗口。
//
// ## 基本使用
//
//	m, _ := memo.New(&memo.Config{
//	    TTL:      5 * time.Minute,
//	    Capacity: 1024,
//	}, memo.WithLogger(logger))
//
//	user, err := memo.Do(ctx, m, "user:1001", func(ctx context.Context) (*User, error) {
//	    return loadUserFromDB(ctx, 1001)
//	})
//
// ## 两级缓存
//
//	provider, _ := cache.NewRedisProvider(redisConn, &cache.ProviderConfig{Prefix: "memo:"})
//	m, _ := memo.New(cfg, memo.WithProvider(provider))
//
// ## 结果值记忆化
//
// 被包裹的函数本身返回 xerrors.Result 时使用 DoResult：成功结果照常缓存，
// 错误结果即使作为值返回也绝不会写入缓存。
//
//	res := memo.DoResult(ctx, m, key, func(ctx context.Context) xerrors.Result[Quote] {
//	    return fetchQuote(ctx, symbol)
//	})
//
// 并发调用同一个键时默认各自计算；打开 Config.SingleFlight 后，
// 同键的并发未命中会合并为一次底层计算。
package memo

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ceyewan/aegis/cache"
	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
	"github.com/ceyewan/aegis/xerrors"
)

// Config 记忆化配置
type Config struct {
	// TTL 缓存条目的存活时长，默认 5 分钟
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// Capacity L1 存储容量（条目数），默认 1024；
	// 通过 WithStore 注入自定义存储时此字段被忽略
	Capacity int `json:"capacity" yaml:"capacity" mapstructure:"capacity"`

	// SingleFlight 是否合并同键并发计算，默认关闭。
	// 合并等待期间取消的调用方仍会等到共享结果返回。
	SingleFlight bool `json:"single_flight" yaml:"single_flight" mapstructure:"single_flight"`
}

// Memoizer 函数记忆化执行器，通过 Do / DoResult 使用。
// 可以被任意多协程并发使用。
type Memoizer struct {
	ttl      time.Duration
	store    cache.Store
	provider cache.Provider
	group    *singleflight.Group
	errCache ErrorCacheableFunc
	logger   clog.Logger

	hits     metrics.Counter
	misses   metrics.Counter
	computes metrics.Counter
}

// negEntry L1 中的负缓存条目，仅在配置了 WithErrorCacheable 时产生
type negEntry struct {
	err error
}

// New 创建记忆化执行器
func New(cfg *Config, opts ...Option) (*Memoizer, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	o := applyOptions(opts...)

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	if ttl < 0 {
		return nil, ErrBadConfig
	}

	store := o.store
	if store == nil {
		var err error
		store, err = cache.NewStore(&cache.StoreConfig{
			Capacity:   cfg.Capacity,
			DefaultTTL: ttl,
		}, cache.WithLogger(o.logger), cache.WithMeter(o.meter))
		if err != nil {
			return nil, err
		}
	}

	m := &Memoizer{
		ttl:      ttl,
		store:    store,
		provider: o.provider,
		errCache: o.errCacheable,
		logger:   o.logger,
	}
	if cfg.SingleFlight {
		m.group = new(singleflight.Group)
	}

	var err error
	if m.hits, err = o.meter.Counter(MetricHitsTotal, "Memoized calls served from cache"); err != nil {
		return nil, err
	}
	if m.misses, err = o.meter.Counter(MetricMissesTotal, "Memoized calls that missed all tiers"); err != nil {
		return nil, err
	}
	if m.computes, err = o.meter.Counter(MetricComputeTotal, "Underlying function invocations"); err != nil {
		return nil, err
	}
	return m, nil
}

// Invalidate 删除指定键的缓存，两级都会删除
func (m *Memoizer) Invalidate(ctx context.Context, key string) error {
	m.store.Remove(key)
	if m.provider != nil {
		return m.provider.Remove(ctx, key)
	}
	return nil
}

// Do 按键记忆化执行 fn。
// 命中非过期缓存时直接返回，不调用 fn；否则调用 fn 并缓存成功结果。
// fn 返回错误时结果不缓存（除非配置了 WithErrorCacheable 且谓词放行），
// 错误原样上抛，下一次调用会重新计算。
func Do[V any](ctx context.Context, m *Memoizer, key string, fn func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	if key == "" {
		return zero, ErrKeyEmpty
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if v, ok, err := lookup[V](ctx, m, key); ok {
		return v, err
	}
	m.misses.Inc(ctx)

	compute := func() (V, error) {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		m.computes.Inc(ctx)
		v, err := fn(ctx)
		if err != nil {
			if m.errCache != nil && m.errCache(err) {
				m.store.Set(key, negEntry{err: err}, m.ttl)
			}
			return zero, err
		}
		m.writeBack(ctx, key, v)
		return v, nil
	}

	if m.group == nil {
		return compute()
	}
	res, err, _ := m.group.Do(key, func() (any, error) {
		return compute()
	})
	if err != nil {
		return zero, err
	}
	return res.(V), nil
}

// DoResult 记忆化执行返回两值结果的 fn。
// 与 Do 的区别在于缓存决策检查结果的成败：成功结果照常缓存，
// 错误结果绝不写入缓存（即便它是一个普通的返回值），直接返回给调用方。
func DoResult[V any](ctx context.Context, m *Memoizer, key string, fn func(ctx context.Context) xerrors.Result[V]) xerrors.Result[V] {
	if key == "" {
		return xerrors.Err[V](ErrKeyEmpty)
	}
	if err := ctx.Err(); err != nil {
		return xerrors.Err[V](err)
	}

	if v, ok, err := lookup[V](ctx, m, key); ok {
		if err != nil {
			return xerrors.Err[V](err)
		}
		return xerrors.Ok(v)
	}
	m.misses.Inc(ctx)

	compute := func() xerrors.Result[V] {
		if err := ctx.Err(); err != nil {
			return xerrors.Err[V](err)
		}
		m.computes.Inc(ctx)
		res := fn(ctx)
		if res.IsOk() {
			m.writeBack(ctx, key, res.Value())
		}
		return res
	}

	if m.group == nil {
		return compute()
	}
	res, _, _ := m.group.Do(key, func() (any, error) {
		return compute(), nil
	})
	return res.(xerrors.Result[V])
}

// lookup 依次查 L1、L2，命中返回 (value, true, nil)；
// 命中负缓存条目时返回 (zero, true, err)。
func lookup[V any](ctx context.Context, m *Memoizer, key string) (V, bool, error) {
	var zero V

	if raw, ok := m.store.Get(key); ok {
		if neg, isNeg := raw.(negEntry); isNeg {
			m.hits.Inc(ctx, metrics.L(LabelTier, "local"))
			return zero, true, neg.err
		}
		if v, isV := raw.(V); isV {
			m.hits.Inc(ctx, metrics.L(LabelTier, "local"))
			return v, true, nil
		}
		// 同一个键被不同类型复用，视为未命中并覆盖
		m.store.Remove(key)
	}

	if m.provider == nil {
		return zero, false, nil
	}
	var v V
	err := m.provider.Get(ctx, key, &v)
	if err == nil {
		// L2 命中回填 L1
		m.store.Set(key, v, m.ttl)
		m.hits.Inc(ctx, metrics.L(LabelTier, "remote"))
		return v, true, nil
	}
	if !xerrors.Is(err, cache.ErrMiss) {
		// 提供方故障降级为未命中，只记日志
		m.logger.Warn("cache provider lookup failed",
			clog.String("key", key), clog.Error(err))
	}
	return zero, false, nil
}

// writeBack 将计算结果写入两级缓存，L2 失败不影响调用方
func (m *Memoizer) writeBack(ctx context.Context, key string, value any) {
	m.store.Set(key, value, m.ttl)
	if m.provider == nil {
		return
	}
	if err := m.provider.Set(ctx, key, value, m.ttl); err != nil {
		m.logger.Warn("cache provider write failed",
			clog.String("key", key), clog.Error(err))
	}
}
