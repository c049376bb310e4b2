// Package breaker 提供了熔断器组件，用于故障依赖的快速隔离与自动恢复。
//
// breaker 是 Aegis 弹性层的核心组件，它提供了：
// - 连续失败计数的三态熔断（Closed / Open / HalfOpen）
// - 键级粒度的熔断管理（按服务名、后端地址等独立熔断）
// - 冷却结束后单探测恢复（半开状态同一时刻只放行一个探测）
// - 熔断拒绝时返回携带剩余冷却时长的 OpenError
// - 灵活的降级策略（快速失败或自定义降级逻辑）
//
// ## 基本使用
//
//	brk, _ := breaker.New(&breaker.Config{
//		FailureThreshold:  5,
//		OpenTimeout:       30 * time.Second,
//		HalfOpenSuccesses: 1,
//	}, breaker.WithLogger(logger))
//
//	result, err := brk.Execute(ctx, "user-service", func() (any, error) {
//		return callUserService(ctx)
//	})
//
// ## 降级策略
//
//	brk, _ := breaker.New(cfg,
//		breaker.WithFallback(func(ctx context.Context, key string, err error) (any, error) {
//			// 返回缓存数据或默认值
//			return cachedUser, nil
//		}),
//	)
//
// 同一个 Breaker 实例可以被任意多协程并发使用，状态变更在实例内部串行化。
package breaker

import (
	"context"
	"time"
)

// ========================================
// 接口定义 (Interface Definitions)
// ========================================

// Breaker 熔断器核心接口
type Breaker interface {
	// Execute 执行受熔断保护的函数
	// key: 熔断键（可以是服务名、后端地址、方法名等）
	// fn: 要执行的函数，熔断打开时不会被调用
	// 返回: 函数执行结果和错误；被拒绝时错误为 *OpenError
	Execute(ctx context.Context, key string, fn func() (any, error)) (any, error)

	// State 获取指定键的熔断器状态，从未使用过的键返回 ErrBreakerNotFound
	State(key string) (State, error)

	// Reset 将指定键的熔断器恢复到闭合状态并清零计数
	Reset(key string)
}

// State 熔断器状态
type State int

const (
	// StateClosed 闭合状态（正常）
	StateClosed State = iota
	// StateHalfOpen 半开状态（探测恢复）
	StateHalfOpen
	// StateOpen 打开状态（熔断中）
	StateOpen
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// IsFailureFunc 失败判定函数，返回 true 表示该错误计入连续失败
type IsFailureFunc func(err error) bool

// Config 熔断器配置
type Config struct {
	// FailureThreshold 连续失败多少次后熔断，默认 5
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold" mapstructure:"failure_threshold"`

	// OpenTimeout 熔断打开后的冷却时长，冷却结束进入半开，默认 30s
	OpenTimeout time.Duration `json:"open_timeout" yaml:"open_timeout" mapstructure:"open_timeout"`

	// HalfOpenSuccesses 半开状态需要连续成功多少次才闭合，默认 1
	HalfOpenSuccesses int `json:"half_open_successes" yaml:"half_open_successes" mapstructure:"half_open_successes"`

	// IsFailure 失败判定，nil 时所有非 nil 错误都计为失败
	IsFailure IsFailureFunc `json:"-" yaml:"-" mapstructure:"-"`
}

// ========================================
// 构造函数
// ========================================

// New 创建熔断器
func New(cfg *Config, opts ...Option) (Breaker, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	return newBreaker(cfg, opts...)
}
