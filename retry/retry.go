// Package retry 提供了带退避等待的重试执行器。
//
// retry 是 Aegis 弹性层的基础组件，它提供了：
// - 可配置的最大尝试次数与退避策略（依赖 backoff 包）
// - 可重试错误判定（默认全部重试，可结合 xerrors 错误类别定制）
// - 协作式取消：等待期间和每次尝试前都会检查 ctx
// - 泛型入口 Value，直接返回业务值
//
// ## 基本使用
//
//	r, _ := retry.New(&retry.Config{
//		MaxAttempts: 3,
//		Backoff: backoff.Config{
//			Kind:   backoff.KindExponential,
//			Base:   100 * time.Millisecond,
//			Max:    2 * time.Second,
//			Jitter: true,
//		},
//	}, retry.WithLogger(logger))
//
//	err := r.Do(ctx, func(ctx context.Context) error {
//		return callRemote(ctx)
//	})
//
// ## 带返回值的重试
//
//	user, err := retry.Value(ctx, r, func(ctx context.Context) (*User, error) {
//		return fetchUser(ctx, id)
//	})
//
// 重试器本身不保证幂等：被包裹的操作可能执行多次，调用方需确保操作可安全重复。
package retry

import (
	"context"
	"time"

	"github.com/ceyewan/aegis/backoff"
	"github.com/ceyewan/aegis/xerrors"
)

// ========================================
// 接口定义 (Interface Definitions)
// ========================================

// Retryer 重试执行器核心接口
type Retryer interface {
	// Do 执行 fn，失败时按配置重试。
	// 返回 nil 表示某次尝试成功；返回 ctx.Err() 表示被取消；
	// 否则返回最后一次尝试的错误。
	Do(ctx context.Context, fn func(ctx context.Context) error) error

	// Config 返回生效的配置副本（含默认值）
	Config() Config
}

// RetryIfFunc 可重试错误判定函数，返回 true 表示该错误可以重试
type RetryIfFunc func(err error) bool

// OnRetryFunc 重试回调，在每次等待之前调用
// attempt 为刚刚失败的尝试序号（从 1 开始），delay 为即将等待的时长
type OnRetryFunc func(attempt int, err error, delay time.Duration)

// Config 重试配置
type Config struct {
	// MaxAttempts 最大尝试次数（含首次），默认 3
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// Backoff 退避策略配置
	Backoff backoff.Config `json:"backoff" yaml:"backoff" mapstructure:"backoff"`

	// RetryIf 可重试判定，nil 时重试所有错误
	RetryIf RetryIfFunc `json:"-" yaml:"-" mapstructure:"-"`

	// OnRetry 重试回调，可用于记录日志或埋点，nil 时不回调
	OnRetry OnRetryFunc `json:"-" yaml:"-" mapstructure:"-"`
}

// ========================================
// 构造函数
// ========================================

// New 创建重试执行器
func New(cfg *Config, opts ...Option) (Retryer, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	return newRetryer(cfg, opts...)
}

// Value 执行带返回值的重试，成功时返回最后一次尝试的结果
func Value[T any](ctx context.Context, r Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// RetryableError 基于 xerrors 错误类别的判定函数：
// 外部服务错误、内部错误和未分类错误可重试，业务类错误（校验、404 等）不重试。
// 可直接赋给 Config.RetryIf。
func RetryableError(err error) bool {
	return xerrors.RetryableKind(err)
}
