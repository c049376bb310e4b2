// Package backoff 提供重试等待时长的纯函数计算。
//
// 计算器本身无状态：给定尝试序号与配置，返回下一次等待时长。
// 支持四种策略（none/constant/linear/exponential）、最大时长钳制
// 以及可选的均匀抖动（避免多个调用方的重试风暴同步）。
//
// 基本使用：
//
//	calc, _ := backoff.New(backoff.Config{
//	    Kind:   backoff.KindExponential,
//	    Base:   100 * time.Millisecond,
//	    Max:    10 * time.Second,
//	    Jitter: true,
//	})
//	wait := calc.Delay(3) // 第 3 次尝试后的等待时长
package backoff

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Kind 退避策略类型
type Kind string

const (
	// KindNone 不等待，立即重试
	KindNone Kind = "none"
	// KindConstant 每次等待固定的 Base 时长
	KindConstant Kind = "constant"
	// KindLinear 等待 Base * attempt
	KindLinear Kind = "linear"
	// KindExponential 等待 Base * 2^(attempt-1)
	KindExponential Kind = "exponential"
)

// ParseKind 将字符串解析为 Kind（不区分大小写），空串返回 KindExponential
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "":
		return KindExponential, nil
	case "none":
		return KindNone, nil
	case "constant":
		return KindConstant, nil
	case "linear":
		return KindLinear, nil
	case "exponential":
		return KindExponential, nil
	default:
		return KindExponential, fmt.Errorf("backoff: unknown kind %q", s)
	}
}

// Config 退避配置，构造后不可变，可安全共享。
type Config struct {
	// Kind 策略类型（默认: exponential）
	Kind Kind `json:"kind" yaml:"kind" mapstructure:"kind"`

	// Base 基础时长（默认: 100ms）
	Base time.Duration `json:"base" yaml:"base" mapstructure:"base"`

	// Max 最大时长钳制，0 表示不钳制
	Max time.Duration `json:"max" yaml:"max" mapstructure:"max"`

	// Jitter 是否叠加均匀抖动，抖动取值范围为 [0, 计算时长]
	Jitter bool `json:"jitter" yaml:"jitter" mapstructure:"jitter"`
}

// Option 计算器选项函数
type Option func(*Calculator)

// WithRand 注入随机数源，用于测试时让抖动可确定。
// f 的语义与 rand.Int64N 一致：返回 [0, n) 内的随机数。
func WithRand(f func(n int64) int64) Option {
	return func(c *Calculator) {
		if f != nil {
			c.randInt64N = f
		}
	}
}

// Calculator 退避计算器。除注入的随机数源外完全是纯函数。
type Calculator struct {
	cfg        Config
	randInt64N func(n int64) int64
}

// New 创建退避计算器
func New(cfg Config, opts ...Option) (*Calculator, error) {
	if cfg.Kind == "" {
		cfg.Kind = KindExponential
	}
	switch cfg.Kind {
	case KindNone, KindConstant, KindLinear, KindExponential:
	default:
		return nil, fmt.Errorf("backoff: unknown kind %q", cfg.Kind)
	}
	if cfg.Base < 0 {
		return nil, fmt.Errorf("backoff: negative base %v", cfg.Base)
	}
	if cfg.Base == 0 && cfg.Kind != KindNone {
		cfg.Base = 100 * time.Millisecond
	}

	c := &Calculator{
		cfg:        cfg,
		randInt64N: rand.Int64N,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Delay 返回第 attempt 次尝试失败后的等待时长，attempt 从 1 开始。
func (c *Calculator) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	var delay time.Duration
	switch c.cfg.Kind {
	case KindNone:
		return 0
	case KindConstant:
		delay = c.cfg.Base
	case KindLinear:
		delay = c.cfg.Base * time.Duration(attempt)
	case KindExponential:
		// 2^(attempt-1)，移位超过 62 位必然溢出，直接视为无穷大
		shift := attempt - 1
		if shift >= 62 {
			delay = time.Duration(1<<63 - 1)
		} else {
			delay = c.cfg.Base << shift
			if delay < c.cfg.Base {
				delay = time.Duration(1<<63 - 1)
			}
		}
	}

	if c.cfg.Max > 0 && delay > c.cfg.Max {
		delay = c.cfg.Max
	}

	if c.cfg.Jitter && delay > 0 {
		delay += time.Duration(c.randInt64N(int64(delay) + 1))
		if c.cfg.Max > 0 && delay > c.cfg.Max {
			delay = c.cfg.Max
		}
	}

	return delay
}

// Config 返回计算器的配置副本
func (c *Calculator) Config() Config {
	return c.cfg
}

// Delay 包级便捷函数：一次性计算，等价于 New(cfg) 后调用 Delay。
// 配置非法时按零等待处理。
func Delay(attempt int, cfg Config) time.Duration {
	c, err := New(cfg)
	if err != nil {
		return 0
	}
	return c.Delay(attempt)
}
