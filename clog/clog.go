// Package clog 为 Aegis 组件库提供基于 slog 的结构化日志。
//
// 特性：
//   - 抽象接口，不暴露底层实现（slog）
//   - 支持层级命名空间，组件内部通过 WithNamespace 派生子 Logger
//   - 零外部依赖（仅依赖 Go 标准库）
//   - 支持运行时动态调整级别
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("hello", clog.String("key", "value"))
//
// 组件注入：
//
//	r, _ := retry.New(cfg, retry.WithLogger(logger))
package clog

import "fmt"

// NamespaceKey 是日志中命名空间的字段名，用于标识组件模块
const NamespaceKey = "namespace"

// Logger 日志接口，提供结构化日志记录功能
//
// 支持五个级别：Debug、Info、Warn、Error、Fatal（Fatal 会退出进程）。
//
// 创建子 Logger：
//
//	child := logger.With(clog.String("policy", "user-api"))
//	namespaced := logger.WithNamespace("breaker")
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	// With 创建一个带有预设字段的子 Logger，预设字段出现在所有日志中。
	With(fields ...Field) Logger

	// WithNamespace 创建扩展命名空间的子 Logger，
	// 各级命名空间以 "." 连接后作为 namespace 字段输出。
	WithNamespace(parts ...string) Logger

	// SetLevel 运行时动态调整日志级别。
	SetLevel(level Level) error
}

// New 创建一个新的 Logger 实例
//
// config 为 nil 时使用开发环境默认配置。
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = NewDevDefaultConfig()
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	return newLogger(config, o)
}

// Option 函数式选项，用于配置 Logger 实例
type Option func(*options)

// options 内部选项结构
type options struct {
	namespaceParts []string
}

// WithNamespace 在创建时设置日志命名空间，支持多级
//
// 示例：
//
//	clog.New(cfg, clog.WithNamespace("order-service", "api"))
func WithNamespace(parts ...string) Option {
	return func(o *options) {
		o.namespaceParts = append(o.namespaceParts, parts...)
	}
}
