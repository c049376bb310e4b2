package clog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// loggerImpl 是 Logger 接口的具体实现
type loggerImpl struct {
	handler slog.Handler
	leveler *slog.LevelVar
	nsParts []string
	attrs   []slog.Attr
}

// newLogger 创建 Logger 实例（内部使用）
func newLogger(config *Config, o *options) (Logger, error) {
	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	leveler := new(slog.LevelVar)
	leveler.Set(toSlogLevel(level))

	w, err := openOutput(config.Output)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     leveler,
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if strings.ToLower(config.Format) == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return &loggerImpl{
		handler: handler,
		leveler: leveler,
		nsParts: o.namespaceParts,
	}, nil
}

// openOutput 解析输出目标（内部使用）
func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log output: %w", err)
		}
		return f, nil
	}
}

func (l *loggerImpl) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *loggerImpl) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *loggerImpl) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *loggerImpl) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *loggerImpl) Fatal(msg string, fields ...Field) {
	l.log(FatalLevel, msg, fields)
	os.Exit(1)
}

// With 创建一个带有预设字段的子 Logger
func (l *loggerImpl) With(fields ...Field) Logger {
	attrs := make([]slog.Attr, 0, len(l.attrs)+len(fields))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, fields...)

	return &loggerImpl{
		handler: l.handler,
		leveler: l.leveler,
		nsParts: l.nsParts,
		attrs:   attrs,
	}
}

// WithNamespace 创建扩展命名空间的子 Logger
func (l *loggerImpl) WithNamespace(parts ...string) Logger {
	ns := make([]string, 0, len(l.nsParts)+len(parts))
	ns = append(ns, l.nsParts...)
	ns = append(ns, parts...)

	return &loggerImpl{
		handler: l.handler,
		leveler: l.leveler,
		nsParts: ns,
		attrs:   l.attrs,
	}
}

// SetLevel 动态调整日志级别
func (l *loggerImpl) SetLevel(level Level) error {
	l.leveler.Set(toSlogLevel(level))
	return nil
}

// log 组装日志记录并交给 handler（内部使用）
func (l *loggerImpl) log(level Level, msg string, fields []Field) {
	slogLevel := toSlogLevel(level)
	ctx := context.Background()
	if !l.handler.Enabled(ctx, slogLevel) {
		return
	}

	// 获取调用方的程序计数器，保证 AddSource 指向业务代码
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip: Callers, log, Debug/Info/...

	record := slog.NewRecord(time.Now(), slogLevel, msg, pcs[0])
	record.AddAttrs(l.attrs...)
	record.AddAttrs(fields...)
	if len(l.nsParts) > 0 {
		record.AddAttrs(slog.String(NamespaceKey, strings.Join(l.nsParts, ".")))
	}

	_ = l.handler.Handle(ctx, record)
}
