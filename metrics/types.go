// Package metrics 为 Aegis 组件库提供统一的指标收集能力。
//
// 基于 OpenTelemetry SDK 实现，通过 Prometheus Exporter 暴露指标。
// 组件（retry/breaker/cache/memo）通过 WithMeter 注入 Meter，
// 不关心底层导出方式。
//
// 基本使用：
//
//	meter, _ := metrics.New(&metrics.Config{
//	    Enabled:     true,
//	    ServiceName: "order-service",
//	    Port:        9090,
//	    Path:        "/metrics",
//	})
//	counter, _ := meter.Counter("retry_attempts_total", "Total retry attempts")
//	counter.Inc(ctx, metrics.L("policy", "user-api"))
package metrics

import "context"

// Label 指标标签，为指标添加维度信息
//
// 注意：避免高基数标签值（用户 ID、请求 ID 等）。
type Label struct {
	Key   string
	Value string
}

// L 便捷构造函数，创建一个 Label 实例
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}

// Counter 单调递增计数器
type Counter interface {
	// Inc 将计数器增加 1
	Inc(ctx context.Context, labels ...Label)

	// Add 将计数器增加给定的值（负数会被监控系统忽略或报错）
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 可增可减的瞬时值
type Gauge interface {
	// Set 将 gauge 设置为给定的值
	Set(ctx context.Context, val float64, labels ...Label)

	// Inc 将 gauge 增加 1
	Inc(ctx context.Context, labels ...Label)

	// Dec 将 gauge 减少 1
	Dec(ctx context.Context, labels ...Label)
}

// Histogram 值分布直方图，用于观察耗时、大小等分布
type Histogram interface {
	// Record 在直方图中记录一个值
	Record(ctx context.Context, val float64, labels ...Label)
}

// Meter 指标创建工厂接口，是所有指标类型的创建入口
type Meter interface {
	// Counter 创建计数器实例
	Counter(name string, desc string, opts ...MetricOption) (Counter, error)

	// Gauge 创建仪表盘实例
	Gauge(name string, desc string, opts ...MetricOption) (Gauge, error)

	// Histogram 创建直方图实例
	Histogram(name string, desc string, opts ...MetricOption) (Histogram, error)

	// Shutdown 关闭 Meter，刷新所有指标
	Shutdown(ctx context.Context) error
}

// MetricOption 指标级选项函数
type MetricOption func(*MetricOptions)

// MetricOptions 指标选项
type MetricOptions struct {
	// Unit 指标单位，建议使用 UCUM 单位代码（如 "seconds"、"bytes"）
	Unit string
}

// WithUnit 设置指标的单位
func WithUnit(unit string) MetricOption {
	return func(o *MetricOptions) {
		o.Unit = unit
	}
}

// Config 指标系统配置
//
// 典型配置示例（YAML）：
//
//	metrics:
//	  enabled: true
//	  service_name: "order-service"
//	  port: 9090
//	  path: "/metrics"
type Config struct {
	// Enabled 为 false 时 New 返回 noop Meter，所有操作为空操作
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// ServiceName 服务名称，作为 OTel Resource 的 service.name 属性
	ServiceName string `json:"service_name" yaml:"service_name" mapstructure:"service_name"`

	// Version 服务版本，作为 service.version 属性
	Version string `json:"version" yaml:"version" mapstructure:"version"`

	// Port 大于 0 时启动 HTTP 服务器暴露 Prometheus 指标
	Port int `json:"port" yaml:"port" mapstructure:"port"`

	// Path Prometheus 指标的 HTTP 路径（如 "/metrics"）
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// NewDevDefaultConfig 返回适合开发和测试的默认配置（启用收集，不启动 HTTP 服务器）
func NewDevDefaultConfig(serviceName string) *Config {
	return &Config{
		Enabled:     true,
		ServiceName: serviceName,
		Version:     "dev",
	}
}
