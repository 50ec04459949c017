// Package metrics 提供统一的指标收集能力。
// 基于 OpenTelemetry 标准构建，提供 Counter、Gauge、Histogram 三类指标接口，
// 并内置 Prometheus HTTP 暴露端点。
//
// 快速开始：
//
//	meter, err := metrics.New(&metrics.Config{
//	    Enabled:     true,
//	    ServiceName: "my-service",
//	    Port:        9090,
//	    Path:        "/metrics",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer meter.Shutdown(ctx)
//
//	counter, _ := meter.Counter("requests_total", "请求总数")
//	counter.Inc(ctx, metrics.L("outcome", "success"))
package metrics

import "context"

// Counter 计数器接口
// 用于记录只能增加的累计值，例如请求数、错误次数。
type Counter interface {
	// Inc 将计数器增加 1
	Inc(ctx context.Context, labels ...Label)

	// Add 将计数器增加给定的值
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 仪表盘接口
// 用于记录可以任意增减的瞬时值，例如连接数、队列长度。
type Gauge interface {
	// Set 将 gauge 设置为给定的值
	Set(ctx context.Context, val float64, labels ...Label)

	// Inc 将 gauge 增加 1
	Inc(ctx context.Context, labels ...Label)

	// Dec 将 gauge 减少 1
	Dec(ctx context.Context, labels ...Label)
}

// Histogram 直方图接口
// 用于记录值的分布情况，例如请求耗时、响应大小。
type Histogram interface {
	// Record 在直方图中记录一个值
	Record(ctx context.Context, val float64, labels ...Label)
}

// Meter 指标创建工厂接口
// 所有指标类型的创建入口；创建出的指标并发安全。
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

// MetricOption 指标配置选项函数类型
type MetricOption func(*MetricOptions)

// MetricOptions 指标选项
type MetricOptions struct {
	// Unit 指标的单位，建议使用 UCUM 单位代码，如 "s"、"By"
	Unit string
}

// WithUnit 设置指标的单位
func WithUnit(unit string) MetricOption {
	return func(o *MetricOptions) {
		o.Unit = unit
	}
}
