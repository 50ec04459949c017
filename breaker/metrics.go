package breaker

import (
	"context"
	"time"

	"github.com/ceyewan/fusebox/metrics"
)

// 指标常量定义
const (
	// MetricCallsTotal Call 总数 (Counter)
	MetricCallsTotal = "breaker_calls_total"

	// MetricSuccessTotal 成功请求数 (Counter)
	MetricSuccessTotal = "breaker_success_total"

	// MetricFailuresTotal 计入失败的请求数 (Counter)
	MetricFailuresTotal = "breaker_failures_total"

	// MetricRejectsTotal 被熔断拒绝的请求数 (Counter)
	MetricRejectsTotal = "breaker_rejects_total"

	// MetricStateChanges 状态变更次数 (Counter)
	MetricStateChanges = "breaker_state_changes_total"

	// MetricCallDuration 受保护操作耗时 (Histogram)
	MetricCallDuration = "breaker_call_duration_seconds"

	// LabelBreaker 熔断器名称标签
	LabelBreaker = "breaker"

	// LabelFromState 源状态标签
	LabelFromState = "from_state"

	// LabelToState 目标状态标签
	LabelToState = "to_state"
)

// meterRecorder 指标记录器（内部使用），meter 为 nil 时全部为空操作
type meterRecorder struct {
	meter metrics.Meter
}

func (r meterRecorder) recordCall(ctx context.Context, name string, duration time.Duration) {
	if r.meter == nil {
		return
	}
	if counter, err := r.meter.Counter(MetricCallsTotal, "Total breaker calls"); err == nil && counter != nil {
		counter.Inc(ctx, metrics.L(LabelBreaker, name))
	}
	if histogram, err := r.meter.Histogram(MetricCallDuration, "Protected operation duration", metrics.WithUnit("s")); err == nil && histogram != nil {
		histogram.Record(ctx, duration.Seconds(), metrics.L(LabelBreaker, name))
	}
}

func (r meterRecorder) recordOutcome(ctx context.Context, name, metricName string) {
	if r.meter == nil {
		return
	}
	if counter, err := r.meter.Counter(metricName, "Breaker call outcomes"); err == nil && counter != nil {
		counter.Inc(ctx, metrics.L(LabelBreaker, name))
	}
}

func (r meterRecorder) recordStateChange(ctx context.Context, name string, from, to State) {
	if r.meter == nil {
		return
	}
	if counter, err := r.meter.Counter(MetricStateChanges, "Breaker state changes"); err == nil && counter != nil {
		counter.Inc(ctx,
			metrics.L(LabelBreaker, name),
			metrics.L(LabelFromState, from.String()),
			metrics.L(LabelToState, to.String()))
	}
}
