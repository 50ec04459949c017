package breaker

import (
	"sync"
	"time"
)

// 内置策略名称
const (
	StrategyConsecutive   = "consecutive_failures"
	StrategyPercentage    = "percentage_failures"
	StrategyRollingWindow = "rolling_window"
)

// Strategy 熔断策略
//
// 纯函数式判断：相同的 (now, metrics, config) 输入必须给出相同的输出，
// 不得读取 OS 时钟或任何外部状态。
type Strategy interface {
	// Name 返回策略的注册名称
	Name() string

	// ShouldOpen 根据记录结果后的最新快照判断是否应该熔断
	ShouldOpen(now time.Time, m Metrics, cfg *Config) bool
}

// ========================================
// 内置策略
// ========================================

// consecutiveStrategy 连续失败策略
// 任何一次成功都会清零连续失败计数，因此它对突发的全面故障反应最快，
// 对间歇性失败最宽容。
type consecutiveStrategy struct{}

func (consecutiveStrategy) Name() string {
	return StrategyConsecutive
}

func (consecutiveStrategy) ShouldOpen(now time.Time, m Metrics, cfg *Config) bool {
	return m.ConsecutiveFailures >= cfg.FailureThreshold
}

// percentageStrategy 失败率策略
// 基于生命周期总计数，要求先达到最小请求数；反应较慢，容忍间歇失败。
type percentageStrategy struct{}

func (percentageStrategy) Name() string {
	return StrategyPercentage
}

func (percentageStrategy) ShouldOpen(now time.Time, m Metrics, cfg *Config) bool {
	return m.HasSufficientThroughput(cfg.MinimumThroughput) &&
		m.FailureRate() >= cfg.PercentageThreshold
}

// rollingWindowStrategy 滑动窗口失败率策略
// 在失败率策略之上额外要求最近一次失败落在采样窗口内：
// 窗口滑过旧的失败高峰后，无论生命周期失败率多高都保持闭合。
type rollingWindowStrategy struct{}

func (rollingWindowStrategy) Name() string {
	return StrategyRollingWindow
}

func (rollingWindowStrategy) ShouldOpen(now time.Time, m Metrics, cfg *Config) bool {
	if m.LastFailureAt.IsZero() || m.LastFailureAt.Before(now.Add(-cfg.SamplingDuration)) {
		return false
	}
	return m.HasSufficientThroughput(cfg.MinimumThroughput) &&
		m.FailureRate() >= cfg.PercentageThreshold
}

// ========================================
// 策略注册表
// ========================================

// strategyRegistry 按名称管理策略（内部使用）
type strategyRegistry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

func newStrategyRegistry() *strategyRegistry {
	return &strategyRegistry{
		strategies: map[string]Strategy{
			StrategyConsecutive:   consecutiveStrategy{},
			StrategyPercentage:    percentageStrategy{},
			StrategyRollingWindow: rollingWindowStrategy{},
		},
	}
}

// register 注册策略，同名覆盖
func (r *strategyRegistry) register(s Strategy) {
	r.mu.Lock()
	r.strategies[s.Name()] = s
	r.mu.Unlock()
}

// resolve 按名称解析策略
func (r *strategyRegistry) resolve(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s, ok
}
