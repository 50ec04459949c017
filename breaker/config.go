package breaker

import "time"

// Config 单个熔断器的配置
//
// 不可变值类型，With* 方法返回修改后的副本，不影响原值。
// 零值字段在构建熔断器时由 withDefaults 补全。
type Config struct {
	// Name 熔断器名称
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// FailureThreshold 连续失败阈值（默认 5）
	// consecutive_failures 策略在连续失败达到此值时熔断
	FailureThreshold int64 `json:"failure_threshold" yaml:"failure_threshold" mapstructure:"failure_threshold"`

	// SuccessThreshold 半开状态下关闭熔断所需的连续成功数（默认 2）
	SuccessThreshold int64 `json:"success_threshold" yaml:"success_threshold" mapstructure:"success_threshold"`

	// Timeout 冷却时间（默认 60s）
	// 熔断器打开后等待此时间才允许进入半开探测
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// SamplingDuration 滑动窗口长度（默认 120s）
	// rolling_window 策略只统计窗口内仍有失败的记录
	SamplingDuration time.Duration `json:"sampling_duration" yaml:"sampling_duration" mapstructure:"sampling_duration"`

	// MinimumThroughput 触发失败率判断的最小请求数（默认 10）
	MinimumThroughput int64 `json:"minimum_throughput" yaml:"minimum_throughput" mapstructure:"minimum_throughput"`

	// PercentageThreshold 失败率阈值，按 0-100 解释（默认 50）
	PercentageThreshold float64 `json:"percentage_threshold" yaml:"percentage_threshold" mapstructure:"percentage_threshold"`

	// Strategy 熔断策略名称（默认 "consecutive_failures"）
	Strategy string `json:"strategy" yaml:"strategy" mapstructure:"strategy"`
}

// withDefaults 返回补全默认值后的副本（内部使用）
func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.SamplingDuration <= 0 {
		c.SamplingDuration = 120 * time.Second
	}
	if c.MinimumThroughput <= 0 {
		c.MinimumThroughput = 10
	}
	if c.PercentageThreshold <= 0 {
		c.PercentageThreshold = 50
	}
	if c.Strategy == "" {
		c.Strategy = StrategyConsecutive
	}
	return c
}

// WithName 返回修改名称后的副本
func (c Config) WithName(name string) Config {
	c.Name = name
	return c
}

// WithFailureThreshold 返回修改连续失败阈值后的副本
func (c Config) WithFailureThreshold(n int64) Config {
	c.FailureThreshold = n
	return c
}

// WithSuccessThreshold 返回修改连续成功阈值后的副本
func (c Config) WithSuccessThreshold(n int64) Config {
	c.SuccessThreshold = n
	return c
}

// WithTimeout 返回修改冷却时间后的副本
func (c Config) WithTimeout(d time.Duration) Config {
	c.Timeout = d
	return c
}

// WithSamplingDuration 返回修改滑动窗口长度后的副本
func (c Config) WithSamplingDuration(d time.Duration) Config {
	c.SamplingDuration = d
	return c
}

// WithMinimumThroughput 返回修改最小请求数后的副本
func (c Config) WithMinimumThroughput(n int64) Config {
	c.MinimumThroughput = n
	return c
}

// WithPercentageThreshold 返回修改失败率阈值后的副本
func (c Config) WithPercentageThreshold(p float64) Config {
	c.PercentageThreshold = p
	return c
}

// WithStrategy 返回修改策略名称后的副本
func (c Config) WithStrategy(name string) Config {
	c.Strategy = name
	return c
}
