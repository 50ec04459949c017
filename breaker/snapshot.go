package breaker

import "time"

// Metrics 计数快照
//
// 由存储驱动返回的不可变值。连续计数在每次记录结果时互斥更新：
// 记录成功会清零 ConsecutiveFailures，记录失败会清零 ConsecutiveSuccesses。
// 总计数在记录存续期间单调递增，Reset 之后归零。
// 时间戳为零值表示尚未发生对应结果。
type Metrics struct {
	ConsecutiveSuccesses int64     `json:"consecutive_successes"`
	ConsecutiveFailures  int64     `json:"consecutive_failures"`
	TotalSuccesses       int64     `json:"total_successes"`
	TotalFailures        int64     `json:"total_failures"`
	LastSuccessAt        time.Time `json:"last_success_at"`
	LastFailureAt        time.Time `json:"last_failure_at"`
}

// Throughput 返回记录存续期间的总请求数
func (m Metrics) Throughput() int64 {
	return m.TotalSuccesses + m.TotalFailures
}

// FailureRate 返回失败率百分比（0-100），无请求时返回 0
func (m Metrics) FailureRate() float64 {
	total := m.Throughput()
	if total == 0 {
		return 0
	}
	return float64(m.TotalFailures) / float64(total) * 100
}

// HasSufficientThroughput 总请求数是否达到 n
func (m Metrics) HasSufficientThroughput(n int64) bool {
	return m.Throughput() >= n
}

// recordSuccess 返回记录一次成功后的快照（内部使用）
func (m Metrics) recordSuccess(now time.Time) Metrics {
	m.ConsecutiveSuccesses++
	m.ConsecutiveFailures = 0
	m.TotalSuccesses++
	m.LastSuccessAt = now
	return m
}

// recordFailure 返回记录一次失败后的快照（内部使用）
func (m Metrics) recordFailure(now time.Time) Metrics {
	m.ConsecutiveFailures++
	m.ConsecutiveSuccesses = 0
	m.TotalFailures++
	m.LastFailureAt = now
	return m
}

// resetConsecutive 返回清零两个连续计数后的快照（内部使用）
// 正常的 Closed 迁移只清零连续计数，总计数与时间戳保留。
func (m Metrics) resetConsecutive() Metrics {
	m.ConsecutiveSuccesses = 0
	m.ConsecutiveFailures = 0
	return m
}
