package breaker

import "time"

// Clock 时间源抽象
//
// 冷却判断、滑动窗口与时间戳都通过 Clock 取当前时间，
// 测试可注入假时钟驱动确定性的时间推进。
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock 返回基于 OS 时钟的 Clock 实现
func SystemClock() Clock {
	return systemClock{}
}
