// Package testkit 提供测试用的依赖构造辅助。
//
// 所有辅助函数的资源生命周期都通过 t.Cleanup 管理，
// 测试结束后自动释放，无需外部服务。
package testkit

import (
	"context"
	"testing"

	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/metrics"
)

// Kit 通用测试依赖
type Kit struct {
	Ctx    context.Context
	Logger clog.Logger
	Meter  metrics.Meter
}

// NewKit 返回包含默认依赖的测试工具包
func NewKit(t *testing.T) *Kit {
	t.Helper()
	return &Kit{
		Ctx:    context.Background(),
		Logger: NewLogger(),
		Meter:  NewMeter(),
	}
}

// NewLogger 返回静默 Logger，避免测试输出噪音
func NewLogger() clog.Logger {
	return clog.Discard()
}

// NewMeter 返回 noop Meter
func NewMeter() metrics.Meter {
	return metrics.Discard()
}
