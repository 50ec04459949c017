package clog

import "io"

// Option 函数式选项，用于配置 Logger 实例
type Option func(*options)

// options 内部选项结构
type options struct {
	writer io.Writer
}

// WithWriter 覆盖输出目标，优先级高于 Config.Output
// 主要用于测试中捕获日志输出。
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}
