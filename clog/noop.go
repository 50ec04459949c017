package clog

// noopLogger 什么都不做的 Logger 实现（内部使用）
type noopLogger struct{}

// Discard 创建一个静默的 Logger 实例
// 所有方法均为空操作，适合测试或显式关闭日志的场景。
func Discard() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(msg string, fields ...Field) {}
func (l *noopLogger) Info(msg string, fields ...Field)  {}
func (l *noopLogger) Warn(msg string, fields ...Field)  {}
func (l *noopLogger) Error(msg string, fields ...Field) {}

func (l *noopLogger) With(fields ...Field) Logger {
	return l
}

func (l *noopLogger) WithNamespace(parts ...string) Logger {
	return l
}

func (l *noopLogger) SetLevel(level Level) error {
	return nil
}
