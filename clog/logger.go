// Package clog 提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象接口，不暴露底层实现（slog）
//   - 支持层级命名空间，适配组件化架构
//   - 零外部依赖（仅依赖 Go 标准库）
//   - 采用函数式选项模式
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger.Info("hello", clog.String("key", "value"))
//
// 创建子 Logger：
//
//	child := logger.With(clog.String("component", "breaker"))
//	scoped := logger.WithNamespace("breaker")
package clog

// NamespaceKey 是日志中命名空间的字段名，用于标识组件模块
const NamespaceKey = "namespace"

// Logger 日志接口，提供结构化日志记录功能
//
// 支持四个日志级别：Debug、Info、Warn、Error。
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With 创建一个带有预设字段的子 Logger
	// 预设的字段会出现在所有日志中。
	With(fields ...Field) Logger

	// WithNamespace 创建一个扩展命名空间的子 Logger
	// 命名空间以 "." 连接，追加到现有命名空间之后。
	WithNamespace(parts ...string) Logger

	// SetLevel 动态调整日志级别
	SetLevel(level Level) error
}
