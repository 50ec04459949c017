package clog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// loggerImpl Logger 接口的 slog 实现（非导出）
type loggerImpl struct {
	handler   slog.Handler
	leveler   *slog.LevelVar
	namespace string
}

// newLogger 创建 Logger 实例（内部函数）
func newLogger(config *Config, opt *options) (Logger, error) {
	writer, err := resolveWriter(config, opt)
	if err != nil {
		return nil, err
	}

	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	leveler := &slog.LevelVar{}
	leveler.Set(level.slogLevel())

	handlerOpts := &slog.HandlerOptions{
		Level:     leveler,
		AddSource: config.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.StringValue(a.Value.Time().Format(TimeFormat))
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.ToLower(config.Format) == "json" {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	return &loggerImpl{handler: handler, leveler: leveler}, nil
}

// resolveWriter 解析输出目标（内部函数）
func resolveWriter(config *Config, opt *options) (io.Writer, error) {
	if opt.writer != nil {
		return opt.writer, nil
	}
	switch config.Output {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}
}

func (l *loggerImpl) Debug(msg string, fields ...Field) {
	l.log(slog.LevelDebug, msg, fields...)
}

func (l *loggerImpl) Info(msg string, fields ...Field) {
	l.log(slog.LevelInfo, msg, fields...)
}

func (l *loggerImpl) Warn(msg string, fields ...Field) {
	l.log(slog.LevelWarn, msg, fields...)
}

func (l *loggerImpl) Error(msg string, fields ...Field) {
	l.log(slog.LevelError, msg, fields...)
}

// With 创建带有预设字段的子 Logger
func (l *loggerImpl) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &loggerImpl{
		handler:   l.handler.WithAttrs(fields),
		leveler:   l.leveler,
		namespace: l.namespace,
	}
}

// WithNamespace 创建扩展命名空间的子 Logger
func (l *loggerImpl) WithNamespace(parts ...string) Logger {
	if len(parts) == 0 {
		return l
	}
	ns := strings.Join(parts, ".")
	if l.namespace != "" {
		ns = l.namespace + "." + ns
	}
	return &loggerImpl{
		handler:   l.handler,
		leveler:   l.leveler,
		namespace: ns,
	}
}

// SetLevel 动态调整日志级别
// 同一 handler 派生出的所有子 Logger 共享级别。
func (l *loggerImpl) SetLevel(level Level) error {
	l.leveler.Set(level.slogLevel())
	return nil
}

func (l *loggerImpl) log(level slog.Level, msg string, fields ...Field) {
	ctx := context.Background()
	if !l.handler.Enabled(ctx, level) {
		return
	}

	record := slog.NewRecord(time.Now(), level, msg, 0)
	if l.namespace != "" {
		record.AddAttrs(slog.String(NamespaceKey, l.namespace))
	}
	record.AddAttrs(fields...)
	_ = l.handler.Handle(ctx, record)
}
