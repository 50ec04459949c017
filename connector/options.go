package connector

import "github.com/ceyewan/fusebox/clog"

// Option 配置连接器的选项
type Option func(*options)

type options struct {
	logger clog.Logger
}

// WithLogger 设置日志记录器
// 内部会自动添加 "connector" 命名空间。
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("connector")
		}
	}
}

func (o *options) applyDefaults() {
	if o.logger == nil {
		o.logger = clog.Discard()
	}
}
