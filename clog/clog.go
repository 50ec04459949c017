package clog

import "fmt"

// New 创建一个新的 Logger 实例
//
// 参数：
//   - config: 日志配置，为 nil 时使用默认配置（info 级别、console 格式、stdout）
//   - opts: 函数式选项，如 WithWriter
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = &Config{}
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}

	return newLogger(config, opt)
}
