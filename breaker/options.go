package breaker

import (
	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/connector"
	"github.com/ceyewan/fusebox/metrics"
)

// Option Manager 初始化选项
type Option func(*options)

// options 内部选项结构
type options struct {
	logger clog.Logger
	meter  metrics.Meter
	clock  Clock

	redisConns map[string]connector.RedisConnector
	dbConns    map[string]DBConnector

	ignore    []ErrorMatcher
	record    []ErrorMatcher
	listeners []Listener
}

// WithLogger 设置 Logger，内部会自动添加 "breaker" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("breaker")
		}
	}
}

// WithMeter 设置指标收集器
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithClock 注入时间源，默认使用 OS 时钟
// 测试可注入假时钟驱动冷却与滑动窗口判定。
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithRedisConnector 注册 Redis 连接器，按连接器名称索引
// cache 驱动通过 StoreConfig.Store 引用对应名称，空名称匹配 "default"。
// 可多次调用以注册多个连接器。
func WithRedisConnector(conn connector.RedisConnector) Option {
	return func(o *options) {
		if conn != nil {
			o.redisConns[conn.Name()] = conn
		}
	}
}

// WithDBConnector 注册数据库连接器（MySQL 或 SQLite），按连接器名称索引
// durable 驱动通过 StoreConfig.Connection 引用对应名称。
func WithDBConnector(conn DBConnector) Option {
	return func(o *options) {
		if conn != nil {
			o.dbConns[conn.Name()] = conn
		}
	}
}

// WithIgnoreErrors 追加忽略名单谓词
// 匹配的错误如同调用从未发生：不改计数、不迁移状态、不发事件。
// 忽略名单优先于记录名单。
func WithIgnoreErrors(matchers ...ErrorMatcher) Option {
	return func(o *options) {
		o.ignore = append(o.ignore, matchers...)
	}
}

// WithRecordErrors 追加记录白名单谓词
// 名单非空时，只有匹配的错误才计入失败。
func WithRecordErrors(matchers ...ErrorMatcher) Option {
	return func(o *options) {
		o.record = append(o.record, matchers...)
	}
}

// WithListener 注册事件监听器
func WithListener(l Listener) Option {
	return func(o *options) {
		if l != nil {
			o.listeners = append(o.listeners, l)
		}
	}
}

// ========================================
// Make 选项
// ========================================

// MakeOption Make 调用的可选参数
type MakeOption func(*makeOptions)

type makeOptions struct {
	config   *Config
	strategy string
	store    string
}

// WithConfig 使用指定配置取代 Settings.Defaults
func WithConfig(cfg Config) MakeOption {
	return func(o *makeOptions) {
		o.config = &cfg
	}
}

// WithStrategy 覆盖配置中的策略名称
func WithStrategy(name string) MakeOption {
	return func(o *makeOptions) {
		o.strategy = name
	}
}

// WithStore 使用指定名称的存储取代 Settings.Default
func WithStore(name string) MakeOption {
	return func(o *makeOptions) {
		o.store = name
	}
}
