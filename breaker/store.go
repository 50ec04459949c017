package breaker

import (
	"context"

	"gorm.io/gorm"

	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/connector"
)

// 内置存储驱动类型
const (
	// DriverMemory 进程内存储，不跨进程共享，适合测试与单机场景
	DriverMemory = "memory"
	// DriverCache Redis 共享存储，跨进程最终一致
	DriverCache = "cache"
	// DriverDurable 数据库持久化存储，带事务与事件流水
	DriverDurable = "durable"
)

// durable 驱动主键类型
const (
	PrimaryKeyInteger = "integer"
	PrimaryKeyULID    = "ulid"
	PrimaryKeyUUID    = "uuid"
)

// DBConnector durable 驱动接受的数据库连接器（MySQL 或 SQLite）
type DBConnector = connector.TypedConnector[*gorm.DB]

// ========================================
// 存储接口 (Store Interface)
// ========================================

// Store 熔断记录存储接口
//
// 所有操作按 Identity 寻址。未知身份的读取返回默认值
// （StateClosed 与零值快照），记录在首次写入时创建。
// 三种驱动的语义一致，差别只在持久性与共享范围。
type Store interface {
	// GetState 读取状态，未知身份返回 StateClosed
	GetState(ctx context.Context, id Identity) (State, error)

	// GetMetrics 读取计数快照，未知身份返回零值快照
	GetMetrics(ctx context.Context, id Identity) (Metrics, error)

	// RecordSuccess 记录一次成功并返回更新后的快照
	// 清零 ConsecutiveFailures，递增 ConsecutiveSuccesses 与 TotalSuccesses，
	// 并刷新 LastSuccessAt。对同一身份的并发记录必须原子。
	RecordSuccess(ctx context.Context, id Identity) (Metrics, error)

	// RecordFailure 记录一次失败并返回更新后的快照，语义与 RecordSuccess 对称
	RecordFailure(ctx context.Context, id Identity) (Metrics, error)

	// TransitionToOpen 将状态置为 Open
	TransitionToOpen(ctx context.Context, id Identity) error

	// TransitionToHalfOpen 将状态置为 HalfOpen
	TransitionToHalfOpen(ctx context.Context, id Identity) error

	// TransitionToClosed 将状态置为 Closed，并清零两个连续计数
	// 总计数与时间戳保留
	TransitionToClosed(ctx context.Context, id Identity) error

	// Reset 删除（或整体清零）该身份的状态与计数
	Reset(ctx context.Context, id Identity) error
}

// ========================================
// 驱动工厂 (Driver Factory)
// ========================================

// Factory 自定义存储驱动工厂
// 通过 Manager.Extend 注册后，StoreConfig.Driver 即可引用对应驱动名。
type Factory func(deps FactoryDeps, cfg StoreConfig) (Store, error)

// FactoryDeps 工厂可用的依赖
type FactoryDeps struct {
	// Settings 组件级配置
	Settings *Settings

	// Logger 已派生命名空间的日志器
	Logger clog.Logger

	// Clock 时间源
	Clock Clock

	// Redis 按名称解析 Redis 连接器
	Redis func(name string) (connector.RedisConnector, bool)

	// DB 按名称解析数据库连接器
	DB func(name string) (DBConnector, bool)
}
