// Package connector 提供统一的连接管理能力。
//
// 核心特性：
//   - 统一抽象：通过 Connector 接口提供一致的连接管理 API
//   - 类型安全：通过 TypedConnector[T] 泛型接口确保编译时类型检查
//   - 多数据源支持：Redis、MySQL、SQLite
//   - 并发安全：所有公开方法均可从多个协程同时调用
//
// 资源所有权：
//
//	Connector 拥有底层连接的生命周期，应通过 defer 确保 Close() 被调用。
//	组件（如 breaker 的存储驱动）仅借用 Connector，不应调用 Close()。
//
// 基本使用：
//
//	conn, err := connector.NewRedis(&connector.RedisConfig{Addr: "127.0.0.1:6379"})
//	if err != nil {
//	    panic(err)
//	}
//	defer conn.Close()
//
//	if err := conn.Connect(ctx); err != nil {
//	    panic(err)
//	}
//	client := conn.GetClient()
package connector

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Connector 定义所有连接器的通用行为。
type Connector interface {
	// Connect 建立连接。
	// 可安全多次调用。MySQL/SQLite 连接器首次调用建立连接，后续调用直接返回 nil；
	// Redis 连接器每次调用都会 Ping 一次以验证连通性。
	Connect(ctx context.Context) error

	// Close 关闭连接并释放资源。幂等。
	Close() error

	// HealthCheck 检查连接健康状态，并更新内部健康状态缓存。
	HealthCheck(ctx context.Context) error

	// IsHealthy 返回缓存的健康状态，无阻塞。
	IsHealthy() bool

	// Name 返回连接实例名称，用于日志记录和指标标识。
	Name() string
}

// TypedConnector 提供类型安全的客户端访问。
// 类型参数 T 是客户端类型，如 *redis.Client、*gorm.DB。
type TypedConnector[T any] interface {
	Connector

	// GetClient 返回底层客户端实例。
	// 在 Connect() 之前或 Close() 之后调用可能返回 nil。
	GetClient() T
}

// RedisConnector Redis 连接器接口。
type RedisConnector interface {
	TypedConnector[*redis.Client]
}

// MySQLConnector MySQL 连接器接口，基于 GORM。
type MySQLConnector interface {
	TypedConnector[*gorm.DB]
}

// SQLiteConnector SQLite 连接器接口，基于 GORM。
// 支持内存数据库和文件数据库，适合测试和嵌入式场景。
type SQLiteConnector interface {
	TypedConnector[*gorm.DB]
}
