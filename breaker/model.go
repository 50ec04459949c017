package breaker

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// CircuitBreakerRecord durable 驱动的熔断记录行
//
// 作用域列存空字符串表示该侧缺省。MySQL 的唯一索引把 NULL 视为互不相等，
// 用空字符串才能让五列唯一索引真正约束全局/单侧/双侧作用域的互异性。
type CircuitBreakerRecord struct {
	ID           string `gorm:"column:id;primaryKey;size:40"`
	ContextType  string `gorm:"column:context_type;size:150;default:'';index:idx_cb_context,priority:1;uniqueIndex:ux_cb_identity,priority:1"`
	ContextID    string `gorm:"column:context_id;size:150;default:'';index:idx_cb_context,priority:2;uniqueIndex:ux_cb_identity,priority:2"`
	BoundaryType string `gorm:"column:boundary_type;size:150;default:'';index:idx_cb_boundary,priority:1;uniqueIndex:ux_cb_identity,priority:3"`
	BoundaryID   string `gorm:"column:boundary_id;size:150;default:'';index:idx_cb_boundary,priority:2;uniqueIndex:ux_cb_identity,priority:4"`
	Name         string `gorm:"column:name;size:150;uniqueIndex:ux_cb_identity,priority:5"`
	State        string `gorm:"column:state;size:20;default:'closed';index:idx_cb_state"`

	ConsecutiveSuccesses int64 `gorm:"column:consecutive_successes;default:0"`
	ConsecutiveFailures  int64 `gorm:"column:consecutive_failures;default:0"`
	TotalSuccesses       int64 `gorm:"column:total_successes;default:0"`
	TotalFailures        int64 `gorm:"column:total_failures;default:0"`

	LastSuccessAt *time.Time `gorm:"column:last_success_at"`
	LastFailureAt *time.Time `gorm:"column:last_failure_at"`
	OpenedAt      *time.Time `gorm:"column:opened_at;index:idx_cb_opened_at"`
	ClosedAt      *time.Time `gorm:"column:closed_at"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// toMetrics 转换为计数快照
func (r *CircuitBreakerRecord) toMetrics() Metrics {
	m := Metrics{
		ConsecutiveSuccesses: r.ConsecutiveSuccesses,
		ConsecutiveFailures:  r.ConsecutiveFailures,
		TotalSuccesses:       r.TotalSuccesses,
		TotalFailures:        r.TotalFailures,
	}
	if r.LastSuccessAt != nil {
		m.LastSuccessAt = *r.LastSuccessAt
	}
	if r.LastFailureAt != nil {
		m.LastFailureAt = *r.LastFailureAt
	}
	return m
}

// CircuitBreakerEvent durable 驱动的事件流水行（仅追加）
type CircuitBreakerEvent struct {
	ID               string    `gorm:"column:id;primaryKey;size:40"`
	CircuitBreakerID string    `gorm:"column:circuit_breaker_id;size:40;index:idx_cbe_breaker;index:idx_cbe_breaker_type,priority:1"`
	EventType        string    `gorm:"column:event_type;size:20;index:idx_cbe_type;index:idx_cbe_breaker_type,priority:2"`
	Metadata         []byte    `gorm:"column:metadata;type:json"`
	CreatedAt        time.Time `gorm:"column:created_at;index:idx_cbe_created_at"`
}

// 事件流水的 event_type 取值
const (
	recordEventOpened     = "opened"
	recordEventClosed     = "closed"
	recordEventHalfOpened = "half_opened"
	recordEventSuccess    = "success"
	recordEventFailure    = "failure"
	recordEventReset      = "reset"
)

// ========================================
// 主键生成 (Primary Key Generation)
// ========================================

// idGenerator durable 驱动的主键生成器（内部使用）
type idGenerator interface {
	nextID() string
}

// newIDGenerator 按配置的主键类型创建生成器
func newIDGenerator(kind string) (idGenerator, error) {
	switch kind {
	case PrimaryKeyUUID:
		return uuidGenerator{}, nil
	case PrimaryKeyULID:
		return &ulidGenerator{}, nil
	case PrimaryKeyInteger:
		return &snowflakeGenerator{}, nil
	default:
		return nil, ErrInvalidPrimaryKeyType
	}
}

// uuidGenerator 生成 UUIDv7，按时间有序
type uuidGenerator struct{}

func (uuidGenerator) nextID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 只会在系统随机源不可用时失败，回退到 v4
		return uuid.NewString()
	}
	return id.String()
}

// ulidGenerator 生成 ULID
type ulidGenerator struct {
	mu sync.Mutex
}

func (g *ulidGenerator) nextID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.Make().String()
}

// snowflakeGenerator 生成雪花格式的整数主键（十进制字符串形式）
//
// 41 bit 毫秒时间戳 + 10 bit 节点 + 12 bit 序列。
// 单调递增，同一毫秒内序列耗尽时借用下一毫秒。
type snowflakeGenerator struct {
	mu       sync.Mutex
	workerID int64
	lastTime int64
	sequence int64
}

// snowflakeEpoch 2024-01-01 00:00:00 UTC，毫秒
const snowflakeEpoch = 1704067200000

func (g *snowflakeGenerator) nextID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	// 容忍时钟回拨：沿用上次时间继续递增序列
	if now < g.lastTime {
		now = g.lastTime
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & 0xFFF
		if g.sequence == 0 {
			g.lastTime++
			now = g.lastTime
		}
	} else {
		g.sequence = 0
		g.lastTime = now
	}

	id := (now-snowflakeEpoch)<<22 | (g.workerID&0x3FF)<<12 | g.sequence
	return strconv.FormatInt(id, 10)
}
