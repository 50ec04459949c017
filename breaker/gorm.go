package breaker

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/xerrors"
)

// durableStore 数据库存储实现（非导出）
//
// 一行对应一个 (name, scope)，事件表按流水追加每次结果与状态迁移。
// 所有写操作都在事务内执行：读改写行并追加事件是一个原子单元。
// find-or-create 依赖五列唯一索引化解并发创建：失败方重读胜者的行。
type durableStore struct {
	db     *gorm.DB
	tables TableNames
	idgen  idGenerator
	clock  Clock
	logger clog.Logger
}

func newDurableStore(conn DBConnector, settings *Settings, clock Clock, logger clog.Logger) (Store, error) {
	if conn == nil {
		return nil, xerrors.Wrap(ErrConnectorRequired, "durable driver needs a database connector")
	}
	db := conn.GetClient()
	if db == nil {
		return nil, xerrors.Wrap(ErrConnectorRequired, "database connector is not connected")
	}

	idgen, err := newIDGenerator(settings.PrimaryKeyType)
	if err != nil {
		return nil, err
	}

	s := &durableStore{
		db:     db,
		tables: settings.TableNames,
		idgen:  idgen,
		clock:  clock,
		logger: logger,
	}

	if err := s.migrate(); err != nil {
		return nil, xerrors.Wrap(err, "breaker: failed to migrate durable tables")
	}
	return s, nil
}

// migrate 建表（幂等）
func (s *durableStore) migrate() error {
	if err := s.db.Table(s.tables.CircuitBreakers).AutoMigrate(&CircuitBreakerRecord{}); err != nil {
		return err
	}
	return s.db.Table(s.tables.CircuitBreakerEvents).AutoMigrate(&CircuitBreakerEvent{})
}

// scopeColumns 作用域两侧展开为列值，缺省侧为空字符串
func scopeColumns(scope Scope) (ctxType, ctxID, bndType, bndID string) {
	if scope.Context != nil {
		ctxType, ctxID = scope.Context.Type, scope.Context.ID
	}
	if scope.Boundary != nil {
		bndType, bndID = scope.Boundary.Type, scope.Boundary.ID
	}
	return
}

// identityQuery 按五列身份过滤
func (s *durableStore) identityQuery(tx *gorm.DB, id Identity) *gorm.DB {
	ctxType, ctxID, bndType, bndID := scopeColumns(id.Scope)
	return tx.Table(s.tables.CircuitBreakers).
		Where("context_type = ? AND context_id = ? AND boundary_type = ? AND boundary_id = ? AND name = ?",
			ctxType, ctxID, bndType, bndID, id.Name)
}

// find 读取行，不存在时返回 gorm.ErrRecordNotFound
func (s *durableStore) find(tx *gorm.DB, id Identity, forUpdate bool) (*CircuitBreakerRecord, error) {
	query := s.identityQuery(tx, id)
	// SQLite 不支持行锁，单写事务已足够
	if forUpdate && tx.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rec CircuitBreakerRecord
	if err := query.Take(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// findOrCreate 读取行，不存在时创建默认行
// 并发创建时唯一索引保证只有一方成功，失败方重读胜者的行。
func (s *durableStore) findOrCreate(tx *gorm.DB, id Identity, forUpdate bool) (*CircuitBreakerRecord, error) {
	rec, err := s.find(tx, id, forUpdate)
	if err == nil {
		return rec, nil
	}
	if !xerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ctxType, ctxID, bndType, bndID := scopeColumns(id.Scope)
	now := s.clock.Now()
	fresh := CircuitBreakerRecord{
		ID:           s.idgen.nextID(),
		ContextType:  ctxType,
		ContextID:    ctxID,
		BoundaryType: bndType,
		BoundaryID:   bndID,
		Name:         id.Name,
		State:        StateClosed.String(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := tx.Table(s.tables.CircuitBreakers).Create(&fresh).Error; err != nil {
		if xerrors.Is(err, gorm.ErrDuplicatedKey) {
			return s.find(tx, id, forUpdate)
		}
		return nil, err
	}
	return &fresh, nil
}

func (s *durableStore) GetState(ctx context.Context, id Identity) (State, error) {
	rec, err := s.find(s.db.WithContext(ctx), id, false)
	if xerrors.Is(err, gorm.ErrRecordNotFound) {
		return StateClosed, nil
	}
	if err != nil {
		return StateClosed, xerrors.Wrap(err, "breaker: failed to get state")
	}
	return parseState(rec.State), nil
}

func (s *durableStore) GetMetrics(ctx context.Context, id Identity) (Metrics, error) {
	rec, err := s.find(s.db.WithContext(ctx), id, false)
	if xerrors.Is(err, gorm.ErrRecordNotFound) {
		return Metrics{}, nil
	}
	if err != nil {
		return Metrics{}, xerrors.Wrap(err, "breaker: failed to get metrics")
	}
	return rec.toMetrics(), nil
}

func (s *durableStore) RecordSuccess(ctx context.Context, id Identity) (Metrics, error) {
	var out Metrics
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.findOrCreate(tx, id, true)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		updates := map[string]any{
			"consecutive_successes": rec.ConsecutiveSuccesses + 1,
			"consecutive_failures":  0,
			"total_successes":       rec.TotalSuccesses + 1,
			"last_success_at":       now,
			"updated_at":            now,
		}
		if err := s.updateRecord(tx, rec.ID, updates); err != nil {
			return err
		}

		out = rec.toMetrics().recordSuccess(now)
		return s.appendEvent(tx, rec.ID, recordEventSuccess, map[string]any{"state": rec.State})
	})
	if err != nil {
		return Metrics{}, xerrors.Wrap(err, "breaker: failed to record success")
	}
	return out, nil
}

func (s *durableStore) RecordFailure(ctx context.Context, id Identity) (Metrics, error) {
	var out Metrics
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.findOrCreate(tx, id, true)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		updates := map[string]any{
			"consecutive_failures":  rec.ConsecutiveFailures + 1,
			"consecutive_successes": 0,
			"total_failures":        rec.TotalFailures + 1,
			"last_failure_at":       now,
			"updated_at":            now,
		}
		if err := s.updateRecord(tx, rec.ID, updates); err != nil {
			return err
		}

		out = rec.toMetrics().recordFailure(now)
		return s.appendEvent(tx, rec.ID, recordEventFailure, map[string]any{"state": rec.State})
	})
	if err != nil {
		return Metrics{}, xerrors.Wrap(err, "breaker: failed to record failure")
	}
	return out, nil
}

func (s *durableStore) TransitionToOpen(ctx context.Context, id Identity) error {
	return s.transition(ctx, id, StateOpen, recordEventOpened, func(now time.Time) map[string]any {
		return map[string]any{
			"state":      StateOpen.String(),
			"opened_at":  now,
			"updated_at": now,
		}
	})
}

func (s *durableStore) TransitionToHalfOpen(ctx context.Context, id Identity) error {
	return s.transition(ctx, id, StateHalfOpen, recordEventHalfOpened, func(now time.Time) map[string]any {
		return map[string]any{
			"state":      StateHalfOpen.String(),
			"updated_at": now,
		}
	})
}

func (s *durableStore) TransitionToClosed(ctx context.Context, id Identity) error {
	return s.transition(ctx, id, StateClosed, recordEventClosed, func(now time.Time) map[string]any {
		return map[string]any{
			"state":                 StateClosed.String(),
			"consecutive_successes": 0,
			"consecutive_failures":  0,
			"closed_at":             now,
			"updated_at":            now,
		}
	})
}

func (s *durableStore) Reset(ctx context.Context, id Identity) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.find(tx, id, true)
		if xerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		now := s.clock.Now()
		updates := map[string]any{
			"state":                 StateClosed.String(),
			"consecutive_successes": 0,
			"consecutive_failures":  0,
			"total_successes":       0,
			"total_failures":        0,
			"last_success_at":       nil,
			"last_failure_at":       nil,
			"opened_at":             nil,
			"closed_at":             now,
			"updated_at":            now,
		}
		if err := s.updateRecord(tx, rec.ID, updates); err != nil {
			return err
		}
		return s.appendEvent(tx, rec.ID, recordEventReset, nil)
	})
	if err != nil {
		return xerrors.Wrap(err, "breaker: failed to reset record")
	}
	return nil
}

// transition 状态迁移的公共路径（内部函数）
func (s *durableStore) transition(ctx context.Context, id Identity, state State, eventType string, build func(now time.Time) map[string]any) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.findOrCreate(tx, id, true)
		if err != nil {
			return err
		}

		if err := s.updateRecord(tx, rec.ID, build(s.clock.Now())); err != nil {
			return err
		}
		return s.appendEvent(tx, rec.ID, eventType, map[string]any{"from": rec.State, "to": state.String()})
	})
	if err != nil {
		return xerrors.Wrapf(err, "breaker: failed to transition to %s", state)
	}
	return nil
}

func (s *durableStore) updateRecord(tx *gorm.DB, recordID string, updates map[string]any) error {
	return tx.Table(s.tables.CircuitBreakers).Where("id = ?", recordID).Updates(updates).Error
}

// appendEvent 向事件流水追加一条记录（内部函数）
func (s *durableStore) appendEvent(tx *gorm.DB, breakerID, eventType string, metadata map[string]any) error {
	var meta []byte
	if metadata != nil {
		var err error
		meta, err = json.Marshal(metadata)
		if err != nil {
			return err
		}
	}

	evt := CircuitBreakerEvent{
		ID:               s.idgen.nextID(),
		CircuitBreakerID: breakerID,
		EventType:        eventType,
		Metadata:         meta,
		CreatedAt:        s.clock.Now(),
	}
	return tx.Table(s.tables.CircuitBreakerEvents).Create(&evt).Error
}
