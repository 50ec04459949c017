package breaker

import (
	"context"
	"sync"
)

// memoryRecord 进程内的一条熔断记录（内部使用）
type memoryRecord struct {
	state   State
	metrics Metrics
}

// memoryStore 内存存储实现（非导出，仅用于单机）
//
// 全部读改写都在同一把锁内完成，对同一身份的并发记录不会交错。
type memoryStore struct {
	mu      sync.Mutex
	clock   Clock
	records map[string]*memoryRecord
}

func newMemoryStore(clock Clock) Store {
	return &memoryStore{
		clock:   clock,
		records: make(map[string]*memoryRecord),
	}
}

// getOrCreate 取出记录，不存在时创建默认记录（调用方须持锁）
func (ms *memoryStore) getOrCreate(id Identity) *memoryRecord {
	key := id.recordKey("")
	rec, ok := ms.records[key]
	if !ok {
		rec = &memoryRecord{state: StateClosed}
		ms.records[key] = rec
	}
	return rec
}

func (ms *memoryStore) GetState(ctx context.Context, id Identity) (State, error) {
	if err := ctx.Err(); err != nil {
		return StateClosed, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec, ok := ms.records[id.recordKey("")]
	if !ok {
		return StateClosed, nil
	}
	return rec.state, nil
}

func (ms *memoryStore) GetMetrics(ctx context.Context, id Identity) (Metrics, error) {
	if err := ctx.Err(); err != nil {
		return Metrics{}, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec, ok := ms.records[id.recordKey("")]
	if !ok {
		return Metrics{}, nil
	}
	return rec.metrics, nil
}

func (ms *memoryStore) RecordSuccess(ctx context.Context, id Identity) (Metrics, error) {
	if err := ctx.Err(); err != nil {
		return Metrics{}, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec := ms.getOrCreate(id)
	rec.metrics = rec.metrics.recordSuccess(ms.clock.Now())
	return rec.metrics, nil
}

func (ms *memoryStore) RecordFailure(ctx context.Context, id Identity) (Metrics, error) {
	if err := ctx.Err(); err != nil {
		return Metrics{}, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec := ms.getOrCreate(id)
	rec.metrics = rec.metrics.recordFailure(ms.clock.Now())
	return rec.metrics, nil
}

func (ms *memoryStore) TransitionToOpen(ctx context.Context, id Identity) error {
	return ms.transition(ctx, id, StateOpen)
}

func (ms *memoryStore) TransitionToHalfOpen(ctx context.Context, id Identity) error {
	return ms.transition(ctx, id, StateHalfOpen)
}

func (ms *memoryStore) TransitionToClosed(ctx context.Context, id Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec := ms.getOrCreate(id)
	rec.state = StateClosed
	rec.metrics = rec.metrics.resetConsecutive()
	return nil
}

func (ms *memoryStore) Reset(ctx context.Context, id Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	delete(ms.records, id.recordKey(""))
	ms.mu.Unlock()

	return nil
}

func (ms *memoryStore) transition(ctx context.Context, id Identity, state State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec := ms.getOrCreate(id)
	rec.state = state
	return nil
}
