package breaker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContractTest 三种驱动共享的契约测试
func storeContractTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	id := Identity{Name: "contract.test"}

	// 未知身份的默认值
	state, err := store.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, state)

	m, err := store.GetMetrics(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Metrics{}, m)

	// 记录成功：清零连续失败，递增连续成功与总成功
	m, err = store.RecordSuccess(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.ConsecutiveSuccesses)
	assert.Equal(t, int64(0), m.ConsecutiveFailures)
	assert.Equal(t, int64(1), m.TotalSuccesses)
	assert.False(t, m.LastSuccessAt.IsZero())

	// 记录失败：对称语义
	m, err = store.RecordFailure(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.ConsecutiveSuccesses)
	assert.Equal(t, int64(1), m.ConsecutiveFailures)
	assert.Equal(t, int64(1), m.TotalFailures)
	assert.False(t, m.LastFailureAt.IsZero())

	// 记录结果后两个连续计数互斥
	m, err = store.RecordFailure(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.ConsecutiveFailures)
	assert.Equal(t, int64(0), m.ConsecutiveSuccesses)

	// 状态迁移
	require.NoError(t, store.TransitionToOpen(ctx, id))
	state, err = store.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, state)

	require.NoError(t, store.TransitionToHalfOpen(ctx, id))
	state, err = store.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateHalfOpen, state)

	// TransitionToClosed 只清零连续计数，总计数与时间戳保留
	require.NoError(t, store.TransitionToClosed(ctx, id))
	state, err = store.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, state)

	m, err = store.GetMetrics(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.ConsecutiveSuccesses)
	assert.Equal(t, int64(0), m.ConsecutiveFailures)
	assert.Equal(t, int64(1), m.TotalSuccesses)
	assert.Equal(t, int64(2), m.TotalFailures)
	assert.False(t, m.LastFailureAt.IsZero())

	// Reset 之后一切回到默认
	require.NoError(t, store.Reset(ctx, id))
	state, err = store.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, state)

	m, err = store.GetMetrics(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Metrics{}, m)
}

// storeIsolationTest 不同身份互不影响
func storeIsolationTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	scopes := []Identity{
		{Name: "x"},
		{Name: "x", Scope: Scope{Context: &Ref{Type: "user", ID: "u1"}}},
		{Name: "x", Scope: Scope{Context: &Ref{Type: "user", ID: "u2"}}},
		{Name: "x", Scope: Scope{Boundary: &Ref{Type: "account", ID: "a1"}}},
		{Name: "x", Scope: Scope{
			Context:  &Ref{Type: "user", ID: "u1"},
			Boundary: &Ref{Type: "account", ID: "a1"},
		}},
	}

	// 只打开第二个身份并记录失败
	tripped := scopes[1]
	for i := 0; i < 5; i++ {
		_, err := store.RecordFailure(ctx, tripped)
		require.NoError(t, err)
	}
	require.NoError(t, store.TransitionToOpen(ctx, tripped))

	state, err := store.GetState(ctx, tripped)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, state)

	for i, id := range scopes {
		if i == 1 {
			continue
		}
		state, err := store.GetState(ctx, id)
		require.NoError(t, err, "scope %d", i)
		assert.Equal(t, StateClosed, state, "scope %d", i)

		m, err := store.GetMetrics(ctx, id)
		require.NoError(t, err, "scope %d", i)
		assert.Equal(t, Metrics{}, m, "scope %d", i)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	storeContractTest(t, newMemoryStore(newFakeClock()))
}

func TestMemoryStoreIsolation(t *testing.T) {
	storeIsolationTest(t, newMemoryStore(newFakeClock()))
}

func TestMemoryStoreConcurrentRecords(t *testing.T) {
	store := newMemoryStore(newFakeClock())
	ctx := context.Background()
	id := Identity{Name: "concurrent"}

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if g%2 == 0 {
					_, _ = store.RecordSuccess(ctx, id)
				} else {
					_, _ = store.RecordFailure(ctx, id)
				}
			}
		}(g)
	}
	wg.Wait()

	// 读改写不交错：总数不丢更新
	m, err := store.GetMetrics(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines*perGoroutine/2), m.TotalSuccesses)
	assert.Equal(t, int64(goroutines*perGoroutine/2), m.TotalFailures)

	// 连续计数互斥
	assert.True(t, m.ConsecutiveSuccesses == 0 || m.ConsecutiveFailures == 0)
}

func TestMemoryStoreContextCancelled(t *testing.T) {
	store := newMemoryStore(newFakeClock())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.RecordSuccess(ctx, Identity{Name: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
