package breaker

import (
	"context"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/testkit"
)

func newTestDurableStore(t *testing.T, settings *Settings) *durableStore {
	t.Helper()

	conn := testkit.NewSQLiteConnector(t)

	if settings == nil {
		settings = &Settings{}
	}
	settings.setDefaults()

	store, err := newDurableStore(conn, settings, newFakeClock(), clog.Discard())
	require.NoError(t, err)
	return store.(*durableStore)
}

func TestDurableStoreContract(t *testing.T) {
	storeContractTest(t, newTestDurableStore(t, nil))
}

func TestDurableStoreIsolation(t *testing.T) {
	storeIsolationTest(t, newTestDurableStore(t, nil))
}

func TestDurableStoreRowPerIdentity(t *testing.T) {
	store := newTestDurableStore(t, nil)
	ctx := context.Background()

	// 全局、单侧、双侧作用域各占一行
	identities := []Identity{
		{Name: "x"},
		{Name: "x", Scope: Scope{Context: &Ref{Type: "user", ID: "1"}}},
		{Name: "x", Scope: Scope{Boundary: &Ref{Type: "account", ID: "1"}}},
		{Name: "x", Scope: Scope{
			Context:  &Ref{Type: "user", ID: "1"},
			Boundary: &Ref{Type: "account", ID: "1"},
		}},
	}
	for _, id := range identities {
		_, err := store.RecordSuccess(ctx, id)
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, store.db.Table(store.tables.CircuitBreakers).Count(&count).Error)
	assert.Equal(t, int64(4), count)

	// 重复记录不产生新行
	_, err := store.RecordSuccess(ctx, identities[0])
	require.NoError(t, err)
	require.NoError(t, store.db.Table(store.tables.CircuitBreakers).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestDurableStoreEventTrail(t *testing.T) {
	store := newTestDurableStore(t, nil)
	ctx := context.Background()
	id := Identity{Name: "events.test"}

	_, err := store.RecordFailure(ctx, id)
	require.NoError(t, err)
	_, err = store.RecordSuccess(ctx, id)
	require.NoError(t, err)
	require.NoError(t, store.TransitionToOpen(ctx, id))
	require.NoError(t, store.TransitionToHalfOpen(ctx, id))
	require.NoError(t, store.TransitionToClosed(ctx, id))
	require.NoError(t, store.Reset(ctx, id))

	var events []CircuitBreakerEvent
	require.NoError(t, store.db.Table(store.tables.CircuitBreakerEvents).Find(&events).Error)
	require.Len(t, events, 6)

	types := make([]string, len(events))
	var opened *CircuitBreakerEvent
	for i, e := range events {
		types[i] = e.EventType
		if e.EventType == recordEventOpened {
			opened = &events[i]
		}
	}
	assert.ElementsMatch(t, []string{
		recordEventFailure, recordEventSuccess,
		recordEventOpened, recordEventHalfOpened, recordEventClosed,
		recordEventReset,
	}, types)

	// 迁移事件携带 from/to 元数据
	require.NotNil(t, opened)
	assert.Contains(t, string(opened.Metadata), `"to":"open"`)

	// 所有事件都挂在同一条记录上
	for _, e := range events {
		assert.Equal(t, events[0].CircuitBreakerID, e.CircuitBreakerID)
	}
}

func TestDurableStoreResetZerosRow(t *testing.T) {
	store := newTestDurableStore(t, nil)
	ctx := context.Background()
	id := Identity{Name: "reset.test"}

	_, err := store.RecordFailure(ctx, id)
	require.NoError(t, err)
	require.NoError(t, store.TransitionToOpen(ctx, id))
	require.NoError(t, store.Reset(ctx, id))

	// Reset 清零整行但保留行本身
	rec, err := store.find(store.db, id, false)
	require.NoError(t, err)
	assert.Equal(t, StateClosed.String(), rec.State)
	assert.Zero(t, rec.TotalFailures)
	assert.Zero(t, rec.ConsecutiveFailures)
	assert.Nil(t, rec.LastFailureAt)
	assert.Nil(t, rec.OpenedAt)
	assert.NotNil(t, rec.ClosedAt)

	// Reset 不存在的身份是空操作
	assert.NoError(t, store.Reset(ctx, Identity{Name: "never.seen"}))
}

func TestDurableStoreOpenedAtStamp(t *testing.T) {
	store := newTestDurableStore(t, nil)
	ctx := context.Background()
	id := Identity{Name: "stamp.test"}

	require.NoError(t, store.TransitionToOpen(ctx, id))
	rec, err := store.find(store.db, id, false)
	require.NoError(t, err)
	assert.NotNil(t, rec.OpenedAt)
	assert.Nil(t, rec.ClosedAt)

	require.NoError(t, store.TransitionToClosed(ctx, id))
	rec, err = store.find(store.db, id, false)
	require.NoError(t, err)
	assert.NotNil(t, rec.ClosedAt)
}

func TestDurableStoreCustomTableNames(t *testing.T) {
	settings := &Settings{
		TableNames: TableNames{
			CircuitBreakers:      "cb_records",
			CircuitBreakerEvents: "cb_events",
		},
	}
	store := newTestDurableStore(t, settings)
	ctx := context.Background()

	_, err := store.RecordSuccess(ctx, Identity{Name: "custom.tables"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, store.db.Table("cb_records").Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, store.db.Table("cb_events").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestIDGenerators(t *testing.T) {
	// uuid
	gen, err := newIDGenerator(PrimaryKeyUUID)
	require.NoError(t, err)
	id := gen.nextID()
	_, err = uuid.Parse(id)
	assert.NoError(t, err, id)

	// ulid
	gen, err = newIDGenerator(PrimaryKeyULID)
	require.NoError(t, err)
	id = gen.nextID()
	_, err = ulid.ParseStrict(id)
	assert.NoError(t, err, id)

	// integer：十进制、单调递增
	gen, err = newIDGenerator(PrimaryKeyInteger)
	require.NoError(t, err)
	prev := int64(0)
	for i := 0; i < 100; i++ {
		n, err := strconv.ParseInt(gen.nextID(), 10, 64)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		prev = n
	}

	_, err = newIDGenerator("serial")
	assert.ErrorIs(t, err, ErrInvalidPrimaryKeyType)
}

func TestDurableStoreNilConnector(t *testing.T) {
	settings := &Settings{}
	settings.setDefaults()
	_, err := newDurableStore(nil, settings, newFakeClock(), clog.Discard())
	assert.ErrorIs(t, err, ErrConnectorRequired)
}
