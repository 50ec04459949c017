package breaker

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/fusebox/connector"
	"github.com/ceyewan/fusebox/testkit"
)

func newTestCacheStore(t *testing.T, cfg StoreConfig) (Store, *miniredis.Miniredis) {
	t.Helper()

	client, mr := testkit.NewRedisClient(t)
	store, err := newCacheStore(connector.NewRedisFromClient("default", client), cfg, newFakeClock())
	require.NoError(t, err)
	return store, mr
}

func TestCacheStoreContract(t *testing.T) {
	store, _ := newTestCacheStore(t, StoreConfig{Driver: DriverCache})
	storeContractTest(t, store)
}

func TestCacheStoreContractMsgpack(t *testing.T) {
	store, _ := newTestCacheStore(t, StoreConfig{Driver: DriverCache, Serializer: "msgpack"})
	storeContractTest(t, store)
}

func TestCacheStoreIsolation(t *testing.T) {
	store, _ := newTestCacheStore(t, StoreConfig{Driver: DriverCache})
	storeIsolationTest(t, store)
}

func TestCacheStoreKeyLayout(t *testing.T) {
	store, mr := newTestCacheStore(t, StoreConfig{Driver: DriverCache, Prefix: "myapp:breaker:"})
	ctx := context.Background()
	id := Identity{Name: "mail.send", Scope: Scope{Context: &Ref{Type: "tenant", ID: "42"}}}

	_, err := store.RecordFailure(ctx, id)
	require.NoError(t, err)
	require.NoError(t, store.TransitionToOpen(ctx, id))

	// 同一身份占用 …:state 与 …:metrics 两个逻辑键
	assert.True(t, mr.Exists("myapp:breaker:tenant:42:mail.send:state"))
	assert.True(t, mr.Exists("myapp:breaker:tenant:42:mail.send:metrics"))

	val, err := mr.Get("myapp:breaker:tenant:42:mail.send:state")
	require.NoError(t, err)
	assert.Equal(t, "open", val)

	// 永久写入，不设置 TTL
	assert.Zero(t, mr.TTL("myapp:breaker:tenant:42:mail.send:state"))

	// Reset 删除两个键
	require.NoError(t, store.Reset(ctx, id))
	assert.False(t, mr.Exists("myapp:breaker:tenant:42:mail.send:state"))
	assert.False(t, mr.Exists("myapp:breaker:tenant:42:mail.send:metrics"))
}

func TestCacheStoreSurvivesNewInstance(t *testing.T) {
	// 同一 Redis 上的两个驱动实例看到同一份记录（跨进程共享的形态）
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	conn := connector.NewRedisFromClient("default", client)
	cfg := StoreConfig{Driver: DriverCache, Prefix: "shared:"}

	first, err := newCacheStore(conn, cfg, newFakeClock())
	require.NoError(t, err)

	ctx := context.Background()
	id := Identity{Name: "payments.charge"}
	_, err = first.RecordFailure(ctx, id)
	require.NoError(t, err)
	require.NoError(t, first.TransitionToOpen(ctx, id))

	second, err := newCacheStore(conn, cfg, newFakeClock())
	require.NoError(t, err)

	state, err := second.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, state)

	m, err := second.GetMetrics(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.TotalFailures)
}

func TestCacheStoreInvalidSerializer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, err := newCacheStore(connector.NewRedisFromClient("default", client),
		StoreConfig{Driver: DriverCache, Serializer: "protobuf"}, newFakeClock())
	assert.ErrorIs(t, err, ErrUnsupportedSerializer)
}

func TestCacheStoreNilConnector(t *testing.T) {
	_, err := newCacheStore(nil, StoreConfig{Driver: DriverCache}, newFakeClock())
	assert.ErrorIs(t, err, ErrConnectorRequired)
}
