package breaker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerNilSettings(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrSettingsNil)
}

func TestNewManagerDefaults(t *testing.T) {
	// 空 Settings 得到一个可用的 memory 存储
	mgr, err := New(&Settings{})
	require.NoError(t, err)

	brk, err := mgr.Make("anything")
	require.NoError(t, err)

	state, err := brk.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateClosed, state)
}

func TestMakeEmptyName(t *testing.T) {
	mgr, err := New(&Settings{})
	require.NoError(t, err)

	_, err = mgr.Make("")
	assert.ErrorIs(t, err, ErrNameEmpty)
}

func TestUndefinedStore(t *testing.T) {
	mgr, err := New(&Settings{})
	require.NoError(t, err)

	_, err = mgr.Make("x", WithStore("nope"))
	assert.ErrorIs(t, err, ErrUndefinedStore)

	// Settings.Default 指向不存在的存储
	mgr, err = New(&Settings{
		Default: "missing",
		Stores:  map[string]StoreConfig{"present": {Driver: DriverMemory}},
	})
	require.NoError(t, err)
	_, err = mgr.Make("x")
	assert.ErrorIs(t, err, ErrUndefinedStore)
}

func TestUnsupportedDriver(t *testing.T) {
	mgr, err := New(&Settings{
		Stores: map[string]StoreConfig{"default": {Driver: "zookeeper"}},
	})
	require.NoError(t, err)

	_, err = mgr.Make("x")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestCacheDriverRequiresConnector(t *testing.T) {
	mgr, err := New(&Settings{
		Stores: map[string]StoreConfig{"default": {Driver: DriverCache}},
	})
	require.NoError(t, err)

	_, err = mgr.Make("x")
	assert.ErrorIs(t, err, ErrConnectorRequired)
}

func TestExtendCustomDriver(t *testing.T) {
	mgr, err := New(&Settings{
		Stores: map[string]StoreConfig{"default": {Driver: "custom"}},
	}, WithClock(newFakeClock()))
	require.NoError(t, err)

	var received StoreConfig
	mgr.Extend("custom", func(deps FactoryDeps, cfg StoreConfig) (Store, error) {
		received = cfg
		require.NotNil(t, deps.Clock)
		require.NotNil(t, deps.Settings)
		return newMemoryStore(deps.Clock), nil
	})

	brk, err := mgr.Make("x")
	require.NoError(t, err)
	assert.Equal(t, "custom", received.Driver)

	state, err := brk.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateClosed, state)
}

func TestUnknownStrategy(t *testing.T) {
	mgr, err := New(&Settings{})
	require.NoError(t, err)

	_, err = mgr.Make("x", WithStrategy("quantum"))
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestRegisterStrategy(t *testing.T) {
	mgr, err := New(&Settings{})
	require.NoError(t, err)

	mgr.RegisterStrategy(alwaysOpenStrategy{})

	brk, err := mgr.Make("x", WithStrategy("always_open"))
	require.NoError(t, err)

	// 一次失败即熔断
	_, _ = brk.Call(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errBoom
	})
	state, err := brk.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateOpen, state)
}

func TestMakeWithConfig(t *testing.T) {
	f := newEngineFixture(t, nil)

	cfg := Config{}.WithFailureThreshold(2)
	brk := f.make(t, "custom.cfg", WithConfig(cfg))

	failN(t, brk, 2)
	state, err := brk.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateOpen, state)
}

func TestForBoundaryImmutability(t *testing.T) {
	f := newEngineFixture(t, nil)

	scoped := f.mgr.For(&Ref{Type: "user", ID: "1"})
	// 链式调用不影响原 Manager：全局视图的熔断器与作用域视图互不干扰
	global := f.make(t, "x")
	scopedBrk, err := scoped.Make("x")
	require.NoError(t, err)

	failN(t, scopedBrk, 5)

	state, err := global.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateClosed, state)

	// 同一视图再派生 Boundary，原视图不受影响
	dual := scoped.Boundary(&Ref{Type: "account", ID: "9"})
	dualBrk, err := dual.Make("x")
	require.NoError(t, err)

	state, err = dualBrk.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateClosed, state)

	state, err = scopedBrk.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateOpen, state)
}

func TestMorphKeyEnforcement(t *testing.T) {
	settings := &Settings{
		MorphKeyMap:        map[string]string{"tenant": MorphKindInt},
		EnforceMorphKeyMap: true,
	}
	mgr, err := New(settings)
	require.NoError(t, err)

	// 未映射的类型标签：错误推迟到 Make 返回
	_, err = mgr.For(&Ref{Type: "user", ID: "1"}).Make("x")
	assert.ErrorIs(t, err, ErrMorphKeyViolation)

	// 已映射且类别匹配
	_, err = mgr.For(&Ref{Type: "tenant", ID: "42"}).Make("x")
	assert.NoError(t, err)

	// Boundary 侧独立，未启用强制
	_, err = mgr.Boundary(&Ref{Type: "anything", ID: "x"}).Make("x")
	assert.NoError(t, err)
}

func TestFlushDropsMemoryState(t *testing.T) {
	f := newEngineFixture(t, nil)

	brk := f.make(t, "flushed")
	failN(t, brk, 3)

	f.mgr.Flush()

	// Flush 后新解析的 memory 驱动是全新实例
	fresh := f.make(t, "flushed")
	m, err := fresh.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Metrics{}, m)
}

func TestStoreInstanceCached(t *testing.T) {
	mgr, err := New(&Settings{})
	require.NoError(t, err)

	first, err := mgr.Store("")
	require.NoError(t, err)
	second, err := mgr.Store("default")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestOpenErrorMatching(t *testing.T) {
	err := &OpenError{Name: "x"}
	assert.Equal(t, `breaker: circuit "x" is open`, err.Error())

	var target *OpenError
	assert.ErrorIs(t, err, ErrOpen)
	assert.ErrorAs(t, error(err), &target)
}
