package breaker

import (
	"sync"

	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/connector"
	"github.com/ceyewan/fusebox/xerrors"
)

// managerCore 注册表与驱动缓存，被所有作用域视图共享（内部使用）
type managerCore struct {
	settings   *Settings
	logger     clog.Logger
	clock      Clock
	recorder   meterRecorder
	strategies *strategyRegistry
	fallbacks  *fallbackRegistry
	events     *eventDispatcher
	filter     errorFilter
	morph      morphPolicy

	redisConns map[string]connector.RedisConnector
	dbConns    map[string]DBConnector

	mu        sync.Mutex
	factories map[string]Factory
	stores    map[string]Store
}

// manager Manager 实现（非导出）
//
// For/Boundary 复制视图并设置对应侧，注册表通过 core 指针共享，
// 因此链式调用不影响原 Manager。作用域校验失败推迟到 Make 返回。
type manager struct {
	core  *managerCore
	scope Scope
	err   error
}

// New 创建熔断器管理器
//
// 参数:
//   - settings: 组件级配置，不可为 nil
//   - opts: 可选项 (Logger, Meter, Clock, 连接器, 错误分类, 监听器)；降级处理器通过 Manager.Fallback / DefaultFallback 注册
//
// 使用示例:
//
//	mgr, _ := breaker.New(&breaker.Settings{
//		Default: "main",
//		Stores: map[string]breaker.StoreConfig{
//			"main":   {Driver: breaker.DriverMemory},
//			"shared": {Driver: breaker.DriverCache, Prefix: "myapp:breaker:"},
//		},
//	},
//		breaker.WithLogger(logger),
//		breaker.WithRedisConnector(redisConn),
//	)
func New(settings *Settings, opts ...Option) (Manager, error) {
	if settings == nil {
		return nil, ErrSettingsNil
	}
	settings.setDefaults()
	if err := settings.validate(); err != nil {
		return nil, err
	}

	opt := options{
		redisConns: make(map[string]connector.RedisConnector),
		dbConns:    make(map[string]DBConnector),
	}
	for _, o := range opts {
		o(&opt)
	}

	logger := opt.logger
	if logger == nil {
		logger = clog.Discard()
	}

	core := &managerCore{
		settings:   settings,
		logger:     logger,
		clock:      opt.clock,
		recorder:   meterRecorder{meter: opt.meter},
		strategies: newStrategyRegistry(),
		fallbacks:  newFallbackRegistry(settings.Fallbacks.Enabled),
		events:     newEventDispatcher(settings.Events.Enabled, logger),
		filter:     errorFilter{ignore: opt.ignore, record: opt.record},
		morph:      newMorphPolicy(settings),
		redisConns: opt.redisConns,
		dbConns:    opt.dbConns,
		factories:  make(map[string]Factory),
		stores:     make(map[string]Store),
	}
	if core.clock == nil {
		core.clock = SystemClock()
	}
	for _, l := range opt.listeners {
		core.events.subscribe(l)
	}

	logger.Info("circuit breaker manager created",
		clog.String("default_store", settings.Default),
		clog.Int("stores", len(settings.Stores)),
		clog.Bool("events_enabled", settings.Events.Enabled),
		clog.Bool("fallbacks_enabled", settings.Fallbacks.Enabled))

	return &manager{core: core}, nil
}

// For 返回绑定 Context 作用域的新视图
func (m *manager) For(ref *Ref) Manager {
	next := *m
	next.scope.Context = ref
	if next.err == nil {
		next.err = m.core.morph.validateContext(ref)
	}
	return &next
}

// Boundary 返回绑定 Boundary 作用域的新视图
func (m *manager) Boundary(ref *Ref) Manager {
	next := *m
	next.scope.Boundary = ref
	if next.err == nil {
		next.err = m.core.morph.validateBoundary(ref)
	}
	return &next
}

// Make 构建一个熔断器
func (m *manager) Make(name string, opts ...MakeOption) (Breaker, error) {
	if m.err != nil {
		return nil, m.err
	}
	if name == "" {
		return nil, ErrNameEmpty
	}

	mo := makeOptions{}
	for _, o := range opts {
		o(&mo)
	}

	cfg := m.core.settings.Defaults
	if mo.config != nil {
		cfg = *mo.config
	}
	if mo.strategy != "" {
		cfg.Strategy = mo.strategy
	}
	cfg = cfg.WithName(name).withDefaults()

	strategy, ok := m.core.strategies.resolve(cfg.Strategy)
	if !ok {
		return nil, xerrors.Wrapf(ErrUnknownStrategy, "%q", cfg.Strategy)
	}

	store, err := m.core.resolveStore(mo.store)
	if err != nil {
		return nil, err
	}

	return &circuitBreaker{
		identity:  Identity{Name: name, Scope: m.scope},
		cfg:       cfg,
		store:     store,
		strategy:  strategy,
		clock:     m.core.clock,
		events:    m.core.events,
		fallbacks: m.core.fallbacks,
		filter:    m.core.filter,
		recorder:  m.core.recorder,
		logger:    m.core.logger,
	}, nil
}

// Extend 注册自定义存储驱动工厂
func (m *manager) Extend(driver string, factory Factory) {
	m.core.mu.Lock()
	m.core.factories[driver] = factory
	m.core.mu.Unlock()
}

// RegisterStrategy 注册自定义熔断策略
func (m *manager) RegisterStrategy(s Strategy) {
	m.core.strategies.register(s)
}

// OnEvent 注册事件监听器
func (m *manager) OnEvent(l Listener) {
	m.core.events.subscribe(l)
}

// Fallback 注册按名称匹配的降级处理器
func (m *manager) Fallback(name string, fn FallbackFunc) {
	m.core.fallbacks.register(name, fn)
}

// DefaultFallback 注册全局默认降级处理器
func (m *manager) DefaultFallback(fn FallbackFunc) {
	m.core.fallbacks.registerDefault(fn)
}

// Store 解析并缓存存储驱动实例
func (m *manager) Store(name string) (Store, error) {
	return m.core.resolveStore(name)
}

// Flush 清空已缓存的存储驱动实例
func (m *manager) Flush() {
	m.core.mu.Lock()
	m.core.stores = make(map[string]Store)
	m.core.mu.Unlock()
}

// ========================================
// 驱动解析 (Driver Resolution)
// ========================================

// resolveStore 按名称解析驱动实例，结果缓存
func (c *managerCore) resolveStore(name string) (Store, error) {
	if name == "" {
		name = c.settings.Default
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if store, ok := c.stores[name]; ok {
		return store, nil
	}

	cfg, ok := c.settings.Stores[name]
	if !ok {
		return nil, xerrors.Wrapf(ErrUndefinedStore, "%q", name)
	}

	store, err := c.buildStore(cfg)
	if err != nil {
		return nil, err
	}

	c.stores[name] = store
	c.logger.Info("store driver resolved",
		clog.String("store", name),
		clog.String("driver", cfg.Driver))
	return store, nil
}

// buildStore 按驱动类型构建存储实例（调用方须持锁）
func (c *managerCore) buildStore(cfg StoreConfig) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return newMemoryStore(c.clock), nil

	case DriverCache:
		conn, ok := c.lookupRedis(cfg.Store)
		if !ok {
			return nil, xerrors.Wrapf(ErrConnectorRequired, "redis connector %q", connectorName(cfg.Store))
		}
		return newCacheStore(conn, cfg, c.clock)

	case DriverDurable:
		conn, ok := c.lookupDB(cfg.Connection)
		if !ok {
			return nil, xerrors.Wrapf(ErrConnectorRequired, "database connector %q", connectorName(cfg.Connection))
		}
		return newDurableStore(conn, c.settings, c.clock, c.logger)

	default:
		if factory, ok := c.factories[cfg.Driver]; ok {
			return factory(c.factoryDeps(), cfg)
		}
		return nil, xerrors.Wrapf(ErrUnsupportedDriver, "%q", cfg.Driver)
	}
}

func (c *managerCore) factoryDeps() FactoryDeps {
	return FactoryDeps{
		Settings: c.settings,
		Logger:   c.logger,
		Clock:    c.clock,
		Redis:    c.lookupRedis,
		DB:       c.lookupDB,
	}
}

func (c *managerCore) lookupRedis(name string) (connector.RedisConnector, bool) {
	conn, ok := c.redisConns[connectorName(name)]
	return conn, ok
}

func (c *managerCore) lookupDB(name string) (DBConnector, bool) {
	conn, ok := c.dbConns[connectorName(name)]
	return conn, ok
}

func connectorName(name string) string {
	if name == "" {
		return "default"
	}
	return name
}
