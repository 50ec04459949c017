// Package breaker 提供了熔断器组件，用于保护调用方免受持续失败的依赖拖累。
//
// breaker 是 fusebox 的核心组件，它提供了：
// - 三态状态机（Closed / Open / HalfOpen），基于冷却时间自动探测恢复
// - 三种熔断策略：连续失败、失败率、滑动窗口失败率
// - 可插拔存储驱动：memory（进程内）、cache（Redis 共享）、durable（数据库持久化）
// - 双维多态作用域：按 Context（"谁"）与 Boundary（"什么"）独立隔离熔断记录
// - 六种领域事件、降级处理器、错误分类（忽略/记录名单）
// - gRPC 客户端拦截器与 Gin 中间件无侵入集成
//
// ## 基本使用
//
//	mgr, _ := breaker.New(&breaker.Settings{
//		Default: "main",
//		Stores: map[string]breaker.StoreConfig{
//			"main": {Driver: breaker.DriverMemory},
//		},
//	}, breaker.WithLogger(logger))
//
//	brk, _ := mgr.Make("payments.charge")
//	result, err := brk.Call(ctx, func(ctx context.Context) (any, error) {
//		return chargeGateway(ctx)
//	})
//
// ## 作用域
//
//	// 按租户与外部账号独立熔断
//	brk, _ := mgr.
//		For(&breaker.Ref{Type: "tenant", ID: "42"}).
//		Boundary(&breaker.Ref{Type: "mail_account", ID: "a-7"}).
//		Make("mail.send")
//
// ## 降级
//
//	mgr.Fallback("payments.charge", func(ctx context.Context, name string) (any, error) {
//		return cachedQuote(), nil
//	})
package breaker

import "context"

// ========================================
// 接口定义 (Interface Definitions)
// ========================================

// Breaker 熔断器核心接口
//
// 一个 Breaker 绑定一个受保护身份：(name, scope) 加上其当前状态与计数。
// 所有可变状态都存放在存储驱动中，Breaker 本身可安全地并发共享。
type Breaker interface {
	// Call 在熔断保护下执行 op
	//
	// 熔断器处于 Open 且冷却时间未到时，op 不会被执行，
	// 返回 *OpenError（可通过 errors.Is(err, ErrOpen) 判断），
	// 其中可能携带降级处理器产生的值。
	// op 返回的错误原样透传给调用方，分类结果只决定是否计入失败。
	Call(ctx context.Context, op func(ctx context.Context) (any, error)) (any, error)

	// State 返回存储中的当前状态，未知身份返回 StateClosed
	State(ctx context.Context) (State, error)

	// Metrics 返回存储中的计数快照，未知身份返回零值快照
	Metrics(ctx context.Context) (Metrics, error)

	// Reset 清零此身份的状态与计数，并发出 Closed 事件
	Reset(ctx context.Context) error

	// Name 返回熔断器名称
	Name() string
}

// Manager 熔断器管理入口
//
// 负责存储驱动的解析与缓存、策略注册表、降级处理器注册表，
// 以及链式作用域构造。For/Boundary 返回新的 Manager 视图，
// 原 Manager 不受影响。
type Manager interface {
	// Make 构建一个熔断器
	// 未指定配置时使用 Settings.Defaults；未指定存储时使用 Settings.Default。
	Make(name string, opts ...MakeOption) (Breaker, error)

	// For 返回绑定了 Context 作用域（"谁"）的新 Manager 视图
	// 传入 nil 表示该侧为全局。作用域校验失败会推迟到 Make 时返回。
	For(ref *Ref) Manager

	// Boundary 返回绑定了 Boundary 作用域（"什么"）的新 Manager 视图
	Boundary(ref *Ref) Manager

	// Extend 注册自定义存储驱动工厂
	Extend(driver string, factory Factory)

	// RegisterStrategy 注册自定义熔断策略
	RegisterStrategy(s Strategy)

	// OnEvent 注册事件监听器，监听器在调用方协程内同步执行
	OnEvent(l Listener)

	// Fallback 注册按名称匹配的降级处理器
	Fallback(name string, fn FallbackFunc)

	// DefaultFallback 注册全局默认降级处理器
	DefaultFallback(fn FallbackFunc)

	// Store 解析并缓存指定名称的存储驱动实例
	// 名称为空时使用 Settings.Default。
	Store(name string) (Store, error)

	// Flush 清空已缓存的存储驱动实例
	// 供回收工作进程的运行时在退出时调用；memory 驱动的数据随之丢弃，
	// cache 与 durable 驱动不受影响。
	Flush()
}
