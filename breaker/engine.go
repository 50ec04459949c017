package breaker

import (
	"context"
	"time"

	"github.com/ceyewan/fusebox/clog"
)

// circuitBreaker 熔断器实现（非导出）
//
// 自身只持有不可变配置、策略引用与作用域，可安全地并发共享；
// 全部可变状态都在存储驱动里。单次 Call 内的效果按以下顺序发生：
// 读状态 →（可选 Open→HalfOpen 迁移）→ 执行操作 → 更新计数 →
// （可选迁移）→ 分发事件 → 返回。
type circuitBreaker struct {
	identity  Identity
	cfg       Config
	store     Store
	strategy  Strategy
	clock     Clock
	events    *eventDispatcher
	fallbacks *fallbackRegistry
	filter    errorFilter
	recorder  meterRecorder
	logger    clog.Logger
}

// Name 返回熔断器名称
func (b *circuitBreaker) Name() string {
	return b.identity.Name
}

// State 返回存储中的当前状态
func (b *circuitBreaker) State(ctx context.Context) (State, error) {
	return b.store.GetState(ctx, b.identity)
}

// Metrics 返回存储中的计数快照
func (b *circuitBreaker) Metrics(ctx context.Context) (Metrics, error) {
	return b.store.GetMetrics(ctx, b.identity)
}

// Reset 清零此身份的状态与计数，并发出 Closed 事件
func (b *circuitBreaker) Reset(ctx context.Context) error {
	if err := b.store.Reset(ctx, b.identity); err != nil {
		return err
	}
	b.events.dispatch(Event{Type: EventClosed, Name: b.identity.Name})
	return nil
}

// Call 在熔断保护下执行 op
func (b *circuitBreaker) Call(ctx context.Context, op func(ctx context.Context) (any, error)) (any, error) {
	state, err := b.store.GetState(ctx, b.identity)
	if err != nil {
		return nil, err
	}

	b.events.dispatch(Event{Type: EventRequestAttempted, Name: b.identity.Name, State: state})

	if state.ShouldRejectRequest() {
		m, err := b.store.GetMetrics(ctx, b.identity)
		if err != nil {
			return nil, err
		}

		if !b.cooldownElapsed(m) {
			return b.reject(ctx)
		}

		// 冷却结束，放行一次探测
		if err := b.store.TransitionToHalfOpen(ctx, b.identity); err != nil {
			return nil, err
		}
		b.recorder.recordStateChange(ctx, b.identity.Name, state, StateHalfOpen)
		b.logger.Info("circuit breaker half-opened",
			clog.String("breaker", b.identity.Name))
		state = StateHalfOpen
		b.events.dispatch(Event{Type: EventHalfOpened, Name: b.identity.Name})
	}

	start := time.Now()
	result, opErr := op(ctx)
	b.recorder.recordCall(ctx, b.identity.Name, time.Since(start))

	if opErr == nil {
		return b.handleSuccess(ctx, state, result)
	}
	return nil, b.handleFailure(ctx, state, opErr)
}

// cooldownElapsed Open 状态是否已度过冷却时间
// 没有失败时间戳时立即放行；时间单调推进下判定也单调。
func (b *circuitBreaker) cooldownElapsed(m Metrics) bool {
	if m.LastFailureAt.IsZero() {
		return true
	}
	return b.clock.Now().Sub(m.LastFailureAt) >= b.cfg.Timeout
}

// reject 拒绝请求并解析降级
func (b *circuitBreaker) reject(ctx context.Context) (any, error) {
	b.recorder.recordOutcome(ctx, b.identity.Name, MetricRejectsTotal)

	openErr := &OpenError{Name: b.identity.Name}
	if fn, ok := b.fallbacks.resolve(b.identity.Name); ok {
		val, err := fn(ctx, b.identity.Name)
		if err != nil {
			// 处理器抛出的错误取代默认的打开行为
			return nil, err
		}
		openErr.FallbackValue = val
		openErr.HasFallback = true
	}
	return nil, openErr
}

// handleSuccess 记录成功并在达到阈值时关闭半开的熔断器
func (b *circuitBreaker) handleSuccess(ctx context.Context, state State, result any) (any, error) {
	b.recorder.recordOutcome(ctx, b.identity.Name, MetricSuccessTotal)

	m, err := b.store.RecordSuccess(ctx, b.identity)
	if err != nil {
		// 操作本身已成功，记账失败不应夺走调用方的结果
		b.logger.Error("failed to record success",
			clog.String("breaker", b.identity.Name), clog.Error(err))
		b.events.dispatch(Event{Type: EventRequestSucceeded, Name: b.identity.Name, State: state})
		return result, nil
	}

	newState := state
	closed := false
	if state.IsHalfOpen() && m.ConsecutiveSuccesses >= b.cfg.SuccessThreshold {
		if err := b.store.TransitionToClosed(ctx, b.identity); err != nil {
			b.logger.Error("failed to close circuit breaker",
				clog.String("breaker", b.identity.Name), clog.Error(err))
		} else {
			newState = StateClosed
			closed = true
			b.recorder.recordStateChange(ctx, b.identity.Name, state, StateClosed)
			b.logger.Info("circuit breaker closed",
				clog.String("breaker", b.identity.Name),
				clog.Int64("consecutive_successes", m.ConsecutiveSuccesses))
		}
	}

	b.events.dispatch(Event{Type: EventRequestSucceeded, Name: b.identity.Name, State: newState})
	if closed {
		b.events.dispatch(Event{Type: EventClosed, Name: b.identity.Name})
	}
	return result, nil
}

// handleFailure 分类错误，必要时记录失败并打开熔断器
// 无论是否计入，原始错误都原样返回给调用方。
func (b *circuitBreaker) handleFailure(ctx context.Context, state State, opErr error) error {
	if !b.filter.shouldRecord(opErr) {
		// 被忽略的错误如同调用从未发生
		return opErr
	}

	b.recorder.recordOutcome(ctx, b.identity.Name, MetricFailuresTotal)

	m, err := b.store.RecordFailure(ctx, b.identity)
	if err != nil {
		b.logger.Error("failed to record failure",
			clog.String("breaker", b.identity.Name), clog.Error(err))
		b.events.dispatch(Event{Type: EventRequestFailed, Name: b.identity.Name, State: state})
		return opErr
	}

	// 半开状态下任何一次失败都重新打开；闭合状态交给策略判断
	shouldOpen := state.IsHalfOpen() ||
		b.strategy.ShouldOpen(b.clock.Now(), m, &b.cfg)

	newState := state
	opened := false
	if shouldOpen && state.CanAttemptRequest() {
		if err := b.store.TransitionToOpen(ctx, b.identity); err != nil {
			b.logger.Error("failed to open circuit breaker",
				clog.String("breaker", b.identity.Name), clog.Error(err))
		} else {
			newState = StateOpen
			opened = true
			b.recorder.recordStateChange(ctx, b.identity.Name, state, StateOpen)
			b.logger.Warn("circuit breaker opened",
				clog.String("breaker", b.identity.Name),
				clog.Int64("consecutive_failures", m.ConsecutiveFailures),
				clog.Float64("failure_rate", m.FailureRate()))
		}
	}

	b.events.dispatch(Event{Type: EventRequestFailed, Name: b.identity.Name, State: newState})
	if opened {
		b.events.dispatch(Event{Type: EventOpened, Name: b.identity.Name})
	}
	return opErr
}
