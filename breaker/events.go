package breaker

import (
	"sync"

	"github.com/ceyewan/fusebox/clog"
)

// EventType 领域事件类型
type EventType string

const (
	// EventOpened 熔断器打开
	EventOpened EventType = "opened"
	// EventClosed 熔断器关闭
	EventClosed EventType = "closed"
	// EventHalfOpened 熔断器进入半开
	EventHalfOpened EventType = "half_opened"
	// EventRequestAttempted 一次 Call 进入
	EventRequestAttempted EventType = "request_attempted"
	// EventRequestSucceeded 受保护操作成功
	EventRequestSucceeded EventType = "request_succeeded"
	// EventRequestFailed 受保护操作失败且被计入
	EventRequestFailed EventType = "request_failed"
)

// Event 领域事件
// 迁移事件只携带名称；请求事件额外携带状态：RequestAttempted 为进入 Call 时读到的状态，
// RequestSucceeded / RequestFailed 为操作后的状态。
type Event struct {
	Type  EventType
	Name  string
	State State
}

// Listener 事件监听器
// 在调用方协程内同步执行；panic 会被捕获并记录，不影响 Call 的结果。
type Listener func(Event)

// eventDispatcher 事件分发器（内部使用）
type eventDispatcher struct {
	enabled bool
	logger  clog.Logger

	mu        sync.RWMutex
	listeners []Listener
}

func newEventDispatcher(enabled bool, logger clog.Logger) *eventDispatcher {
	return &eventDispatcher{
		enabled: enabled,
		logger:  logger,
	}
}

// subscribe 注册监听器
func (d *eventDispatcher) subscribe(l Listener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	d.listeners = append(d.listeners, l)
	d.mu.Unlock()
}

// dispatch 同步分发事件
// 事件开关关闭时不做任何分发。
func (d *eventDispatcher) dispatch(evt Event) {
	if !d.enabled {
		return
	}

	d.mu.RLock()
	listeners := d.listeners
	d.mu.RUnlock()

	for _, l := range listeners {
		d.safeCall(l, evt)
	}
}

// safeCall 监听器的异常不能阻止调用方拿到 Call 的正常结果
func (d *eventDispatcher) safeCall(l Listener, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("event listener panicked",
				clog.String("event", string(evt.Type)),
				clog.String("breaker", evt.Name),
				clog.Any("panic", r))
		}
	}()
	l(evt)
}
