package breaker

// State 熔断器状态
type State string

const (
	// StateClosed 闭合状态（正常），请求正常通过
	StateClosed State = "closed"
	// StateOpen 打开状态（熔断中），请求快速失败
	StateOpen State = "open"
	// StateHalfOpen 半开状态，放行探测请求以判断依赖是否恢复
	StateHalfOpen State = "half_open"
)

// String 返回状态的字符串表示
func (s State) String() string {
	return string(s)
}

// IsClosed 是否处于闭合状态
func (s State) IsClosed() bool {
	return s == StateClosed
}

// IsOpen 是否处于打开状态
func (s State) IsOpen() bool {
	return s == StateOpen
}

// IsHalfOpen 是否处于半开状态
func (s State) IsHalfOpen() bool {
	return s == StateHalfOpen
}

// CanAttemptRequest 当前状态是否允许尝试请求（Closed 或 HalfOpen）
func (s State) CanAttemptRequest() bool {
	return s == StateClosed || s == StateHalfOpen
}

// ShouldRejectRequest 当前状态是否应拒绝请求（Open）
func (s State) ShouldRejectRequest() bool {
	return s == StateOpen
}

// parseState 从存储中的字符串还原状态，未知值回退为 Closed（内部使用）
func parseState(s string) State {
	switch State(s) {
	case StateOpen:
		return StateOpen
	case StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
