package breaker

import (
	"fmt"

	"github.com/ceyewan/fusebox/xerrors"
)

// 错误定义
var (
	// ErrOpen 熔断器处于打开状态，请求被拒绝
	// 实际返回的错误是 *OpenError，可通过 errors.Is(err, ErrOpen) 匹配
	ErrOpen = xerrors.New("breaker: circuit breaker is open")

	// ErrSettingsNil 组件配置为空
	ErrSettingsNil = xerrors.New("breaker: settings is nil")

	// ErrNameEmpty 熔断器名称为空
	ErrNameEmpty = xerrors.New("breaker: name is empty")

	// ErrUndefinedStore 配置中不存在指定名称的存储
	ErrUndefinedStore = xerrors.New("breaker: store is not defined")

	// ErrUnsupportedDriver 存储配置请求了未注册的驱动
	ErrUnsupportedDriver = xerrors.New("breaker: unsupported store driver")

	// ErrUnknownStrategy 未注册的策略名称
	ErrUnknownStrategy = xerrors.New("breaker: unknown strategy")

	// ErrMorphKeyViolation 作用域使用了未映射的类型标签（仅在强制模式下）
	ErrMorphKeyViolation = xerrors.New("breaker: morph key violation")

	// ErrInvalidPrimaryKeyType 不支持的主键类型
	ErrInvalidPrimaryKeyType = xerrors.New("breaker: primary key type must be integer, ulid or uuid")

	// ErrConnectorRequired 驱动所需的连接器未注册
	ErrConnectorRequired = xerrors.New("breaker: connector is required")
)

// OpenError 熔断拒绝错误
//
// 携带熔断器名称与可选的降级值。通过 errors.Is(err, ErrOpen) 匹配。
type OpenError struct {
	// Name 熔断器名称
	Name string

	// FallbackValue 降级处理器产生的值，HasFallback 为 true 时有效
	FallbackValue any

	// HasFallback 是否解析到了降级值
	HasFallback bool
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("breaker: circuit %q is open", e.Name)
}

// Is 支持 errors.Is(err, ErrOpen)
func (e *OpenError) Is(target error) bool {
	return target == ErrOpen
}
