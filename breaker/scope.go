package breaker

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/ceyewan/fusebox/xerrors"
)

// Ref 作用域引用
//
// 多态模型在组件边界处被降维成 (类型标签, 标识符) 二元组，
// 组件内部从不反查宿主模型。
type Ref struct {
	// Type 类型标签，如 "tenant"、"mail_account"
	Type string `json:"type" yaml:"type" mapstructure:"type"`

	// ID 标识符的字符串形式
	ID string `json:"id" yaml:"id" mapstructure:"id"`
}

// Equal 两个引用是否相等
func (r *Ref) Equal(other *Ref) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Type == other.Type && r.ID == other.ID
}

// Scope 作用域：有序的 (Context?, Boundary?) 对
// 两侧各自可缺省，缺省表示该侧为全局。
type Scope struct {
	Context  *Ref
	Boundary *Ref
}

// Equal 两个作用域是否相等（两侧都相等）
func (s Scope) Equal(other Scope) bool {
	return s.Context.Equal(other.Context) && s.Boundary.Equal(other.Boundary)
}

// IsGlobal 两侧是否都缺省
func (s Scope) IsGlobal() bool {
	return s.Context == nil && s.Boundary == nil
}

// Identity 唯一标识一条熔断记录
type Identity struct {
	Name  string
	Scope Scope
}

// Equal 两个身份是否相等
func (id Identity) Equal(other Identity) bool {
	return id.Name == other.Name && id.Scope.Equal(other.Scope)
}

// ========================================
// 作用域校验 (Morph Key Map)
// ========================================

// 标识符类别
const (
	MorphKindInt    = "int"
	MorphKindUUID   = "uuid"
	MorphKindULID   = "ulid"
	MorphKindString = "string"
)

// morphPolicy 作用域校验策略（内部使用）
// Context 与 Boundary 两侧的映射和开关相互独立。
type morphPolicy struct {
	contextMap      map[string]string
	enforceContext  bool
	boundaryMap     map[string]string
	enforceBoundary bool
}

func newMorphPolicy(s *Settings) morphPolicy {
	return morphPolicy{
		contextMap:      s.MorphKeyMap,
		enforceContext:  s.EnforceMorphKeyMap,
		boundaryMap:     s.BoundaryMorphKeyMap,
		enforceBoundary: s.EnforceBoundaryMorphKeyMap,
	}
}

// validateContext 校验 Context 侧引用
func (p morphPolicy) validateContext(ref *Ref) error {
	return validateRef(ref, p.contextMap, p.enforceContext, "context")
}

// validateBoundary 校验 Boundary 侧引用
func (p morphPolicy) validateBoundary(ref *Ref) error {
	return validateRef(ref, p.boundaryMap, p.enforceBoundary, "boundary")
}

// validateRef 非强制模式下映射仅为建议，不做任何检查
func validateRef(ref *Ref, morphMap map[string]string, enforce bool, side string) error {
	if ref == nil || !enforce {
		return nil
	}

	kind, ok := morphMap[ref.Type]
	if !ok {
		return xerrors.Wrapf(ErrMorphKeyViolation, "%s type %q is not mapped", side, ref.Type)
	}
	if !matchesKind(ref.ID, kind) {
		return xerrors.Wrapf(ErrMorphKeyViolation, "%s id %q is not a valid %s", side, ref.ID, kind)
	}
	return nil
}

// matchesKind 校验标识符是否符合映射声明的类别
func matchesKind(id, kind string) bool {
	switch kind {
	case MorphKindInt:
		if id == "" {
			return false
		}
		for _, c := range id {
			if c < '0' || c > '9' {
				return false
			}
		}
		return true
	case MorphKindUUID:
		_, err := uuid.Parse(id)
		return err == nil
	case MorphKindULID:
		_, err := ulid.ParseStrict(id)
		return err == nil
	default:
		// "string" 或未声明类别：任意非空标识符
		return id != ""
	}
}
