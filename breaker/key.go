package breaker

import "strings"

// 存储键的组成
const (
	keySeparator = ":"

	// attrState / attrMetrics cache 驱动中同一身份的两个逻辑键后缀
	attrState   = "state"
	attrMetrics = "metrics"
)

// recordKey 生成身份的规范字符串键（内部使用）
//
// 组成: [prefix]:[ctxType]:[ctxID]:[bndType]:[bndID]:name，缺省侧整体省略。
// 按元组索引的存储（如 durable 驱动）不必使用字符串形式，
// 但必须遵循相同的相等语义。
func (id Identity) recordKey(prefix string) string {
	parts := make([]string, 0, 6)
	if prefix != "" {
		parts = append(parts, strings.TrimSuffix(prefix, keySeparator))
	}
	if ref := id.Scope.Context; ref != nil {
		parts = append(parts, ref.Type, ref.ID)
	}
	if ref := id.Scope.Boundary; ref != nil {
		parts = append(parts, ref.Type, ref.ID)
	}
	parts = append(parts, id.Name)
	return strings.Join(parts, keySeparator)
}

// attributeKey 生成带属性后缀的键（内部使用）
func (id Identity) attributeKey(prefix, attr string) string {
	return id.recordKey(prefix) + keySeparator + attr
}
