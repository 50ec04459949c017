package metrics

// Label 指标标签
// 为指标添加维度信息，实现细粒度分组和筛选。
// 标签值应相对稳定，避免高基数标签（如请求 ID）。
type Label struct {
	Key   string
	Value string
}

// L 便捷构造函数，创建一个 Label 实例
//
//	counter.Inc(ctx, metrics.L("driver", "redis"))
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}
