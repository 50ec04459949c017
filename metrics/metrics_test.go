package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisabled(t *testing.T) {
	meter, err := New(&Config{Enabled: false})
	require.NoError(t, err)

	// 禁用时返回 noop 实现，所有操作不报错
	counter, err := meter.Counter("requests_total", "请求总数")
	require.NoError(t, err)
	counter.Inc(context.Background(), L("outcome", "success"))

	require.NoError(t, meter.Shutdown(context.Background()))
}

func TestNewNilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNewEnabled(t *testing.T) {
	meter, err := New(&Config{
		Enabled:     true,
		ServiceName: "metrics-test",
		Version:     "v0.0.1",
		// Port 为 0 时不启动 HTTP 服务器
	})
	require.NoError(t, err)
	defer meter.Shutdown(context.Background())

	ctx := context.Background()

	counter, err := meter.Counter("test_counter_total", "测试计数器")
	require.NoError(t, err)
	counter.Inc(ctx, L("k", "v"))
	counter.Add(ctx, 3, L("k", "v"))

	gauge, err := meter.Gauge("test_gauge", "测试仪表盘")
	require.NoError(t, err)
	gauge.Set(ctx, 10)
	gauge.Inc(ctx)
	gauge.Dec(ctx)

	histogram, err := meter.Histogram("test_duration_seconds", "测试直方图", WithUnit("s"))
	require.NoError(t, err)
	histogram.Record(ctx, 0.042, L("k", "v"))
}

func TestDiscard(t *testing.T) {
	meter := Discard()
	counter, err := meter.Counter("x", "y")
	require.NoError(t, err)
	counter.Inc(context.Background())
}

func TestLabelKey(t *testing.T) {
	assert.Equal(t, "", labelKey(nil))
	assert.Equal(t, "a=1|b=2", labelKey([]Label{L("a", "1"), L("b", "2")}))
}
