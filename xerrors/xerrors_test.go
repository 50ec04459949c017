package xerrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	base := New("base error")

	wrapped := Wrap(base, "context")
	require.Error(t, wrapped)
	assert.Equal(t, "context: base error", wrapped.Error())
	assert.True(t, Is(wrapped, base))

	// nil 错误包装后仍为 nil
	assert.NoError(t, Wrap(nil, "context"))
}

func TestWrapf(t *testing.T) {
	base := New("base error")

	wrapped := Wrapf(base, "op %s failed", "fetch")
	require.Error(t, wrapped)
	assert.Equal(t, "op fetch failed: base error", wrapped.Error())
	assert.True(t, Is(wrapped, base))
}

func TestWithCode(t *testing.T) {
	base := New("boom")

	coded := WithCode(base, "E1001")
	require.Error(t, coded)
	assert.Equal(t, "E1001", GetCode(coded))
	assert.True(t, Is(coded, base))

	// 再包装一层后仍可提取错误码
	outer := Wrap(coded, "outer")
	assert.Equal(t, "E1001", GetCode(outer))

	// 无错误码的链返回空字符串
	assert.Equal(t, "", GetCode(base))
	assert.NoError(t, WithCode(nil, "E1001"))
}
