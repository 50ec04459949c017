package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", `
app:
  name: fusebox
  debug: true
breaker:
  default: main
`)

	loader, err := New(&Config{Paths: []string{dir}})
	require.NoError(t, err)
	require.NoError(t, loader.Load(context.Background()))

	assert.Equal(t, "fusebox", loader.Get("app.name"))
	assert.Equal(t, true, loader.Get("app.debug"))
}

func TestUnmarshalKey(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", `
server:
  host: localhost
  port: 8080
`)

	loader, err := New(&Config{Paths: []string{dir}})
	require.NoError(t, err)
	require.NoError(t, loader.Load(context.Background()))

	var server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	}
	require.NoError(t, loader.UnmarshalKey("server", &server))
	assert.Equal(t, "localhost", server.Host)
	assert.Equal(t, 8080, server.Port)
}

func TestUnmarshalBeforeLoad(t *testing.T) {
	loader, err := New(nil)
	require.NoError(t, err)

	var v map[string]any
	assert.ErrorIs(t, loader.Unmarshal(&v), ErrNotLoaded)
	assert.ErrorIs(t, loader.UnmarshalKey("k", &v), ErrNotLoaded)

	_, err = loader.Watch(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", `
app:
  name: from-file
`)

	t.Setenv("FUSEBOX_APP_NAME", "from-env")

	loader, err := New(&Config{Paths: []string{dir}})
	require.NoError(t, err)
	require.NoError(t, loader.Load(context.Background()))

	assert.Equal(t, "from-env", loader.Get("app.name"))
}

func TestMissingConfigFile(t *testing.T) {
	// 只有环境变量也是合法形态
	loader, err := New(&Config{Paths: []string{t.TempDir()}})
	require.NoError(t, err)
	assert.NoError(t, loader.Load(context.Background()))
}

func TestWatchCancel(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", "app:\n  name: x\n")

	loader, err := New(&Config{Paths: []string{dir}})
	require.NoError(t, err)
	require.NoError(t, loader.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := loader.Watch(ctx, "app.name")
	require.NoError(t, err)

	cancel()

	// 取消后通道最终被关闭
	for range ch {
	}
}
