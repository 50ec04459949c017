package testkit

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/fusebox/connector"
)

// NewRedisClient 启动 miniredis 并返回指向它的客户端
// miniredis 与客户端的生命周期由 t.Cleanup 管理。
func NewRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})
	return client, mr
}

// NewRedisConnector 返回包装 miniredis 的 Redis 连接器
func NewRedisConnector(t *testing.T) connector.RedisConnector {
	t.Helper()

	client, _ := NewRedisClient(t)
	return connector.NewRedisFromClient("default", client)
}
