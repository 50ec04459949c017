package connector

import (
	"context"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/xerrors"
)

type redisConnector struct {
	cfg     *RedisConfig
	client  *redis.Client
	logger  clog.Logger
	healthy atomic.Bool
}

// NewRedis 创建 Redis 连接器
// 客户端在创建时构造，实际连通性在 Connect() 时验证。
func NewRedis(cfg *RedisConfig, opts ...Option) (RedisConnector, error) {
	if cfg == nil {
		return nil, ErrConfig
	}
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Wrapf(ErrConfig, "redis: %v", err)
	}

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	opt.applyDefaults()

	c := &redisConnector{
		cfg:    cfg,
		logger: opt.logger.With(clog.String("connector", "redis"), clog.String("name", cfg.Name)),
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	return c, nil
}

// NewRedisFromClient 用已有客户端包装一个连接器
// 客户端生命周期由调用方管理，Close() 不会关闭它。主要用于测试（如 miniredis）。
func NewRedisFromClient(name string, client *redis.Client) RedisConnector {
	c := &redisConnector{
		cfg:    &RedisConfig{Name: name},
		client: client,
		logger: clog.Discard(),
	}
	c.healthy.Store(true)
	return c
}

// Connect 建立连接
func (c *redisConnector) Connect(ctx context.Context) error {
	c.logger.Info("connecting to redis", clog.String("addr", c.cfg.Addr))

	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.Error("failed to connect to redis", clog.Error(err))
		return xerrors.Wrapf(ErrConnection, "redis connector[%s]: %v", c.cfg.Name, err)
	}

	c.healthy.Store(true)
	c.logger.Info("connected to redis", clog.String("addr", c.cfg.Addr))
	return nil
}

// Close 关闭连接
func (c *redisConnector) Close() error {
	c.healthy.Store(false)

	// 从外部客户端包装的连接器不拥有客户端
	if c.cfg.Addr == "" {
		return nil
	}
	if c.client != nil {
		// 重复 Close 时 go-redis 返回 ErrClosed，视为已关闭
		if err := c.client.Close(); err != nil && !xerrors.Is(err, redis.ErrClosed) {
			return err
		}
	}
	return nil
}

// HealthCheck 检查连接健康状态
func (c *redisConnector) HealthCheck(ctx context.Context) error {
	if c.client == nil {
		return ErrClientNil
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.healthy.Store(false)
		return xerrors.Wrapf(ErrHealthCheck, "redis connector[%s]: %v", c.cfg.Name, err)
	}
	c.healthy.Store(true)
	return nil
}

// IsHealthy 返回缓存的健康状态
func (c *redisConnector) IsHealthy() bool {
	return c.healthy.Load()
}

// Name 返回连接器名称
func (c *redisConnector) Name() string {
	return c.cfg.Name
}

// GetClient 返回 Redis 客户端
func (c *redisConnector) GetClient() *redis.Client {
	return c.client
}
