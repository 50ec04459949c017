package connector

import (
	"context"
	"sync"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/xerrors"
)

type sqliteConnector struct {
	cfg     *SQLiteConfig
	db      *gorm.DB
	logger  clog.Logger
	healthy atomic.Bool
	mu      sync.Mutex
}

// NewSQLite 创建 SQLite 连接器
// 实际连接在调用 Connect() 时建立。
func NewSQLite(cfg *SQLiteConfig, opts ...Option) (SQLiteConnector, error) {
	if cfg == nil {
		return nil, ErrConfig
	}
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Wrapf(ErrConfig, "sqlite: %v", err)
	}

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	opt.applyDefaults()

	return &sqliteConnector{
		cfg:    cfg,
		logger: opt.logger.With(clog.String("connector", "sqlite"), clog.String("name", cfg.Name)),
	}, nil
}

// Connect 建立连接
func (c *sqliteConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 幂等：已连接则直接返回
	if c.db != nil {
		return nil
	}

	c.logger.Info("connecting to sqlite", clog.String("path", c.cfg.Path))

	db, err := gorm.Open(sqlite.Open(c.cfg.Path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		c.logger.Error("failed to open sqlite", clog.Error(err))
		return xerrors.Wrapf(ErrConnection, "sqlite connector[%s]: %v", c.cfg.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return xerrors.Wrapf(ErrConnection, "sqlite connector[%s]: failed to get db instance: %v", c.cfg.Name, err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return xerrors.Wrapf(ErrConnection, "sqlite connector[%s]: ping failed: %v", c.cfg.Name, err)
	}

	c.db = db
	c.healthy.Store(true)
	return nil
}

// Close 关闭连接
func (c *sqliteConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.healthy.Store(false)
	if c.db == nil {
		return nil
	}

	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	c.db = nil
	return sqlDB.Close()
}

// HealthCheck 检查连接健康状态
func (c *sqliteConnector) HealthCheck(ctx context.Context) error {
	if c.db == nil {
		return ErrClientNil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		c.healthy.Store(false)
		return xerrors.Wrapf(ErrHealthCheck, "sqlite connector[%s]: %v", c.cfg.Name, err)
	}
	c.healthy.Store(true)
	return nil
}

// IsHealthy 返回缓存的健康状态
func (c *sqliteConnector) IsHealthy() bool {
	return c.healthy.Load()
}

// Name 返回连接器名称
func (c *sqliteConnector) Name() string {
	return c.cfg.Name
}

// GetClient 返回 GORM 实例
func (c *sqliteConnector) GetClient() *gorm.DB {
	return c.db
}
