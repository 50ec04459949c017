package connector

import (
	"context"
	"sync"
	"sync/atomic"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ceyewan/fusebox/clog"
	"github.com/ceyewan/fusebox/xerrors"
)

type mysqlConnector struct {
	cfg     *MySQLConfig
	db      *gorm.DB
	logger  clog.Logger
	healthy atomic.Bool
	mu      sync.Mutex
}

// NewMySQL 创建 MySQL 连接器
// 实际连接在调用 Connect() 时建立。
func NewMySQL(cfg *MySQLConfig, opts ...Option) (MySQLConnector, error) {
	if cfg == nil {
		return nil, ErrConfig
	}
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Wrapf(ErrConfig, "mysql: %v", err)
	}

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	opt.applyDefaults()

	return &mysqlConnector{
		cfg:    cfg,
		logger: opt.logger.With(clog.String("connector", "mysql"), clog.String("name", cfg.Name)),
	}, nil
}

// Connect 建立连接
func (c *mysqlConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 幂等：已连接则直接返回
	if c.db != nil {
		return nil
	}

	c.logger.Info("connecting to mysql",
		clog.String("host", c.cfg.Host),
		clog.Int("port", c.cfg.Port))

	db, err := gorm.Open(mysql.Open(c.cfg.dsn()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		c.logger.Error("failed to open mysql", clog.Error(err))
		return xerrors.Wrapf(ErrConnection, "mysql connector[%s]: %v", c.cfg.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return xerrors.Wrapf(ErrConnection, "mysql connector[%s]: failed to get db instance: %v", c.cfg.Name, err)
	}

	sqlDB.SetMaxIdleConns(c.cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(c.cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		c.logger.Error("failed to ping mysql", clog.Error(err))
		return xerrors.Wrapf(ErrConnection, "mysql connector[%s]: ping failed: %v", c.cfg.Name, err)
	}

	c.db = db
	c.healthy.Store(true)
	c.logger.Info("connected to mysql", clog.String("database", c.cfg.Database))
	return nil
}

// Close 关闭连接
func (c *mysqlConnector) Close() error {
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
func (c *mysqlConnector) HealthCheck(ctx context.Context) error {
	if c.db == nil {
		return ErrClientNil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		c.healthy.Store(false)
		return xerrors.Wrapf(ErrHealthCheck, "mysql connector[%s]: %v", c.cfg.Name, err)
	}
	c.healthy.Store(true)
	return nil
}

// IsHealthy 返回缓存的健康状态
func (c *mysqlConnector) IsHealthy() bool {
	return c.healthy.Load()
}

// Name 返回连接器名称
func (c *mysqlConnector) Name() string {
	return c.cfg.Name
}

// GetClient 返回 GORM 实例
func (c *mysqlConnector) GetClient() *gorm.DB {
	return c.db
}
