package connector

import (
	"fmt"
	"time"
)

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`             // 连接器名称（默认 "default"）
	Addr     string `json:"addr" yaml:"addr" mapstructure:"addr"`             // [必填] 连接地址，如 "127.0.0.1:6379"
	Password string `json:"password" yaml:"password" mapstructure:"password"` // 认证密码
	DB       int    `json:"db" yaml:"db" mapstructure:"db"`                   // 数据库编号（默认 0）

	PoolSize     int           `json:"pool_size" yaml:"pool_size" mapstructure:"pool_size"`                // 连接池大小（默认 10）
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns" mapstructure:"min_idle_conns"` // 最小空闲连接数
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout" mapstructure:"dial_timeout"`       // 连接超时（默认 5s）
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`       // 读取超时（默认 3s）
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`    // 写入超时（默认 3s）
}

func (c *RedisConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

func (c *RedisConfig) validate() error {
	c.setDefaults()
	if c.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	if c.DB < 0 {
		return fmt.Errorf("redis db must be non-negative")
	}
	return nil
}

// MySQLConfig MySQL 连接配置
type MySQLConfig struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"` // 连接器名称（默认 "default"）

	// DSN 完整连接串；若提供则忽略 Host/Port/Username/Password/Database
	DSN      string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
	Host     string `json:"host" yaml:"host" mapstructure:"host"`
	Port     int    `json:"port" yaml:"port" mapstructure:"port"` // 默认 3306
	Username string `json:"username" yaml:"username" mapstructure:"username"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
	Database string `json:"database" yaml:"database" mapstructure:"database"`
	Charset  string `json:"charset" yaml:"charset" mapstructure:"charset"` // 默认 "utf8mb4"

	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns" mapstructure:"max_idle_conns"`          // 默认 10
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns" mapstructure:"max_open_conns"`          // 默认 100
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"` // 默认 1h
}

func (c *MySQLConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.Port == 0 {
		c.Port = 3306
	}
	if c.Charset == "" {
		c.Charset = "utf8mb4"
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 10
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 100
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
}

func (c *MySQLConfig) validate() error {
	c.setDefaults()
	if c.DSN != "" {
		return nil
	}
	if c.Host == "" {
		return fmt.Errorf("mysql host is required")
	}
	if c.Username == "" {
		return fmt.Errorf("mysql username is required")
	}
	if c.Database == "" {
		return fmt.Errorf("mysql database is required")
	}
	return nil
}

// dsn 构建 GORM 连接串（内部使用）
func (c *MySQLConfig) dsn() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// SQLiteConfig SQLite 连接配置
type SQLiteConfig struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"` // 连接器名称（默认 "default"）
	Path string `json:"path" yaml:"path" mapstructure:"path"` // [必填] 数据库路径，支持 "file::memory:?cache=shared"
}

func (c *SQLiteConfig) validate() error {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.Path == "" {
		return fmt.Errorf("sqlite path is required")
	}
	return nil
}
