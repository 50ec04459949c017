package config

import "strings"

// Config 加载器配置
type Config struct {
	Name      string   // 配置文件名称，不含扩展名（默认 "config"）
	Paths     []string // 配置文件搜索路径（默认 ["."]）
	FileType  string   // 配置文件类型（默认 "yaml"）
	EnvPrefix string   // 环境变量前缀（默认 "FUSEBOX"）
}

// validate 设置默认值（内部使用）
func (c *Config) validate() error {
	if c.Name == "" {
		c.Name = "config"
	}
	if len(c.Paths) == 0 {
		c.Paths = []string{"."}
	}
	if c.FileType == "" {
		c.FileType = "yaml"
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = "FUSEBOX"
	}
	c.EnvPrefix = strings.ToUpper(c.EnvPrefix)
	return nil
}

// New 创建配置加载器
// cfg 为 nil 时使用默认配置。实际加载发生在 Load() 调用时。
func New(cfg *Config) (Loader, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newLoader(cfg), nil
}
