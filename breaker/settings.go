package breaker

// Settings 组件级配置
//
// 由应用在构建 Manager 时显式传入（可通过 config.Loader 反序列化），
// Manager 捕获后下发给每个熔断器，组件内部不读取任何全局配置。
type Settings struct {
	// Default 未显式指定存储时使用的存储名称
	Default string `json:"default" yaml:"default" mapstructure:"default"`

	// Stores 按名称配置的存储定义
	Stores map[string]StoreConfig `json:"stores" yaml:"stores" mapstructure:"stores"`

	// PrimaryKeyType durable 驱动行主键类型: "integer" | "ulid" | "uuid"（默认 "uuid"）
	PrimaryKeyType string `json:"primary_key_type" yaml:"primary_key_type" mapstructure:"primary_key_type"`

	// TableNames durable 驱动的表名
	TableNames TableNames `json:"table_names" yaml:"table_names" mapstructure:"table_names"`

	// Defaults 各熔断器配置字段的默认值
	Defaults Config `json:"defaults" yaml:"defaults" mapstructure:"defaults"`

	// Strategies 策略配置
	Strategies StrategySettings `json:"strategies" yaml:"strategies" mapstructure:"strategies"`

	// Events 事件配置，为 nil 时默认启用
	Events *EventSettings `json:"events" yaml:"events" mapstructure:"events"`

	// Fallbacks 降级配置，为 nil 时默认启用
	// 处理器本身是代码，通过 Manager.Fallback / Manager.DefaultFallback 注册
	Fallbacks *FallbackSettings `json:"fallbacks" yaml:"fallbacks" mapstructure:"fallbacks"`

	// MorphKeyMap Context 类型标签到标识符类别的映射
	// 类别: "int" | "uuid" | "ulid" | "string"
	MorphKeyMap map[string]string `json:"morph_key_map" yaml:"morph_key_map" mapstructure:"morph_key_map"`

	// EnforceMorphKeyMap 启用后，使用未映射的 Context 类型标签将返回 ErrMorphKeyViolation
	EnforceMorphKeyMap bool `json:"enforce_morph_key_map" yaml:"enforce_morph_key_map" mapstructure:"enforce_morph_key_map"`

	// BoundaryMorphKeyMap Boundary 侧的独立映射
	BoundaryMorphKeyMap map[string]string `json:"boundary_morph_key_map" yaml:"boundary_morph_key_map" mapstructure:"boundary_morph_key_map"`

	// EnforceBoundaryMorphKeyMap Boundary 侧的独立开关
	EnforceBoundaryMorphKeyMap bool `json:"enforce_boundary_morph_key_map" yaml:"enforce_boundary_morph_key_map" mapstructure:"enforce_boundary_morph_key_map"`
}

// StoreConfig 单个存储的定义
type StoreConfig struct {
	// Driver 驱动类型: "memory" | "cache" | "durable"，或已注册的自定义驱动
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Store cache 驱动使用的 Redis 连接器名称（默认 "default"）
	Store string `json:"store" yaml:"store" mapstructure:"store"`

	// Prefix cache 驱动的键前缀，如 "myapp:breaker:"
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// Serializer cache 驱动的记录序列化格式: "json" | "msgpack"（默认 "json"）
	Serializer string `json:"serializer" yaml:"serializer" mapstructure:"serializer"`

	// Connection durable 驱动使用的数据库连接器名称（默认 "default"）
	Connection string `json:"connection" yaml:"connection" mapstructure:"connection"`
}

// TableNames durable 驱动的表名配置
type TableNames struct {
	CircuitBreakers      string `json:"circuit_breakers" yaml:"circuit_breakers" mapstructure:"circuit_breakers"`
	CircuitBreakerEvents string `json:"circuit_breaker_events" yaml:"circuit_breaker_events" mapstructure:"circuit_breaker_events"`
}

// StrategySettings 策略配置
type StrategySettings struct {
	// Default 默认策略名称，仅在 Defaults.Strategy 为空时填入；Defaults.Strategy 已设置时以其为准
	Default string `json:"default" yaml:"default" mapstructure:"default"`
}

// EventSettings 事件配置
type EventSettings struct {
	// Enabled 是否分发领域事件
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// FallbackSettings 降级配置
type FallbackSettings struct {
	// Enabled 是否在熔断拒绝时解析降级处理器
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// setDefaults 补全组件级默认值（内部使用）
func (s *Settings) setDefaults() {
	if s.Default == "" {
		s.Default = "default"
	}
	if s.Stores == nil {
		s.Stores = map[string]StoreConfig{
			s.Default: {Driver: DriverMemory},
		}
	}
	if s.PrimaryKeyType == "" {
		s.PrimaryKeyType = PrimaryKeyUUID
	}
	if s.TableNames.CircuitBreakers == "" {
		s.TableNames.CircuitBreakers = "circuit_breakers"
	}
	if s.TableNames.CircuitBreakerEvents == "" {
		s.TableNames.CircuitBreakerEvents = "circuit_breaker_events"
	}
	if s.Events == nil {
		s.Events = &EventSettings{Enabled: true}
	}
	if s.Fallbacks == nil {
		s.Fallbacks = &FallbackSettings{Enabled: true}
	}
	if s.Strategies.Default != "" && s.Defaults.Strategy == "" {
		s.Defaults.Strategy = s.Strategies.Default
	}
}

// validate 验证组件级配置（内部使用）
func (s *Settings) validate() error {
	switch s.PrimaryKeyType {
	case PrimaryKeyInteger, PrimaryKeyULID, PrimaryKeyUUID:
	default:
		return ErrInvalidPrimaryKeyType
	}
	return nil
}
