package metrics

// Config 指标系统配置
//
// 典型配置示例（YAML）：
//
//	metrics:
//	  enabled: true
//	  service_name: "payments"
//	  version: "v1.2.3"
//	  port: 9090
//	  path: "/metrics"
type Config struct {
	// Enabled 是否启用指标收集
	// 为 false 时 New() 返回 noop Meter，所有操作都是空操作
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// ServiceName 服务名称，写入 OpenTelemetry Resource 的 service.name
	ServiceName string `json:"service_name" yaml:"service_name" mapstructure:"service_name"`

	// Version 服务版本，写入 service.version
	Version string `json:"version" yaml:"version" mapstructure:"version"`

	// Port Prometheus HTTP 服务器监听端口，大于 0 且 Path 非空时启动暴露端点
	Port int `json:"port" yaml:"port" mapstructure:"port"`

	// Path Prometheus 指标的 HTTP 路径，须以 "/" 开头
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}
