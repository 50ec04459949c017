package config

import "github.com/ceyewan/fusebox/xerrors"

// 错误定义
var (
	// ErrLoadFailed 配置加载失败
	ErrLoadFailed = xerrors.New("config: load failed")

	// ErrNotLoaded Load 尚未调用
	ErrNotLoaded = xerrors.New("config: not loaded")
)
