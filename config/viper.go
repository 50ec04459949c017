package config

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ceyewan/fusebox/xerrors"
)

// envKeyReplacer 将配置 key 中的 "." 映射为环境变量中的 "_"
var envKeyReplacer = strings.NewReplacer(".", "_")

// loader Loader 接口的 Viper 实现（非导出）
type loader struct {
	v      *viper.Viper
	cfg    *Config
	loaded bool

	mu        sync.Mutex
	watches   map[string][]chan Event
	oldValues map[string]any
}

func newLoader(cfg *Config) *loader {
	return &loader{
		v:         viper.New(),
		cfg:       cfg,
		watches:   make(map[string][]chan Event),
		oldValues: make(map[string]any),
	}
}

// Load 初始化并从所有来源加载配置
//
// 优先级：环境变量 > .env > 配置文件。
// 成功后自动开始监听配置文件变化。
func (l *loader) Load(ctx context.Context) error {
	l.v.SetConfigName(l.cfg.Name)
	l.v.SetConfigType(l.cfg.FileType)
	for _, path := range l.cfg.Paths {
		l.v.AddConfigPath(path)
	}

	// 环境变量优先级最高
	l.v.SetEnvPrefix(l.cfg.EnvPrefix)
	l.v.SetEnvKeyReplacer(envKeyReplacer)
	l.v.AutomaticEnv()

	// .env 文件（缺失不算错误）
	l.loadDotEnv()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !xerrors.As(err, &notFound) {
			return xerrors.Wrapf(ErrLoadFailed, "read config %q: %v", l.cfg.Name, err)
		}
		// 没有配置文件时仅依赖环境变量，也是合法形态
	}

	l.loaded = true

	// 仅在找到配置文件时监听变化
	if l.v.ConfigFileUsed() != "" {
		l.v.OnConfigChange(func(e fsnotify.Event) {
			l.notifyWatches()
		})
		l.v.WatchConfig()
	}

	return nil
}

// loadDotEnv 尝试从搜索路径加载 .env 文件（内部函数）
func (l *loader) loadDotEnv() {
	_ = godotenv.Load()
	for _, path := range l.cfg.Paths {
		_ = godotenv.Load(filepath.Join(path, ".env"))
	}
}

// Get 获取原始配置值
func (l *loader) Get(key string) any {
	return l.v.Get(key)
}

// Unmarshal 将整个配置反序列化到结构体
func (l *loader) Unmarshal(v any) error {
	if !l.loaded {
		return ErrNotLoaded
	}
	return l.v.Unmarshal(v)
}

// UnmarshalKey 将指定 Key 的配置反序列化到结构体
func (l *loader) UnmarshalKey(key string, v any) error {
	if !l.loaded {
		return ErrNotLoaded
	}
	return l.v.UnmarshalKey(key, v)
}

// Watch 订阅指定配置 key 的变更
// ctx 取消时自动注销并关闭通道。
func (l *loader) Watch(ctx context.Context, key string) (<-chan Event, error) {
	if !l.loaded {
		return nil, ErrNotLoaded
	}

	l.mu.Lock()
	ch := make(chan Event, 8)
	l.watches[key] = append(l.watches[key], ch)
	l.oldValues[key] = l.v.Get(key)
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.removeWatch(key, ch)
	}()

	return ch, nil
}

// removeWatch 注销监听通道（内部函数）
func (l *loader) removeWatch(key string, ch chan Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	chans := l.watches[key]
	for i, c := range chans {
		if c == ch {
			l.watches[key] = append(chans[:i], chans[i+1:]...)
			close(ch)
			break
		}
	}
	if len(l.watches[key]) == 0 {
		delete(l.watches, key)
		delete(l.oldValues, key)
	}
}

// notifyWatches 在配置文件变更后通知所有监听者（内部函数）
func (l *loader) notifyWatches() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, channels := range l.watches {
		newValue := l.v.Get(key)
		oldValue := l.oldValues[key]
		if reflect.DeepEqual(oldValue, newValue) {
			continue
		}

		event := Event{
			Key:       key,
			Value:     newValue,
			OldValue:  oldValue,
			Timestamp: time.Now(),
		}
		l.oldValues[key] = newValue

		for _, ch := range channels {
			select {
			case ch <- event:
			default:
				// 监听者消费过慢时丢弃事件，不阻塞通知循环
			}
		}
	}
}
