// Package cache 提供缓存组件：进程内 LRU+TTL 存储和可插拔的分布式缓存提供方。
//
// Store 是进程内缓存条目存储，严格按最近最少使用淘汰，容量固定、
// 条目带 TTL，可被任意多协程并发使用。Provider 是外部缓存提供方抽象
// （如 Redis），值经序列化后跨进程存取。两者通常由 memo 包组合成
// 本地 + 分布式的两级缓存。
//
// 基本使用：
//
//	store, _ := cache.NewStore(&cache.StoreConfig{
//	    Capacity:   1024,
//	    DefaultTTL: 5 * time.Minute,
//	}, cache.WithLogger(logger))
//
//	store.Set("user:1001", user, time.Hour)
//	if v, ok := store.Get("user:1001"); ok {
//	    user = v.(*User)
//	}
//
// 分布式提供方：
//
//	redisConn, _ := connector.NewRedis(redisConfig)
//	provider, _ := cache.NewRedisProvider(redisConn, &cache.ProviderConfig{
//	    Prefix:     "myapp:",
//	    Serializer: "msgpack",
//	}, cache.WithLogger(logger))
//
//	err := provider.Set(ctx, "user:1001", user, time.Hour)
//	var cachedUser User
//	err = provider.Get(ctx, "user:1001", &cachedUser)
package cache

import (
	"context"
	"time"
)

// Store 进程内缓存条目存储。
//
// 实现保证：
//   - Get 命中时更新最近使用序，过期条目视为不存在
//   - Set 超出容量时优先清理过期条目，再淘汰最久未使用的条目
//   - 同一个键上的操作可线性化，不会读到半写的条目
type Store interface {
	// Get 返回键对应的值，过期或不存在时返回 (nil, false)
	Get(key string) (any, bool)

	// Set 写入条目并记为最近使用。ttl <= 0 时使用 DefaultTTL，
	// DefaultTTL 也为 0 则永不过期。
	Set(key string, value any, ttl time.Duration)

	// Remove 删除键，键不存在时无操作
	Remove(key string)

	// Len 返回当前条目数（含尚未清理的过期条目）
	Len() int

	// Flush 清空全部条目
	Flush()
}

// StoreConfig 进程内存储配置
type StoreConfig struct {
	// Capacity 最大条目数，默认 1024
	Capacity int `json:"capacity" yaml:"capacity" mapstructure:"capacity"`

	// DefaultTTL Set 未指定 TTL 时的默认存活时长，0 表示永不过期
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl" mapstructure:"default_ttl"`
}

// NewStore 创建进程内 LRU+TTL 存储
func NewStore(cfg *StoreConfig, opts ...Option) (Store, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	return newLRUStore(cfg, opts...)
}

// Provider 外部缓存提供方抽象（如 Redis）。
// 值由提供方自有的序列化器编解码，调用方只面对 Go 值。
type Provider interface {
	// Get 读取键并反序列化到 dest（必须是指针），未命中返回 ErrMiss
	Get(ctx context.Context, key string, dest any) error

	// Set 序列化并写入键，ttl <= 0 表示提供方侧永不过期
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Remove 删除键，键不存在时不报错
	Remove(ctx context.Context, key string) error
}
