package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/aegis/cache/serializer"
	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/connector"
	"github.com/ceyewan/aegis/xerrors"
)

// ProviderConfig 分布式提供方配置
type ProviderConfig struct {
	// Prefix 全局 Key 前缀 (e.g., "app:v1:")
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// Serializer 序列化器: "json" | "msgpack"，默认 "json"
	Serializer string `json:"serializer" yaml:"serializer" mapstructure:"serializer"`
}

// redisProvider 基于 Redis 的缓存提供方
type redisProvider struct {
	client     *redis.Client
	serializer serializer.Serializer
	prefix     string
	logger     clog.Logger
}

// NewRedisProvider 创建 Redis 缓存提供方。
// conn 由调用方管理生命周期，提供方只借用连接。
func NewRedisProvider(conn connector.RedisConnector, cfg *ProviderConfig, opts ...Option) (Provider, error) {
	if conn == nil {
		return nil, ErrConnectorNil
	}
	if cfg == nil {
		return nil, ErrConfigNil
	}

	s, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts...)
	return &redisProvider{
		client:     conn.GetClient(),
		serializer: s,
		prefix:     cfg.Prefix,
		logger:     o.logger,
	}, nil
}

func (p *redisProvider) getKey(key string) string {
	return p.prefix + key
}

func (p *redisProvider) Get(ctx context.Context, key string, dest any) error {
	data, err := p.client.Get(ctx, p.getKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrMiss
		}
		return xerrors.Wrap(err, "cache: redis get failed")
	}
	if err := p.serializer.Unmarshal(data, dest); err != nil {
		return xerrors.Wrap(err, "cache: unmarshal failed")
	}
	return nil
}

func (p *redisProvider) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := p.serializer.Marshal(value)
	if err != nil {
		return xerrors.Wrap(err, "cache: marshal failed")
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := p.client.Set(ctx, p.getKey(key), data, ttl).Err(); err != nil {
		return xerrors.Wrap(err, "cache: redis set failed")
	}
	return nil
}

func (p *redisProvider) Remove(ctx context.Context, key string) error {
	if err := p.client.Del(ctx, p.getKey(key)).Err(); err != nil {
		return xerrors.Wrap(err, "cache: redis del failed")
	}
	return nil
}
