package testkit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/aegis/connector"
)

// RedisAddr 返回测试 Redis 地址。
// 未设置 AEGIS_TEST_REDIS_ADDR 环境变量时跳过当前测试。
func RedisAddr(t *testing.T) string {
	addr := os.Getenv("AEGIS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("AEGIS_TEST_REDIS_ADDR not set, skipping redis test")
	}
	return addr
}

// GetRedisConfig 返回 Redis 测试配置
func GetRedisConfig(t *testing.T) *connector.RedisConfig {
	return &connector.RedisConfig{
		Name:         "test-redis",
		Addr:         RedisAddr(t),
		DB:           1, // 使用 DB 1 避免与默认的 DB 0 冲突
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// GetRedisConnector 获取已连接的 Redis 连接器，测试结束自动关闭
func GetRedisConnector(t *testing.T) connector.RedisConnector {
	cfg := GetRedisConfig(t)
	conn, err := connector.NewRedis(cfg, connector.WithLogger(NewLogger()))
	if err != nil {
		t.Fatalf("failed to create redis connector: %v", err)
	}

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

// GetRedisClient 获取原生 Redis 客户端
func GetRedisClient(t *testing.T) *redis.Client {
	return GetRedisConnector(t).GetClient()
}

// FlushRedis 清空 Redis 数据库（慎用！）
func FlushRedis(t *testing.T, client *redis.Client) {
	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}
