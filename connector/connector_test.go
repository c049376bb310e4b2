package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisConfigValidation(t *testing.T) {
	_, err := NewRedis(nil)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewRedis(&RedisConfig{})
	assert.ErrorIs(t, err, ErrConfig, "missing addr should be rejected")

	_, err = NewRedis(&RedisConfig{Addr: "127.0.0.1:6379", DB: -1})
	assert.ErrorIs(t, err, ErrConfig, "negative db should be rejected")
}

func TestNewRedisDefaults(t *testing.T) {
	cfg := &RedisConfig{Addr: "127.0.0.1:6379"}
	conn, err := NewRedis(cfg)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	assert.Equal(t, "default", conn.Name())
	assert.Equal(t, 10, cfg.PoolSize)
	assert.NotNil(t, conn.GetClient())
	assert.False(t, conn.IsHealthy(), "connector should not be healthy before Connect")
}
