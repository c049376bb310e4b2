package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/aegis/cache"
	"github.com/ceyewan/aegis/testkit"
)

type profile struct {
	Name string `json:"name" msgpack:"name"`
	Age  int    `json:"age" msgpack:"age"`
}

func TestRedisProviderRoundTrip(t *testing.T) {
	conn := testkit.GetRedisConnector(t)

	for _, codec := range []string{"json", "msgpack"} {
		t.Run(codec, func(t *testing.T) {
			provider, err := cache.NewRedisProvider(conn, &cache.ProviderConfig{
				Prefix:     "aegis-test:" + testkit.NewID() + ":",
				Serializer: codec,
			}, cache.WithLogger(testkit.NewLogger()))
			require.NoError(t, err)

			ctx := context.Background()
			key := testkit.NewID()

			var missing profile
			err = provider.Get(ctx, key, &missing)
			assert.ErrorIs(t, err, cache.ErrMiss)

			want := profile{Name: "alice", Age: 30}
			require.NoError(t, provider.Set(ctx, key, want, time.Minute))

			var got profile
			require.NoError(t, provider.Get(ctx, key, &got))
			assert.Equal(t, want, got)

			require.NoError(t, provider.Remove(ctx, key))
			err = provider.Get(ctx, key, &got)
			assert.ErrorIs(t, err, cache.ErrMiss)
		})
	}
}

func TestRedisProviderTTL(t *testing.T) {
	conn := testkit.GetRedisConnector(t)

	provider, err := cache.NewRedisProvider(conn, &cache.ProviderConfig{
		Prefix: "aegis-test-ttl:",
	})
	require.NoError(t, err)

	ctx := context.Background()
	key := testkit.NewID()
	require.NoError(t, provider.Set(ctx, key, 1, time.Second))

	time.Sleep(1500 * time.Millisecond)

	var got int
	err = provider.Get(ctx, key, &got)
	assert.ErrorIs(t, err, cache.ErrMiss)
}
