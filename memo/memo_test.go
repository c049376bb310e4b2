package memo

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/aegis/cache"
	"github.com/ceyewan/aegis/xerrors"
)

// fakeClock 手动推进的时钟
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeProvider 进程内的 L2 替身，值经 JSON 编解码以模拟跨进程边界
type fakeProvider struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{data: make(map[string][]byte)}
}

func (p *fakeProvider) Get(ctx context.Context, key string, dest any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gets++
	raw, ok := p.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (p *fakeProvider) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets++
	p.data[key] = raw
	return nil
}

func (p *fakeProvider) Remove(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.data, key)
	return nil
}

// newClockedMemoizer 返回挂在假时钟上的记忆化执行器
func newClockedMemoizer(t *testing.T, cfg *Config, clock *fakeClock, opts ...Option) *Memoizer {
	t.Helper()
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	store, err := cache.NewStore(&cache.StoreConfig{Capacity: 64, DefaultTTL: ttl},
		cache.WithClock(clock.Now))
	require.NoError(t, err)
	m, err := New(cfg, append([]Option{WithStore(store)}, opts...)...)
	require.NoError(t, err)
	return m
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrConfigNil)

	_, err = New(&Config{TTL: -time.Second})
	assert.ErrorIs(t, err, ErrBadConfig)

	m, err := New(&Config{})
	require.NoError(t, err)

	_, err = Do(context.Background(), m, "", func(ctx context.Context) (int, error) {
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrKeyEmpty)
}

func TestDoRoundTrip(t *testing.T) {
	clock := newFakeClock()
	m := newClockedMemoizer(t, &Config{TTL: time.Minute}, clock)

	calls := 0
	fn := func(ctx context.Context) (string, error) {
		calls++
		return "computed", nil
	}

	// TTL 窗口内两次调用只计算一次
	got, err := Do(context.Background(), m, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, "computed", got)

	got, err = Do(context.Background(), m, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, "computed", got)
	assert.Equal(t, 1, calls)

	// TTL 过期后重新计算
	clock.Advance(time.Minute + time.Second)
	_, err = Do(context.Background(), m, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoErrorNotCached(t *testing.T) {
	m, err := New(&Config{TTL: time.Minute})
	require.NoError(t, err)

	calls := 0
	flaky := func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", xerrors.External("transient failure")
		}
		return "recovered", nil
	}

	_, err = Do(context.Background(), m, "k", flaky)
	require.Error(t, err)

	// 错误未被缓存，第二次调用重新计算
	got, err := Do(context.Background(), m, "k", flaky)
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, 2, calls)

	// 成功结果已缓存，第三次不再计算
	got, err = Do(context.Background(), m, "k", flaky)
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, 2, calls)
}

func TestDoResultErrorNotCached(t *testing.T) {
	m, err := New(&Config{TTL: time.Minute})
	require.NoError(t, err)

	calls := 0
	flaky := func(ctx context.Context) xerrors.Result[int] {
		calls++
		if calls == 1 {
			return xerrors.Err[int](xerrors.External("upstream 503"))
		}
		return xerrors.Ok(99)
	}

	res := DoResult(context.Background(), m, "k", flaky)
	assert.False(t, res.IsOk())

	res = DoResult(context.Background(), m, "k", flaky)
	require.True(t, res.IsOk())
	assert.Equal(t, 99, res.Value())
	assert.Equal(t, 2, calls)

	res = DoResult(context.Background(), m, "k", flaky)
	require.True(t, res.IsOk())
	assert.Equal(t, 99, res.Value())
	assert.Equal(t, 2, calls, "cached success must not recompute")
}

func TestProviderPromotion(t *testing.T) {
	provider := newFakeProvider()
	require.NoError(t, provider.Set(context.Background(), "k", "remote-value", 0))
	provider.sets = 0
	provider.gets = 0

	m, err := New(&Config{TTL: time.Minute}, WithProvider(provider))
	require.NoError(t, err)

	calls := 0
	fn := func(ctx context.Context) (string, error) {
		calls++
		return "computed", nil
	}

	// L1 未命中、L2 命中：不调用底层函数
	got, err := Do(context.Background(), m, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, "remote-value", got)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, provider.gets)

	// L2 命中已回填 L1，再次调用不再访问提供方
	got, err = Do(context.Background(), m, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, "remote-value", got)
	assert.Equal(t, 1, provider.gets)
}

func TestProviderWriteThrough(t *testing.T) {
	provider := newFakeProvider()
	m, err := New(&Config{TTL: time.Minute}, WithProvider(provider))
	require.NoError(t, err)

	_, err = Do(context.Background(), m, "k", func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.sets, "computed value must be written through to the provider")

	var stored int
	require.NoError(t, provider.Get(context.Background(), "k", &stored))
	assert.Equal(t, 7, stored)
}

func TestInvalidate(t *testing.T) {
	provider := newFakeProvider()
	m, err := New(&Config{TTL: time.Minute}, WithProvider(provider))
	require.NoError(t, err)

	calls := 0
	fn := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}

	_, err = Do(context.Background(), m, "k", fn)
	require.NoError(t, err)

	require.NoError(t, m.Invalidate(context.Background(), "k"))

	got, err := Do(context.Background(), m, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, got, "invalidated key must recompute")
}

func TestErrorCacheable(t *testing.T) {
	m, err := New(&Config{TTL: time.Minute},
		WithErrorCacheable(func(err error) bool {
			return xerrors.IsKind(err, xerrors.KindValidation)
		}))
	require.NoError(t, err)

	calls := 0
	bad := xerrors.Validation("malformed id")
	fn := func(ctx context.Context) (int, error) {
		calls++
		return 0, bad
	}

	_, err = Do(context.Background(), m, "k", fn)
	assert.ErrorIs(t, err, bad)

	// 确定性错误被负缓存，第二次直接返回，不再计算
	_, err = Do(context.Background(), m, "k", fn)
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 1, calls)
}

func TestCancellation(t *testing.T) {
	m, err := New(&Config{TTL: time.Minute})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err = Do(ctx, m, "k", func(ctx context.Context) (int, error) {
		calls++
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)

	res := DoResult(ctx, m, "k", func(ctx context.Context) xerrors.Result[int] {
		calls++
		return xerrors.Ok(1)
	})
	assert.ErrorIs(t, res.Err(), context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestSingleFlightCollapses(t *testing.T) {
	m, err := New(&Config{TTL: time.Minute, SingleFlight: true})
	require.NoError(t, err)

	const goroutines = 16
	var calls int64
	var mu sync.Mutex
	barrier := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]string, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-barrier
			got, err := Do(context.Background(), m, "k", func(ctx context.Context) (string, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				time.Sleep(50 * time.Millisecond) // 留住其他调用
				return "shared", nil
			})
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}
	close(barrier)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, calls, int64(2), "concurrent misses on one key must collapse")
	for _, got := range results {
		assert.Equal(t, "shared", got)
	}
}

func TestNoSingleFlightByDefault(t *testing.T) {
	m, err := New(&Config{TTL: time.Minute})
	require.NoError(t, err)

	const goroutines = 8
	var calls int64
	var mu sync.Mutex
	barrier := make(chan struct{})
	started := make(chan struct{}, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Do(context.Background(), m, "k", func(ctx context.Context) (int, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				started <- struct{}{}
				<-barrier // 所有计算同时在途
				return 1, nil
			})
		}()
	}
	for i := 0; i < goroutines; i++ {
		<-started
	}
	close(barrier)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int64(goroutines), calls, "without single-flight every concurrent miss computes")
}

func TestDifferentTypesSameKey(t *testing.T) {
	m, err := New(&Config{TTL: time.Minute})
	require.NoError(t, err)

	_, err = Do(context.Background(), m, "k", func(ctx context.Context) (string, error) {
		return "str", nil
	})
	require.NoError(t, err)

	// 类型不匹配的 L1 命中按未命中处理
	got, err := Do(context.Background(), m, "k", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}
