package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/aegis/backoff"
	"github.com/ceyewan/aegis/xerrors"
)

func newTestRetryer(t *testing.T, cfg *Config) *retryer {
	t.Helper()
	r, err := New(cfg)
	require.NoError(t, err)
	impl, ok := r.(*retryer)
	require.True(t, ok)
	// 测试中不真正等待，只记录次数
	impl.sleep = func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}
	return impl
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrConfigNil)

	_, err = New(&Config{MaxAttempts: -1})
	assert.ErrorIs(t, err, ErrBadMaxAttempts)

	r, err := New(&Config{})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Config().MaxAttempts)
	assert.Equal(t, backoff.KindExponential, r.Config().Backoff.Kind)
}

func TestDoExhaustsAttempts(t *testing.T) {
	r := newTestRetryer(t, &Config{MaxAttempts: 3})

	calls := 0
	failure := xerrors.New("boom")
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return failure
	})

	assert.Equal(t, 3, calls, "operation should run exactly MaxAttempts times")
	assert.ErrorIs(t, err, failure, "last error should be returned")
}

func TestDoSucceedsOnSecondAttempt(t *testing.T) {
	var waits int
	r := newTestRetryer(t, &Config{MaxAttempts: 3})
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits++
		return nil
	}

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return xerrors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, waits, "no wait after the successful attempt")
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	r := newTestRetryer(t, &Config{
		MaxAttempts: 5,
		RetryIf:     RetryableError,
	})

	calls := 0
	notFound := xerrors.NotFound("user missing")
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return notFound
	})

	assert.Equal(t, 1, calls, "non-retryable error must not be retried")
	assert.ErrorIs(t, err, notFound)
}

func TestDoCancelledBeforeStart(t *testing.T) {
	r := newTestRetryer(t, &Config{MaxAttempts: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := r.Do(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoCancelledDuringWait(t *testing.T) {
	r, err := New(&Config{
		MaxAttempts: 3,
		Backoff:     backoff.Config{Kind: backoff.KindConstant, Base: time.Minute},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, func(ctx context.Context) error {
			calls++
			return xerrors.New("always fails")
		})
	}()

	time.Sleep(20 * time.Millisecond) // 进入等待
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled, "cancellation must surface as ctx.Err()")
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not abort on cancellation")
	}
}

func TestDoCancelledDuringOperation(t *testing.T) {
	r := newTestRetryer(t, &Config{MaxAttempts: 3})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := r.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return xerrors.External("remote hung up")
	})

	assert.Equal(t, 1, calls, "cancellation observed during the operation aborts immediately")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOnRetryCallback(t *testing.T) {
	var attempts []int
	r := newTestRetryer(t, &Config{
		MaxAttempts: 3,
		Backoff:     backoff.Config{Kind: backoff.KindConstant, Base: time.Millisecond},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
		},
	})

	_ = r.Do(context.Background(), func(ctx context.Context) error {
		return xerrors.New("boom")
	})

	// 最后一次失败后没有等待，也就没有回调
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestValue(t *testing.T) {
	r := newTestRetryer(t, &Config{MaxAttempts: 3})

	calls := 0
	got, err := Value(context.Background(), r, func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", xerrors.External("flaky upstream")
		}
		return "hello", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, 2, calls)

	_, err = Value(context.Background(), r, func(ctx context.Context) (int, error) {
		return 42, xerrors.New("poisoned")
	})
	assert.Error(t, err)
}

func TestRetryableError(t *testing.T) {
	assert.True(t, RetryableError(xerrors.External("upstream 503")))
	assert.True(t, RetryableError(xerrors.Internal("deadlock")))
	assert.True(t, RetryableError(xerrors.New("plain error")))
	assert.False(t, RetryableError(xerrors.Validation("bad input")))
	assert.False(t, RetryableError(xerrors.NotFound("missing")))
	assert.False(t, RetryableError(xerrors.Conflict("version mismatch")))
}
