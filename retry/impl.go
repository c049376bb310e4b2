package retry

import (
	"context"
	"strconv"
	"time"

	"github.com/ceyewan/aegis/backoff"
	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
)

// retryer 重试执行器实现
type retryer struct {
	cfg      Config
	calc     *backoff.Calculator
	logger   clog.Logger
	attempts metrics.Counter
	exhausts metrics.Counter
	waits    metrics.Histogram

	// sleep 可注入，测试时替换为假时钟
	sleep func(ctx context.Context, d time.Duration) error
}

func newRetryer(cfg *Config, opts ...Option) (*retryer, error) {
	o := applyOptions(opts...)

	c := *cfg
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.MaxAttempts < 0 {
		return nil, ErrBadMaxAttempts
	}

	calc, err := backoff.New(c.Backoff)
	if err != nil {
		return nil, err
	}
	c.Backoff = calc.Config()

	r := &retryer{
		cfg:    c,
		calc:   calc,
		logger: o.logger,
		sleep:  sleepCtx,
	}
	if r.attempts, err = o.meter.Counter(MetricAttemptsTotal, "Total retry attempts"); err != nil {
		return nil, err
	}
	if r.exhausts, err = o.meter.Counter(MetricExhaustedTotal, "Total operations that exhausted all attempts"); err != nil {
		return nil, err
	}
	if r.waits, err = o.meter.Histogram(MetricWaitDuration, "Backoff wait duration", metrics.WithUnit("s")); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *retryer) Config() Config {
	return r.cfg
}

func (r *retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		// 尝试前检查取消，取消不计入尝试次数
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			r.attempts.Inc(ctx, metrics.L(LabelResult, "success"))
			return nil
		}
		lastErr = err
		r.attempts.Inc(ctx, metrics.L(LabelResult, "failure"))

		// 操作期间发生的取消直接上抛，不折叠进业务错误
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if attempt == r.cfg.MaxAttempts {
			break
		}
		if r.cfg.RetryIf != nil && !r.cfg.RetryIf(err) {
			r.logger.Debug("error not retryable, giving up",
				clog.Int("attempt", attempt), clog.Error(err))
			return err
		}

		delay := r.calc.Delay(attempt)
		r.logger.Debug("attempt failed, retrying",
			clog.Int("attempt", attempt),
			clog.Duration("delay", delay),
			clog.Error(err))
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(attempt, err, delay)
		}

		r.waits.Record(ctx, delay.Seconds(), metrics.L(LabelAttempt, strconv.Itoa(attempt)))
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}

	r.exhausts.Inc(ctx)
	r.logger.Warn("retries exhausted",
		clog.Int("max_attempts", r.cfg.MaxAttempts), clog.Error(lastErr))
	return lastErr
}

// sleepCtx 等待 d 或 ctx 取消，取消时返回 ctx.Err()
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
