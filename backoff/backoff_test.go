package backoff

import (
	"testing"
	"time"
)

// TestNoneKind none 策略永远返回 0
func TestNoneKind(t *testing.T) {
	calc, err := New(Config{Kind: KindNone, Base: time.Second})
	if err != nil {
		t.Fatalf("New should not fail: %v", err)
	}
	for attempt := 1; attempt <= 5; attempt++ {
		if d := calc.Delay(attempt); d != 0 {
			t.Errorf("Delay(%d) = %v, want 0", attempt, d)
		}
	}
}

// TestConstantKind constant 策略永远返回 Base
func TestConstantKind(t *testing.T) {
	calc, _ := New(Config{Kind: KindConstant, Base: 250 * time.Millisecond})
	for attempt := 1; attempt <= 5; attempt++ {
		if d := calc.Delay(attempt); d != 250*time.Millisecond {
			t.Errorf("Delay(%d) = %v, want 250ms", attempt, d)
		}
	}
}

// TestLinearKind linear 策略返回 Base * attempt
func TestLinearKind(t *testing.T) {
	base := 100 * time.Millisecond
	calc, _ := New(Config{Kind: KindLinear, Base: base})
	for attempt := 1; attempt <= 5; attempt++ {
		want := base * time.Duration(attempt)
		if d := calc.Delay(attempt); d != want {
			t.Errorf("Delay(%d) = %v, want %v", attempt, d, want)
		}
	}
}

// TestExponentialKind 无钳制时 delay(n) == base * 2^(n-1)
func TestExponentialKind(t *testing.T) {
	base := 100 * time.Millisecond
	calc, _ := New(Config{Kind: KindExponential, Base: base})

	want := base
	for attempt := 1; attempt <= 8; attempt++ {
		if d := calc.Delay(attempt); d != want {
			t.Errorf("Delay(%d) = %v, want %v", attempt, d, want)
		}
		want *= 2
	}
}

// TestMaxClamp 设置 Max 后任何 attempt 的 delay 都不超过 Max
func TestMaxClamp(t *testing.T) {
	max := time.Second
	calc, _ := New(Config{Kind: KindExponential, Base: 100 * time.Millisecond, Max: max})

	for attempt := 1; attempt <= 64; attempt++ {
		if d := calc.Delay(attempt); d > max {
			t.Errorf("Delay(%d) = %v exceeds max %v", attempt, d, max)
		}
	}

	if d := calc.Delay(10); d != max {
		t.Errorf("Delay(10) = %v, want clamped to %v", d, max)
	}
}

// TestExponentialOverflow 极大的 attempt 不应因移位溢出产生负数
func TestExponentialOverflow(t *testing.T) {
	calc, _ := New(Config{Kind: KindExponential, Base: time.Second, Max: time.Minute})
	for _, attempt := range []int{62, 63, 64, 100, 1 << 20} {
		d := calc.Delay(attempt)
		if d < 0 || d > time.Minute {
			t.Errorf("Delay(%d) = %v, want within (0, 1m]", attempt, d)
		}
	}
}

// TestJitterDeterministic 注入随机源后抖动可确定
func TestJitterDeterministic(t *testing.T) {
	base := 100 * time.Millisecond

	// 随机源永远返回 n-1（抖动上界），delay = base + base
	calc, _ := New(Config{Kind: KindConstant, Base: base, Jitter: true},
		WithRand(func(n int64) int64 { return n - 1 }))
	if d := calc.Delay(1); d != 2*base {
		t.Errorf("Delay with max jitter = %v, want %v", d, 2*base)
	}

	// 随机源永远返回 0，delay 不变
	calc, _ = New(Config{Kind: KindConstant, Base: base, Jitter: true},
		WithRand(func(n int64) int64 { return 0 }))
	if d := calc.Delay(1); d != base {
		t.Errorf("Delay with zero jitter = %v, want %v", d, base)
	}
}

// TestJitterRange 默认随机源下抖动始终落在 [delay, 2*delay] 区间
func TestJitterRange(t *testing.T) {
	base := 10 * time.Millisecond
	calc, _ := New(Config{Kind: KindConstant, Base: base, Jitter: true})

	for i := 0; i < 1000; i++ {
		d := calc.Delay(1)
		if d < base || d > 2*base {
			t.Fatalf("jittered delay %v outside [%v, %v]", d, base, 2*base)
		}
	}
}

// TestJitterClampedToMax 抖动之后仍然受 Max 钳制
func TestJitterClampedToMax(t *testing.T) {
	max := 150 * time.Millisecond
	calc, _ := New(Config{Kind: KindConstant, Base: 100 * time.Millisecond, Max: max, Jitter: true},
		WithRand(func(n int64) int64 { return n - 1 }))
	if d := calc.Delay(1); d != max {
		t.Errorf("Delay = %v, want clamped to %v", d, max)
	}
}

// TestDefaults 空配置使用 exponential + 100ms
func TestDefaults(t *testing.T) {
	calc, err := New(Config{})
	if err != nil {
		t.Fatalf("New should not fail: %v", err)
	}
	cfg := calc.Config()
	if cfg.Kind != KindExponential {
		t.Errorf("default kind = %v, want exponential", cfg.Kind)
	}
	if cfg.Base != 100*time.Millisecond {
		t.Errorf("default base = %v, want 100ms", cfg.Base)
	}
}

// TestInvalidConfig 非法配置
func TestInvalidConfig(t *testing.T) {
	if _, err := New(Config{Kind: "fibonacci"}); err == nil {
		t.Error("unknown kind should fail")
	}
	if _, err := New(Config{Kind: KindConstant, Base: -time.Second}); err == nil {
		t.Error("negative base should fail")
	}
}

// TestParseKind 字符串解析
func TestParseKind(t *testing.T) {
	for s, want := range map[string]Kind{
		"":            KindExponential,
		"none":        KindNone,
		"Constant":    KindConstant,
		"LINEAR":      KindLinear,
		"exponential": KindExponential,
	} {
		got, err := ParseKind(s)
		if err != nil {
			t.Fatalf("ParseKind(%q) failed: %v", s, err)
		}
		if got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := ParseKind("random"); err == nil {
		t.Error("ParseKind should reject unknown kind")
	}
}

// TestPackageDelay 包级便捷函数
func TestPackageDelay(t *testing.T) {
	cfg := Config{Kind: KindLinear, Base: time.Millisecond}
	if d := Delay(3, cfg); d != 3*time.Millisecond {
		t.Errorf("Delay(3) = %v, want 3ms", d)
	}
	if d := Delay(0, cfg); d != time.Millisecond {
		t.Errorf("Delay(0) should treat attempt as 1, got %v", d)
	}
}
