package breaker

import (
	"sync"
	"time"
)

// tracker 单个熔断键的状态机。
// 所有字段的读改写都在 mu 下进行，状态转换对并发调用方可线性化。
type tracker struct {
	mu sync.Mutex

	state    State
	failures int       // closed 状态下的连续失败数
	probes   int       // half-open 状态下的连续成功数
	openedAt time.Time // 最近一次进入 open 的时刻
	probing  bool      // half-open 是否已有探测在途

	threshold   int
	openTimeout time.Duration
	needProbes  int

	now func() time.Time

	// onChange 在持锁状态下回调，实现方不得再调用 tracker 方法
	onChange func(from, to State)
}

// allow 判断当前调用是否放行。
// 返回 isProbe=true 表示该调用是半开探测，完成后必须调用 report。
// 拒绝时返回距可重试的剩余时长。
func (t *tracker) allow() (ok bool, isProbe bool, retryAfter time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateClosed:
		return true, false, 0

	case StateOpen:
		remaining := t.openTimeout - t.now().Sub(t.openedAt)
		if remaining > 0 {
			return false, false, remaining
		}
		// 冷却结束，转半开并把探测名额给当前调用
		t.transition(StateHalfOpen)
		t.probes = 0
		t.probing = true
		return true, true, 0

	case StateHalfOpen:
		if t.probing {
			// 探测在途，其他调用直接拒绝
			return false, false, 0
		}
		t.probing = true
		return true, true, 0
	}

	return false, false, 0
}

// report 上报一次调用结果。isProbe 必须与 allow 的返回一致。
func (t *tracker) report(isProbe, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if isProbe {
		t.probing = false
		if t.state != StateHalfOpen {
			// 探测期间被 Reset 过，结果作废
			return
		}
		if failed {
			t.transition(StateOpen)
			t.openedAt = t.now()
			t.probes = 0
			return
		}
		t.probes++
		if t.probes >= t.needProbes {
			t.transition(StateClosed)
			t.failures = 0
			t.probes = 0
		}
		return
	}

	if t.state != StateClosed {
		// allow 之后状态被并发改变，闭合期放行的调用结果不再计数
		return
	}
	if !failed {
		t.failures = 0
		return
	}
	t.failures++
	if t.failures >= t.threshold {
		t.transition(StateOpen)
		t.openedAt = t.now()
	}
}

// current 返回当前状态。open 冷却结束后在下一次调用到来前仍报告 open。
func (t *tracker) current() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// reset 回到闭合状态并清零所有计数
func (t *tracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateClosed {
		t.transition(StateClosed)
	}
	t.failures = 0
	t.probes = 0
	t.probing = false
}

func (t *tracker) transition(to State) {
	from := t.state
	if from == to {
		return
	}
	t.state = to
	if t.onChange != nil {
		t.onChange(from, to)
	}
}
