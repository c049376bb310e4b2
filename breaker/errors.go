package breaker

import (
	"fmt"
	"time"

	"github.com/ceyewan/aegis/xerrors"
)

// 错误定义
var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("breaker: config is nil")

	// ErrBadConfig 配置字段非法（负数阈值或冷却时长）
	ErrBadConfig = xerrors.New("breaker: invalid config")

	// ErrKeyEmpty 熔断键为空
	ErrKeyEmpty = xerrors.New("breaker: key is empty")

	// ErrBreakerNotFound 指定键的熔断器不存在
	ErrBreakerNotFound = xerrors.New("breaker: breaker not found for key")

	// ErrOpenState 熔断器处于打开状态
	// 用于 errors.Is 判定，携带上下文的具体错误是 *OpenError
	ErrOpenState = xerrors.New("breaker: circuit breaker is open")
)

// OpenError 熔断拒绝错误，携带熔断键和剩余冷却时长。
// errors.Is(err, ErrOpenState) 为 true。
type OpenError struct {
	// Key 被熔断的键
	Key string
	// RetryAfter 距离下一次探测机会的剩余时长，半开抢不到探测名额时为 0
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("breaker: circuit open for key %q, retry after %v", e.Key, e.RetryAfter)
}

// Is 支持 errors.Is(err, ErrOpenState)
func (e *OpenError) Is(target error) bool {
	return target == ErrOpenState
}

// RetryAfter 从错误链中提取剩余冷却时长。
// err 不是熔断拒绝错误时返回 (0, false)。
func RetryAfter(err error) (time.Duration, bool) {
	var openErr *OpenError
	if xerrors.As(err, &openErr) {
		return openErr.RetryAfter, true
	}
	return 0, false
}
