package retry

import "github.com/ceyewan/aegis/xerrors"

// 错误定义
var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("retry: config is nil")

	// ErrBadMaxAttempts 最大尝试次数非法
	ErrBadMaxAttempts = xerrors.New("retry: max attempts must be positive")
)
