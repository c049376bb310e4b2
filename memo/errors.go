package memo

import "github.com/ceyewan/aegis/xerrors"

// 错误定义
var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("memo: config is nil")

	// ErrBadConfig 配置字段非法（负 TTL）
	ErrBadConfig = xerrors.New("memo: invalid config")

	// ErrKeyEmpty 缓存键为空
	ErrKeyEmpty = xerrors.New("memo: key is empty")
)
