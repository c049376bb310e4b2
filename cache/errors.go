package cache

import "github.com/ceyewan/aegis/xerrors"

// 错误定义
var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("cache: config is nil")

	// ErrBadConfig 配置字段非法（负容量或负 TTL）
	ErrBadConfig = xerrors.New("cache: invalid config")

	// ErrConnectorNil 连接器为空
	ErrConnectorNil = xerrors.New("cache: connector is nil")

	// ErrMiss 键不存在或已过期
	ErrMiss = xerrors.NewKind(xerrors.KindNotFound, "cache: miss")
)
