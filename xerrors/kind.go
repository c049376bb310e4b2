package xerrors

import (
	"errors"
	"fmt"
)

// Kind 错误类别，构成一个封闭但可判定的错误层级。
//
// 核心组件（retry/breaker/memo）不解释类别语义，只要求"是否可重试"、
// "是否可缓存"能够基于错误值判定；Kind 是适配层与判定谓词之间的约定。
type Kind string

const (
	// KindValidation 输入校验失败
	KindValidation Kind = "validation"
	// KindNotFound 资源不存在
	KindNotFound Kind = "not_found"
	// KindUnauthorized 未认证
	KindUnauthorized Kind = "unauthorized"
	// KindForbidden 无权限
	KindForbidden Kind = "forbidden"
	// KindConflict 状态冲突（如版本冲突、重复创建）
	KindConflict Kind = "conflict"
	// KindExternal 外部依赖（下游服务、数据库）故障
	KindExternal Kind = "external"
	// KindInternal 内部错误
	KindInternal Kind = "internal"
	// KindGeneric 未分类错误，也是无类型错误的默认归属
	KindGeneric Kind = "generic"
)

// Error 带有类别与错误码的错误。
//
// Code 是机器可读的业务错误码（可为空），Message 是人类可读描述，
// Cause 保留底层错误链。
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Cause != nil:
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	case e.Code != "":
		return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Code, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	default:
		return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCode 返回带业务错误码的副本。
func (e *Error) WithCode(code string) *Error {
	clone := *e
	clone.Code = code
	return &clone
}

// WithCause 返回带底层错误的副本。
func (e *Error) WithCause(cause error) *Error {
	clone := *e
	clone.Cause = cause
	return &clone
}

// NewKind 创建指定类别的错误。
func NewKind(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// 各类别的便捷构造函数。
func Validation(msg string) *Error   { return NewKind(KindValidation, msg) }
func NotFound(msg string) *Error     { return NewKind(KindNotFound, msg) }
func Unauthorized(msg string) *Error { return NewKind(KindUnauthorized, msg) }
func Forbidden(msg string) *Error    { return NewKind(KindForbidden, msg) }
func Conflict(msg string) *Error     { return NewKind(KindConflict, msg) }
func External(msg string) *Error     { return NewKind(KindExternal, msg) }
func Internal(msg string) *Error     { return NewKind(KindInternal, msg) }
func Generic(msg string) *Error      { return NewKind(KindGeneric, msg) }

// Externalf 创建格式化消息的外部依赖错误，常用于包装一次失败的远程调用。
func Externalf(format string, args ...any) *Error {
	return NewKind(KindExternal, fmt.Sprintf(format, args...))
}

// KindOf 从错误链中提取类别；无类型错误归为 KindGeneric，nil 返回空串。
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}

// IsKind 判断错误链中是否存在指定类别的错误。
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// RetryableKind 默认的可重试判定：只有外部依赖故障和内部错误视为瞬时，
// 其余类别（校验、权限、冲突等）重试不会改变结果。
//
// 这只是适配层的起点，组件以调用方传入的谓词为准。
func RetryableKind(err error) bool {
	switch KindOf(err) {
	case KindExternal, KindInternal, KindGeneric:
		return true
	default:
		return false
	}
}
