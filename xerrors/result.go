package xerrors

// Result 双结果值：要么持有成功值，要么持有错误，不会同时持有。
//
// 用于表达"函数的返回类型本身就是成功/失败"的场景（如 memo.DoResult），
// 与 Go 惯用的 (T, error) 可通过 Unpack 互转。
type Result[T any] struct {
	value T
	err   error
}

// Ok 构造成功结果。
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err 构造失败结果。err 为 nil 时等价于零值成功结果。
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsOk 报告是否为成功结果。
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Value 返回成功值；失败结果返回零值。
func (r Result[T]) Value() T {
	return r.value
}

// Err 返回错误；成功结果返回 nil。
func (r Result[T]) Err() error {
	return r.err
}

// Unpack 还原为 Go 惯用的 (T, error) 形式。
func (r Result[T]) Unpack() (T, error) {
	return r.value, r.err
}
