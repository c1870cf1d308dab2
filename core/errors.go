package core

import (
	"errors"
	"fmt"
)

// ErrInvalidPattern 模式构造错误：空段、未知后缀、缺参数名、
// 字符类未闭合或非法、参数名重复。在 Subscribe / pattern.New 处同步返回。
var ErrInvalidPattern = errors.New("pulse: invalid pattern")

// ErrClosed 总线已关闭
var ErrClosed = errors.New("pulse: bus closed")

// PanicError 包装 handler panic 恢复值的 error 类型
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}
