// Package recoverer 提供 panic 恢复中间件。
//
// 捕获 handler 内的 panic 并转化为 error 返回，让其走调度器的错误汇
// 而非计入 panic。调度器本身兜底恢复 panic，此中间件用于
// 希望把 panic 当普通失败统计/记录的场景。
//
//	bus.Use(recoverer.New())
package recoverer

import (
	"github.com/uniyakcom/pulse/core"
)

// New 创建 panic 恢复中间件。
func New() core.Middleware {
	return func(h core.Handler) core.Handler {
		return func(args core.Args) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &core.PanicError{Value: r}
				}
			}()
			return h(args)
		}
	}
}
