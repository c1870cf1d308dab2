// Package logging 提供 handler 执行日志中间件。
//
// 记录每次送达的主题、处理耗时和错误信息。使用 log/slog 零外部依赖。
//
//	bus.Use(logging.New(slog.Default()))
package logging

import (
	"log/slog"
	"time"

	"github.com/uniyakcom/pulse/core"
)

// New 创建日志中间件。
func New(logger *slog.Logger) core.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(h core.Handler) core.Handler {
		return func(args core.Args) error {
			start := time.Now()

			err := h(args)

			duration := time.Since(start)
			topic, _ := args[core.KeyTopic].(string)
			attrs := []any{
				"topic", topic,
				"duration", duration,
			}

			if err != nil {
				logger.Error("handler failed", append(attrs, "error", err)...)
			} else {
				logger.Debug("handler done", attrs...)
			}

			return err
		}
	}
}
