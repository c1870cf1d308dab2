// Package core 提供事件总线核心接口定义
package core

import (
	"context"
)

// Args 发布参数 — 送达 handler 的合并映射。
//
// 组合优先级（低 → 高）：用户键 < 捕获的命名参数 < 保留键 "_" 与 "topic"。
// "topic" 恒为规范化后的主题字符串，"_" 恒为 []string（匿名通配捕获，可能为空）。
// 命名参数为 string（单段/可选/拼接）或 []string（** 列表）。
type Args = map[string]any

// 保留键
const (
	KeyTopic     = "topic" // 规范化主题
	KeyWildcards = "_"     // 匿名通配捕获列表
)

// Handler 事件处理器。返回的 error 记入错误汇，不会传播给发布者。
type Handler func(args Args) error

// Middleware 处理器中间件（订阅时包裹 Handler）
type Middleware func(Handler) Handler

// ErrorSink 错误汇 — 接收 handler 返回的 error 与恢复的 panic。
// 实现不得阻塞；默认实现记录到 slog。
type ErrorSink func(topic string, err error)

// Stats 总线运行时统计
type Stats struct {
	Published     int64 // 已发布次数（Publish 调用数）
	Delivered     int64 // handler 执行完成次数
	HandlerErrors int64 // handler 返回 error 次数
	Panics        int64 // handler panic 次数
}

// Bus 路径模式路由事件总线接口
//
// 订阅模式与发布主题均为斜杠分隔路径（如 /order/:status/:item 与
// /order/created/book）。一次发布并发送达所有匹配订阅；handler 失败被
// 吞掉并记录，发布方只感知"全部结清"。
type Bus interface {
	// Subscribe 订阅模式，返回订阅 ID。模式非法时返回 ErrInvalidPattern。
	// 相同 (pattern, handler) 重复订阅产生独立订阅记录，各自触发。
	Subscribe(pattern string, h Handler) (uint64, error)

	// SubscribeOnce 一次性订阅：首次匹配发布触发后自动移除。
	SubscribeOnce(pattern string, h Handler) (uint64, error)

	// Unsubscribe 按 ID 取消订阅。幂等，未知 ID 为 no-op。
	Unsubscribe(id uint64)

	// UnsubscribeTopic 移除所有"其模式能匹配该字符串（视作主题）"的订阅。
	UnsubscribeTopic(topic string)

	// Once 返回单触发完成令牌，下一次匹配 topic 的发布使其完成。
	// 令牌创建之前的发布不被观察。
	Once(topic string) (*Token, error)

	// Publish 发布主题。inFlight 在返回前同步递增；订阅快照在返回前冻结，
	// 之后注册的订阅不会收到本次发布。返回的 channel 在全部匹配 handler
	// 结清（成功或失败）后关闭。
	Publish(topic string, args Args) <-chan struct{}

	// Stream 订阅并以通道形式接收合并参数，ctx 取消时订阅移除；通道不关闭。
	Stream(ctx context.Context, pattern string) (<-chan Args, error)

	// Use 追加全局中间件，对之后注册的订阅生效。
	Use(mw ...Middleware)

	// InFlight 当前处于发布中（步骤 1 与结清之间）的 Publish 调用数。
	InFlight() int64

	// Stats 返回运行时统计
	Stats() Stats

	// Close 关闭总线并释放 worker 池。在途发布仍会结清。
	Close()
}
