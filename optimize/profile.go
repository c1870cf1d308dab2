// Package optimize 提供总线构造配置与预设
package optimize

import (
	"log/slog"
	"runtime"

	"github.com/uniyakcom/pulse/core"
)

// Profile 总线构造 Profile
type Profile struct {
	Name        string         // 场景名称
	PoolSize    int            // 派发 worker 池容量（0 = 不建池，每 handler 一 goroutine）
	MemoBound   int            // 每订阅匹配备忘 LRU 容量（0 = 默认 512）
	MaxParallel int            // handler 并发上限（0 = 不设限）
	Logger      *slog.Logger   // 错误汇日志（nil = slog.Default）
	Sink        core.ErrorSink // 自定义错误汇（非 nil 优先于 Logger）
}

// Default 通用场景：共享 worker 池 + 有界备忘
// 用途: 领域事件、模块解耦、进程内工作流
func Default() *Profile {
	return &Profile{
		Name:      "default",
		PoolSize:  runtime.NumCPU() * 8,
		MemoBound: 512,
	}
}

// Light 轻量场景：不建池，适合低频发布或测试
// 用途: 单测、短生命周期进程
func Light() *Profile {
	return &Profile{
		Name:      "light",
		MemoBound: 128,
	}
}

// Bounded 限流场景：并发上限 = CPU 数，防止慢 handler 挤占
func Bounded() *Profile {
	p := Default()
	p.Name = "bounded"
	p.MaxParallel = runtime.NumCPU()
	return p
}

// Preset 按名称取预设。未知名称回落 Default。
// name: "default", "light", "bounded"
func Preset(name string) *Profile {
	switch name {
	case "light":
		return Light()
	case "bounded":
		return Bounded()
	}
	return Default()
}
