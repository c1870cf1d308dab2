// Package pulse 统一API入口
//
// pulse 是进程内发布/订阅总线：主题是斜杠分隔路径（/order/created/book），
// 订阅模式支持命名参数、字符类约束与多种量词的通配符
// （/order/:status/:item、/files/**、/users/:id[a-z0-9]）。
// 一次发布并发送达所有匹配订阅，参数深合并后交给 handler，
// 在途发布数通过 InFlight 可观测。
package pulse

import (
	"context"

	"github.com/uniyakcom/pulse/core"
	"github.com/uniyakcom/pulse/optimize"
	"github.com/uniyakcom/pulse/pattern"
)

// Bus 导出Bus接口
type Bus = core.Bus

// Args 导出发布参数类型
type Args = core.Args

// Handler 导出Handler类型
type Handler = core.Handler

// Middleware 导出Middleware类型
type Middleware = core.Middleware

// Token 导出单触发完成令牌
type Token = core.Token

// Profile 导出构造Profile
type Profile = optimize.Profile

// ErrInvalidPattern 导出模式构造错误
var ErrInvalidPattern = core.ErrInvalidPattern

// ═══════════════════════════════════════════════════════════════════
// 第零层：New() 零配置入口
// ═══════════════════════════════════════════════════════════════════

// New 零配置创建 Bus（共享 worker 池 + 有界匹配备忘）
//
// 用法:
//
//	bus, _ := pulse.New()
//	defer bus.Close()
func New() (Bus, error) {
	return Option(optimize.Default())
}

// ═══════════════════════════════════════════════════════════════════
// 第一层：Scenario() 字符串配置
// ═══════════════════════════════════════════════════════════════════

// Scenario 预设场景快速创建
// name: "default", "light", "bounded"
func Scenario(name string) (Bus, error) {
	return Option(optimize.Preset(name))
}

// ═══════════════════════════════════════════════════════════════════
// 第二层：Option() 完全控制
// ═══════════════════════════════════════════════════════════════════

// Option 按 Profile 构造总线（完全控制）
func Option(p *Profile) (Bus, error) {
	return optimize.Build(p)
}

// ═══════════════════════════════════════════════════════════════════
// 模式匹配直通
// ═══════════════════════════════════════════════════════════════════

// NewMatcher 编译路径模式（不经总线直接使用匹配器）
//
//	m, _ := pulse.NewMatcher("/users/:id[a-z0-9]")
//	res := m.Match("/Users/abc123")  // res.Params["id"].Str() == "abc123"
func NewMatcher(p string) (*pattern.Matcher, error) {
	return pattern.New(p)
}

// Normalize 导出路径规范化（小写、裁剪、折叠斜杠、单个前导 '/'）
func Normalize(path string) string {
	return pattern.Normalize(path)
}

// ═══════════════════════════════════════════════════════════════════
// 包级便捷 API（默认 Bus，Light 语义，零初始化）
// ═══════════════════════════════════════════════════════════════════

// defaultBus 包级默认 Bus（在 init 中立即构造：init 阶段单线程，无需同步）
var defaultBus Bus

func init() {
	b, err := Scenario("light")
	if err != nil {
		panic("pulse: failed to init default bus: " + err.Error())
	}
	defaultBus = b
}

// Default 返回包级默认 Bus 实例
func Default() Bus {
	return defaultBus
}

// Reset 重置包级默认 Bus 的订阅集（测试用）。在途发布仍按已冻结快照结清。
func Reset() {
	defaultBus.(interface{ Reset() }).Reset()
}

// On 包级订阅
//
//	id, _ := pulse.On("/order/:status/:item", func(args pulse.Args) error {
//	    fmt.Println(args["status"], args["item"])
//	    return nil
//	})
func On(pattern string, handler Handler) (uint64, error) {
	return defaultBus.Subscribe(pattern, handler)
}

// OnOnce 包级一次性订阅
func OnOnce(pattern string, handler Handler) (uint64, error) {
	return defaultBus.SubscribeOnce(pattern, handler)
}

// Off 包级按 ID 取消订阅（幂等）
func Off(id uint64) {
	defaultBus.Unsubscribe(id)
}

// OffTopic 包级按主题字符串取消订阅：移除所有能匹配该主题的订阅
func OffTopic(topic string) {
	defaultBus.UnsubscribeTopic(topic)
}

// Once 包级单触发令牌：下一次匹配 topic 的发布使其完成
//
//	t, _ := pulse.Once("/user/created")
//	args := <-t.Done()
func Once(topic string) (*Token, error) {
	return defaultBus.Once(topic)
}

// Emit 包级发布。返回的 channel 在全部匹配 handler 结清后关闭。
//
//	done := pulse.Emit("/order/created/book", nil)
//	<-done
func Emit(topic string, args Args) <-chan struct{} {
	return defaultBus.Publish(topic, args)
}

// EmitWait 包级发布并阻塞到结清
func EmitWait(topic string, args Args) {
	<-defaultBus.Publish(topic, args)
}

// Stream 包级通道订阅
func Stream(ctx context.Context, pattern string) (<-chan Args, error) {
	return defaultBus.Stream(ctx, pattern)
}

// Use 包级追加全局中间件
func Use(mw ...Middleware) {
	defaultBus.Use(mw...)
}

// InFlight 包级在途发布数
func InFlight() int64 {
	return defaultBus.InFlight()
}

// Stats 包级运行时统计
func Stats() core.Stats {
	return defaultBus.Stats()
}
