// Package local 提供进程内路径模式路由总线实现。
//
// 架构承袭 CoW 快照：订阅集以不可变快照存于 atomic.Pointer，
// Subscribe/Unsubscribe 在写锁下整体替换，Publish 无锁读取。
// 快照在 Publish 返回前同步冻结 — 这是规范里"冻结 yield"的 Go 表达：
// 加锁、拷贝、释放、再派发；Publish 之后注册的订阅不会观察到本次发布。
//
// 派发走共享 ants worker 池（池耗尽或未配置时退化为裸 goroutine），
// handler 的 error 与 panic 进入错误汇并计数，从不传播给发布者。
package local

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/semaphore"

	"github.com/uniyakcom/pulse/core"
	"github.com/uniyakcom/pulse/pattern"
	"github.com/uniyakcom/pulse/util"
)

// Config 总线构造参数（由 optimize.Build 装配）
type Config struct {
	// PoolSize ants worker 池容量。<= 0 时不建池，每个 handler 一个 goroutine。
	PoolSize int
	// MemoBound 每订阅匹配备忘的 LRU 容量。<= 0 时取 defaultMemoBound。
	MemoBound int
	// MaxParallel 同时执行的 handler 上限。<= 0 不设限。
	MaxParallel int
	// Logger 错误汇日志。nil 时用 slog.Default()。
	Logger *slog.Logger
	// Sink 自定义错误汇。非 nil 时优先于 Logger。
	Sink core.ErrorSink
}

const defaultMemoBound = 512

// sub 订阅记录
//
// memo 按具体主题缓存成功匹配结果，避免同一 (pattern, topic) 重复匹配。
// memo 只在本订阅的匹配路径上写入，订阅间互不触碰。
type sub struct {
	id      uint64
	pattern string
	matcher *pattern.Matcher
	handler core.Handler
	once    bool
	fired   atomic.Bool // once 订阅的单次触发闸
	memo    *lru.Cache[string, pattern.Result]
}

// match 带备忘的主题匹配。topic 已规范化。未命中的结果不入缓存。
func (s *sub) match(topic string) pattern.Result {
	if res, ok := s.memo.Get(topic); ok {
		return res
	}
	res := s.matcher.Match(topic)
	if res.Matched {
		s.memo.Add(topic, res)
	}
	return res
}

// snapshot 订阅集不可变快照 — 双索引
//   - static: 全静态模式按规范化文本精确索引（承袭精确匹配快路径）
//   - dynamic: 含参数/通配符的模式，发布时逐一匹配
type snapshot struct {
	static  map[string][]*sub
	dynamic []*sub
}

var emptySnapshot = &snapshot{static: map[string][]*sub{}}

// Bus 进程内事件总线
type Bus struct {
	subs   atomic.Pointer[snapshot]
	mu     sync.Mutex // 串行化订阅集写入
	nextID atomic.Uint64

	inFlight atomic.Int64

	pool *ants.Pool          // 共享派发池，可为 nil
	sem  *semaphore.Weighted // 并发上限，可为 nil

	mws  []core.Middleware
	sink core.ErrorSink

	memoBound int
	closed    atomic.Bool

	// 运行时统计（无竞争计数）
	published   *xsync.Counter
	delivered   *xsync.Counter
	handlerErrs *xsync.Counter
	panics      *xsync.Counter
}

// New 构造总线
func New(cfg Config) (*Bus, error) {
	b := &Bus{
		memoBound:   cfg.MemoBound,
		published:   xsync.NewCounter(),
		delivered:   xsync.NewCounter(),
		handlerErrs: xsync.NewCounter(),
		panics:      xsync.NewCounter(),
	}
	if b.memoBound <= 0 {
		b.memoBound = defaultMemoBound
	}
	if cfg.PoolSize > 0 {
		p, err := ants.NewPool(cfg.PoolSize, ants.WithNonblocking(true))
		if err != nil {
			return nil, err
		}
		b.pool = p
	}
	if cfg.MaxParallel > 0 {
		b.sem = semaphore.NewWeighted(int64(cfg.MaxParallel))
	}
	b.sink = cfg.Sink
	if b.sink == nil {
		logger := cfg.Logger
		if logger == nil {
			logger = slog.Default()
		}
		b.sink = func(topic string, err error) {
			logger.Error("handler failed", "topic", topic, "error", err)
		}
	}
	b.subs.Store(emptySnapshot)
	return b, nil
}

// Use 追加全局中间件，对之后注册的订阅生效。
func (b *Bus) Use(mw ...core.Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mws = append(b.mws, mw...)
}

// Subscribe 订阅模式
func (b *Bus) Subscribe(pat string, h core.Handler) (uint64, error) {
	return b.subscribe(pat, h, false)
}

// SubscribeOnce 一次性订阅
func (b *Bus) SubscribeOnce(pat string, h core.Handler) (uint64, error) {
	return b.subscribe(pat, h, true)
}

func (b *Bus) subscribe(pat string, h core.Handler, once bool) (uint64, error) {
	m, err := pattern.New(pat)
	if err != nil {
		return 0, err
	}
	memo, err := lru.New[string, pattern.Result](b.memoBound)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// 中间件在订阅时固化（逆序包裹，先注册的最外层）
	for i := len(b.mws) - 1; i >= 0; i-- {
		h = b.mws[i](h)
	}

	s := &sub{
		id:      b.nextID.Add(1),
		pattern: m.Pattern(),
		matcher: m,
		handler: h,
		once:    once,
		memo:    memo,
	}
	old := b.subs.Load()
	b.subs.Store(old.with(s))
	return s.id, nil
}

// with 拷贝快照并插入订阅
func (sn *snapshot) with(s *sub) *snapshot {
	next := &snapshot{
		static:  make(map[string][]*sub, len(sn.static)+1),
		dynamic: sn.dynamic,
	}
	for k, v := range sn.static {
		next.static[k] = v
	}
	if s.matcher.IsStatic() {
		key := s.pattern
		next.static[key] = append(append([]*sub(nil), next.static[key]...), s)
	} else {
		next.dynamic = append(append([]*sub(nil), sn.dynamic...), s)
	}
	return next
}

// without 拷贝快照并按谓词剔除订阅
func (sn *snapshot) without(drop func(*sub) bool) *snapshot {
	next := &snapshot{static: make(map[string][]*sub, len(sn.static))}
	for k, v := range sn.static {
		kept := make([]*sub, 0, len(v))
		for _, s := range v {
			if !drop(s) {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			next.static[k] = kept
		}
	}
	next.dynamic = make([]*sub, 0, len(sn.dynamic))
	for _, s := range sn.dynamic {
		if !drop(s) {
			next.dynamic = append(next.dynamic, s)
		}
	}
	return next
}

// Unsubscribe 按 ID 取消订阅。幂等；发布中已选定的 handler 不受影响。
func (b *Bus) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.subs.Load()
	b.subs.Store(old.without(func(s *sub) bool { return s.id == id }))
}

// UnsubscribeTopic 移除所有其模式能匹配该字符串（视作主题）的订阅。
func (b *Bus) UnsubscribeTopic(topic string) {
	norm := pattern.Normalize(topic)
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.subs.Load()
	b.subs.Store(old.without(func(s *sub) bool {
		return s.matcher.Match(norm).Matched
	}))
}

// Once 单触发完成令牌：下一次匹配 topic 的发布使其完成。
// 实现为 SubscribeOnce(topic, resolver)；令牌创建前的发布不被观察。
func (b *Bus) Once(topic string) (*core.Token, error) {
	var id uint64
	t := core.NewToken(func() { b.Unsubscribe(id) })
	id, err := b.SubscribeOnce(topic, func(args core.Args) error {
		t.Complete(args)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Publish 发布主题。
//
// 执行序：inFlight 同步递增 → 快照同步冻结 → 返回完成通道，
// 派发转入后台：逐订阅（备忘）匹配 → 合并参数 → 池上并发执行 handler →
// once 订阅出册 → 全部结清后 inFlight 递减、通道关闭。
func (b *Bus) Publish(topic string, args core.Args) <-chan struct{} {
	b.inFlight.Add(1)
	b.published.Inc()

	snap := b.subs.Load() // 冻结：之后注册的订阅不观察本次发布
	norm := pattern.Normalize(topic)
	done := make(chan struct{})

	go b.dispatch(snap, norm, args, done)
	return done
}

// delivery 一次待派发的 (订阅, 匹配结果)
type delivery struct {
	s   *sub
	res pattern.Result
}

func (b *Bus) dispatch(snap *snapshot, topic string, user core.Args, done chan struct{}) {
	defer func() {
		b.inFlight.Add(-1)
		close(done)
	}()

	// 选定集：精确索引 + 动态逐一匹配
	var selected []delivery
	for _, s := range snap.static[topic] {
		selected = append(selected, delivery{s: s, res: pattern.Result{Path: topic, Matched: true}})
	}
	for _, s := range snap.dynamic {
		if res := s.match(topic); res.Matched {
			selected = append(selected, delivery{s: s, res: res})
		}
	}

	var wg sync.WaitGroup
	var onceFired []uint64
	for _, d := range selected {
		// once 订阅：单次触发闸，竞争发布下至多派发一次
		if d.s.once && !d.s.fired.CompareAndSwap(false, true) {
			continue
		}
		if d.s.once {
			onceFired = append(onceFired, d.s.id)
		}

		args := composeArgs(user, d.res, topic)
		h := d.s.handler
		wg.Add(1)
		task := func() {
			defer wg.Done()
			b.invoke(topic, h, args)
		}
		if b.pool == nil || b.pool.Submit(task) != nil {
			// 无池或池拒绝（非阻塞模式下已满）→ 裸 goroutine 兜底
			go task()
		}
	}

	// once 订阅在派发后立即出册，后续发布不再触发
	if len(onceFired) > 0 {
		b.mu.Lock()
		old := b.subs.Load()
		b.subs.Store(old.without(func(s *sub) bool {
			for _, id := range onceFired {
				if s.id == id {
					return true
				}
			}
			return false
		}))
		b.mu.Unlock()
	}

	wg.Wait()
}

// invoke 执行单个 handler：并发上限 → panic 恢复 → error 入汇。
func (b *Bus) invoke(topic string, h core.Handler, args core.Args) {
	if b.sem != nil {
		_ = b.sem.Acquire(context.Background(), 1)
		defer b.sem.Release(1)
	}
	defer func() {
		if r := recover(); r != nil {
			b.panics.Inc()
			b.sink(topic, &core.PanicError{Value: r})
		}
		b.delivered.Inc()
	}()
	if err := h(args); err != nil {
		b.handlerErrs.Inc()
		b.sink(topic, err)
	}
}

// composeArgs 组合送达 handler 的参数映射。
// 优先级（低 → 高）：用户键 < 命名参数 < {"_", "topic"}。
// 命名参数以底层值落位（string 或 []string），通配列表恒在 "_" 下。
// 列表捕获拷贝后落位，handler 写入不会触及订阅备忘里的切片。
func composeArgs(user core.Args, res pattern.Result, topic string) core.Args {
	captured := make(map[string]any, len(res.Params)+2)
	for name, v := range res.Params {
		if v.Kind() == pattern.ValueList {
			captured[name] = append(make([]string, 0, len(v.List())), v.List()...)
		} else {
			captured[name] = v.Str()
		}
	}
	wilds := make([]string, len(res.Wildcards))
	copy(wilds, res.Wildcards)
	captured[core.KeyWildcards] = wilds
	captured[core.KeyTopic] = topic
	return util.Merge(user, captured)
}

// Stream 订阅并以通道接收合并参数。
// 通道缓冲 256；ctx 取消后订阅移除、通道停止接收新发布。
// 通道不关闭：取消时刻可能仍有已冻结快照里的派发在途，
// 消费方应同时 select ctx.Done()。
func (b *Bus) Stream(ctx context.Context, pat string) (<-chan core.Args, error) {
	out := make(chan core.Args, 256)
	id, err := b.Subscribe(pat, func(args core.Args) error {
		select {
		case out <- args:
		case <-ctx.Done():
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		b.Unsubscribe(id)
	}()
	return out, nil
}

// InFlight 当前发布中的 Publish 调用数
func (b *Bus) InFlight() int64 {
	return b.inFlight.Load()
}

// Stats 运行时统计
func (b *Bus) Stats() core.Stats {
	return core.Stats{
		Published:     b.published.Value(),
		Delivered:     b.delivered.Value(),
		HandlerErrors: b.handlerErrs.Value(),
		Panics:        b.panics.Value(),
	}
}

// Reset 清空订阅集（测试用）。在途发布仍按其已冻结快照结清。
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs.Store(emptySnapshot)
}

// Close 关闭总线并释放 worker 池。在途发布结清不受影响：
// 池在 Release 前完成已提交任务，后续提交退化为裸 goroutine。
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.Reset()
	if b.pool != nil {
		b.pool.Release()
	}
}
