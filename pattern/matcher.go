package pattern

import (
	"fmt"
	"strings"

	"github.com/uniyakcom/pulse/core"
)

// ValueKind 参数值变体标签
type ValueKind uint8

const (
	ValueString ValueKind = iota // 单段 / 可选 / '+' 拼接
	ValueList                    // '**' 多段列表
)

// Value 命名参数捕获值 — string 与 []string 的带标签变体。
// 消费方按 Kind 分支；Any 返回扁平的底层值（string 或 []string）。
type Value struct {
	str  string
	list []string
	kind ValueKind
}

// StringValue 构造单串变体
func StringValue(s string) Value { return Value{kind: ValueString, str: s} }

// ListValue 构造列表变体
func ListValue(l []string) Value { return Value{kind: ValueList, list: l} }

// Kind 返回变体标签
func (v Value) Kind() ValueKind { return v.kind }

// Str 返回单串值（ValueList 时为空串）
func (v Value) Str() string { return v.str }

// List 返回列表值（ValueString 时为 nil）
func (v Value) List() []string { return v.list }

// Any 返回底层值：string 或 []string
func (v Value) Any() any {
	if v.kind == ValueList {
		return v.list
	}
	return v.str
}

// Result 匹配结果。
// Matched 为 false 时 Params 与 Wildcards 必为空；Path 恒为候选路径的规范化。
type Result struct {
	Path      string
	Params    map[string]Value
	Wildcards []string
	Matched   bool
}

// Matcher 编译后的路径模式 — 有序描述符序列。
// 构造后只读，可被任意多 goroutine 并发 Match。
type Matcher struct {
	pattern  string // 规范化后的原始模式
	segments []segment
	isRoot   bool // 模式恰为 "/"
	isStatic bool // 全部描述符为静态段（或根），可走精确索引
}

// Normalize 规范化路径：转小写、按 '/' 切分、逐段裁剪、丢弃空段、
// 以单个前导 '/' 重连。构造与匹配两侧使用同一规范化，
// 因此匹配不区分大小写并忽略前导/尾随/重复斜杠。
func Normalize(path string) string {
	frags := splitPath(path)
	if len(frags) == 0 {
		return "/"
	}
	return "/" + strings.Join(frags, "/")
}

// splitPath 切分 + 裁剪 + 去空 + 小写
func splitPath(path string) []string {
	parts := strings.Split(strings.ToLower(path), "/")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// New 编译路径模式。
// 模式 "/" 编译为专用根形态，只匹配规范化后恰为 "/" 的路径。
// 命名参数重名是构造期错误。
func New(raw string) (*Matcher, error) {
	frags := splitPath(raw)
	m := &Matcher{pattern: Normalize(raw)}
	if len(frags) == 0 {
		m.isRoot = true
		m.isStatic = true
		return m, nil
	}

	m.segments = make([]segment, 0, len(frags))
	seen := map[string]struct{}{}
	static := true
	for _, frag := range frags {
		seg, err := parseSegment(frag)
		if err != nil {
			return nil, fmt.Errorf("%w (segment %q of %q)", err, frag, raw)
		}
		if seg.kind == kindParam {
			if _, dup := seen[seg.name]; dup {
				return nil, fmt.Errorf("%w: duplicate parameter name %q in %q",
					core.ErrInvalidPattern, seg.name, raw)
			}
			seen[seg.name] = struct{}{}
		}
		if seg.kind != kindStatic {
			static = false
		}
		m.segments = append(m.segments, seg)
	}
	m.isStatic = static
	return m, nil
}

// Pattern 返回规范化后的模式文本
func (m *Matcher) Pattern() string { return m.pattern }

// IsStatic 模式是否不含参数与通配符（根形态视为静态）。
// 静态模式只匹配与其规范化文本相等的主题，注册侧可走精确索引。
func (m *Matcher) IsStatic() bool { return m.isStatic }

// Match 以描述符序匹配候选路径。
//
// 根形态：规范化后等于 "/" 即匹配。其余：从左到右逐描述符消费剩余段；
// 任一描述符无法匹配、或全部消费后仍有剩余段，则不匹配。
// 贪婪量词（** / +）恒消费到结尾，置于其后的描述符在非空尾部上不可达 —
// 构造期不拒绝，由"无剩余"规则兜底。
func (m *Matcher) Match(path string) Result {
	norm := Normalize(path)
	if m.isRoot {
		return Result{Path: norm, Matched: norm == "/"}
	}
	// norm == "/" 时剩余段为空：仅由全可选模式匹配
	var rest []string
	if norm != "/" {
		rest = strings.Split(norm[1:], "/")
	}
	var params map[string]Value
	var wilds []string

	for i := range m.segments {
		c, ok := m.segments[i].consume(rest)
		if !ok {
			return Result{Path: norm}
		}
		if c.hasValue {
			if params == nil {
				params = make(map[string]Value, 4)
			}
			params[m.segments[i].name] = c.value
		}
		wilds = append(wilds, c.wild...)
		rest = c.leftover
	}
	if len(rest) != 0 {
		return Result{Path: norm}
	}
	return Result{Path: norm, Params: params, Wildcards: wilds, Matched: true}
}
