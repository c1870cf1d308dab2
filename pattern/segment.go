// Package pattern 提供路径模式编译与匹配。
//
// 模式形如 /order/:status/:item 或 /files/**，按 '/' 切分为段（segment），
// 每段编译为一个描述符（静态 / 命名参数 / 通配符），匹配时从左到右依次消费
// 候选路径的剩余段。匹配不区分大小写，前后/重复斜杠在规范化时折叠。
//
// 段语法：
//
//	static    字面量（不以 ':' '*' '+' '?' '[' 开头）
//	param     :name[class]?suffix?
//	wildcard  (* | ** | + | ?)([class])?suffix?  或  [class]suffix?
//	suffix    * | ** | + | ?
//
// 以 '*' '+' '?' 开头但不构成上述通配形态的文本（如 *abc、?x）按静态段处理。
//
// 量词（arity）映射：** → 多段列表，+ → 多段拼接串，? → 可选单段，* / 空 → 单段。
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/uniyakcom/pulse/core"
)

// kind 段类型
type kind uint8

const (
	kindStatic kind = iota // 字面量，精确匹配 raw
	kindParam              // 命名参数，捕获到 params
	kindWildcard           // 匿名通配，捕获到 wildcards
)

// arity 段量词 — 一个描述符可消费的路径段数量
type arity uint8

const (
	aritySingle    arity = iota // 恰好一段
	arityOptional               // 零或一段（? ）
	arityMultiStr               // 余下全部段，'/' 拼接为单个字符串（+）
	arityMultiList              // 余下全部段，保留为列表（**）
)

// segment 编译后的段描述符
//
// 不变式：kindStatic 只使用 raw；kindParam 必有非空 name；
// class 仅对 param/wildcard 有意义，编译时即校验合法性。
type segment struct {
	raw   string         // 静态段的精确匹配键（规范化后文本）
	name  string         // 参数名（kindParam）
	class *regexp.Regexp // 字符类约束，nil 表示无约束
	kind  kind
	arity arity
}

// modifierChars [256]bool 查表 — 零分支判断量词字符
var modifierChars [256]bool

func init() {
	modifierChars['*'] = true
	modifierChars['+'] = true
	modifierChars['?'] = true
}

// classCache 进程级字符类正则缓存（class body → 编译结果）
// 同一 class 在大量模式间复用，避免重复 regexp.Compile。
var classCache = xsync.NewMapOf[string, *regexp.Regexp]()

// compileClass 将字符类体编译为锚定的全串匹配正则。
// 候选串必须完整由类内字符构成（一个或多个），空串永不满足；匹配不区分大小写。
func compileClass(body string) (*regexp.Regexp, error) {
	if re, ok := classCache.Load(body); ok {
		return re, nil
	}
	re, err := regexp.Compile(`(?i)^[` + body + `]+$`)
	if err != nil {
		return nil, fmt.Errorf("%w: bad character class [%s]", core.ErrInvalidPattern, body)
	}
	classCache.Store(body, re)
	return re, nil
}

// suffixArity 解析量词后缀。空后缀与 '*' 均为单段。
func suffixArity(s string) (arity, error) {
	switch s {
	case "", "*":
		return aritySingle, nil
	case "**":
		return arityMultiList, nil
	case "+":
		return arityMultiStr, nil
	case "?":
		return arityOptional, nil
	}
	return 0, fmt.Errorf("%w: unknown suffix %q", core.ErrInvalidPattern, s)
}

// splitClass 从 s 头部解析 "[class]"，返回类体和剩余文本。
// s 必须以 '[' 开头；缺少 ']' 视为未闭合错误。
func splitClass(s string) (body, rest string, err error) {
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return "", "", fmt.Errorf("%w: unterminated character class in %q", core.ErrInvalidPattern, s)
	}
	return s[1:end], s[end+1:], nil
}

// parseSegment 将一个已裁剪的段文本识别为描述符。
//
// 识别规则按序应用（次序即语义）：
//  1. ':' 开头 → 命名参数 :name[class]?suffix?
//  2. 量词开头且紧跟 '[' → 带类通配符，后缀可覆盖量词
//  3. 恰为 * ** + ? 之一 → 裸通配符
//  4. '[' 开头 → 类优先通配符 [class]suffix?
//  5. 其余 → 静态段，raw 原样保留
func parseSegment(text string) (segment, error) {
	if text == "" {
		return segment{}, fmt.Errorf("%w: empty segment", core.ErrInvalidPattern)
	}

	// 规则 1：命名参数
	if text[0] == ':' {
		return parseParam(text[1:])
	}

	// 规则 2：量词 + 字符类（'**' 先于 '*' 试探，避免前缀吞并）
	for _, mod := range [...]string{"**", "*", "+", "?"} {
		if strings.HasPrefix(text, mod) && len(text) > len(mod) && text[len(mod)] == '[' {
			base, _ := suffixArity(mod)
			body, rest, err := splitClass(text[len(mod):])
			if err != nil {
				return segment{}, err
			}
			re, err := compileClass(body)
			if err != nil {
				return segment{}, err
			}
			ar := base
			if rest != "" {
				// 尾随后缀覆盖前导量词
				if ar, err = suffixArity(rest); err != nil {
					return segment{}, err
				}
			}
			return segment{kind: kindWildcard, class: re, arity: ar}, nil
		}
	}

	// 规则 3：裸通配符
	switch text {
	case "*", "**", "+", "?":
		ar, _ := suffixArity(text)
		return segment{kind: kindWildcard, arity: ar}, nil
	}

	// 规则 4：类优先通配符
	if text[0] == '[' {
		body, rest, err := splitClass(text)
		if err != nil {
			return segment{}, err
		}
		re, err := compileClass(body)
		if err != nil {
			return segment{}, err
		}
		ar, err := suffixArity(rest)
		if err != nil {
			return segment{}, err
		}
		return segment{kind: kindWildcard, class: re, arity: ar}, nil
	}

	// 规则 5：静态段
	return segment{kind: kindStatic, raw: text}, nil
}

// parseParam 解析 ':' 之后的参数段：name[class]?suffix?
// name 为不含 '[' 与量词字符的最长前缀，必须非空。
func parseParam(rest string) (segment, error) {
	i := 0
	for i < len(rest) && rest[i] != '[' && !modifierChars[rest[i]] {
		i++
	}
	name := rest[:i]
	if name == "" {
		return segment{}, fmt.Errorf("%w: missing parameter name", core.ErrInvalidPattern)
	}
	rest = rest[i:]

	var re *regexp.Regexp
	if rest != "" && rest[0] == '[' {
		body, tail, err := splitClass(rest)
		if err != nil {
			return segment{}, err
		}
		if re, err = compileClass(body); err != nil {
			return segment{}, err
		}
		rest = tail
	}

	ar, err := suffixArity(rest)
	if err != nil {
		return segment{}, err
	}
	return segment{kind: kindParam, name: name, class: re, arity: ar}, nil
}
