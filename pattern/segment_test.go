package pattern

import (
	"errors"
	"testing"

	"github.com/uniyakcom/pulse/core"
)

// TestParseParam 测试命名参数识别与量词映射
func TestParseParam(t *testing.T) {
	cases := []struct {
		text  string
		name  string
		arity arity
		class bool
	}{
		{":id", "id", aritySingle, false},
		{":id*", "id", aritySingle, false},
		{":id?", "id", arityOptional, false},
		{":q+", "q", arityMultiStr, false},
		{":path**", "path", arityMultiList, false},
		{":id[a-z0-9]", "id", aritySingle, true},
		{":id[a-z0-9]?", "id", arityOptional, true},
		{":path[a-z]**", "path", arityMultiList, true},
	}
	for _, c := range cases {
		seg, err := parseSegment(c.text)
		if err != nil {
			t.Fatalf("parse %q: %v", c.text, err)
		}
		if seg.kind != kindParam {
			t.Errorf("%q: kind = %v, want param", c.text, seg.kind)
		}
		if seg.name != c.name {
			t.Errorf("%q: name = %q, want %q", c.text, seg.name, c.name)
		}
		if seg.arity != c.arity {
			t.Errorf("%q: arity = %v, want %v", c.text, seg.arity, c.arity)
		}
		if (seg.class != nil) != c.class {
			t.Errorf("%q: class presence = %v, want %v", c.text, seg.class != nil, c.class)
		}
	}
}

// TestParseWildcard 测试通配符的三种书写形态
func TestParseWildcard(t *testing.T) {
	cases := []struct {
		text  string
		arity arity
		class bool
	}{
		// 裸通配符
		{"*", aritySingle, false},
		{"**", arityMultiList, false},
		{"+", arityMultiStr, false},
		{"?", arityOptional, false},
		// 量词 + 字符类
		{"*[a-z]", aritySingle, true},
		{"**[a-z]", arityMultiList, true},
		{"+[0-9]", arityMultiStr, true},
		{"?[a-z]", arityOptional, true},
		// 尾随后缀覆盖前导量词
		{"*[a-z]**", arityMultiList, true},
		{"**[a-z]?", arityOptional, true},
		// 类优先形态
		{"[a-z]", aritySingle, true},
		{"[a-z]**", arityMultiList, true},
		{"[a-z0-9]+", arityMultiStr, true},
		{"[a-z]?", arityOptional, true},
	}
	for _, c := range cases {
		seg, err := parseSegment(c.text)
		if err != nil {
			t.Fatalf("parse %q: %v", c.text, err)
		}
		if seg.kind != kindWildcard {
			t.Errorf("%q: kind = %v, want wildcard", c.text, seg.kind)
		}
		if seg.arity != c.arity {
			t.Errorf("%q: arity = %v, want %v", c.text, seg.arity, c.arity)
		}
		if (seg.class != nil) != c.class {
			t.Errorf("%q: class presence = %v, want %v", c.text, seg.class != nil, c.class)
		}
	}
}

// TestParseStatic 测试静态段兜底（含量词开头但不构成通配形态的文本）
func TestParseStatic(t *testing.T) {
	for _, text := range []string{"users", "order-42", "a.b", "*abc", "?x"} {
		seg, err := parseSegment(text)
		if err != nil {
			t.Fatalf("parse %q: %v", text, err)
		}
		if seg.kind != kindStatic || seg.raw != text {
			t.Errorf("%q: got kind=%v raw=%q, want static verbatim", text, seg.kind, seg.raw)
		}
	}
}

// TestParseErrors 测试构造期错误：空段、缺参数名、未闭合、未知后缀、非法类
func TestParseErrors(t *testing.T) {
	for _, text := range []string{
		"",          // 空段
		":",         // 缺参数名
		":[a-z]",    // 缺参数名（类前置）
		":id[a-z",   // 未闭合字符类
		"[a-z",      // 未闭合字符类
		":id[a-z]x", // 未知后缀
		"[a-z]x",    // 未知后缀
		"*[a-z]x",   // 未知后缀
		":id[z-a]",  // 非法字符类（逆区间）
	} {
		if _, err := parseSegment(text); err == nil {
			t.Errorf("parse %q: expected error", text)
		} else if !errors.Is(err, core.ErrInvalidPattern) {
			t.Errorf("parse %q: error %v does not wrap ErrInvalidPattern", text, err)
		}
	}
}

// TestClassCacheReuse 相同类体复用同一编译结果
func TestClassCacheReuse(t *testing.T) {
	a, err := compileClass("a-z0-9")
	if err != nil {
		t.Fatal(err)
	}
	b, err := compileClass("a-z0-9")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("same class body compiled twice")
	}
}
