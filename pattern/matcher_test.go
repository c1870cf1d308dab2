package pattern

import (
	"errors"
	"reflect"
	"testing"

	"github.com/uniyakcom/pulse/core"
)

func mustMatcher(t *testing.T, p string) *Matcher {
	t.Helper()
	m, err := New(p)
	if err != nil {
		t.Fatalf("compile %q: %v", p, err)
	}
	return m
}

// TestNormalize 规范化：小写、裁剪、折叠斜杠、单个前导 '/'
func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"/some/path":      "/some/path",
		"/some/path/":     "/some/path",
		"some/path":       "/some/path",
		"//Some///Path//": "/some/path",
		"/ a / b ":        "/a/b",
		"/":               "/",
		"":                "/",
		"///":             "/",
		"/Deno/TS":        "/deno/ts",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestMatchResultPathInvariant 任意匹配结果的 Path 恒为候选的规范化（不变式 1）
func TestMatchResultPathInvariant(t *testing.T) {
	m := mustMatcher(t, "/some/path")
	for _, p := range []string{"/Some/Path/", "no/match/here", "///", ""} {
		res := m.Match(p)
		if res.Path != Normalize(p) {
			t.Errorf("Match(%q).Path = %q, want %q", p, res.Path, Normalize(p))
		}
	}
}

// TestExactStatic 场景 1：精确静态
func TestExactStatic(t *testing.T) {
	m := mustMatcher(t, "/some/path")
	for _, p := range []string{"/some/path", "/some/path/", "/SOME/path"} {
		res := m.Match(p)
		if !res.Matched {
			t.Errorf("%q should match", p)
		}
		if len(res.Params) != 0 || len(res.Wildcards) != 0 {
			t.Errorf("%q: params/wildcards should be empty", p)
		}
	}
	if m.Match("/some/other").Matched {
		t.Error("/some/other should not match")
	}
	if m.Match("/some/path/extra").Matched {
		t.Error("trailing segments should not match")
	}
}

// TestParamWithClass 场景 2：带字符类的命名参数
func TestParamWithClass(t *testing.T) {
	m := mustMatcher(t, "/users/:id[a-z0-9]")
	res := m.Match("/users/abc123")
	if !res.Matched {
		t.Fatal("should match")
	}
	if got := res.Params["id"].Str(); got != "abc123" {
		t.Errorf("id = %q, want abc123", got)
	}
	if m.Match("/users/abc-123").Matched {
		t.Error("'-' outside class should not match")
	}
	// 类匹配不区分大小写（候选在规范化中已折叠小写）
	if !m.Match("/users/ABC123").Matched {
		t.Error("case-folded candidate should match")
	}
}

// TestGreedyWildcard 场景 3：贪婪匿名通配
func TestGreedyWildcard(t *testing.T) {
	m := mustMatcher(t, "/files/**")
	res := m.Match("/files/a/b/c")
	if !res.Matched {
		t.Fatal("should match")
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(res.Wildcards, want) {
		t.Errorf("wildcards = %v, want %v", res.Wildcards, want)
	}
	if len(res.Params) != 0 {
		t.Errorf("params should be empty, got %v", res.Params)
	}
	// ** 至少消费一段
	if m.Match("/files").Matched {
		t.Error("/files should not match (** requires at least one segment)")
	}
}

// TestNamedGreedy 场景 4：命名贪婪参数（列表变体）
func TestNamedGreedy(t *testing.T) {
	m := mustMatcher(t, "/files/:path**")
	res := m.Match("/files/a/b/c")
	if !res.Matched {
		t.Fatal("should match")
	}
	v := res.Params["path"]
	if v.Kind() != ValueList {
		t.Fatalf("path kind = %v, want list", v.Kind())
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(v.List(), want) {
		t.Errorf("path = %v, want %v", v.List(), want)
	}
	if len(res.Wildcards) != 0 {
		t.Errorf("wildcards should be empty, got %v", res.Wildcards)
	}
	// 单段也保持列表变体
	if v = m.Match("/files/solo").Params["path"]; v.Kind() != ValueList {
		t.Error("single-segment ** capture should still be a list")
	}
}

// TestMultiString 场景 5：'+' 拼接参数（大小写折叠）
func TestMultiString(t *testing.T) {
	m := mustMatcher(t, "/search/:q+")
	res := m.Match("/search/Deno/TypeScript/Go")
	if !res.Matched {
		t.Fatal("should match")
	}
	v := res.Params["q"]
	if v.Kind() != ValueString {
		t.Fatalf("q kind = %v, want string", v.Kind())
	}
	if got := v.Str(); got != "deno/typescript/go" {
		t.Errorf("q = %q, want deno/typescript/go", got)
	}
}

// TestOptional 可选段语义：零段成功、类不符跳过、否则消费
func TestOptional(t *testing.T) {
	m := mustMatcher(t, "/a/:x?")
	if res := m.Match("/a"); !res.Matched || len(res.Params) != 0 {
		t.Errorf("/a: matched=%v params=%v, want matched with no capture", res.Matched, res.Params)
	}
	if res := m.Match("/a/b"); !res.Matched || res.Params["x"].Str() != "b" {
		t.Errorf("/a/b: matched=%v x=%v", res.Matched, res.Params["x"].Any())
	}

	// 类不满足 → 跳过不消费，后续静态段接手
	m2 := mustMatcher(t, "/a/:x[0-9]?/end")
	if res := m2.Match("/a/end"); !res.Matched || len(res.Params) != 0 {
		t.Errorf("/a/end: skip-on-class-miss failed: matched=%v params=%v", res.Matched, res.Params)
	}
	if res := m2.Match("/a/42/end"); !res.Matched || res.Params["x"].Str() != "42" {
		t.Errorf("/a/42/end: matched=%v x=%v", res.Matched, res.Params["x"].Any())
	}

	// 全可选模式匹配根
	m3 := mustMatcher(t, "/:x?")
	if !m3.Match("/").Matched {
		t.Error("all-optional pattern should match /")
	}
}

// TestRootPattern 模式 "/" 只匹配规范化后恰为 "/" 的路径
func TestRootPattern(t *testing.T) {
	m := mustMatcher(t, "/")
	for _, p := range []string{"/", "", "///"} {
		if !m.Match(p).Matched {
			t.Errorf("%q should match root", p)
		}
	}
	if m.Match("/a").Matched {
		t.Error("/a should not match root")
	}
}

// TestGreedyTailUnreachable 贪婪量词后的描述符在非空尾部上不可达
func TestGreedyTailUnreachable(t *testing.T) {
	m, err := New("/files/**/tail")
	if err != nil {
		t.Fatalf("construction accepts trailing descriptors: %v", err)
	}
	for _, p := range []string{"/files/a/tail", "/files/a/b/tail", "/files/tail"} {
		if m.Match(p).Matched {
			t.Errorf("%q should not match (tail after greedy)", p)
		}
	}
}

// TestDuplicateParamName 参数重名是构造期错误
func TestDuplicateParamName(t *testing.T) {
	if _, err := New("/a/:x/b/:x"); err == nil {
		t.Fatal("duplicate param name should fail")
	} else if !errors.Is(err, core.ErrInvalidPattern) {
		t.Errorf("error %v does not wrap ErrInvalidPattern", err)
	}
}

// TestUnmatchedEmptyCaptures 不匹配结果不携带任何捕获（不变式）
func TestUnmatchedEmptyCaptures(t *testing.T) {
	m := mustMatcher(t, "/a/:x/**")
	res := m.Match("/b/c/d")
	if res.Matched {
		t.Fatal("should not match")
	}
	if len(res.Params) != 0 || len(res.Wildcards) != 0 {
		t.Errorf("unmatched result carries captures: %v %v", res.Params, res.Wildcards)
	}
}

// TestWildcardClassForms 字符类通配的匹配行为
func TestWildcardClassForms(t *testing.T) {
	// 单段类通配
	m := mustMatcher(t, "/v/[0-9]")
	if !m.Match("/v/42").Matched {
		t.Error("/v/42 should match")
	}
	if m.Match("/v/x1").Matched {
		t.Error("/v/x1 should not match")
	}
	res := m.Match("/v/42")
	if want := []string{"42"}; !reflect.DeepEqual(res.Wildcards, want) {
		t.Errorf("wildcards = %v, want %v", res.Wildcards, want)
	}

	// 贪婪类通配：所有剩余段都须满足类
	m2 := mustMatcher(t, "/logs/**[a-z0-9]")
	if !m2.Match("/logs/a1/b2").Matched {
		t.Error("/logs/a1/b2 should match")
	}
	if m2.Match("/logs/a1/b-2").Matched {
		t.Error("segment violating class should fail the greedy match")
	}

	// '+' 类通配：捕获为单元素拼接串
	m3 := mustMatcher(t, "/raw/+[a-z]")
	res = m3.Match("/raw/x/y/z")
	if !res.Matched {
		t.Fatal("should match")
	}
	if want := []string{"x/y/z"}; !reflect.DeepEqual(res.Wildcards, want) {
		t.Errorf("wildcards = %v, want %v", res.Wildcards, want)
	}
}

// TestMixedPattern 参数、静态、通配混排
func TestMixedPattern(t *testing.T) {
	m := mustMatcher(t, "/api/:version/users/:id/*")
	res := m.Match("/API/v2/Users/U42/profile")
	if !res.Matched {
		t.Fatal("should match")
	}
	if res.Params["version"].Str() != "v2" || res.Params["id"].Str() != "u42" {
		t.Errorf("params = %v", res.Params)
	}
	if want := []string{"profile"}; !reflect.DeepEqual(res.Wildcards, want) {
		t.Errorf("wildcards = %v, want %v", res.Wildcards, want)
	}
	if m.Match("/api/v2/users/u42").Matched {
		t.Error("missing trailing segment should not match")
	}
}

// TestMatcherIsStatic 静态检测（注册侧精确索引的前提）
func TestMatcherIsStatic(t *testing.T) {
	for p, want := range map[string]bool{
		"/some/path": true,
		"/":          true,
		"/a/:x":      false,
		"/a/*":       false,
		"/a/[0-9]":   false,
		"/A/B//C/":   true,
	} {
		if got := mustMatcher(t, p).IsStatic(); got != want {
			t.Errorf("IsStatic(%q) = %v, want %v", p, got, want)
		}
	}
}
