package pattern

import "strings"

// capture 单个描述符的消费结果
type capture struct {
	leftover []string // 余下未消费的路径段
	value    Value    // 命名参数捕获（kindParam 且有消费时有效）
	wild     []string // 追加到匿名通配列表的条目
	hasValue bool
}

// classOK 候选段是否满足字符类约束。nil 类恒为真。
func (s *segment) classOK(candidate string) bool {
	return s.class == nil || s.class.MatchString(candidate)
}

// consume 用描述符匹配剩余路径段的前缀。
// 返回 (结果, true) 表示匹配；(零值, false) 表示不匹配。
//
// 量词语义：
//   - static        恰消费一段，精确等于 raw
//   - single        恰消费一段，须满足字符类
//   - multiList **  消费全部剩余段（至少一段），逐段校验字符类，保留列表
//   - multiStr  +   同上，但以 '/' 拼接为单个字符串
//   - optional  ?   无剩余段 → 成功零消费；首段不满足字符类 → 跳过不消费；
//     否则按 single 消费一段
func (s *segment) consume(rest []string) (capture, bool) {
	switch s.kind {
	case kindStatic:
		if len(rest) == 0 || rest[0] != s.raw {
			return capture{}, false
		}
		return capture{leftover: rest[1:]}, true

	case kindParam, kindWildcard:
		// 分量词处理
	}

	switch s.arity {
	case aritySingle:
		if len(rest) == 0 || !s.classOK(rest[0]) {
			return capture{}, false
		}
		return s.emit(rest[0:1], rest[1:]), true

	case arityOptional:
		if len(rest) == 0 {
			return capture{leftover: nil}, true
		}
		if !s.classOK(rest[0]) {
			// 类不满足 → 描述符被跳过，不消费
			return capture{leftover: rest}, true
		}
		return s.emit(rest[0:1], rest[1:]), true

	case arityMultiList, arityMultiStr:
		if len(rest) == 0 {
			return capture{}, false
		}
		for _, seg := range rest {
			if !s.classOK(seg) {
				return capture{}, false
			}
		}
		return s.emit(rest, nil), true
	}

	return capture{}, false
}

// emit 按量词构造捕获结果。
// single/optional → 单串；+ → '/' 拼接单串；** → 列表（参数）/逐段追加（通配）。
func (s *segment) emit(consumed, leftover []string) capture {
	c := capture{leftover: leftover}
	switch s.arity {
	case arityMultiStr:
		one := strings.Join(consumed, "/")
		if s.kind == kindParam {
			c.value, c.hasValue = StringValue(one), true
		} else {
			c.wild = []string{one}
		}
	case arityMultiList:
		if s.kind == kindParam {
			c.value, c.hasValue = ListValue(consumed), true
		} else {
			c.wild = consumed
		}
	default:
		if s.kind == kindParam {
			c.value, c.hasValue = StringValue(consumed[0]), true
		} else {
			c.wild = consumed[0:1]
		}
	}
	return c
}
