// Package config 定义外部配置装载器的协作契约。
//
// 配置的发现、环境叠加与模板展开由外部装载器负责；本包只约定
// 装载层的接口形态与层叠语义 — 多层配置用 util.Merge 深合并，
// 左侧为低优先级（文件默认值），右侧为高优先级（环境覆盖）。
package config

import (
	"context"

	"github.com/uniyakcom/pulse/util"
)

// Source 配置层来源（文件、环境、远端等由外部实现）
type Source interface {
	// Load 装载一层配置。返回的映射归调用方所有。
	Load(ctx context.Context) (map[string]any, error)
}

// SourceFunc 函数适配器
type SourceFunc func(ctx context.Context) (map[string]any, error)

// Load 实现 Source
func (f SourceFunc) Load(ctx context.Context) (map[string]any, error) {
	return f(ctx)
}

// Static 固定映射来源（测试与默认值层）
func Static(m map[string]any) Source {
	return SourceFunc(func(context.Context) (map[string]any, error) {
		return m, nil
	})
}

// Compose 依序装载并深合并各层（左最低，右最高）。
// 任一层失败即返回该错误；合并遵循 util.Merge 契约：
// 两侧同为映射递归合并，其余右侧整体取胜，列表替换不拼接。
func Compose(ctx context.Context, sources ...Source) (map[string]any, error) {
	out := map[string]any{}
	for _, s := range sources {
		layer, err := s.Load(ctx)
		if err != nil {
			return nil, err
		}
		out = util.Merge(out, layer)
	}
	return out, nil
}
