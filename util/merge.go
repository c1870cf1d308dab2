// Package util 提供总线与配置装载共用的工具函数
package util

// Merge 深合并两个映射，返回全新映射，不修改任何输入。
//
// 逐键规则：两侧同为普通映射（map[string]any）时递归合并；
// 其余情况（标量、列表、nil、类型不一）右侧整体取胜。
// 列表视为不透明值整体替换，从不拼接；nil 不是映射。
// 深度仅受输入结构限制，不支持含环输入。
//
// 调度器用它组合发布参数（用户键 < 命名参数 < 保留键），
// 外部配置装载器用它叠加配置层（文件 < 环境）。
func Merge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		bm, bok := out[k].(map[string]any)
		om, ook := v.(map[string]any)
		// 带类型的 nil map 同样不是映射
		if bok && ook && bm != nil && om != nil {
			out[k] = Merge(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}

// MergeAll 依序叠加多个映射（左最低，右最高）。
func MergeAll(layers ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, l := range layers {
		out = Merge(out, l)
	}
	return out
}
