// Package capability 定义能力的命名约定、注册表与路由。
// 能力名遵循 {type}_{id} 约定,type 取自封闭集合,id 区分同类型的多个实现。
package capability

import "strings"

// 能力类型封闭集合
const (
	TypeLLM         = "llm"
	TypeTTS         = "tts"
	TypeImage       = "image"
	TypeBookFetcher = "book_fetcher"
)

// knownTypes 按长度降序排列,保证最长前缀优先匹配
// (book_fetcher_google 不能被拆成 type=book, id=fetcher_google)
var knownTypes = []string{TypeBookFetcher, TypeImage, TypeTTS, TypeLLM}

// Types 返回全部已知能力类型
func Types() []string {
	out := make([]string, len(knownTypes))
	copy(out, knownTypes)
	return out
}

// IsKnownType 判断是否为已知能力类型
func IsKnownType(capType string) bool {
	for _, t := range knownTypes {
		if t == capType {
			return true
		}
	}
	return false
}

// ParseToolName 按 {type}_{id} 约定解析能力名。
// 匹配不到已知类型前缀,或 id 为空时返回 ok=false。
func ParseToolName(name string) (capType, capID string, ok bool) {
	for _, t := range knownTypes {
		prefix := t + "_"
		if strings.HasPrefix(name, prefix) {
			id := name[len(prefix):]
			if id == "" {
				return "", "", false
			}
			return t, id, true
		}
	}
	return "", "", false
}

// ToolName 按约定拼接能力名
func ToolName(capType, capID string) string {
	return capType + "_" + capID
}
