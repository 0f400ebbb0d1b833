// Package llmjson 从大模型输出中提取 JSON。
// 模型经常把 JSON 包在 markdown 代码块里,或者混在解释文字中,
// 这里按宽松程度依次尝试多种策略。
package llmjson

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	// fencedRe 匹配 ```json ... ``` 或 ``` ... ``` 代码块中的对象
	fencedRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
)

// RawJSON 直接解析整段文本
func RawJSON(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if !json.Valid([]byte(trimmed)) {
		return "", false
	}
	return trimmed, true
}

// FencedBlock 提取 markdown 代码块中的第一个 JSON 对象
func FencedBlock(text string) (string, bool) {
	m := fencedRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	candidate := strings.TrimSpace(m[1])
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}

// BraceScan 扫描包含指定 key 的最外层大括号对象。
// 用于模型在 JSON 前后都加了说明文字的情况。
func BraceScan(text, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	// 找到 key 出现的位置,向前回溯最近的 '{',再做括号配对
	keyPat := fmt.Sprintf("%q", key)
	idx := strings.Index(text, keyPat)
	if idx < 0 {
		return "", false
	}
	start := strings.LastIndex(text[:idx], "{")
	for start >= 0 {
		if candidate, ok := matchBraces(text, start); ok {
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		start = strings.LastIndex(text[:start], "{")
	}
	return "", false
}

// matchBraces 从 start 处的 '{' 开始做配对,返回完整对象文本
func matchBraces(text string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// Decode 依次尝试各策略提取 JSON 并反序列化到 out。
// key 是期望出现在对象里的字段名,供 BraceScan 定位。
func Decode(text, key string, out any) error {
	for _, extract := range []func() (string, bool){
		func() (string, bool) { return RawJSON(text) },
		func() (string, bool) { return FencedBlock(text) },
		func() (string, bool) { return BraceScan(text, key) },
	} {
		if candidate, ok := extract(); ok {
			if err := json.Unmarshal([]byte(candidate), out); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no valid JSON object found in model output")
}
