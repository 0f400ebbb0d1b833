package capability

import "context"

// Tool 一个可调用的能力实现。
// Name 必须遵循 {type}_{id} 命名约定。
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, args Args) (*Result, error)
}

// MetaProvider 可选接口,提供展示元信息。
// 未实现时注册表回退到 Name/Description。
type MetaProvider interface {
	Meta() Meta
}

// Args 能力调用参数,扁平键值
type Args map[string]any

// Clone 浅拷贝,避免配置注入污染调用方
func (a Args) Clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Part 结果的一个内容片段
type Part struct {
	Text string `json:"text"`
}

// Result 能力调用结果
type Result struct {
	Parts []Part `json:"parts"`
	// Raw 可携带实现相关的原始负载,如二进制音频
	Raw any `json:"-"`
}

// TextResult 构造单段文本结果
func TextResult(text string) *Result {
	return &Result{Parts: []Part{{Text: text}}}
}

// Text 拼接全部文本片段,多段之间以换行连接
func (r *Result) Text() string {
	if r == nil || len(r.Parts) == 0 {
		return ""
	}
	if len(r.Parts) == 1 {
		return r.Parts[0].Text
	}
	texts := make([]string, 0, len(r.Parts))
	for _, p := range r.Parts {
		texts = append(texts, p.Text)
	}
	joined := texts[0]
	for _, t := range texts[1:] {
		joined += "\n" + t
	}
	return joined
}

// Meta 能力的展示元信息
type Meta struct {
	DisplayName string
	Description string
	// IsDefault 标记该实现为同类型的首选
	IsDefault bool
}
