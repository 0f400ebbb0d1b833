package service

import (
	"context"
	"fmt"
	"strings"

	"bookreel/internal/capability"
)

// LLMOptions 单次生成的可选参数
type LLMOptions struct {
	System      string
	Temperature float64
	MaxTokens   int
}

// LLMService 文本生成服务,把能力调用收敛为字符串进出
type LLMService struct {
	router Router
}

// NewLLMService 创建文本生成服务
func NewLLMService(router Router) *LLMService {
	return &LLMService{router: router}
}

// Generate 生成文本,返回去除首尾空白的内容
func (s *LLMService) Generate(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
	args := capability.Args{"prompt": prompt}
	if opts != nil {
		if opts.System != "" {
			args["system"] = opts.System
		}
		if opts.Temperature > 0 {
			args["temperature"] = opts.Temperature
		}
		if opts.MaxTokens > 0 {
			args["max_tokens"] = opts.MaxTokens
		}
	}

	result, err := s.router.Call(ctx, capability.TypeLLM, args)
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(result.Text())
	if content == "" {
		return "", fmt.Errorf("%w: empty response", ErrInvalidLLMOutput)
	}
	return content, nil
}
