package providers

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"bookreel/internal/ai/component"
	"bookreel/internal/capability"
)

// llmTool 基于 eino ChatModel 的文本生成能力。
// 参数在调用时装配,凭证由路由层注入。
type llmTool struct {
	id          string
	provider    string
	displayName string
	isDefault   bool
}

func (t *llmTool) Name() string {
	return capability.ToolName(capability.TypeLLM, t.id)
}

func (t *llmTool) Description() string {
	return fmt.Sprintf("%s 文本生成", t.displayName)
}

func (t *llmTool) Meta() capability.Meta {
	return capability.Meta{
		DisplayName: t.displayName,
		Description: t.Description(),
		IsDefault:   t.isDefault,
	}
}

func (t *llmTool) Invoke(ctx context.Context, args capability.Args) (*capability.Result, error) {
	prompt, err := requireString(args, "prompt")
	if err != nil {
		return nil, err
	}

	provider := argString(args, "provider")
	if provider == "" {
		provider = t.provider
	}

	chatModel, err := component.NewChatModel(ctx, &component.ModelConfig{
		Provider:    provider,
		APIKey:      argString(args, "api_key"),
		BaseURL:     argString(args, "base_url"),
		Model:       argString(args, "model"),
		Temperature: argFloat(args, "temperature"),
		MaxTokens:   argInt(args, "max_tokens"),
		TopP:        argFloat(args, "top_p"),
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	messages := []*schema.Message{
		schema.UserMessage(prompt),
	}
	if system := argString(args, "system"); system != "" {
		messages = append([]*schema.Message{schema.SystemMessage(system)}, messages...)
	}

	response, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("llm generate: %w", err)
	}

	return capability.TextResult(response.Content), nil
}
