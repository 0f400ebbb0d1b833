package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bookreel/internal/model"
	"bookreel/internal/pkg/llmjson"
)

// ImagePromptGenerator 画面描述生成器。
// 两阶段:先让模型生成不含风格的基础场景描述,再由 StyleComposer 统一追加风格。
type ImagePromptGenerator struct {
	llm      TextGenerator
	composer *StyleComposer
}

// NewImagePromptGenerator 创建画面描述生成器
func NewImagePromptGenerator(llm TextGenerator, composer *StyleComposer) *ImagePromptGenerator {
	return &ImagePromptGenerator{llm: llm, composer: composer}
}

// Generate 为每段旁白生成最终的文生图 prompt,数量与旁白一一对应
func (g *ImagePromptGenerator) Generate(ctx context.Context, narrations []string, cfg model.StoryboardConfig, preset StylePreset, customStyle string) ([]string, error) {
	log.Info().Int("narrations", len(narrations)).Msg("开始生成画面描述")

	prompt := buildImagePromptPrompt(narrations, cfg.MinImagePromptWords, cfg.MaxImagePromptWords)

	// 高温度换取画面创意
	response, err := g.llm.Generate(ctx, prompt, &LLMOptions{Temperature: 0.9, MaxTokens: 2000})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		ImagePrompts []string `json:"image_prompts"`
	}
	if err := llmjson.Decode(response, "image_prompts", &parsed); err != nil {
		log.Error().Str("response", truncate(response, 200)).Msg("画面描述输出无法解析")
		return nil, fmt.Errorf("%w: %v", ErrInvalidLLMOutput, err)
	}

	if len(parsed.ImagePrompts) != len(narrations) {
		return nil, fmt.Errorf("%w: expected %d image prompts, got %d",
			ErrInvalidLLMOutput, len(narrations), len(parsed.ImagePrompts))
	}

	finalPrompts := make([]string, 0, len(parsed.ImagePrompts))
	for _, base := range parsed.ImagePrompts {
		final, err := g.composer.Compose(ctx, base, preset, customStyle)
		if err != nil {
			return nil, err
		}
		finalPrompts = append(finalPrompts, final)
	}

	log.Info().Int("count", len(finalPrompts)).Msg("画面描述生成完成")
	return finalPrompts, nil
}
