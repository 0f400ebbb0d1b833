package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bookreel/internal/model"
	"bookreel/internal/pkg/llmjson"
)

// TextGenerator 文本生成抽象,由 LLMService 实现,测试时可替换
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts *LLMOptions) (string, error)
}

// NarrationGenerator 旁白生成器
type NarrationGenerator struct {
	llm TextGenerator
}

// NewNarrationGenerator 创建旁白生成器
func NewNarrationGenerator(llm TextGenerator) *NarrationGenerator {
	return &NarrationGenerator{llm: llm}
}

// GenerateForBook 生成书籍解读旁白
func (g *NarrationGenerator) GenerateForBook(ctx context.Context, bookInfo *model.BookInfo, cfg model.StoryboardConfig) ([]string, error) {
	bookLabel := bookInfo.Title
	if bookInfo.Author != "" {
		bookLabel = fmt.Sprintf("%s - %s", bookInfo.Title, bookInfo.Author)
	}
	prompt := buildBookNarrationPrompt(bookLabel, cfg.NStoryboard, cfg.MinNarrationWords, cfg.MaxNarrationWords)
	return g.generate(ctx, prompt, cfg.NStoryboard)
}

// GenerateForTopic 按话题生成旁白
func (g *NarrationGenerator) GenerateForTopic(ctx context.Context, topic string, cfg model.StoryboardConfig) ([]string, error) {
	prompt := buildTopicNarrationPrompt(topic, cfg.NStoryboard, cfg.MinNarrationWords, cfg.MaxNarrationWords)
	return g.generate(ctx, prompt, cfg.NStoryboard)
}

// GenerateForContent 从用户内容提炼旁白
func (g *NarrationGenerator) GenerateForContent(ctx context.Context, content string, cfg model.StoryboardConfig) ([]string, error) {
	prompt := buildContentNarrationPrompt(content, cfg.NStoryboard, cfg.MinNarrationWords, cfg.MaxNarrationWords)
	return g.generate(ctx, prompt, cfg.NStoryboard)
}

func (g *NarrationGenerator) generate(ctx context.Context, prompt string, expected int) ([]string, error) {
	response, err := g.llm.Generate(ctx, prompt, &LLMOptions{Temperature: 0.7, MaxTokens: 2000})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Narrations []string `json:"narrations"`
	}
	if err := llmjson.Decode(response, "narrations", &parsed); err != nil {
		log.Error().Str("response", truncate(response, 200)).Msg("旁白输出无法解析")
		return nil, fmt.Errorf("%w: %v", ErrInvalidLLMOutput, err)
	}

	// 分镜数必须与配置一致,否则后续帧处理无法对齐
	if len(parsed.Narrations) != expected {
		return nil, fmt.Errorf("%w: expected %d narrations, got %d",
			ErrInvalidLLMOutput, expected, len(parsed.Narrations))
	}

	log.Info().Int("count", len(parsed.Narrations)).Msg("旁白生成完成")
	return parsed.Narrations, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
