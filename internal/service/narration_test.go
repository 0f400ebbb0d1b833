package service

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"bookreel/internal/model"
)

func TestNarrationGenerator(t *testing.T) {
	Convey("NarrationGenerator 生成旁白", t, func() {
		ctx := context.Background()
		cfg := model.DefaultStoryboardConfig()
		cfg.NStoryboard = 3

		Convey("正常解析模型输出", func() {
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					return `{"narrations": ["第一段", "第二段", "第三段"]}`, nil
				},
			}
			g := NewNarrationGenerator(llm)

			narrations, err := g.GenerateForTopic(ctx, "为什么要读书", cfg)
			So(err, ShouldBeNil)
			So(narrations, ShouldResemble, []string{"第一段", "第二段", "第三段"})
		})

		Convey("模型输出包在代码块里也能解析", func() {
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					return "```json\n{\"narrations\": [\"a\", \"b\", \"c\"]}\n```", nil
				},
			}
			g := NewNarrationGenerator(llm)

			narrations, err := g.GenerateForContent(ctx, "一段用户内容", cfg)
			So(err, ShouldBeNil)
			So(len(narrations), ShouldEqual, 3)
		})

		Convey("旁白数量与配置不一致时报错", func() {
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					return `{"narrations": ["只有一段"]}`, nil
				},
			}
			g := NewNarrationGenerator(llm)

			_, err := g.GenerateForTopic(ctx, "话题", cfg)
			So(errors.Is(err, ErrInvalidLLMOutput), ShouldBeTrue)
		})

		Convey("模型输出不是 JSON 时报错", func() {
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					return "抱歉,我做不到。", nil
				},
			}
			g := NewNarrationGenerator(llm)

			_, err := g.GenerateForTopic(ctx, "话题", cfg)
			So(errors.Is(err, ErrInvalidLLMOutput), ShouldBeTrue)
		})

		Convey("书籍来源的 prompt 带上书名与作者", func() {
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					return `{"narrations": ["a", "b", "c"]}`, nil
				},
			}
			g := NewNarrationGenerator(llm)

			_, err := g.GenerateForBook(ctx, &model.BookInfo{Title: "原则", Author: "瑞·达利欧"}, cfg)
			So(err, ShouldBeNil)
			So(llm.prompts[0], ShouldContainSubstring, "原则 - 瑞·达利欧")
		})

		Convey("LLM 调用失败时错误向上传递", func() {
			boom := errors.New("timeout")
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					return "", boom
				},
			}
			g := NewNarrationGenerator(llm)

			_, err := g.GenerateForTopic(ctx, "话题", cfg)
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})
}
