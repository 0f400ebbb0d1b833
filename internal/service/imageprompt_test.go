package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"bookreel/internal/model"
)

func TestImagePromptGenerator(t *testing.T) {
	Convey("ImagePromptGenerator 生成画面描述", t, func() {
		ctx := context.Background()
		cfg := model.DefaultStoryboardConfig()
		narrations := []string{"第一段旁白", "第二段旁白"}

		Convey("数量与旁白一一对应并追加风格", func() {
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					return `{"image_prompts": ["a person thinking", "a person reading"]}`, nil
				},
			}
			g := NewImagePromptGenerator(llm, NewStyleComposer(llm))

			prompts, err := g.Generate(ctx, narrations, cfg, StylePresetMinimal, "")
			So(err, ShouldBeNil)
			So(len(prompts), ShouldEqual, 2)
			So(prompts[0], ShouldStartWith, StylePresetMinimal.Prompt())
			So(prompts[0], ShouldEndWith, "a person thinking")
			So(prompts[1], ShouldEndWith, "a person reading")
		})

		Convey("prompt 里列出了编号的旁白", func() {
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					return `{"image_prompts": ["x", "y"]}`, nil
				},
			}
			g := NewImagePromptGenerator(llm, NewStyleComposer(llm))

			_, err := g.Generate(ctx, narrations, cfg, StylePresetNone, "")
			So(err, ShouldBeNil)
			So(llm.prompts[0], ShouldContainSubstring, "1. 第一段旁白")
			So(llm.prompts[0], ShouldContainSubstring, "2. 第二段旁白")
		})

		Convey("数量不匹配时报错", func() {
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					return `{"image_prompts": ["only one"]}`, nil
				},
			}
			g := NewImagePromptGenerator(llm, NewStyleComposer(llm))

			_, err := g.Generate(ctx, narrations, cfg, StylePresetNone, "")
			So(errors.Is(err, ErrInvalidLLMOutput), ShouldBeTrue)
		})

		Convey("自定义风格描述对每条生效", func() {
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					if strings.Contains(prompt, "Style Description:") {
						return "oil painting style", nil
					}
					return `{"image_prompts": ["scene one", "scene two"]}`, nil
				},
			}
			g := NewImagePromptGenerator(llm, NewStyleComposer(llm))

			prompts, err := g.Generate(ctx, narrations, cfg, StylePresetNone, "油画风")
			So(err, ShouldBeNil)
			So(prompts[0], ShouldEqual, "oil painting style, scene one")
			So(prompts[1], ShouldEqual, "oil painting style, scene two")
		})
	})
}
