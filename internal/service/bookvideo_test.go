package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"bookreel/internal/capability"
	"bookreel/internal/model"
)

// scriptedLLM 按 prompt 内容分发固定回答
func scriptedLLM(frames int) *mockLLM {
	return &mockLLM{
		generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
			switch {
			case strings.Contains(prompt, `"image_prompts"`):
				prompts := make([]string, frames)
				for i := range prompts {
					prompts[i] = fmt.Sprintf("\"scene %d\"", i+1)
				}
				return fmt.Sprintf(`{"image_prompts": [%s]}`, strings.Join(prompts, ", ")), nil
			case strings.Contains(prompt, `"narrations"`):
				narrations := make([]string, frames)
				for i := range narrations {
					narrations[i] = fmt.Sprintf("\"第%d段旁白\"", i+1)
				}
				return fmt.Sprintf(`{"narrations": [%s]}`, strings.Join(narrations, ", ")), nil
			case strings.Contains(prompt, "标题"):
				return "内容精华解读", nil
			case strings.Contains(prompt, "书籍信息"):
				return `{"title": "原则", "author": "瑞·达利欧"}`, nil
			default:
				return "", fmt.Errorf("unexpected prompt: %s", prompt)
			}
		},
	}
}

func newTestBookVideoService(t *testing.T, llm *mockLLM, compositor *mockCompositor, opts BookVideoOptions) (*BookVideoService, *mockRouter) {
	t.Helper()

	router := &mockRouter{
		callFn: func(ctx context.Context, capType string, args capability.Args) (*capability.Result, error) {
			if capType == capability.TypeBookFetcher {
				return &capability.Result{Raw: &model.BookInfo{
					Title:  "原则",
					Author: "瑞·达利欧",
					Source: "google_books",
				}}, nil
			}
			return capability.TextResult("ok"), nil
		},
	}

	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	if opts.WorkDir == "" {
		opts.WorkDir = t.TempDir()
	}

	bookFetcher := NewBookFetcherService(router, llm, nil)
	narrationGen := NewNarrationGenerator(llm)
	promptGen := NewImagePromptGenerator(llm, NewStyleComposer(llm))
	frames := NewFrameProcessor(&mockTTS{duration: 2.0}, &mockImage{}, compositor)

	svc := NewBookVideoService(llm, bookFetcher, narrationGen, promptGen, frames, compositor, opts)
	return svc, router
}

func TestBookVideoValidation(t *testing.T) {
	Convey("Generate 先校验来源再做任何外部调用", t, func() {
		ctx := context.Background()
		llm := scriptedLLM(3)
		svc, router := newTestBookVideoService(t, llm, &mockCompositor{}, BookVideoOptions{})

		Convey("没有任何来源", func() {
			_, _, err := svc.Generate(ctx, &GenerateVideoRequest{}, nil)
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
			So(llm.calls, ShouldEqual, 0)
			So(router.calls, ShouldEqual, 0)
		})

		Convey("同时给出两种来源", func() {
			req := &GenerateVideoRequest{BookName: "原则", Topic: "读书"}
			_, _, err := svc.Generate(ctx, req, nil)
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
			So(llm.calls, ShouldEqual, 0)
			So(router.calls, ShouldEqual, 0)
		})

		Convey("三种来源都给出", func() {
			req := &GenerateVideoRequest{BookName: "a", Topic: "b", Content: "c"}
			_, _, err := svc.Generate(ctx, req, nil)
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
		})

		Convey("只有空白字符视为未给出", func() {
			req := &GenerateVideoRequest{Topic: "   "}
			_, _, err := svc.Generate(ctx, req, nil)
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestBookVideoGenerateTopic(t *testing.T) {
	Convey("话题来源端到端生成", t, func() {
		ctx := context.Background()
		llm := scriptedLLM(3)
		compositor := &mockCompositor{}
		outputDir := t.TempDir()
		svc, _ := newTestBookVideoService(t, llm, compositor, BookVideoOptions{OutputDir: outputDir})

		req := &GenerateVideoRequest{Topic: "为什么要读书"}
		req.Config.NStoryboard = 3

		var events []model.ProgressEvent
		result, storyboard, err := svc.Generate(ctx, req, func(ev model.ProgressEvent) {
			events = append(events, ev)
		})

		So(err, ShouldBeNil)

		Convey("分镜与时长", func() {
			So(len(storyboard.Frames), ShouldEqual, 3)
			So(storyboard.TotalDuration, ShouldEqual, 6.0)
			So(storyboard.Title, ShouldEqual, "为什么要读书")
			So(storyboard.CompletedAt, ShouldNotBeNil)
			for i, frame := range storyboard.Frames {
				So(frame.Index, ShouldEqual, i)
				So(frame.Narration, ShouldEqual, fmt.Sprintf("第%d段旁白", i+1))
				So(frame.ImagePrompt, ShouldContainSubstring, fmt.Sprintf("scene %d", i+1))
				So(frame.Duration, ShouldEqual, 2.0)
			}
		})

		Convey("结果文件与路径", func() {
			So(result.VideoPath, ShouldStartWith, outputDir)
			So(filepath.Base(result.VideoPath), ShouldContainSubstring, "为什么要读书")
			So(result.VideoPath, ShouldEndWith, ".mp4")
			So(result.Duration, ShouldEqual, 6.0)
			So(result.FileSize, ShouldBeGreaterThan, 0)

			_, statErr := os.Stat(result.VideoPath)
			So(statErr, ShouldBeNil)
		})

		Convey("进度单调且收敛到 1.0", func() {
			So(len(events), ShouldBeGreaterThan, 5)
			last := 0.0
			for _, ev := range events {
				So(ev.Progress, ShouldBeGreaterThanOrEqualTo, last)
				last = ev.Progress
			}
			So(events[len(events)-1].EventType, ShouldEqual, model.EventComplete)
			So(events[len(events)-1].Progress, ShouldEqual, 1.0)
		})

		Convey("关键里程碑", func() {
			steps := map[string]float64{}
			for _, ev := range events {
				steps[ev.Step] = ev.Progress
			}
			So(steps["generating_narrations"], ShouldEqual, 0.05)
			So(steps["generating_image_prompts"], ShouldEqual, 0.15)
			So(steps["concatenating"], ShouldEqual, 0.85)

			for _, ev := range events {
				if strings.HasPrefix(ev.Step, "frame_") || ev.Step == "processing_frame" {
					So(ev.Progress, ShouldBeGreaterThanOrEqualTo, 0.2)
					So(ev.Progress, ShouldBeLessThanOrEqualTo, 0.8)
					So(ev.FrameTotal, ShouldEqual, 3)
				}
			}
		})

		Convey("无 BGM 时不混音", func() {
			So(compositor.concatCalls, ShouldEqual, 1)
			So(compositor.mixBGMCalls, ShouldEqual, 0)
		})
	})
}

func TestBookVideoGenerateBook(t *testing.T) {
	Convey("书籍来源取书籍信息并拼接标题", t, func() {
		ctx := context.Background()
		llm := scriptedLLM(2)
		svc, router := newTestBookVideoService(t, llm, &mockCompositor{}, BookVideoOptions{})

		req := &GenerateVideoRequest{BookName: "原则"}
		req.Config.NStoryboard = 2

		_, storyboard, err := svc.Generate(ctx, req, nil)
		So(err, ShouldBeNil)
		So(router.calls, ShouldEqual, 1)
		So(storyboard.Title, ShouldEqual, "原则 - 瑞·达利欧")
		So(storyboard.BookInfo, ShouldNotBeNil)
		So(storyboard.BookInfo.Source, ShouldEqual, "google_books")
	})
}

func TestBookVideoGenerateContent(t *testing.T) {
	Convey("内容来源由 LLM 起标题", t, func() {
		ctx := context.Background()
		svc, _ := newTestBookVideoService(t, scriptedLLM(2), &mockCompositor{}, BookVideoOptions{})

		req := &GenerateVideoRequest{Content: "这是一段用户提供的长文本内容,讲了很多道理。"}
		req.Config.NStoryboard = 2

		_, storyboard, err := svc.Generate(ctx, req, nil)
		So(err, ShouldBeNil)
		So(storyboard.Title, ShouldEqual, "内容精华解读")
	})

	Convey("标题去掉包裹引号并截断到 20 字", t, func() {
		ctx := context.Background()
		llm := scriptedLLM(2)
		inner := llm.generateFn
		llm.generateFn = func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
			if strings.Contains(prompt, "标题") {
				return "《一二三四五六七八九十一二三四五六七八九十多余》", nil
			}
			return inner(ctx, prompt, opts)
		}
		svc, _ := newTestBookVideoService(t, llm, &mockCompositor{}, BookVideoOptions{})

		req := &GenerateVideoRequest{Content: "内容"}
		req.Config.NStoryboard = 2

		_, storyboard, err := svc.Generate(ctx, req, nil)
		So(err, ShouldBeNil)
		So(len([]rune(storyboard.Title)), ShouldEqual, 20)
		So(storyboard.Title, ShouldStartWith, "一二三四五")
	})
}

func TestBookVideoUserOverrides(t *testing.T) {
	Convey("用户指定的标题与输出路径优先", t, func() {
		ctx := context.Background()
		outputDir := t.TempDir()
		svc, _ := newTestBookVideoService(t, scriptedLLM(2), &mockCompositor{}, BookVideoOptions{})

		outputPath := filepath.Join(outputDir, "my_video.mp4")
		req := &GenerateVideoRequest{
			Topic:      "自律",
			Title:      "自定义标题",
			OutputPath: outputPath,
		}
		req.Config.NStoryboard = 2

		result, storyboard, err := svc.Generate(ctx, req, nil)
		So(err, ShouldBeNil)
		So(storyboard.Title, ShouldEqual, "自定义标题")
		So(result.VideoPath, ShouldEqual, outputPath)
	})
}

func TestBookVideoBGM(t *testing.T) {
	Convey("配置 BGM 时做混音", t, func() {
		ctx := context.Background()

		Convey("loop 模式", func() {
			compositor := &mockCompositor{}
			svc, _ := newTestBookVideoService(t, scriptedLLM(2), compositor, BookVideoOptions{
				BGMPath: "bgm.mp3",
				BGMMode: model.BGMModeLoop,
			})

			req := &GenerateVideoRequest{Topic: "自律"}
			req.Config.NStoryboard = 2

			_, _, err := svc.Generate(ctx, req, nil)
			So(err, ShouldBeNil)
			So(compositor.mixBGMCalls, ShouldEqual, 1)
			So(compositor.lastBGMLoop, ShouldBeTrue)
		})

		Convey("once 模式", func() {
			compositor := &mockCompositor{}
			svc, _ := newTestBookVideoService(t, scriptedLLM(2), compositor, BookVideoOptions{
				BGMPath: "bgm.mp3",
				BGMMode: model.BGMModeOnce,
			})

			req := &GenerateVideoRequest{Topic: "自律"}
			req.Config.NStoryboard = 2

			_, _, err := svc.Generate(ctx, req, nil)
			So(err, ShouldBeNil)
			So(compositor.mixBGMCalls, ShouldEqual, 1)
			So(compositor.lastBGMLoop, ShouldBeFalse)
		})
	})
}

func TestBookVideoPartialStoryboardOnFailure(t *testing.T) {
	Convey("生成失败时返回已构建的分镜", t, func() {
		ctx := context.Background()
		llm := scriptedLLM(2)
		inner := llm.generateFn
		llm.generateFn = func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
			if strings.Contains(prompt, `"image_prompts"`) {
				return "", errors.New("image prompt model down")
			}
			return inner(ctx, prompt, opts)
		}
		svc, _ := newTestBookVideoService(t, llm, &mockCompositor{}, BookVideoOptions{})

		req := &GenerateVideoRequest{Topic: "自律"}
		req.Config.NStoryboard = 2

		result, storyboard, err := svc.Generate(ctx, req, nil)
		So(err, ShouldNotBeNil)
		So(result, ShouldBeNil)
		So(storyboard, ShouldNotBeNil)
		So(storyboard.Title, ShouldEqual, "自律")
		So(storyboard.CompletedAt, ShouldBeNil)
	})
}
