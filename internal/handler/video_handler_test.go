package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"bookreel/internal/capability"
	"bookreel/internal/model"
	"bookreel/internal/service"
)

// stubTextGen 按 prompt 内容分发固定回答
type stubTextGen struct {
	frames int
}

func (g *stubTextGen) Generate(ctx context.Context, prompt string, opts *service.LLMOptions) (string, error) {
	switch {
	case strings.Contains(prompt, `"image_prompts"`):
		prompts := make([]string, g.frames)
		for i := range prompts {
			prompts[i] = fmt.Sprintf("\"scene %d\"", i+1)
		}
		return fmt.Sprintf(`{"image_prompts": [%s]}`, strings.Join(prompts, ", ")), nil
	case strings.Contains(prompt, `"narrations"`):
		narrations := make([]string, g.frames)
		for i := range narrations {
			narrations[i] = fmt.Sprintf("\"第%d段旁白\"", i+1)
		}
		return fmt.Sprintf(`{"narrations": [%s]}`, strings.Join(narrations, ", ")), nil
	default:
		return "", fmt.Errorf("unexpected prompt: %s", prompt)
	}
}

type stubRouter struct{}

func (r *stubRouter) Call(ctx context.Context, capType string, args capability.Args) (*capability.Result, error) {
	return capability.TextResult("ok"), nil
}

func (r *stubRouter) ResolveActive(capType string) (capability.Info, error) {
	return capability.Info{Type: capType, ID: "stub"}, nil
}

func (r *stubRouter) SetActive(capType, capID string) error { return nil }

func (r *stubRouter) Available(capType string) []capability.Info { return nil }

type stubTTS struct{}

func (s *stubTTS) Synthesize(ctx context.Context, text, voiceID, outputPath string) (*service.SpeechResult, error) {
	return &service.SpeechResult{AudioPath: outputPath, Duration: 2.0}, nil
}

type stubImage struct{}

func (s *stubImage) Generate(ctx context.Context, prompt string, width, height int, outputPath string) error {
	return nil
}

// stubCompositor 并发安全,流式用例会在另一个协程里读计数
type stubCompositor struct {
	concatCalls atomic.Int32
}

func (m *stubCompositor) AudioDuration(ctx context.Context, audioPath string) (float64, error) {
	return 2.0, nil
}

func (m *stubCompositor) ComposeFrame(ctx context.Context, imagePath, templatePath, outputPath string, width, height int) error {
	return nil
}

func (m *stubCompositor) RenderSegment(ctx context.Context, imagePath, audioPath, narration, outputPath string, duration float64, cfg model.StoryboardConfig) error {
	return nil
}

func (m *stubCompositor) Concat(ctx context.Context, segmentPaths []string, outputPath string) error {
	m.concatCalls.Add(1)
	return os.WriteFile(outputPath, []byte("video"), 0o644)
}

func (m *stubCompositor) MixBGM(ctx context.Context, videoPath, bgmPath, outputPath string, volume float64, loop bool) error {
	return os.WriteFile(outputPath, []byte("video+bgm"), 0o644)
}

func newVideoEngine(t *testing.T, frames int) (*gin.Engine, *stubCompositor) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	llm := &stubTextGen{frames: frames}
	comp := &stubCompositor{}

	bookFetcher := service.NewBookFetcherService(&stubRouter{}, llm, nil)
	narrationGen := service.NewNarrationGenerator(llm)
	promptGen := service.NewImagePromptGenerator(llm, service.NewStyleComposer(llm))
	frameProc := service.NewFrameProcessor(&stubTTS{}, &stubImage{}, comp)

	svc := service.NewBookVideoService(llm, bookFetcher, narrationGen, promptGen, frameProc, comp, service.BookVideoOptions{
		OutputDir: t.TempDir(),
		WorkDir:   t.TempDir(),
	})

	h := NewVideoHandler(svc, nil)
	engine := gin.New()
	engine.POST("/api/v1/videos/generate", h.Generate)
	engine.POST("/api/v1/videos/generate/stream", h.GenerateStream)
	engine.GET("/api/v1/videos/records", h.ListRecords)
	return engine, comp
}

func TestVideoHandlerGenerate(t *testing.T) {
	Convey("POST /api/v1/videos/generate 同步生成", t, func() {
		engine, _ := newVideoEngine(t, 3)

		Convey("请求体不是合法 JSON", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/generate", strings.NewReader("not-json"))
			engine.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)

			var body model.ErrorResponse
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Code, ShouldEqual, 40001)
		})

		Convey("没有给出任何来源", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/generate", strings.NewReader(`{}`))
			engine.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)

			var body model.ErrorResponse
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Code, ShouldEqual, 40002)
		})

		Convey("话题来源生成成功", func() {
			w := httptest.NewRecorder()
			payload := `{"topic": "为什么要读书", "config": {"n_storyboard": 3}}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/generate", strings.NewReader(payload))
			engine.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)

			var result model.VideoGenerationResult
			So(json.Unmarshal(w.Body.Bytes(), &result), ShouldBeNil)
			So(result.VideoPath, ShouldNotBeEmpty)
			So(result.Duration, ShouldEqual, 6.0)
		})

		Convey("未配置记录存储时列表返回 503", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/records", nil)
			engine.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestVideoHandlerGenerateStream(t *testing.T) {
	Convey("POST /api/v1/videos/generate/stream SSE 推送", t, func() {
		Convey("完整消费时收到进度与完成事件", func() {
			engine, _ := newVideoEngine(t, 3)
			srv := httptest.NewServer(engine)
			defer srv.Close()

			payload := `{"topic": "为什么要读书", "config": {"n_storyboard": 3}}`
			resp, err := http.Post(srv.URL+"/api/v1/videos/generate/stream", "application/json", strings.NewReader(payload))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "text/event-stream")

			var sb strings.Builder
			scanner := bufio.NewScanner(resp.Body)
			for scanner.Scan() {
				sb.WriteString(scanner.Text())
				sb.WriteString("\n")
			}
			body := sb.String()
			So(body, ShouldContainSubstring, "event:progress")
			So(body, ShouldContainSubstring, "event:done")
			So(body, ShouldContainSubstring, "video_path")
		})

		Convey("客户端中途断开不阻塞生成协程", func() {
			engine, comp := newVideoEngine(t, 5)
			srv := httptest.NewServer(engine)
			defer srv.Close()

			ctx, cancel := context.WithCancel(context.Background())
			payload := `{"topic": "为什么要读书", "config": {"n_storyboard": 5}}`
			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				srv.URL+"/api/v1/videos/generate/stream", strings.NewReader(payload))
			So(err, ShouldBeNil)
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)

			// 读到第一个事件就断开,之后的进度事件远超通道缓冲
			scanner := bufio.NewScanner(resp.Body)
			for scanner.Scan() {
				if strings.HasPrefix(scanner.Text(), "data:") {
					break
				}
			}
			cancel()
			resp.Body.Close()

			deadline := time.Now().Add(3 * time.Second)
			for comp.concatCalls.Load() == 0 && time.Now().Before(deadline) {
				time.Sleep(20 * time.Millisecond)
			}
			So(comp.concatCalls.Load(), ShouldEqual, 1)
		})
	})
}
