package service

import (
	"context"
	"os"

	"bookreel/internal/capability"
	"bookreel/internal/model"
)

// mockLLM 测试用文本生成器
type mockLLM struct {
	generateFn func(ctx context.Context, prompt string, opts *LLMOptions) (string, error)
	calls      int
	prompts    []string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt, opts)
	}
	return "", nil
}

// mockRouter 测试用能力路由
type mockRouter struct {
	callFn func(ctx context.Context, capType string, args capability.Args) (*capability.Result, error)
	calls  int
}

func (m *mockRouter) Call(ctx context.Context, capType string, args capability.Args) (*capability.Result, error) {
	m.calls++
	if m.callFn != nil {
		return m.callFn(ctx, capType, args)
	}
	return capability.TextResult(""), nil
}

func (m *mockRouter) ResolveActive(capType string) (capability.Info, error) {
	return capability.Info{Type: capType, ID: "mock"}, nil
}

func (m *mockRouter) SetActive(capType, capID string) error { return nil }

func (m *mockRouter) Available(capType string) []capability.Info { return nil }

// mockTTS 测试用语音合成
type mockTTS struct {
	duration float64
	calls    int
	err      error
}

func (m *mockTTS) Synthesize(ctx context.Context, text, voiceID, outputPath string) (*SpeechResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &SpeechResult{AudioPath: outputPath, Duration: m.duration}, nil
}

// mockImage 测试用文生图
type mockImage struct {
	calls int
	err   error
}

func (m *mockImage) Generate(ctx context.Context, prompt string, width, height int, outputPath string) error {
	m.calls++
	return m.err
}

// mockCompositor 测试用媒体合成,Concat 会落一个占位文件供后续移动
type mockCompositor struct {
	audioDuration float64
	concatCalls   int
	mixBGMCalls   int
	lastBGMLoop   bool
}

func (m *mockCompositor) AudioDuration(ctx context.Context, audioPath string) (float64, error) {
	return m.audioDuration, nil
}

func (m *mockCompositor) ComposeFrame(ctx context.Context, imagePath, templatePath, outputPath string, width, height int) error {
	return nil
}

func (m *mockCompositor) RenderSegment(ctx context.Context, imagePath, audioPath, narration, outputPath string, duration float64, cfg model.StoryboardConfig) error {
	return nil
}

func (m *mockCompositor) Concat(ctx context.Context, segmentPaths []string, outputPath string) error {
	m.concatCalls++
	return os.WriteFile(outputPath, []byte("video"), 0o644)
}

func (m *mockCompositor) MixBGM(ctx context.Context, videoPath, bgmPath, outputPath string, volume float64, loop bool) error {
	m.mixBGMCalls++
	m.lastBGMLoop = loop
	return os.WriteFile(outputPath, []byte("video+bgm"), 0o644)
}
