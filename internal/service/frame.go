package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"bookreel/internal/model"
)

// SpeechSynthesizer 语音合成抽象,由 TTSService 实现
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID, outputPath string) (*SpeechResult, error)
}

// ImageGenerator 文生图抽象,由 ImageService 实现
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, width, height int, outputPath string) error
}

// FrameProcessor 单帧处理器:TTS → 配图 → 画面合成 → 片段渲染
type FrameProcessor struct {
	tts        SpeechSynthesizer
	image      ImageGenerator
	compositor MediaCompositor
}

// NewFrameProcessor 创建单帧处理器
func NewFrameProcessor(tts SpeechSynthesizer, image ImageGenerator, compositor MediaCompositor) *FrameProcessor {
	return &FrameProcessor{
		tts:        tts,
		image:      image,
		compositor: compositor,
	}
}

// 帧内各阶段完成后的进度值
const (
	frameStepTTS     = 0.25
	frameStepImage   = 0.5
	frameStepCompose = 0.75
	frameStepRender  = 1.0
)

// Process 处理一帧,中间产物写入 workDir,各阶段完成后通过 onProgress 上报帧内进度 [0,1]
func (p *FrameProcessor) Process(ctx context.Context, frame *model.StoryboardFrame, cfg model.StoryboardConfig, workDir string, onProgress func(step string, progress float64)) error {
	report := func(step string, progress float64) {
		if onProgress != nil {
			onProgress(step, progress)
		}
	}

	prefix := filepath.Join(workDir, fmt.Sprintf("frame_%03d", frame.Index))

	// 1. 旁白合成语音,时长决定帧时长
	audioPath := prefix + ".mp3"
	speech, err := p.tts.Synthesize(ctx, frame.Narration, cfg.VoiceID, audioPath)
	if err != nil {
		return fmt.Errorf("frame %d tts: %w", frame.Index, err)
	}
	frame.AudioPath = speech.AudioPath
	frame.Duration = speech.Duration
	if frame.Duration <= 0 {
		duration, err := p.compositor.AudioDuration(ctx, speech.AudioPath)
		if err != nil {
			return fmt.Errorf("frame %d probe audio: %w", frame.Index, err)
		}
		frame.Duration = duration
	}
	report("tts", frameStepTTS)

	// 2. 生成配图
	imagePath := prefix + ".png"
	if err := p.image.Generate(ctx, frame.ImagePrompt, cfg.ImageWidth, cfg.ImageHeight, imagePath); err != nil {
		return fmt.Errorf("frame %d image: %w", frame.Index, err)
	}
	frame.ImagePath = imagePath
	report("image", frameStepImage)

	// 3. 叠加模板得到最终画面
	composedPath := prefix + "_composed.png"
	if err := p.compositor.ComposeFrame(ctx, imagePath, cfg.FrameTemplate, composedPath, cfg.VideoWidth, cfg.VideoHeight); err != nil {
		return fmt.Errorf("frame %d compose: %w", frame.Index, err)
	}
	frame.ComposedImagePath = composedPath
	report("compose", frameStepCompose)

	// 4. 渲染带字幕的视频片段
	segmentPath := prefix + ".mp4"
	if err := p.compositor.RenderSegment(ctx, composedPath, frame.AudioPath, frame.Narration, segmentPath, frame.Duration, cfg); err != nil {
		return fmt.Errorf("frame %d render: %w", frame.Index, err)
	}
	frame.VideoSegmentPath = segmentPath
	frame.CreatedAt = time.Now()
	report("render", frameStepRender)

	log.Info().
		Int("frame", frame.Index).
		Float64("duration", frame.Duration).
		Msg("分镜帧处理完成")
	return nil
}
