package service

import (
	"context"
	"fmt"
	"os"

	"bookreel/internal/model"
	"bookreel/internal/pkg/ffmpeg"
	"bookreel/internal/pkg/subtitle"
)

// MediaCompositor 媒体合成抽象,生产实现走 FFmpeg,测试时可替换
type MediaCompositor interface {
	// AudioDuration 返回音频时长（秒）
	AudioDuration(ctx context.Context, audioPath string) (float64, error)

	// ComposeFrame 把模板图叠加到配图上,输出合成图
	ComposeFrame(ctx context.Context, imagePath, templatePath, outputPath string, width, height int) error

	// RenderSegment 用合成图和旁白音频渲染带字幕的视频片段
	RenderSegment(ctx context.Context, imagePath, audioPath, narration, outputPath string, duration float64, cfg model.StoryboardConfig) error

	// Concat 按顺序拼接视频片段
	Concat(ctx context.Context, segmentPaths []string, outputPath string) error

	// MixBGM 给视频混入背景音乐
	MixBGM(ctx context.Context, videoPath, bgmPath, outputPath string, volume float64, loop bool) error
}

// FFmpegCompositor 基于 FFmpeg 的媒体合成实现
type FFmpegCompositor struct {
	client   *ffmpeg.Client
	splitter *subtitle.Splitter
	workDir  string
	kenBurns bool
}

// NewFFmpegCompositor 创建 FFmpeg 合成器
func NewFFmpegCompositor(client *ffmpeg.Client, workDir string, kenBurns bool) *FFmpegCompositor {
	return &FFmpegCompositor{
		client:   client,
		splitter: subtitle.NewSplitter(0),
		workDir:  workDir,
		kenBurns: kenBurns,
	}
}

// AudioDuration 返回音频时长
func (c *FFmpegCompositor) AudioDuration(ctx context.Context, audioPath string) (float64, error) {
	info, err := c.client.GetAudioInfo(ctx, audioPath)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

// ComposeFrame 叠加模板图。templatePath 为空时直接使用原图。
func (c *FFmpegCompositor) ComposeFrame(ctx context.Context, imagePath, templatePath, outputPath string, width, height int) error {
	if templatePath == "" {
		// 无模板,不做合成,直接复制原图
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("read frame image: %w", err)
		}
		return os.WriteFile(outputPath, data, 0o644)
	}
	return c.client.OverlayImage(ctx, imagePath, templatePath, outputPath, width, height)
}

// RenderSegment 渲染片段:先合成画面与音频,再叠加分时字幕
func (c *FFmpegCompositor) RenderSegment(ctx context.Context, imagePath, audioPath, narration, outputPath string, duration float64, cfg model.StoryboardConfig) error {
	plainPath := outputPath
	if narration != "" {
		plainPath = outputPath + ".nosub.mp4"
	}

	err := c.client.CreateSegmentVideo(ctx, imagePath, audioPath, plainPath,
		duration, cfg.VideoWidth, cfg.VideoHeight, cfg.VideoFPS, c.kenBurns)
	if err != nil {
		return fmt.Errorf("render segment: %w", err)
	}
	if narration == "" {
		return nil
	}
	defer os.Remove(plainPath)

	segments := c.timedSubtitles(narration, duration)
	if err := c.client.DrawTimedSubtitles(ctx, plainPath, segments, outputPath, 0); err != nil {
		return fmt.Errorf("draw subtitles: %w", err)
	}
	return nil
}

// timedSubtitles 把旁白切段并按字数比例分配时间区间
func (c *FFmpegCompositor) timedSubtitles(narration string, duration float64) []ffmpeg.SubtitleSegment {
	parts := c.splitter.Split(narration)
	if len(parts) == 0 {
		return []ffmpeg.SubtitleSegment{{Text: narration}}
	}

	totalRunes := 0
	for _, p := range parts {
		totalRunes += len([]rune(p))
	}
	if totalRunes == 0 {
		return []ffmpeg.SubtitleSegment{{Text: narration}}
	}

	segments := make([]ffmpeg.SubtitleSegment, 0, len(parts))
	cursor := 0.0
	for _, p := range parts {
		share := float64(len([]rune(p))) / float64(totalRunes) * duration
		segments = append(segments, ffmpeg.SubtitleSegment{
			Text:  p,
			Start: cursor,
			End:   cursor + share,
		})
		cursor += share
	}
	// 最后一段补到结尾,避免浮点累计误差留缝
	segments[len(segments)-1].End = duration
	return segments
}

// Concat 拼接片段
func (c *FFmpegCompositor) Concat(ctx context.Context, segmentPaths []string, outputPath string) error {
	return c.client.ConcatVideos(ctx, segmentPaths, outputPath)
}

// MixBGM 混入背景音乐
func (c *FFmpegCompositor) MixBGM(ctx context.Context, videoPath, bgmPath, outputPath string, volume float64, loop bool) error {
	return c.client.MixBGM(ctx, videoPath, bgmPath, outputPath, volume, loop)
}
