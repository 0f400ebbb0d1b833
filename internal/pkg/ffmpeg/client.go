// Package ffmpeg 封装 FFmpeg/FFprobe 命令调用。
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Client FFmpeg 客户端
type Client struct {
	ffmpegPath  string
	ffprobePath string
}

// NewClient 创建 FFmpeg 客户端。
// 路径为空时依次取环境变量 FFMPEG_PATH/FFPROBE_PATH,再回退到 PATH 查找。
func NewClient(ffmpegPath, ffprobePath string) *Client {
	if ffmpegPath == "" {
		ffmpegPath = os.Getenv("FFMPEG_PATH")
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = os.Getenv("FFPROBE_PATH")
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Client{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// run 执行 ffmpeg 命令,失败时把 stderr 带进错误信息
func (c *Client) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tailLines(stderr.String(), 5))
	}
	return nil
}

// tailLines 取 stderr 末尾几行,错误原因一般在最后
func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// VideoInfo 视频信息
type VideoInfo struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
}

// AudioInfo 音频信息
type AudioInfo struct {
	Duration float64
}

type probeOutput struct {
	Streams []struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (c *Client) probe(ctx context.Context, path string, extraArgs ...string) (*probeOutput, error) {
	args := append([]string{"-v", "error"}, extraArgs...)
	args = append(args, "-show_entries", "format=duration", "-of", "json", path)

	cmd := exec.CommandContext(ctx, c.ffprobePath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w: %s", err, tailLines(stderr.String(), 3))
	}

	var parsed probeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return &parsed, nil
}

// GetVideoInfo 获取视频信息
func (c *Client) GetVideoInfo(ctx context.Context, videoPath string) (*VideoInfo, error) {
	parsed, err := c.probe(ctx, videoPath,
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
	)
	if err != nil {
		return nil, err
	}

	info := &VideoInfo{}
	info.Duration, _ = strconv.ParseFloat(parsed.Format.Duration, 64)
	if len(parsed.Streams) > 0 {
		s := parsed.Streams[0]
		info.Width = s.Width
		info.Height = s.Height
		// r_frame_rate 格式: "30000/1001"
		if num, den, found := strings.Cut(s.RFrameRate, "/"); found {
			n, _ := strconv.ParseFloat(num, 64)
			d, _ := strconv.ParseFloat(den, 64)
			if d > 0 {
				info.FPS = n / d
			}
		}
	}
	return info, nil
}

// GetAudioInfo 获取音频信息
func (c *Client) GetAudioInfo(ctx context.Context, audioPath string) (*AudioInfo, error) {
	parsed, err := c.probe(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	duration, _ := strconv.ParseFloat(parsed.Format.Duration, 64)
	return &AudioInfo{Duration: duration}, nil
}

// OverlayImage 把 overlay 图片居中叠加到底图上,输出合成图
func (c *Client) OverlayImage(ctx context.Context, basePath, overlayPath, outputPath string, width, height int) error {
	filter := fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d[base];"+
			"[1:v]scale=%d:%d[ovl];[base][ovl]overlay=(W-w)/2:(H-h)/2",
		width, height, width, height, width, height)

	err := c.run(ctx,
		"-y",
		"-i", basePath,
		"-i", overlayPath,
		"-filter_complex", filter,
		"-frames:v", "1",
		outputPath,
	)
	if err != nil {
		return err
	}

	log.Debug().Str("base", basePath).Str("overlay", overlayPath).Msg("图片叠加完成")
	return nil
}

// CreateSegmentVideo 用一张图和一段音频合成视频片段,时长由音频决定。
// kenBurns 为 true 时加缓慢放大效果。
func (c *Client) CreateSegmentVideo(ctx context.Context, imagePath, audioPath, outputPath string, duration float64, width, height, fps int, kenBurns bool) error {
	vf := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
		width, height, width, height)
	if kenBurns {
		totalFrames := int(duration * float64(fps))
		vf += fmt.Sprintf(",zoompan=z='min(1.0+on*0.0008,1.3)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
			totalFrames, width, height, fps)
	}

	err := c.run(ctx,
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-i", audioPath,
		"-t", fmt.Sprintf("%.3f", duration),
		"-vf", vf,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(fps),
		"-c:a", "aac",
		"-b:a", "160k",
		"-shortest",
		outputPath,
	)
	if err != nil {
		return err
	}

	log.Info().
		Str("image", imagePath).
		Str("output", outputPath).
		Float64("duration", duration).
		Msg("片段视频创建成功")
	return nil
}

// SubtitleSegment 一条带时间区间的字幕
type SubtitleSegment struct {
	Text  string
	Start float64
	End   float64
}

// DrawSubtitle 在视频底部绘制一行字幕
func (c *Client) DrawSubtitle(ctx context.Context, videoPath, text, outputPath string, fontSize int) error {
	return c.DrawTimedSubtitles(ctx, videoPath, []SubtitleSegment{{Text: text}}, outputPath, fontSize)
}

// DrawTimedSubtitles 按时间区间在视频底部绘制多条字幕。
// End 为 0 的段落显示到视频结束。
func (c *Client) DrawTimedSubtitles(ctx context.Context, videoPath string, segments []SubtitleSegment, outputPath string, fontSize int) error {
	if len(segments) == 0 {
		return fmt.Errorf("no subtitle segments")
	}
	if fontSize <= 0 {
		fontSize = 48
	}

	filters := make([]string, 0, len(segments))
	for _, seg := range segments {
		f := fmt.Sprintf(
			"drawtext=text='%s':fontsize=%d:fontcolor=white:borderw=2:bordercolor=black:x=(w-text_w)/2:y=h-text_h-h/10",
			escapeDrawtext(seg.Text), fontSize)
		if seg.End > seg.Start {
			f += fmt.Sprintf(":enable='between(t,%.3f,%.3f)'", seg.Start, seg.End)
		}
		filters = append(filters, f)
	}

	return c.run(ctx,
		"-y",
		"-i", videoPath,
		"-vf", strings.Join(filters, ","),
		"-c:v", "libx264",
		"-c:a", "copy",
		outputPath,
	)
}

// escapeDrawtext 转义 drawtext 滤镜的特殊字符
func escapeDrawtext(text string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(text)
}

// ConcatVideos 用 concat demuxer 合并多个视频文件
func (c *Client) ConcatVideos(ctx context.Context, videoPaths []string, outputPath string) error {
	if len(videoPaths) == 0 {
		return fmt.Errorf("no videos to concat")
	}

	tempDir := filepath.Dir(outputPath)
	concatListFile := filepath.Join(tempDir, fmt.Sprintf("concat_list_%d.txt", time.Now().UnixNano()))

	var buf bytes.Buffer
	for _, videoPath := range videoPaths {
		absPath, err := filepath.Abs(videoPath)
		if err != nil {
			return fmt.Errorf("get absolute path: %w", err)
		}
		fmt.Fprintf(&buf, "file '%s'\n", absPath)
	}
	if err := os.WriteFile(concatListFile, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("create concat list file: %w", err)
	}
	defer os.Remove(concatListFile)

	err := c.run(ctx,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", concatListFile,
		"-c", "copy", // 避免重新编码
		outputPath,
	)
	if err != nil {
		return fmt.Errorf("concat: %w", err)
	}

	log.Info().Int("count", len(videoPaths)).Str("output", outputPath).Msg("视频合并成功")
	return nil
}

// MixBGM 给视频混入背景音乐。
// loop 为 true 时 BGM 循环到视频结束;否则只播一遍,播完后不补静音。
func (c *Client) MixBGM(ctx context.Context, videoPath, bgmPath, outputPath string, volume float64, loop bool) error {
	if volume <= 0 {
		volume = 0.3
	}

	args := []string{"-y", "-i", videoPath}
	if loop {
		args = append(args, "-stream_loop", "-1")
	}
	args = append(args, "-i", bgmPath)

	// duration=first: 以视频音轨为准
	filter := fmt.Sprintf("[1:a]volume=%.2f[bgm];[0:a][bgm]amix=inputs=2:duration=first:dropout_transition=2[aout]",
		volume)

	args = append(args,
		"-filter_complex", filter,
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "160k",
		outputPath,
	)

	if err := c.run(ctx, args...); err != nil {
		return fmt.Errorf("mix bgm: %w", err)
	}

	log.Info().
		Str("video", videoPath).
		Str("bgm", bgmPath).
		Bool("loop", loop).
		Str("output", outputPath).
		Msg("背景音乐混合成功")
	return nil
}

// TrimVideo 裁剪视频时长
func (c *Client) TrimVideo(ctx context.Context, inputPath, outputPath string, duration float64) error {
	return c.run(ctx,
		"-y",
		"-i", inputPath,
		"-t", fmt.Sprintf("%.3f", duration),
		"-c", "copy",
		outputPath,
	)
}
