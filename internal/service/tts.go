package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"bookreel/internal/capability"
	"bookreel/internal/pkg/tts"
)

// SpeechResult 语音合成结果
type SpeechResult struct {
	AudioPath string
	// Duration 音频时长（秒）,提供方未返回时为 0
	Duration float64
}

// TTSService 语音合成服务,把能力结果落盘为音频文件
type TTSService struct {
	router Router
}

// NewTTSService 创建语音合成服务
func NewTTSService(router Router) *TTSService {
	return &TTSService{router: router}
}

// Synthesize 合成语音并写入 outputPath。voiceID 为空时用能力默认音色。
func (s *TTSService) Synthesize(ctx context.Context, text, voiceID, outputPath string) (*SpeechResult, error) {
	args := capability.Args{"text": text}
	if voiceID != "" {
		args["voice_id"] = voiceID
	}

	result, err := s.router.Call(ctx, capability.TypeTTS, args)
	if err != nil {
		return nil, err
	}

	audioData, duration, err := decodeAudio(result)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	if err := os.WriteFile(outputPath, audioData, 0o644); err != nil {
		return nil, fmt.Errorf("write audio file: %w", err)
	}

	return &SpeechResult{
		AudioPath: outputPath,
		Duration:  duration,
	}, nil
}

// decodeAudio 优先取 Raw 里的结构化结果,回退到 base64 文本
func decodeAudio(result *capability.Result) ([]byte, float64, error) {
	if raw, ok := result.Raw.(*tts.Result); ok && len(raw.AudioData) > 0 {
		return raw.AudioData, raw.Duration, nil
	}
	if rawBytes, ok := result.Raw.([]byte); ok && len(rawBytes) > 0 {
		return rawBytes, 0, nil
	}

	text := result.Text()
	if text == "" {
		return nil, 0, fmt.Errorf("tts capability returned no audio")
	}
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, 0, fmt.Errorf("decode audio payload: %w", err)
	}
	return data, 0, nil
}
