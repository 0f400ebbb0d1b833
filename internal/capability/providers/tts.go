package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"bookreel/internal/capability"
	"bookreel/internal/pkg/tts"
)

// volcanoTTSTool 火山引擎语音合成能力
type volcanoTTSTool struct{}

func (t *volcanoTTSTool) Name() string {
	return capability.ToolName(capability.TypeTTS, "volcano")
}

func (t *volcanoTTSTool) Description() string {
	return "火山引擎 openspeech 语音合成"
}

func (t *volcanoTTSTool) Meta() capability.Meta {
	return capability.Meta{
		DisplayName: "火山引擎 TTS",
		Description: t.Description(),
		IsDefault:   true,
	}
}

// Invoke 合成语音。Result.Raw 携带 *tts.Result,Parts 为 base64 音频。
func (t *volcanoTTSTool) Invoke(ctx context.Context, args capability.Args) (*capability.Result, error) {
	text, err := requireString(args, "text")
	if err != nil {
		return nil, err
	}

	cfg := tts.Config{
		APIURL:      argString(args, "api_url"),
		AccessToken: argString(args, "access_token"),
		AppID:       argString(args, "app_id"),
		Cluster:     argString(args, "cluster"),
		VoiceType:   argString(args, "voice_type"),
		SampleRate:  argInt(args, "sample_rate"),
		MaxRetries:  argInt(args, "max_retries"),
	}
	if delay := argFloat(args, "retry_delay"); delay > 0 {
		cfg.RetryDelay = time.Duration(delay * float64(time.Second))
	}

	client, err := tts.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create tts client: %w", err)
	}

	speedRatio := argFloat(args, "speed_ratio")
	result, err := client.Synthesize(ctx, text, argString(args, "voice_id"), speedRatio)
	if err != nil {
		return nil, err
	}

	out := capability.TextResult(base64.StdEncoding.EncodeToString(result.AudioData))
	out.Raw = result
	return out, nil
}
