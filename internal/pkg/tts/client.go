// Package tts 封装火山引擎 openspeech 的文本转语音接口。
// 参考: https://openspeech.bytedance.com/api/v1/tts
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"bookreel/internal/pkg/id"
)

// Config TTS 配置
type Config struct {
	APIURL      string        // API 地址，默认: https://openspeech.bytedance.com/api/v1/tts
	AccessToken string        // 访问令牌（必需）
	AppID       string        // 应用ID（可选）
	Cluster     string        // 集群名称，默认: volcano_tts
	VoiceType   string        // 语音类型，默认: BV115_streaming
	SampleRate  int           // 采样率，默认: 44100
	MaxRetries  int           // 最大重试次数，默认: 3
	RetryDelay  time.Duration // 重试间隔，默认: 2s
}

// Client TTS 客户端封装
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建 TTS 客户端
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("TTS access token is required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://openspeech.bytedance.com/api/v1/tts"
	}
	if cfg.Cluster == "" {
		cfg.Cluster = "volcano_tts"
	}
	if cfg.VoiceType == "" {
		cfg.VoiceType = "BV115_streaming"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 44100
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Result TTS 合成结果
type Result struct {
	AudioData []byte `json:"-"`
	// Duration 音频时长（秒）
	Duration float64 `json:"duration"`
}

// retryableError 网络/鉴权类瞬时错误,值得重试
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Synthesize 合成语音。voiceType 为空时用配置默认值。
// 仅在网络错误、鉴权错误(401/403)和 5xx 时重试,业务错误立即失败。
func (c *Client) Synthesize(ctx context.Context, text, voiceType string, speedRatio float64) (*Result, error) {
	if voiceType == "" {
		voiceType = c.cfg.VoiceType
	}
	if speedRatio <= 0 {
		speedRatio = 1.0
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().Int("attempt", attempt+1).Err(lastErr).Msg("TTS 请求重试")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}

		result, err := c.synthesizeOnce(ctx, text, voiceType, speedRatio)
		if err == nil {
			return result, nil
		}

		var rerr *retryableError
		if !errors.As(err, &rerr) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("TTS failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

func (c *Client) synthesizeOnce(ctx context.Context, text, voiceType string, speedRatio float64) (*Result, error) {
	requestID := id.New()
	reqBody, err := json.Marshal(c.buildRequest(text, requestID, voiceType, speedRatio))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer; %s", c.cfg.AccessToken))
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("request_id", requestID).Int("text_len", len(text)).Msg("sending TTS request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &retryableError{err: fmt.Errorf("auth failed: status %d", resp.StatusCode)}
	case resp.StatusCode >= 500:
		return nil, &retryableError{err: fmt.Errorf("server error: status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("API request failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var apiResp map[string]any
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	code, _ := apiResp["code"].(float64)
	if code != 3000 {
		message, _ := apiResp["message"].(string)
		if message == "" {
			message = "unknown error"
		}
		return nil, fmt.Errorf("API response error: %s (code: %.0f)", message, code)
	}

	audioDataBase64, ok := apiResp["data"].(string)
	if !ok {
		return nil, fmt.Errorf("audio data not found in response")
	}
	audioData, err := base64.StdEncoding.DecodeString(audioDataBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio data: %w", err)
	}

	return &Result{
		AudioData: audioData,
		Duration:  parseDuration(apiResp),
	}, nil
}

// buildRequest 构建请求体,格式见官方文档
func (c *Client) buildRequest(text, requestID, voiceType string, speedRatio float64) map[string]any {
	appConfig := map[string]any{
		"token":   c.cfg.AccessToken,
		"cluster": c.cfg.Cluster,
	}
	if c.cfg.AppID != "" {
		appConfig["appid"] = c.cfg.AppID
	}

	return map[string]any{
		"app":  appConfig,
		"user": map[string]any{"uid": requestID},
		"audio": map[string]any{
			"voice_type":   voiceType,
			"encoding":     "mp3",
			"rate":         c.cfg.SampleRate,
			"speed_ratio":  speedRatio,
			"volume_ratio": 1.0,
			"pitch_ratio":  1.0,
		},
		"request": map[string]any{
			"reqid":     requestID,
			"text":      text,
			"text_type": "plain",
			"operation": "query",
		},
	}
}

// parseDuration 从 addition 字段提取音频时长（毫秒转秒）
func parseDuration(apiResp map[string]any) float64 {
	addition, ok := apiResp["addition"].(map[string]any)
	if !ok {
		return 0
	}
	if durationStr, ok := addition["duration"].(string); ok {
		if parsed, err := strconv.ParseFloat(durationStr, 64); err == nil {
			return parsed / 1000.0
		}
	}
	if durationNum, ok := addition["duration"].(float64); ok {
		return durationNum / 1000.0
	}
	return 0
}
