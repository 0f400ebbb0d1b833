// Package comfyui 封装 ComfyUI 的工作流提交、轮询与产物下载。
package comfyui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Client ComfyUI API 客户端
type Client struct {
	cfg        *Config
	promptURL  string
	apiRoot    string
	httpClient *http.Client
}

// NewClient 创建 ComfyUI 客户端
func NewClient(cfg *Config) *Client {
	cfg.applyDefaults()
	promptURL := normalizePromptURL(cfg.APIURL)
	return &Client{
		cfg:       cfg,
		promptURL: promptURL,
		apiRoot:   apiRoot(promptURL),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// GenerateImage 完整执行一次文生图:提交工作流、轮询状态、下载产物
func (c *Client) GenerateImage(ctx context.Context, prompt string, width, height int) ([]byte, error) {
	workflow, err := c.buildWorkflow(prompt, width, height)
	if err != nil {
		return nil, err
	}

	promptID, err := c.SubmitWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("submit workflow: %w", err)
	}

	output, err := c.WaitForOutput(ctx, promptID)
	if err != nil {
		return nil, fmt.Errorf("wait for output: %w", err)
	}

	data, err := c.DownloadViewFile(ctx, output.Filename, output.Subfolder, output.Type)
	if err != nil {
		return nil, fmt.Errorf("download output: %w", err)
	}
	return data, nil
}

// buildWorkflow 加载模板并注入提示词与尺寸;无模板时用内置最小工作流
func (c *Client) buildWorkflow(prompt string, width, height int) (map[string]any, error) {
	if c.cfg.WorkflowJSONPath == "" {
		return minimalWorkflow(prompt, width, height), nil
	}
	workflow, err := LoadWorkflowJSON(c.cfg.WorkflowJSONPath)
	if err != nil {
		return nil, err
	}
	workflow = SetPositivePrompt(workflow, prompt)
	setLatentSize(workflow, width, height)
	return workflow, nil
}

// SubmitWorkflow 提交工作流并返回 prompt_id,带重试
func (c *Client) SubmitWorkflow(ctx context.Context, workflow map[string]any) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"prompt":    workflow,
		"client_id": "bookreel",
	})
	if err != nil {
		return "", fmt.Errorf("marshal workflow payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}

		promptID, err := c.submitOnce(ctx, payload)
		if err == nil {
			return promptID, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("提交工作流失败")
	}
	return "", lastErr
}

func (c *Client) submitOnce(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.promptURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("submit failed, status: %d, body: %s", resp.StatusCode, string(body))
	}

	var data struct {
		PromptID string `json:"prompt_id"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("parse submit response: %w", err)
	}
	if data.PromptID == "" {
		return "", fmt.Errorf("prompt_id missing in response: %s", string(body))
	}
	return data.PromptID, nil
}

// OutputFile 轮询得到的输出文件定位信息
type OutputFile struct {
	Filename  string
	Subfolder string
	Type      string
}

// WaitForOutput 轮询 /history 直到任务产出图片文件
func (c *Client) WaitForOutput(ctx context.Context, promptID string) (*OutputFile, error) {
	url := fmt.Sprintf("%s/history/%s", c.apiRoot, promptID)

	deadline := time.Now().Add(c.cfg.MaxWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Warn().Err(err).Msg("轮询历史接口异常")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			continue
		}

		var data map[string]any
		err = json.NewDecoder(resp.Body).Decode(&data)
		resp.Body.Close()
		if err != nil {
			continue
		}

		if output := parseHistory(data, promptID); output != nil {
			log.Info().Str("filename", output.Filename).Msg("获取到输出文件")
			return output, nil
		}
	}
	return nil, fmt.Errorf("轮询等待超时，未获取到输出文件名")
}

func parseHistory(data map[string]any, promptID string) *OutputFile {
	obj, ok := data[promptID].(map[string]any)
	if !ok {
		return nil
	}
	outputs, ok := obj["outputs"].(map[string]any)
	if !ok {
		return nil
	}

	for _, nodeVal := range outputs {
		node, ok := nodeVal.(map[string]any)
		if !ok {
			continue
		}
		images, ok := node["images"].([]any)
		if !ok {
			continue
		}
		for _, img := range images {
			imgMap, ok := img.(map[string]any)
			if !ok {
				continue
			}
			filename, _ := imgMap["filename"].(string)
			if filename == "" {
				continue
			}
			subfolder, _ := imgMap["subfolder"].(string)
			fileType, _ := imgMap["type"].(string)
			if fileType == "" {
				fileType = "output"
			}
			return &OutputFile{Filename: filename, Subfolder: subfolder, Type: fileType}
		}
	}
	return nil
}

// DownloadViewFile 从 /api/view 下载指定文件
func (c *Client) DownloadViewFile(ctx context.Context, filename, subfolder, fileType string) ([]byte, error) {
	params := fmt.Sprintf("filename=%s&type=%s", filename, fileType)
	if subfolder != "" {
		params += "&subfolder=" + subfolder
	}
	url := fmt.Sprintf("%s/view?%s", c.apiRoot, params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载失败，状态码: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// LoadWorkflowJSON 加载工作流 JSON 模板
func LoadWorkflowJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow JSON: %w", err)
	}
	var workflow map[string]any
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, fmt.Errorf("unmarshal workflow JSON: %w", err)
	}
	return workflow, nil
}

// SetPositivePrompt 将 workflow 中的正向提示词替换为 promptText。
// 按 _meta.title 包含 'Positive' 的 CLIPTextEncode 节点识别。
func SetPositivePrompt(workflow map[string]any, promptText string) map[string]any {
	workflowBytes, err := json.Marshal(workflow)
	if err != nil {
		log.Warn().Err(err).Msg("深拷贝工作流失败")
		return workflow
	}
	var wf map[string]any
	if err := json.Unmarshal(workflowBytes, &wf); err != nil {
		return workflow
	}

	for _, nodeVal := range wf {
		node, ok := nodeVal.(map[string]any)
		if !ok {
			continue
		}
		classType, _ := node["class_type"].(string)
		if classType != "CLIPTextEncode" {
			continue
		}
		meta, _ := node["_meta"].(map[string]any)
		title, _ := meta["title"].(string)
		if strings.Contains(title, "Positive") {
			if inputs, ok := node["inputs"].(map[string]any); ok {
				inputs["text"] = promptText
				return wf
			}
		}
	}

	log.Warn().Msg("未找到正向提示节点，跳过替换")
	return wf
}

// setLatentSize 注入输出尺寸到 EmptyLatentImage 节点
func setLatentSize(workflow map[string]any, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	for _, nodeVal := range workflow {
		node, ok := nodeVal.(map[string]any)
		if !ok {
			continue
		}
		classType, _ := node["class_type"].(string)
		if classType != "EmptyLatentImage" {
			continue
		}
		if inputs, ok := node["inputs"].(map[string]any); ok {
			inputs["width"] = width
			inputs["height"] = height
		}
	}
}

// minimalWorkflow 内置的最小文生图工作流
func minimalWorkflow(prompt string, width, height int) map[string]any {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	return map[string]any{
		"1": map[string]any{
			"class_type": "CheckpointLoaderSimple",
			"inputs":     map[string]any{"ckpt_name": "sd_xl_base_1.0.safetensors"},
		},
		"2": map[string]any{
			"class_type": "CLIPTextEncode",
			"_meta":      map[string]any{"title": "Positive Prompt"},
			"inputs":     map[string]any{"text": prompt, "clip": []any{"1", 1}},
		},
		"3": map[string]any{
			"class_type": "CLIPTextEncode",
			"_meta":      map[string]any{"title": "Negative Prompt"},
			"inputs":     map[string]any{"text": "blurry, low quality, watermark", "clip": []any{"1", 1}},
		},
		"4": map[string]any{
			"class_type": "EmptyLatentImage",
			"inputs":     map[string]any{"width": width, "height": height, "batch_size": 1},
		},
		"5": map[string]any{
			"class_type": "KSampler",
			"inputs": map[string]any{
				"model": []any{"1", 0}, "positive": []any{"2", 0}, "negative": []any{"3", 0},
				"latent_image": []any{"4", 0}, "seed": 0, "steps": 20, "cfg": 7.0,
				"sampler_name": "euler", "scheduler": "normal", "denoise": 1.0,
			},
		},
		"6": map[string]any{
			"class_type": "VAEDecode",
			"inputs":     map[string]any{"samples": []any{"5", 0}, "vae": []any{"1", 2}},
		},
		"7": map[string]any{
			"class_type": "SaveImage",
			"inputs":     map[string]any{"images": []any{"6", 0}, "filename_prefix": "bookreel"},
		},
	}
}
