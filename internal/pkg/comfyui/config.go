package comfyui

import (
	"strings"
	"time"
)

// Config ComfyUI 配置
type Config struct {
	APIURL           string        // API URL（如 http://127.0.0.1:8188/api/prompt）
	WorkflowJSONPath string        // 工作流 JSON 模板路径,空则使用内置最小工作流
	Timeout          time.Duration // 请求超时时间
	MaxRetries       int           // 最大重试次数
	RetryDelay       time.Duration // 重试延迟
	PollInterval     time.Duration // 轮询间隔
	MaxWait          time.Duration // 最大等待时间
}

func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = "http://127.0.0.1:8188/api/prompt"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 1 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = 1 * time.Second
	}
	if c.MaxWait == 0 {
		c.MaxWait = 300 * time.Second
	}
}

// normalizePromptURL 归一化工作流提交端点。
// 兼容传入 host:port、.../api、.../api/prompt、.../prompt 等形式。
func normalizePromptURL(urlStr string) string {
	base := strings.TrimSuffix(strings.TrimSpace(urlStr), "/")
	if base == "" {
		base = "http://127.0.0.1:8188"
	}
	if strings.Contains(base, "/api/prompt") {
		return base
	}
	if strings.HasSuffix(base, "/prompt") {
		return base
	}
	if strings.HasSuffix(base, "/api") {
		return base + "/prompt"
	}
	if strings.Contains(base, "/api") {
		parts := strings.Split(base, "/api")
		return strings.TrimSuffix(parts[0], "/") + "/api/prompt"
	}
	return base + "/api/prompt"
}

// apiRoot 返回以 /api 结尾的基础前缀，用于 history/view
func apiRoot(promptURL string) string {
	base := strings.TrimSuffix(promptURL, "/")
	for _, marker := range []string{"/api/prompt", "/prompt", "/api"} {
		if strings.Contains(base, marker) {
			parts := strings.Split(base, marker)
			return strings.TrimSuffix(parts[0], "/") + "/api"
		}
	}
	return base + "/api"
}
