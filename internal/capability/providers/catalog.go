package providers

import "bookreel/internal/capability"

// Catalog 返回全部内置能力,顺序固定,注册表按此顺序登记
func Catalog() []capability.Tool {
	return []capability.Tool{
		&llmTool{id: "eino", provider: "openai", displayName: "OpenAI 兼容模型", isDefault: true},
		&llmTool{id: "ark", provider: "ark", displayName: "火山引擎 Ark 模型"},
		&volcanoTTSTool{},
		&comfyUIImageTool{},
		&arkImageTool{},
		&googleBooksTool{},
	}
}
