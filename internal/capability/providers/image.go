package providers

import (
	"context"
	"encoding/base64"
	"fmt"

	"bookreel/internal/capability"
	"bookreel/internal/pkg/ark"
	"bookreel/internal/pkg/comfyui"
)

// comfyUIImageTool 基于本地 ComfyUI 的文生图能力
type comfyUIImageTool struct{}

func (t *comfyUIImageTool) Name() string {
	return capability.ToolName(capability.TypeImage, "comfyui")
}

func (t *comfyUIImageTool) Description() string {
	return "ComfyUI 工作流文生图"
}

func (t *comfyUIImageTool) Meta() capability.Meta {
	return capability.Meta{
		DisplayName: "ComfyUI",
		Description: t.Description(),
		IsDefault:   true,
	}
}

// Invoke 生成图片。Result.Raw 为图片二进制,Parts 为 base64。
func (t *comfyUIImageTool) Invoke(ctx context.Context, args capability.Args) (*capability.Result, error) {
	prompt, err := requireString(args, "prompt")
	if err != nil {
		return nil, err
	}

	client := comfyui.NewClient(&comfyui.Config{
		APIURL:           argString(args, "api_url"),
		WorkflowJSONPath: argString(args, "workflow_json"),
	})

	data, err := client.GenerateImage(ctx, prompt, argInt(args, "width"), argInt(args, "height"))
	if err != nil {
		return nil, err
	}

	out := capability.TextResult(base64.StdEncoding.EncodeToString(data))
	out.Raw = data
	return out, nil
}

// arkImageTool 火山引擎 Ark 文生图能力
type arkImageTool struct{}

func (t *arkImageTool) Name() string {
	return capability.ToolName(capability.TypeImage, "ark")
}

func (t *arkImageTool) Description() string {
	return "火山引擎 Ark 文生图"
}

func (t *arkImageTool) Meta() capability.Meta {
	return capability.Meta{
		DisplayName: "Ark 文生图",
		Description: t.Description(),
	}
}

func (t *arkImageTool) Invoke(ctx context.Context, args capability.Args) (*capability.Result, error) {
	prompt, err := requireString(args, "prompt")
	if err != nil {
		return nil, err
	}

	client, err := ark.NewImageClient(&ark.ImageConfig{
		APIKey:  argString(args, "api_key"),
		BaseURL: argString(args, "base_url"),
		Model:   argString(args, "model"),
	})
	if err != nil {
		return nil, fmt.Errorf("create ark image client: %w", err)
	}

	size := argString(args, "size")
	if size == "" {
		if w, h := argInt(args, "width"), argInt(args, "height"); w > 0 && h > 0 {
			size = fmt.Sprintf("%dx%d", w, h)
		}
	}

	data, err := client.GenerateImage(ctx, prompt, size)
	if err != nil {
		return nil, err
	}

	out := capability.TextResult(base64.StdEncoding.EncodeToString(data))
	out.Raw = data
	return out, nil
}
