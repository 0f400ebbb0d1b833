package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// StylePreset 预置画面风格
type StylePreset int

const (
	StylePresetNone StylePreset = iota
	StylePresetStickFigure
	StylePresetMinimal
	StylePresetFuturistic
	StylePresetCinematic
)

// presetInfo 预置风格的展示名与英文风格片段
type presetInfo struct {
	name        string
	displayName string
	prompt      string
}

var stylePresets = map[StylePreset]presetInfo{
	StylePresetStickFigure: {
		name:        "stick_figure",
		displayName: "Stick Figure",
		prompt: "Pure white background, minimalist illustration, matchstick figure style, " +
			"black and white line drawing, simple clean lines",
	},
	StylePresetMinimal: {
		name:        "minimal",
		displayName: "Minimal",
		prompt: "Simple and clean background, minimal design, soft colors, " +
			"professional look, modern aesthetic, uncluttered composition",
	},
	StylePresetFuturistic: {
		name:        "futuristic",
		displayName: "Futuristic",
		prompt: "Futuristic sci-fi style, high-tech city background, " +
			"blue and silver tones, technology sense, soft neon lights, " +
			"cyberpunk aesthetics, digital art, advanced technology",
	},
	StylePresetCinematic: {
		name:        "cinematic",
		displayName: "Cinematic",
		prompt: "Cinematic lighting, dramatic composition, film grain, " +
			"professional photography, depth of field, movie still quality",
	},
}

// String 返回风格的配置名
func (p StylePreset) String() string {
	if info, ok := stylePresets[p]; ok {
		return info.name
	}
	return "none"
}

// DisplayName 返回风格的展示名
func (p StylePreset) DisplayName() string {
	if info, ok := stylePresets[p]; ok {
		return info.displayName
	}
	return "None"
}

// Prompt 返回风格的英文片段
func (p StylePreset) Prompt() string {
	if info, ok := stylePresets[p]; ok {
		return info.prompt
	}
	return ""
}

// ParseStylePreset 解析风格名,未知时返回 (StylePresetNone, false)
func ParseStylePreset(name string) (StylePreset, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "none" {
		return StylePresetNone, true
	}
	for preset, info := range stylePresets {
		if info.name == name {
			return preset, true
		}
	}
	return StylePresetNone, false
}

// StyleComposer 把风格与基础画面描述合成为最终的文生图 prompt
type StyleComposer struct {
	llm TextGenerator
}

// NewStyleComposer 创建风格合成器
func NewStyleComposer(llm TextGenerator) *StyleComposer {
	return &StyleComposer{llm: llm}
}

// Compose 合成最终 prompt。
// 优先级:自定义风格描述（经 LLM 转英文）> 预置风格 > 无风格。
// 风格片段在前,基础描述在后,用逗号连接。
func (c *StyleComposer) Compose(ctx context.Context, basePrompt string, preset StylePreset, customStyle string) (string, error) {
	stylePart := ""

	switch {
	case customStyle != "":
		converted, err := c.convertCustomStyle(ctx, customStyle)
		if err != nil {
			return "", err
		}
		stylePart = converted
	case preset != StylePresetNone:
		stylePart = preset.Prompt()
		log.Debug().Str("preset", preset.String()).Msg("使用预置风格")
	}

	var parts []string
	for _, p := range []string{stylePart, basePrompt} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	final := strings.Join(parts, ", ")
	if final == "" {
		log.Warn().Msg("合成出空的图片 prompt")
	}
	return final, nil
}

// convertCustomStyle 把任意语言的风格描述转为英文文生图片段
func (c *StyleComposer) convertCustomStyle(ctx context.Context, description string) (string, error) {
	converted, err := c.llm.Generate(ctx, buildStyleConvertPrompt(description), nil)
	if err != nil {
		return "", fmt.Errorf("convert custom style: %w", err)
	}
	// 压缩多余空白与换行
	return strings.Join(strings.Fields(converted), " "), nil
}
