package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"bookreel/internal/capability"
)

// ImageService 文生图服务,把能力结果落盘为图片文件
type ImageService struct {
	router Router
}

// NewImageService 创建文生图服务
func NewImageService(router Router) *ImageService {
	return &ImageService{router: router}
}

// Generate 生成图片并写入 outputPath
func (s *ImageService) Generate(ctx context.Context, prompt string, width, height int, outputPath string) error {
	args := capability.Args{"prompt": prompt}
	if width > 0 {
		args["width"] = width
	}
	if height > 0 {
		args["height"] = height
	}

	result, err := s.router.Call(ctx, capability.TypeImage, args)
	if err != nil {
		return err
	}

	imageData, err := decodeImage(result)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(outputPath, imageData, 0o644); err != nil {
		return fmt.Errorf("write image file: %w", err)
	}
	return nil
}

func decodeImage(result *capability.Result) ([]byte, error) {
	if rawBytes, ok := result.Raw.([]byte); ok && len(rawBytes) > 0 {
		return rawBytes, nil
	}

	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("image capability returned no data")
	}
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return data, nil
}
