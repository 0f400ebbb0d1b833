package service

import "errors"

var (
	// ErrInvalidInput 请求参数不合法
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidLLMOutput 模型输出不符合约定格式,且无法修复
	ErrInvalidLLMOutput = errors.New("invalid llm output")
)
