// Package providers 内置能力实现的静态目录。
package providers

import (
	"fmt"

	"bookreel/internal/capability"
)

// argString 取字符串参数,缺失或类型不符时返回空串
func argString(args capability.Args, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// requireString 取必填字符串参数
func requireString(args capability.Args, key string) (string, error) {
	v := argString(args, key)
	if v == "" {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	return v, nil
}

// argFloat 取数值参数,兼容 int/float 两种来源
func argFloat(args capability.Args, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// argInt 取整数参数
func argInt(args capability.Args, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// argBool 取布尔参数
func argBool(args capability.Args, key string) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return false
}
