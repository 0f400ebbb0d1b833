package service

import (
	"context"

	"bookreel/internal/capability"
)

// Router 能力路由,由 capability.Manager 实现。
// 服务层只依赖这个接口,方便测试时替换。
type Router interface {
	Call(ctx context.Context, capType string, args capability.Args) (*capability.Result, error)
	ResolveActive(capType string) (capability.Info, error)
	SetActive(capType, capID string) error
	Available(capType string) []capability.Info
}
