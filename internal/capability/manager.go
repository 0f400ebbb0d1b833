package capability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"bookreel/internal/config"
)

// ErrNoActiveCapability 某类型下没有任何可用实现
var ErrNoActiveCapability = errors.New("no active capability for type")

// Manager 负责能力的激活选择与调用时的配置注入
type Manager struct {
	registry *Registry
	cfg      *config.Config

	mu     sync.RWMutex
	active map[string]string // type -> active capability id
}

// NewManager 创建管理器,并按 配置默认 > is_default 标记 > 注册顺序 解析各类型的激活实现
func NewManager(registry *Registry, cfg *config.Config) *Manager {
	m := &Manager{
		registry: registry,
		cfg:      cfg,
		active:   make(map[string]string),
	}
	for _, t := range Types() {
		if id, ok := m.resolveInitial(t); ok {
			m.active[t] = id
			log.Debug().Str("type", t).Str("id", id).Msg("能力激活")
		}
	}
	return m
}

func (m *Manager) resolveInitial(capType string) (string, bool) {
	// 1. 配置里显式指定的默认实现
	if id := m.configDefault(capType); id != "" {
		if _, ok := m.registry.Get(capType, id); ok {
			return id, true
		}
		log.Warn().Str("type", capType).Str("id", id).
			Msg("配置指定的默认能力未注册, 回退")
	}

	// 2. 实现自身的 is_default 标记
	for _, info := range m.registry.List(capType) {
		if info.Meta.IsDefault {
			return info.ID, true
		}
	}

	// 3. 注册顺序第一个
	ids := m.registry.IDs(capType)
	if len(ids) > 0 {
		return ids[0], true
	}
	return "", false
}

func (m *Manager) configDefault(capType string) string {
	if m.cfg == nil {
		return ""
	}
	switch capType {
	case TypeLLM:
		return m.cfg.LLM.Default
	case TypeTTS:
		return m.cfg.TTS.Default
	case TypeImage:
		return m.cfg.Image.Default
	case TypeBookFetcher:
		return m.cfg.BookFetcher.Default
	}
	return ""
}

// ResolveActive 返回某类型当前激活的能力
func (m *Manager) ResolveActive(capType string) (Info, error) {
	m.mu.RLock()
	id, ok := m.active[capType]
	m.mu.RUnlock()
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrNoActiveCapability, capType)
	}
	info, found := m.registry.Get(capType, id)
	if !found {
		return Info{}, fmt.Errorf("%w: %s", ErrNoActiveCapability, capType)
	}
	return info, nil
}

// SetActive 切换某类型的激活实现
func (m *Manager) SetActive(capType, capID string) error {
	if _, ok := m.registry.Get(capType, capID); !ok {
		return fmt.Errorf("capability %s not registered", ToolName(capType, capID))
	}
	m.mu.Lock()
	m.active[capType] = capID
	m.mu.Unlock()
	log.Info().Str("type", capType).Str("id", capID).Msg("切换激活能力")
	return nil
}

// Available 按注册顺序返回某类型的全部实现
func (m *Manager) Available(capType string) []Info {
	return m.registry.List(capType)
}

// Call 调用某类型当前激活的能力。
// 调用前把配置项注入参数,但绝不覆盖调用方已给出的键。
func (m *Manager) Call(ctx context.Context, capType string, args Args) (*Result, error) {
	return m.CallWith(ctx, capType, "", args)
}

// CallWith 调用某类型下指定 id 的能力,id 为空时回落到当前激活实现。
func (m *Manager) CallWith(ctx context.Context, capType, capID string, args Args) (*Result, error) {
	var info Info
	if capID != "" {
		var found bool
		info, found = m.registry.Get(capType, capID)
		if !found {
			return nil, fmt.Errorf("capability %s not registered", ToolName(capType, capID))
		}
	} else {
		var err error
		info, err = m.ResolveActive(capType)
		if err != nil {
			return nil, err
		}
	}

	injected := m.injectConfig(capType, info.ID, args)
	result, err := info.Tool.Invoke(ctx, injected)
	if err != nil {
		return nil, fmt.Errorf("capability %s: %w", info.FullID(), err)
	}
	return result, nil
}

// injectConfig 以 setdefault 语义合并配置:只补充缺失的键
func (m *Manager) injectConfig(capType, capID string, args Args) Args {
	merged := Args{}
	if args != nil {
		merged = args.Clone()
	}
	for k, v := range m.configArgs(capType, capID) {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return merged
}

// configArgs 返回某能力的配置参数。
// llm 类型共用顶层 llm 段的扁平凭证,其余类型按 settings[id] 取。
func (m *Manager) configArgs(capType, capID string) map[string]any {
	if m.cfg == nil {
		return nil
	}
	if capType == TypeLLM {
		out := map[string]any{}
		if m.cfg.LLM.APIKey != "" {
			out["api_key"] = m.cfg.LLM.APIKey
		}
		if m.cfg.LLM.BaseURL != "" {
			out["base_url"] = m.cfg.LLM.BaseURL
		}
		if m.cfg.LLM.Model != "" {
			out["model"] = m.cfg.LLM.Model
		}
		return out
	}

	var section config.CapabilityConfig
	switch capType {
	case TypeTTS:
		section = m.cfg.TTS
	case TypeImage:
		section = m.cfg.Image
	case TypeBookFetcher:
		section = m.cfg.BookFetcher
	default:
		return nil
	}
	return section.SettingsFor(capID)
}
