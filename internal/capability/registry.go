package capability

import (
	"github.com/rs/zerolog/log"
)

// Info 注册表中的一条能力记录
type Info struct {
	Type string
	ID   string
	Tool Tool
	Meta Meta
}

// FullID 返回完整能力名 {type}_{id}
func (i Info) FullID() string {
	return ToolName(i.Type, i.ID)
}

// DisplayLabel 返回展示名,元信息缺失时回退到完整能力名
func (i Info) DisplayLabel() string {
	if i.Meta.DisplayName != "" {
		return i.Meta.DisplayName
	}
	return i.FullID()
}

// Registry 能力注册表。注册完成后只读,不加锁。
type Registry struct {
	capabilities map[string]map[string]Info
	// order 记录各类型的注册顺序,保证遍历确定性
	order map[string][]string
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	r := &Registry{
		capabilities: make(map[string]map[string]Info),
		order:        make(map[string][]string),
	}
	for _, t := range Types() {
		r.capabilities[t] = make(map[string]Info)
	}
	return r
}

// RegisterAll 扫描工具列表并按命名约定注册。
// 名字不符合约定的跳过并告警;同名重复注册时保留先注册的。
func (r *Registry) RegisterAll(tools []Tool) {
	for _, tool := range tools {
		r.register(tool)
	}
	r.logSummary()
}

func (r *Registry) register(tool Tool) {
	name := tool.Name()
	capType, capID, ok := ParseToolName(name)
	if !ok {
		log.Warn().Str("tool", name).Msg("工具名不符合能力命名约定, 跳过注册")
		return
	}

	if _, exists := r.capabilities[capType][capID]; exists {
		log.Warn().Str("type", capType).Str("id", capID).
			Msg("能力重复注册, 保留先注册的实现")
		return
	}

	meta := Meta{Description: tool.Description()}
	if mp, ok := tool.(MetaProvider); ok {
		meta = mp.Meta()
	}

	r.capabilities[capType][capID] = Info{
		Type: capType,
		ID:   capID,
		Tool: tool,
		Meta: meta,
	}
	r.order[capType] = append(r.order[capType], capID)
}

func (r *Registry) logSummary() {
	for _, t := range Types() {
		ids := r.order[t]
		if len(ids) == 0 {
			continue
		}
		log.Info().Str("type", t).Strs("ids", ids).
			Int("count", len(ids)).Msg("能力注册完成")
	}
}

// Get 按类型和 ID 查找能力
func (r *Registry) Get(capType, capID string) (Info, bool) {
	byID, ok := r.capabilities[capType]
	if !ok {
		return Info{}, false
	}
	info, ok := byID[capID]
	return info, ok
}

// IDs 按注册顺序返回某类型下的全部能力 ID
func (r *Registry) IDs(capType string) []string {
	ids := r.order[capType]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// List 按注册顺序返回某类型下的全部能力记录
func (r *Registry) List(capType string) []Info {
	ids := r.order[capType]
	out := make([]Info, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.capabilities[capType][id])
	}
	return out
}
