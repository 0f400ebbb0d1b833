package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookreel/internal/capability"
	"bookreel/internal/model"
)

// CapabilityHandler 能力管理处理器
type CapabilityHandler struct {
	manager *capability.Manager
}

// NewCapabilityHandler 创建能力管理处理器
func NewCapabilityHandler(manager *capability.Manager) *CapabilityHandler {
	return &CapabilityHandler{manager: manager}
}

// 列表展示顺序
var displayOrder = []string{
	capability.TypeLLM,
	capability.TypeTTS,
	capability.TypeImage,
	capability.TypeBookFetcher,
}

// List 列出全部能力及当前活跃实现
// GET /api/v1/capabilities
func (h *CapabilityHandler) List(c *gin.Context) {
	out := make(map[string][]model.CapabilityInfo, len(displayOrder))
	for _, capType := range displayOrder {
		infos := h.manager.Available(capType)
		if len(infos) == 0 {
			continue
		}

		activeID := ""
		if active, err := h.manager.ResolveActive(capType); err == nil {
			activeID = active.ID
		}

		items := make([]model.CapabilityInfo, 0, len(infos))
		for _, info := range infos {
			items = append(items, model.CapabilityInfo{
				Type:        info.Type,
				ID:          info.ID,
				DisplayName: info.Meta.DisplayName,
				Description: info.Meta.Description,
				Active:      info.ID == activeID,
			})
		}
		out[capType] = items
	}

	c.JSON(http.StatusOK, gin.H{"capabilities": out})
}

// SetActive 切换指定类型的活跃能力
// PUT /api/v1/capabilities/active
func (h *CapabilityHandler) SetActive(c *gin.Context) {
	var req model.SetActiveCapabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	if err := h.manager.SetActive(req.Type, req.ID); err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Code:    40401,
			Message: "Capability not registered",
			Detail:  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type": req.Type,
		"id":   req.ID,
	})
}
