package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"bookreel/internal/model"
	"bookreel/internal/repository"
	"bookreel/internal/service"
)

// VideoHandler 视频生成处理器
type VideoHandler struct {
	bookVideo *service.BookVideoService
	repo      *repository.StoryboardRepo
}

// NewVideoHandler 创建视频生成处理器
func NewVideoHandler(bookVideo *service.BookVideoService, repo *repository.StoryboardRepo) *VideoHandler {
	return &VideoHandler{
		bookVideo: bookVideo,
		repo:      repo,
	}
}

// Generate 同步生成视频
// POST /api/v1/videos/generate
func (h *VideoHandler) Generate(c *gin.Context) {
	var req service.GenerateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	result, _, err := h.bookVideo.Generate(c.Request.Context(), &req, nil)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Code:    40002,
				Message: "Invalid generation request",
				Detail:  err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Code:    50001,
			Message: "Video generation failed",
			Detail:  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GenerateStream 生成视频并以 SSE 推送进度
// POST /api/v1/videos/generate/stream
func (h *VideoHandler) GenerateStream(c *gin.Context) {
	var req service.GenerateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	// 设置 SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	events := make(chan model.ProgressEvent, 16)
	var wg sync.WaitGroup
	wg.Add(1)

	ctx := c.Request.Context()
	var result *model.VideoGenerationResult
	var genErr error
	go func() {
		defer wg.Done()
		defer close(events)
		result, _, genErr = h.bookVideo.Generate(ctx, &req, func(ev model.ProgressEvent) {
			// 客户端断开后丢弃进度,避免生成协程卡在写端
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
	}()

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			wg.Wait()
			if genErr != nil {
				c.SSEvent("error", model.ProgressEvent{
					EventType: model.EventError,
					Error:     genErr.Error(),
				})
			} else {
				payload, _ := json.Marshal(result)
				c.SSEvent("done", json.RawMessage(payload))
			}
			return false
		}
		c.SSEvent("progress", ev)
		return true
	})
}

// ListRecords 历史生成记录
// GET /api/v1/videos/records?limit=20&offset=0
func (h *VideoHandler) ListRecords(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Code:    50301,
			Message: "Record storage not configured",
		})
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := h.repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Code:    50002,
			Message: "Failed to list records",
			Detail:  err.Error(),
		})
		return
	}

	total, err := h.repo.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Code:    50002,
			Message: "Failed to count records",
			Detail:  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
	})
}
