package middleware

import (
	"github.com/gin-gonic/gin"

	"bookreel/internal/pkg/id"
)

const requestIDHeader = "X-Request-ID"

// ContextRequestID 请求标识在 gin.Context 里的键,Logger 与 Recovery 共用
const ContextRequestID = "request_id"

// RequestID 请求 ID 中间件,优先透传上游的 X-Request-ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = id.New()
		}

		c.Set(ContextRequestID, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()
	}
}
