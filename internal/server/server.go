package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bookreel/internal/app"
	"bookreel/internal/handler"
	"bookreel/internal/server/middleware"
)

// Server HTTP 服务器
type Server struct {
	app    *app.App
	engine *gin.Engine
}

// New 创建服务器实例
func New(a *app.App) *Server {
	switch a.Cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &Server{
		app:    a,
		engine: gin.New(),
	}
	srv.setupRoutes()
	return srv
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler()
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// API v1
	v1 := s.engine.Group("/api/v1")
	{
		capHandler := handler.NewCapabilityHandler(s.app.Manager)
		v1.GET("/capabilities", capHandler.List)
		v1.PUT("/capabilities/active", capHandler.SetActive)

		videoHandler := handler.NewVideoHandler(s.app.BookVideo, s.app.Repo)
		v1.POST("/videos/generate", videoHandler.Generate)
		v1.POST("/videos/generate/stream", videoHandler.GenerateStream)
		v1.GET("/videos/records", videoHandler.ListRecords)
	}
}

// Run 启动服务器并等待关闭信号
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.app.Cfg.Server.ReadTimeout,
		WriteTimeout: s.app.Cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
		s.app.Close(context.Background())
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
