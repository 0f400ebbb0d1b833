package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"bookreel/internal/capability"
	"bookreel/internal/capability/providers"
	"bookreel/internal/config"
	"bookreel/internal/model"
	"bookreel/internal/pkg/cache"
	"bookreel/internal/pkg/ffmpeg"
	"bookreel/internal/pkg/mongodb"
	"bookreel/internal/pkg/storage"
	"bookreel/internal/pkg/storagefactory"
	"bookreel/internal/repository"
	"bookreel/internal/service"
)

// App 组装后的应用,serve 与 generate 命令共用
type App struct {
	Cfg     *config.Config
	Manager *capability.Manager

	LLM       *service.LLMService
	BookVideo *service.BookVideoService
	Repo      *repository.StoryboardRepo
	Mongo     *mongodb.Client
	Redis     *cache.RedisCache
	Store     storage.Storage
}

// New 按配置组装应用。Mongo/Redis/存储 均为可选依赖,连接失败只告警。
func New(cfg *config.Config) (*App, error) {
	registry := capability.NewRegistry()
	registry.RegisterAll(providers.Catalog())
	manager := capability.NewManager(registry, cfg)

	var mongoClient *mongodb.Client
	var repo *repository.StoryboardRepo
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, continuing without it")
		} else {
			mongoClient = client
			repo = repository.NewStoryboardRepo(client.Database())
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	var store storage.Storage
	if cfg.Storage.Type != "" {
		s, err := storagefactory.NewStorage(&cfg.Storage)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize storage, continuing without it")
		} else {
			store = s
			log.Info().Str("type", s.GetStorageType()).Msg("storage initialized")
		}
	}

	llmSvc := service.NewLLMService(manager)
	ttsSvc := service.NewTTSService(manager)
	imageSvc := service.NewImageService(manager)

	ffmpegClient := ffmpeg.NewClient(cfg.Video.FFmpegPath, cfg.Video.FFprobePath)
	compositor := service.NewFFmpegCompositor(ffmpegClient, cfg.Video.WorkDir, cfg.Video.KenBurns)

	bookFetcher := service.NewBookFetcherService(manager, llmSvc, redisCache)
	narrationGen := service.NewNarrationGenerator(llmSvc)
	styleComposer := service.NewStyleComposer(llmSvc)
	promptGen := service.NewImagePromptGenerator(llmSvc, styleComposer)
	frames := service.NewFrameProcessor(ttsSvc, imageSvc, compositor)

	bookVideo := service.NewBookVideoService(
		llmSvc, bookFetcher, narrationGen, promptGen, frames, compositor,
		service.BookVideoOptions{
			OutputDir: cfg.Video.OutputDir,
			WorkDir:   cfg.Video.WorkDir,
			BGMPath:   cfg.Video.BGMPath,
			BGMMode:   model.BGMMode(cfg.Video.BGMMode),
			BGMVolume: cfg.Video.BGMVolume,
			Store:     store,
			Repo:      repo,
		},
	)

	return &App{
		Cfg:       cfg,
		Manager:   manager,
		LLM:       llmSvc,
		BookVideo: bookVideo,
		Repo:      repo,
		Mongo:     mongoClient,
		Redis:     redisCache,
		Store:     store,
	}, nil
}

// Close 释放外部连接
func (a *App) Close(ctx context.Context) {
	if a.Mongo != nil {
		if err := a.Mongo.Close(ctx); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB connection")
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis connection")
		}
	}
}
