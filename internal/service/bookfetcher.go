package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bookreel/internal/capability"
	"bookreel/internal/model"
	"bookreel/internal/pkg/cache"
	"bookreel/internal/pkg/llmjson"
)

// BookFetcherService 书籍信息获取服务。
// 先查缓存,再走 book_fetcher 能力,查不到时降级为 LLM 生成。
type BookFetcherService struct {
	router Router
	llm    TextGenerator
	cache  *cache.RedisCache // 可为 nil
}

// NewBookFetcherService 创建书籍信息获取服务。redisCache 传 nil 时不启用缓存。
func NewBookFetcherService(router Router, llm TextGenerator, redisCache *cache.RedisCache) *BookFetcherService {
	return &BookFetcherService{
		router: router,
		llm:    llm,
		cache:  redisCache,
	}
}

// Fetch 获取书籍信息
func (s *BookFetcherService) Fetch(ctx context.Context, bookName, author string) (*model.BookInfo, error) {
	if bookName == "" {
		return nil, fmt.Errorf("%w: book name is empty", ErrInvalidInput)
	}

	cacheKey := cache.BookCacheKey(bookName)
	if s.cache != nil {
		var cached model.BookInfo
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil && cached.Title != "" {
			log.Debug().Str("book", bookName).Msg("书籍信息命中缓存")
			return &cached, nil
		}
	}

	info, err := s.fetchViaCapability(ctx, bookName)
	if err != nil {
		log.Warn().Err(err).Str("book", bookName).Msg("书籍查询能力失败, 降级到 LLM")
		info = nil
	}
	if info == nil {
		info, err = s.fetchViaLLM(ctx, bookName, author)
		if err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, info, cache.BookCacheTTL); err != nil {
			log.Warn().Err(err).Msg("书籍信息写缓存失败")
		}
	}
	return info, nil
}

// fetchViaCapability 走 book_fetcher 能力。查不到书目时返回 (nil, nil)。
func (s *BookFetcherService) fetchViaCapability(ctx context.Context, bookName string) (*model.BookInfo, error) {
	result, err := s.router.Call(ctx, capability.TypeBookFetcher, capability.Args{
		"book_name": bookName,
	})
	if err != nil {
		return nil, err
	}

	if info, ok := result.Raw.(*model.BookInfo); ok {
		return info, nil
	}

	text := result.Text()
	if text == "" {
		return nil, nil
	}
	var info model.BookInfo
	if err := llmjson.Decode(text, "title", &info); err != nil {
		return nil, fmt.Errorf("parse book fetcher output: %w", err)
	}
	return &info, nil
}

// fetchViaLLM 让模型基于自身知识生成书籍信息
func (s *BookFetcherService) fetchViaLLM(ctx context.Context, bookName, author string) (*model.BookInfo, error) {
	// 低温度换取更贴近事实的回答
	response, err := s.llm.Generate(ctx, buildBookInfoPrompt(bookName, author), &LLMOptions{
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, err
	}

	var info model.BookInfo
	if err := llmjson.Decode(response, "title", &info); err != nil {
		return nil, fmt.Errorf("%w: book info: %v", ErrInvalidLLMOutput, err)
	}

	if info.Title == "" {
		info.Title = bookName
	}
	if info.Author == "" {
		info.Author = author
	}
	info.Source = "llm"

	log.Info().Str("title", info.Title).Msg("LLM 生成书籍信息完成")
	return &info, nil
}
