package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"bookreel/internal/model"
	"bookreel/internal/pkg/storage"
	"bookreel/internal/repository"
)

// GenerateVideoRequest 视频生成请求。
// BookName / Topic / Content 三者必须恰好给出一个。
type GenerateVideoRequest struct {
	BookName string `json:"book_name,omitempty"`
	Author   string `json:"author,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Content  string `json:"content,omitempty"`

	// Title 用户指定的视频标题,空则按来源自动生成
	Title      string `json:"title,omitempty"`
	OutputPath string `json:"output_path,omitempty"`

	// StylePreset 预置风格名,StyleDescription 自定义风格描述（优先）
	StylePreset      string `json:"style_preset,omitempty"`
	StyleDescription string `json:"style_description,omitempty"`

	Config model.StoryboardConfig `json:"config"`
}

// BookVideoService 书籍视频生成编排
type BookVideoService struct {
	llm          TextGenerator
	bookFetcher  *BookFetcherService
	narrationGen *NarrationGenerator
	promptGen    *ImagePromptGenerator
	frames       *FrameProcessor
	compositor   MediaCompositor

	outputDir string
	workDir   string
	bgmPath   string
	bgmMode   model.BGMMode
	bgmVolume float64

	store storage.Storage            // 可为 nil
	repo  *repository.StoryboardRepo // 可为 nil
}

// BookVideoOptions 编排服务的环境选项
type BookVideoOptions struct {
	OutputDir string
	WorkDir   string
	BGMPath   string
	BGMMode   model.BGMMode
	BGMVolume float64
	Store     storage.Storage
	Repo      *repository.StoryboardRepo
}

// NewBookVideoService 创建编排服务
func NewBookVideoService(
	llm TextGenerator,
	bookFetcher *BookFetcherService,
	narrationGen *NarrationGenerator,
	promptGen *ImagePromptGenerator,
	frames *FrameProcessor,
	compositor MediaCompositor,
	opts BookVideoOptions,
) *BookVideoService {
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(os.TempDir(), "bookreel")
	}
	if opts.BGMMode == "" {
		opts.BGMMode = model.BGMModeOnce
	}
	if opts.BGMVolume <= 0 {
		opts.BGMVolume = 0.3
	}
	return &BookVideoService{
		llm:          llm,
		bookFetcher:  bookFetcher,
		narrationGen: narrationGen,
		promptGen:    promptGen,
		frames:       frames,
		compositor:   compositor,
		outputDir:    opts.OutputDir,
		workDir:      opts.WorkDir,
		bgmPath:      opts.BGMPath,
		bgmMode:      opts.BGMMode,
		bgmVolume:    opts.BGMVolume,
		store:        opts.Store,
		repo:         opts.Repo,
	}
}

// 整体进度里程碑
const (
	progressTitle        = 0.01
	progressBookFetch    = 0.03
	progressNarrations   = 0.05
	progressImagePrompts = 0.15
	progressFramesStart  = 0.2
	progressFramesEnd    = 0.8
	progressConcat       = 0.85
	progressDone         = 1.0
)

// Generate 生成视频。出错时返回已构建的分镜数据,便于排查失败发生在哪一步。
func (s *BookVideoService) Generate(ctx context.Context, req *GenerateVideoRequest, onProgress model.ProgressFunc) (*model.VideoGenerationResult, *model.Storyboard, error) {
	if err := validateSources(req); err != nil {
		return nil, nil, err
	}

	cfg := req.Config
	applyConfigDefaults(&cfg)

	preset, ok := ParseStylePreset(req.StylePreset)
	if !ok {
		log.Warn().Str("preset", req.StylePreset).Msg("未知的风格预设, 忽略")
	}

	progress := newMonotonicProgress(onProgress)

	// 1. 确定标题
	title, bookInfo, err := s.resolveTitle(ctx, req, progress)
	if err != nil {
		return nil, nil, err
	}

	storyboard := &model.Storyboard{
		Title:     title,
		Config:    cfg,
		BookInfo:  bookInfo,
		CreatedAt: time.Now(),
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = s.defaultOutputPath(title)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, storyboard, fmt.Errorf("create output dir: %w", err)
	}
	runDir := filepath.Join(s.workDir, time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, storyboard, fmt.Errorf("create work dir: %w", err)
	}

	// 2. 生成旁白
	progress.report("generating_narrations", progressNarrations, 0, 0)
	narrations, err := s.generateNarrations(ctx, req, bookInfo, cfg)
	if err != nil {
		return nil, storyboard, err
	}

	// 3. 生成画面描述
	progress.report("generating_image_prompts", progressImagePrompts, 0, 0)
	imagePrompts, err := s.promptGen.Generate(ctx, narrations, cfg, preset, req.StyleDescription)
	if err != nil {
		return nil, storyboard, err
	}

	for i := range narrations {
		storyboard.Frames = append(storyboard.Frames, &model.StoryboardFrame{
			Index:       i,
			Narration:   narrations[i],
			ImagePrompt: imagePrompts[i],
		})
	}

	// 4. 逐帧处理,帧区间 [0.2, 0.8] 在各帧间均分
	frameSpan := (progressFramesEnd - progressFramesStart) / float64(len(storyboard.Frames))
	for i, frame := range storyboard.Frames {
		frameBase := progressFramesStart + frameSpan*float64(i)
		progress.report("processing_frame", frameBase, i+1, len(storyboard.Frames))

		err := s.frames.Process(ctx, frame, cfg, runDir, func(step string, frameProgress float64) {
			progress.report("frame_"+step, frameBase+frameSpan*frameProgress, i+1, len(storyboard.Frames))
		})
		if err != nil {
			return nil, storyboard, err
		}
		storyboard.TotalDuration += frame.Duration
	}

	// 5. 拼接
	progress.report("concatenating", progressConcat, 0, 0)
	concatPath := filepath.Join(runDir, "concat.mp4")
	segmentPaths := make([]string, 0, len(storyboard.Frames))
	for _, frame := range storyboard.Frames {
		segmentPaths = append(segmentPaths, frame.VideoSegmentPath)
	}
	if err := s.compositor.Concat(ctx, segmentPaths, concatPath); err != nil {
		return nil, storyboard, err
	}

	// 6. 背景音乐
	finalPath := outputPath
	if s.bgmPath != "" {
		if err := s.compositor.MixBGM(ctx, concatPath, s.bgmPath, finalPath, s.bgmVolume, s.bgmMode == model.BGMModeLoop); err != nil {
			return nil, storyboard, err
		}
	} else {
		if err := moveFile(concatPath, finalPath); err != nil {
			return nil, storyboard, err
		}
	}

	now := time.Now()
	storyboard.FinalVideoPath = finalPath
	storyboard.CompletedAt = &now

	result := &model.VideoGenerationResult{
		VideoPath:  finalPath,
		Storyboard: storyboard,
		Duration:   storyboard.TotalDuration,
	}
	if info, err := os.Stat(finalPath); err == nil {
		result.FileSize = info.Size()
	}

	// 7. 上传与落库均为尽力而为,不阻塞结果返回
	s.uploadAndRecord(ctx, req, result, storyboard)

	progress.report("finalizing", progressDone, 0, 0)
	progress.complete()

	log.Info().
		Str("title", title).
		Str("output", finalPath).
		Float64("duration", storyboard.TotalDuration).
		Msg("视频生成完成")
	return result, storyboard, nil
}

// validateSources 校验三种来源恰好给出一个。任何外部调用前必须先通过校验。
func validateSources(req *GenerateVideoRequest) error {
	count := 0
	for _, v := range []string{req.BookName, req.Topic, req.Content} {
		if strings.TrimSpace(v) != "" {
			count++
		}
	}
	if count != 1 {
		return fmt.Errorf("%w: exactly one of book_name/topic/content is required, got %d", ErrInvalidInput, count)
	}
	return nil
}

func applyConfigDefaults(cfg *model.StoryboardConfig) {
	def := model.DefaultStoryboardConfig()
	if cfg.NStoryboard <= 0 {
		cfg.NStoryboard = def.NStoryboard
	}
	if cfg.MinNarrationWords <= 0 {
		cfg.MinNarrationWords = def.MinNarrationWords
	}
	if cfg.MaxNarrationWords <= 0 {
		cfg.MaxNarrationWords = def.MaxNarrationWords
	}
	if cfg.MinImagePromptWords <= 0 {
		cfg.MinImagePromptWords = def.MinImagePromptWords
	}
	if cfg.MaxImagePromptWords <= 0 {
		cfg.MaxImagePromptWords = def.MaxImagePromptWords
	}
	if cfg.ImageWidth <= 0 {
		cfg.ImageWidth = def.ImageWidth
	}
	if cfg.ImageHeight <= 0 {
		cfg.ImageHeight = def.ImageHeight
	}
	if cfg.VideoWidth <= 0 {
		cfg.VideoWidth = def.VideoWidth
	}
	if cfg.VideoHeight <= 0 {
		cfg.VideoHeight = def.VideoHeight
	}
	if cfg.VideoFPS <= 0 {
		cfg.VideoFPS = def.VideoFPS
	}
}

// resolveTitle 确定标题。优先级:用户指定 > 书名(含作者) > 话题 > 内容经 LLM 提炼。
// 书籍来源顺带返回抓取到的书籍信息,避免重复查询。
func (s *BookVideoService) resolveTitle(ctx context.Context, req *GenerateVideoRequest, progress *monotonicProgress) (string, *model.BookInfo, error) {
	if req.Title != "" {
		if req.BookName != "" {
			info, err := s.fetchBookInfo(ctx, req, progress)
			if err != nil {
				return "", nil, err
			}
			return req.Title, info, nil
		}
		return req.Title, nil, nil
	}

	switch {
	case req.BookName != "":
		info, err := s.fetchBookInfo(ctx, req, progress)
		if err != nil {
			return "", nil, err
		}
		title := info.Title
		if title == "" {
			title = req.BookName
		}
		if info.Author != "" {
			title = fmt.Sprintf("%s - %s", title, info.Author)
		}
		return title, info, nil

	case req.Topic != "":
		return req.Topic, nil, nil

	default:
		progress.report("generating_title", progressTitle, 0, 0)
		title, err := s.generateTitleFromContent(ctx, req.Content)
		if err != nil {
			return "", nil, err
		}
		return title, nil, nil
	}
}

func (s *BookVideoService) fetchBookInfo(ctx context.Context, req *GenerateVideoRequest, progress *monotonicProgress) (*model.BookInfo, error) {
	progress.report("fetching_book_info", progressBookFetch, 0, 0)
	return s.bookFetcher.Fetch(ctx, req.BookName, req.Author)
}

// generateTitleFromContent 让模型为内容起标题,去掉包裹引号并限制在 20 字内
func (s *BookVideoService) generateTitleFromContent(ctx context.Context, content string) (string, error) {
	response, err := s.llm.Generate(ctx, buildTitleFromContentPrompt(content), &LLMOptions{
		Temperature: 0.7,
		MaxTokens:   50,
	})
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(response)
	for _, quote := range []string{`"`, `'`, "“", "”", "《", "》"} {
		title = strings.Trim(title, quote)
	}

	runes := []rune(title)
	if len(runes) > 20 {
		title = string(runes[:20])
	}
	if title == "" {
		return "", fmt.Errorf("%w: empty title", ErrInvalidLLMOutput)
	}
	log.Info().Str("title", title).Msg("内容标题生成完成")
	return title, nil
}

func (s *BookVideoService) generateNarrations(ctx context.Context, req *GenerateVideoRequest, bookInfo *model.BookInfo, cfg model.StoryboardConfig) ([]string, error) {
	switch {
	case req.BookName != "":
		return s.narrationGen.GenerateForBook(ctx, bookInfo, cfg)
	case req.Topic != "":
		return s.narrationGen.GenerateForTopic(ctx, req.Topic, cfg)
	default:
		return s.narrationGen.GenerateForContent(ctx, req.Content, cfg)
	}
}

// defaultOutputPath 生成输出路径: output/<时间戳>_<标题前10字>.mp4
func (s *BookVideoService) defaultOutputPath(title string) string {
	runes := []rune(title)
	if len(runes) > 10 {
		runes = runes[:10]
	}
	safeName := strings.NewReplacer("/", "_", " ", "_").Replace(string(runes))
	timestamp := time.Now().Format("20060102_150405")
	return filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.mp4", timestamp, safeName))
}

func (s *BookVideoService) uploadAndRecord(ctx context.Context, req *GenerateVideoRequest, result *model.VideoGenerationResult, storyboard *model.Storyboard) {
	if s.store != nil {
		url, err := s.uploadVideo(ctx, result.VideoPath)
		if err != nil {
			log.Warn().Err(err).Msg("视频上传失败")
		} else {
			result.VideoURL = url
		}
	}

	if s.repo != nil {
		record := &model.StoryboardRecord{
			Title:          storyboard.Title,
			SourceType:     sourceType(req),
			Source:         sourceValue(req),
			FrameCount:     len(storyboard.Frames),
			TotalDuration:  storyboard.TotalDuration,
			FinalVideoPath: storyboard.FinalVideoPath,
			VideoURL:       result.VideoURL,
			Storyboard:     storyboard,
			CreatedAt:      time.Now(),
		}
		if err := s.repo.Create(ctx, record); err != nil {
			log.Warn().Err(err).Msg("分镜记录落库失败")
		}
	}
}

func (s *BookVideoService) uploadVideo(ctx context.Context, videoPath string) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	key := fmt.Sprintf("videos/%s", filepath.Base(videoPath))
	return s.store.Upload(ctx, key, file, "video/mp4")
}

func sourceType(req *GenerateVideoRequest) string {
	switch {
	case req.BookName != "":
		return "book"
	case req.Topic != "":
		return "topic"
	default:
		return "content"
	}
}

func sourceValue(req *GenerateVideoRequest) string {
	switch {
	case req.BookName != "":
		return req.BookName
	case req.Topic != "":
		return req.Topic
	default:
		return truncate(req.Content, 200)
	}
}

// moveFile 跨文件系统安全的移动
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("move file: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("move file: %w", err)
	}
	return os.Remove(src)
}

// monotonicProgress 保证上报的进度单调不减
type monotonicProgress struct {
	mu   sync.Mutex
	last float64
	fn   model.ProgressFunc
}

func newMonotonicProgress(fn model.ProgressFunc) *monotonicProgress {
	return &monotonicProgress{fn: fn}
}

func (p *monotonicProgress) report(step string, progress float64, frameCurrent, frameTotal int) {
	p.mu.Lock()
	if progress < p.last {
		progress = p.last
	}
	p.last = progress
	p.mu.Unlock()

	p.fn.Emit(model.ProgressEvent{
		EventType:    model.EventProgress,
		Progress:     progress,
		Step:         step,
		FrameCurrent: frameCurrent,
		FrameTotal:   frameTotal,
	})
}

func (p *monotonicProgress) complete() {
	p.fn.Emit(model.ProgressEvent{
		EventType: model.EventComplete,
		Progress:  1.0,
	})
}
