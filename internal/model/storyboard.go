package model

import "time"

// BGMMode 背景音乐播放模式
type BGMMode string

const (
	// BGMModeOnce 只播放一遍,音频提前结束不做填充
	BGMModeOnce BGMMode = "once"
	// BGMModeLoop 循环播放直到视频结束
	BGMModeLoop BGMMode = "loop"
)

// StoryboardConfig 分镜生成参数
type StoryboardConfig struct {
	NStoryboard         int    `json:"n_storyboard"`
	MinNarrationWords   int    `json:"min_narration_words"`
	MaxNarrationWords   int    `json:"max_narration_words"`
	MinImagePromptWords int    `json:"min_image_prompt_words"`
	MaxImagePromptWords int    `json:"max_image_prompt_words"`
	ImageWidth          int    `json:"image_width"`
	ImageHeight         int    `json:"image_height"`
	VideoWidth          int    `json:"video_width"`
	VideoHeight         int    `json:"video_height"`
	VideoFPS            int    `json:"video_fps"`
	VoiceID             string `json:"voice_id,omitempty"`
	// FrameTemplate 叠加在每帧画面上的模板图,空则不叠加
	FrameTemplate string `json:"frame_template,omitempty"`
}

// DefaultStoryboardConfig 返回默认分镜参数
func DefaultStoryboardConfig() StoryboardConfig {
	return StoryboardConfig{
		NStoryboard:         6,
		MinNarrationWords:   50,
		MaxNarrationWords:   100,
		MinImagePromptWords: 20,
		MaxImagePromptWords: 50,
		ImageWidth:          1024,
		ImageHeight:         1024,
		VideoWidth:          1080,
		VideoHeight:         1920,
		VideoFPS:            30,
	}
}

// BookInfo 书籍元信息,来源可能是 Google Books 或模型生成
type BookInfo struct {
	Title           string   `json:"title"`
	Author          string   `json:"author,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Genre           string   `json:"genre,omitempty"`
	PublicationYear string   `json:"publication_year,omitempty"`
	CoverURL        string   `json:"cover_url,omitempty"`
	ISBN            string   `json:"isbn,omitempty"`
	KeyPoints       []string `json:"key_points,omitempty"`
	// Source 标记数据来源: google_books / llm
	Source string `json:"source,omitempty"`
}

// StoryboardFrame 单个分镜帧,记录各阶段产物路径
type StoryboardFrame struct {
	Index             int    `json:"index"`
	Narration         string `json:"narration"`
	ImagePrompt       string `json:"image_prompt"`
	ImagePath         string `json:"image_path,omitempty"`
	ComposedImagePath string `json:"composed_image_path,omitempty"`
	AudioPath         string `json:"audio_path,omitempty"`
	VideoSegmentPath  string `json:"video_segment_path,omitempty"`
	// Duration 帧时长(秒),由旁白音频决定
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// Storyboard 一次完整的分镜任务
type Storyboard struct {
	Title          string             `json:"title"`
	Config         StoryboardConfig   `json:"config"`
	BookInfo       *BookInfo          `json:"book_info,omitempty"`
	Frames         []*StoryboardFrame `json:"frames"`
	TotalDuration  float64            `json:"total_duration"`
	FinalVideoPath string             `json:"final_video_path,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
}

// VideoGenerationResult 视频生成结果
type VideoGenerationResult struct {
	VideoPath  string      `json:"video_path"`
	VideoURL   string      `json:"video_url,omitempty"`
	Storyboard *Storyboard `json:"storyboard,omitempty"`
	Duration   float64     `json:"duration"`
	FileSize   int64       `json:"file_size"`
}
