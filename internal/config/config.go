package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server      ServerConfig     `mapstructure:"server"`
	LLM         LLMConfig        `mapstructure:"llm"`
	TTS         CapabilityConfig `mapstructure:"tts"`
	Image       CapabilityConfig `mapstructure:"image"`
	BookFetcher CapabilityConfig `mapstructure:"book_fetcher"`
	Video       VideoConfig      `mapstructure:"video"`
	Log         LogConfig        `mapstructure:"log"`
	Mongo       MongoConfig      `mapstructure:"mongo"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Storage     StorageConfig    `mapstructure:"storage"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LLMConfig 语言模型配置,扁平结构,所有 llm 能力共用一套凭证
type LLMConfig struct {
	Default string           `mapstructure:"default"`
	APIKey  string           `mapstructure:"api_key"`
	BaseURL string           `mapstructure:"base_url"`
	Model   string           `mapstructure:"model"`
	Options LLMOptionsConfig `mapstructure:"options"`
}

// LLMOptionsConfig 模型采样参数
type LLMOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// CapabilityConfig 按能力类型划分的配置段,Settings 按能力 ID 索引
type CapabilityConfig struct {
	Default  string                    `mapstructure:"default"`
	Settings map[string]map[string]any `mapstructure:"settings"`
}

// SettingsFor 返回指定能力 ID 的配置,不存在时返回 nil
func (c CapabilityConfig) SettingsFor(id string) map[string]any {
	if c.Settings == nil {
		return nil
	}
	return c.Settings[id]
}

// VideoConfig 视频合成配置
type VideoConfig struct {
	OutputDir   string  `mapstructure:"output_dir"`
	WorkDir     string  `mapstructure:"work_dir"`
	BGMPath     string  `mapstructure:"bgm_path"`
	BGMMode     string  `mapstructure:"bgm_mode"`
	BGMVolume   float64 `mapstructure:"bgm_volume"`
	FFmpegPath  string  `mapstructure:"ffmpeg_path"`
	FFprobePath string  `mapstructure:"ffprobe_path"`
	// KenBurns 为 true 时对静态图做缓慢缩放
	KenBurns bool `mapstructure:"ken_burns"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath      string `mapstructure:"base_path"`
	BaseURL       string `mapstructure:"base_url"`
	PresignExpiry int    `mapstructure:"presign_expiry"` // 预签名URL过期时间（秒）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	PresignExpiry   int    `mapstructure:"presign_expiry"` // 预签名URL过期时间（秒）
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	if c.Video.BGMMode != "" && c.Video.BGMMode != "once" && c.Video.BGMMode != "loop" {
		return errors.New("invalid bgm_mode, must be once/loop")
	}

	return nil
}
