package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"bookreel/internal/app"
	"bookreel/internal/model"
	"bookreel/internal/service"
)

var generateFlags struct {
	book        string
	author      string
	topic       string
	content     string
	contentFile string
	title       string
	output      string
	frames      int
	style       string
	styleDesc   string
	voice       string
	template    string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a video from a book, topic or text",
	Long: `Generate a narrated short video in one shot.
Exactly one of --book, --topic, --content/--content-file must be given.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.StringVar(&generateFlags.book, "book", "", "book name")
	flags.StringVar(&generateFlags.author, "author", "", "book author (optional, with --book)")
	flags.StringVar(&generateFlags.topic, "topic", "", "topic to explain")
	flags.StringVar(&generateFlags.content, "content", "", "raw text content")
	flags.StringVar(&generateFlags.contentFile, "content-file", "", "read content from file")
	flags.StringVar(&generateFlags.title, "title", "", "video title (auto when empty)")
	flags.StringVarP(&generateFlags.output, "output", "o", "", "output video path (auto when empty)")
	flags.IntVarP(&generateFlags.frames, "frames", "n", 0, "number of storyboard frames")
	flags.StringVar(&generateFlags.style, "style", "", "style preset (stick_figure/minimal/futuristic/cinematic)")
	flags.StringVar(&generateFlags.styleDesc, "style-desc", "", "custom style description (overrides preset)")
	flags.StringVar(&generateFlags.voice, "voice", "", "TTS voice id")
	flags.StringVar(&generateFlags.template, "template", "", "frame template image path")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	content := generateFlags.content
	if generateFlags.contentFile != "" {
		data, err := os.ReadFile(generateFlags.contentFile)
		if err != nil {
			return fmt.Errorf("read content file: %w", err)
		}
		content = string(data)
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble app: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.Close(context.Background())

	req := &service.GenerateVideoRequest{
		BookName:         generateFlags.book,
		Author:           generateFlags.author,
		Topic:            generateFlags.topic,
		Content:          content,
		Title:            generateFlags.title,
		OutputPath:       generateFlags.output,
		StylePreset:      generateFlags.style,
		StyleDescription: generateFlags.styleDesc,
	}
	req.Config.NStoryboard = generateFlags.frames
	req.Config.VoiceID = generateFlags.voice
	req.Config.FrameTemplate = generateFlags.template

	result, _, err := a.BookVideo.Generate(ctx, req, printProgress)
	if err != nil {
		return err
	}

	fmt.Printf("Video generated: %s (%.1fs, %d bytes)\n", result.VideoPath, result.Duration, result.FileSize)
	if result.VideoURL != "" {
		fmt.Printf("Uploaded to: %s\n", result.VideoURL)
	}
	return nil
}

func printProgress(ev model.ProgressEvent) {
	if ev.EventType != model.EventProgress {
		return
	}
	event := log.Info().
		Str("step", ev.Step).
		Str("progress", fmt.Sprintf("%.0f%%", ev.Progress*100))
	if ev.FrameTotal > 0 {
		event = event.Str("frame", fmt.Sprintf("%d/%d", ev.FrameCurrent, ev.FrameTotal))
	}
	event.Msg("generating")
}
