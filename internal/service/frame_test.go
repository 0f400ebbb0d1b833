package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"bookreel/internal/model"
)

func TestFrameProcessor(t *testing.T) {
	Convey("FrameProcessor.Process 处理单帧", t, func() {
		ctx := context.Background()
		cfg := model.DefaultStoryboardConfig()
		workDir := t.TempDir()

		Convey("四个阶段串联并回填产物路径", func() {
			tts := &mockTTS{duration: 2.5}
			image := &mockImage{}
			p := NewFrameProcessor(tts, image, &mockCompositor{})

			frame := &model.StoryboardFrame{Index: 1, Narration: "旁白", ImagePrompt: "prompt"}
			var steps []string
			var progresses []float64
			err := p.Process(ctx, frame, cfg, workDir, func(step string, progress float64) {
				steps = append(steps, step)
				progresses = append(progresses, progress)
			})

			So(err, ShouldBeNil)
			So(tts.calls, ShouldEqual, 1)
			So(image.calls, ShouldEqual, 1)
			So(frame.Duration, ShouldEqual, 2.5)
			So(frame.AudioPath, ShouldEqual, filepath.Join(workDir, "frame_001.mp3"))
			So(frame.ImagePath, ShouldEqual, filepath.Join(workDir, "frame_001.png"))
			So(frame.ComposedImagePath, ShouldEqual, filepath.Join(workDir, "frame_001_composed.png"))
			So(frame.VideoSegmentPath, ShouldEqual, filepath.Join(workDir, "frame_001.mp4"))

			So(steps, ShouldResemble, []string{"tts", "image", "compose", "render"})
			So(progresses, ShouldResemble, []float64{0.25, 0.5, 0.75, 1.0})
		})

		Convey("TTS 未返回时长时用探测兜底", func() {
			tts := &mockTTS{duration: 0}
			p := NewFrameProcessor(tts, &mockImage{}, &mockCompositor{audioDuration: 3.2})

			frame := &model.StoryboardFrame{Index: 0, Narration: "旁白", ImagePrompt: "p"}
			err := p.Process(ctx, frame, cfg, workDir, nil)

			So(err, ShouldBeNil)
			So(frame.Duration, ShouldEqual, 3.2)
		})

		Convey("TTS 失败时带上帧号返回", func() {
			tts := &mockTTS{err: errors.New("synthesis failed")}
			p := NewFrameProcessor(tts, &mockImage{}, &mockCompositor{})

			frame := &model.StoryboardFrame{Index: 2, Narration: "旁白"}
			err := p.Process(ctx, frame, cfg, workDir, nil)

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "frame 2 tts")
		})

		Convey("图片生成失败时带上帧号返回", func() {
			image := &mockImage{err: errors.New("no backend")}
			p := NewFrameProcessor(&mockTTS{duration: 1}, image, &mockCompositor{})

			frame := &model.StoryboardFrame{Index: 3, Narration: "旁白", ImagePrompt: "p"}
			err := p.Process(ctx, frame, cfg, workDir, nil)

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "frame 3 image")
		})
	})
}
