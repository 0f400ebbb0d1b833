package capability

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeTool 测试用能力实现
type fakeTool struct {
	name     string
	desc     string
	meta     *Meta
	invokeFn func(ctx context.Context, args Args) (*Result, error)
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return f.desc }

func (f *fakeTool) Invoke(ctx context.Context, args Args) (*Result, error) {
	if f.invokeFn != nil {
		return f.invokeFn(ctx, args)
	}
	return TextResult("ok"), nil
}

func (f *fakeTool) Meta() Meta {
	if f.meta != nil {
		return *f.meta
	}
	return Meta{Description: f.desc}
}

func TestRegistry(t *testing.T) {
	Convey("Registry 注册与查询", t, func() {
		r := NewRegistry()

		Convey("按命名约定注册并可查询", func() {
			r.RegisterAll([]Tool{
				&fakeTool{name: "llm_eino", desc: "eino llm"},
				&fakeTool{name: "tts_volcano", desc: "volcano tts"},
			})

			info, ok := r.Get(TypeLLM, "eino")
			So(ok, ShouldBeTrue)
			So(info.Type, ShouldEqual, TypeLLM)
			So(info.ID, ShouldEqual, "eino")
			So(info.FullID(), ShouldEqual, "llm_eino")

			_, ok = r.Get(TypeLLM, "missing")
			So(ok, ShouldBeFalse)
		})

		Convey("名字不符合约定的工具被跳过", func() {
			r.RegisterAll([]Tool{
				&fakeTool{name: "whatever"},
				&fakeTool{name: "llm_"},
				&fakeTool{name: "llm_good"},
			})

			So(r.IDs(TypeLLM), ShouldResemble, []string{"good"})
		})

		Convey("重复注册保留先注册的实现", func() {
			first := &fakeTool{name: "image_comfyui", desc: "first"}
			second := &fakeTool{name: "image_comfyui", desc: "second"}
			r.RegisterAll([]Tool{first, second})

			info, ok := r.Get(TypeImage, "comfyui")
			So(ok, ShouldBeTrue)
			So(info.Tool, ShouldEqual, first)
			So(len(r.IDs(TypeImage)), ShouldEqual, 1)
		})

		Convey("IDs 与 List 保持注册顺序", func() {
			r.RegisterAll([]Tool{
				&fakeTool{name: "image_comfyui"},
				&fakeTool{name: "image_ark"},
				&fakeTool{name: "image_sd"},
			})

			So(r.IDs(TypeImage), ShouldResemble, []string{"comfyui", "ark", "sd"})

			infos := r.List(TypeImage)
			So(len(infos), ShouldEqual, 3)
			So(infos[0].ID, ShouldEqual, "comfyui")
			So(infos[2].ID, ShouldEqual, "sd")
		})

		Convey("实现 MetaProvider 时使用其元信息", func() {
			r.RegisterAll([]Tool{
				&fakeTool{
					name: "llm_eino",
					meta: &Meta{DisplayName: "Eino", IsDefault: true},
				},
			})

			info, _ := r.Get(TypeLLM, "eino")
			So(info.Meta.DisplayName, ShouldEqual, "Eino")
			So(info.Meta.IsDefault, ShouldBeTrue)
			So(info.DisplayLabel(), ShouldEqual, "Eino")
		})

		Convey("无元信息时展示名回退到完整能力名", func() {
			r.RegisterAll([]Tool{&fakeTool{name: "tts_volcano"}})

			info, _ := r.Get(TypeTTS, "volcano")
			So(info.DisplayLabel(), ShouldEqual, "tts_volcano")
		})
	})
}
