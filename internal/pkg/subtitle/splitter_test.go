package subtitle

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewSplitter(t *testing.T) {
	Convey("NewSplitter 构造可用的分割器", t, func() {
		s := NewSplitter(14)
		So(s, ShouldNotBeNil)

		Convey("词典加载与否都能切分", func() {
			parts := s.Split("阅读是一种需要长期坚持的习惯养成过程")
			So(len(parts), ShouldBeGreaterThan, 0)
			for _, p := range parts {
				So(len([]rune(p)), ShouldBeLessThanOrEqualTo, 14)
			}
		})
	})
}

func TestSplitterSplit(t *testing.T) {
	Convey("Splitter.Split 切分字幕", t, func() {
		s := NewSplitter(14)

		Convey("空文本返回 nil", func() {
			So(s.Split(""), ShouldBeNil)
			So(s.Split("   \n  "), ShouldBeNil)
		})

		Convey("短句不切分", func() {
			parts := s.Split("这本书讲了什么?")
			So(parts, ShouldResemble, []string{"这本书讲了什么?"})
		})

		Convey("按句末标点切分", func() {
			parts := s.Split("第一句话。第二句话!第三句话?")
			So(len(parts), ShouldEqual, 3)
			So(parts[0], ShouldEqual, "第一句话。")
			So(parts[1], ShouldEqual, "第二句话!")
			So(parts[2], ShouldEqual, "第三句话?")
		})

		Convey("超长句按逗号再切", func() {
			parts := s.Split("这是一个比较长的前半句,后半句也不短。")
			So(len(parts), ShouldEqual, 2)
			So(parts[0], ShouldEqual, "这是一个比较长的前半句,")
			So(parts[1], ShouldEqual, "后半句也不短。")
		})

		Convey("每段都不超过最大长度", func() {
			text := "在这个信息爆炸的时代每个人每天都要面对海量的内容却很少有时间静下心来读完一本书"
			parts := s.Split(text)
			So(len(parts), ShouldBeGreaterThan, 1)
			for _, p := range parts {
				So(len([]rune(p)), ShouldBeLessThanOrEqualTo, 14)
			}
		})

		Convey("切分不丢失内容", func() {
			text := "在这个信息爆炸的时代,每个人每天都要面对海量的内容。很少有时间静下心来读完一本书!"
			parts := s.Split(text)
			So(strings.Join(parts, ""), ShouldEqual, text)
		})

		Convey("单字符尾段并入前一段", func() {
			parts := s.Split("一段正常长度的句子。嗯。")
			So(parts[len(parts)-1], ShouldEndWith, "嗯。")
			for _, p := range parts {
				So(len([]rune(stripPunct(p))), ShouldBeGreaterThan, 1)
			}
		})
	})
}

func TestSplitterDefaults(t *testing.T) {
	Convey("NewSplitter 非法参数回退默认值", t, func() {
		s := NewSplitter(0)
		So(s.maxRunes, ShouldEqual, 14)

		s = NewSplitter(-3)
		So(s.maxRunes, ShouldEqual, 14)
	})
}
