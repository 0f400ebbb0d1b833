package service

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"bookreel/internal/capability"
	"bookreel/internal/model"
)

func TestBookFetcherService(t *testing.T) {
	Convey("BookFetcherService.Fetch 获取书籍信息", t, func() {
		ctx := context.Background()

		Convey("书名为空时拒绝", func() {
			s := NewBookFetcherService(&mockRouter{}, &mockLLM{}, nil)

			_, err := s.Fetch(ctx, "", "")
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
		})

		Convey("能力返回的结构化结果直接使用", func() {
			want := &model.BookInfo{Title: "原则", Author: "瑞·达利欧", Source: "google_books"}
			router := &mockRouter{
				callFn: func(ctx context.Context, capType string, args capability.Args) (*capability.Result, error) {
					So(capType, ShouldEqual, capability.TypeBookFetcher)
					So(args["book_name"], ShouldEqual, "原则")
					return &capability.Result{Raw: want}, nil
				},
			}
			llm := &mockLLM{}
			s := NewBookFetcherService(router, llm, nil)

			info, err := s.Fetch(ctx, "原则", "")
			So(err, ShouldBeNil)
			So(info, ShouldEqual, want)
			So(llm.calls, ShouldEqual, 0)
		})

		Convey("能力查不到书目时降级到 LLM", func() {
			router := &mockRouter{
				callFn: func(ctx context.Context, capType string, args capability.Args) (*capability.Result, error) {
					return &capability.Result{}, nil
				},
			}
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					return `{"title": "某本冷门书", "summary": "简介", "genre": "小说"}`, nil
				},
			}
			s := NewBookFetcherService(router, llm, nil)

			info, err := s.Fetch(ctx, "某本冷门书", "无名氏")
			So(err, ShouldBeNil)
			So(info.Title, ShouldEqual, "某本冷门书")
			So(info.Author, ShouldEqual, "无名氏")
			So(info.Source, ShouldEqual, "llm")
			So(llm.calls, ShouldEqual, 1)
		})

		Convey("能力调用失败时降级到 LLM", func() {
			router := &mockRouter{
				callFn: func(ctx context.Context, capType string, args capability.Args) (*capability.Result, error) {
					return nil, errors.New("api unreachable")
				},
			}
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					return `{"title": "T", "author": "A"}`, nil
				},
			}
			s := NewBookFetcherService(router, llm, nil)

			info, err := s.Fetch(ctx, "T", "")
			So(err, ShouldBeNil)
			So(info.Title, ShouldEqual, "T")
			So(info.Author, ShouldEqual, "A")
			So(info.Source, ShouldEqual, "llm")
		})

		Convey("LLM 降级也失败时返回错误", func() {
			router := &mockRouter{
				callFn: func(ctx context.Context, capType string, args capability.Args) (*capability.Result, error) {
					return nil, errors.New("api unreachable")
				},
			}
			llm := &mockLLM{
				generateFn: func(ctx context.Context, prompt string, opts *LLMOptions) (string, error) {
					return "不是 JSON", nil
				},
			}
			s := NewBookFetcherService(router, llm, nil)

			_, err := s.Fetch(ctx, "T", "")
			So(errors.Is(err, ErrInvalidLLMOutput), ShouldBeTrue)
		})

		Convey("能力返回的文本 JSON 也能解析", func() {
			router := &mockRouter{
				callFn: func(ctx context.Context, capType string, args capability.Args) (*capability.Result, error) {
					return capability.TextResult(`{"title": "小王子", "author": "圣埃克苏佩里"}`), nil
				},
			}
			llm := &mockLLM{}
			s := NewBookFetcherService(router, llm, nil)

			info, err := s.Fetch(ctx, "小王子", "")
			So(err, ShouldBeNil)
			So(info.Title, ShouldEqual, "小王子")
			So(llm.calls, ShouldEqual, 0)
		})
	})
}
