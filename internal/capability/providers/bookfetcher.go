package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"bookreel/internal/capability"
	"bookreel/internal/model"
	"bookreel/internal/pkg/googlebooks"
)

// googleBooksTool Google Books 书籍信息获取能力
type googleBooksTool struct{}

func (t *googleBooksTool) Name() string {
	return capability.ToolName(capability.TypeBookFetcher, "google")
}

func (t *googleBooksTool) Description() string {
	return "Google Books 书籍元信息查询"
}

func (t *googleBooksTool) Meta() capability.Meta {
	return capability.Meta{
		DisplayName: "Google Books",
		Description: t.Description(),
		IsDefault:   true,
	}
}

// Invoke 查询书籍信息。Result.Raw 为 *model.BookInfo,Parts 为其 JSON 文本。
// 查不到书目时返回空 Parts,由上层决定降级策略。
func (t *googleBooksTool) Invoke(ctx context.Context, args capability.Args) (*capability.Result, error) {
	bookName, err := requireString(args, "book_name")
	if err != nil {
		return nil, err
	}

	client := googlebooks.NewClient(googlebooks.Config{
		BaseURL: argString(args, "base_url"),
		APIKey:  argString(args, "api_key"),
		Lang:    argString(args, "lang"),
	})

	volume, err := client.SearchByTitle(ctx, bookName)
	if err != nil {
		return nil, err
	}
	if volume == nil {
		return &capability.Result{}, nil
	}

	info := &model.BookInfo{
		Title:           volume.Title,
		Author:          strings.Join(volume.Authors, ", "),
		Summary:         volume.Description,
		Genre:           strings.Join(volume.Categories, ", "),
		PublicationYear: publicationYear(volume.PublishedDate),
		CoverURL:        volume.ThumbnailURL,
		ISBN:            volume.ISBN,
		Source:          "google_books",
	}

	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("marshal book info: %w", err)
	}

	out := capability.TextResult(string(data))
	out.Raw = info
	return out, nil
}

// publicationYear 从 publishedDate 里取年份部分（格式可能是 2006 或 2006-01-02）
func publicationYear(publishedDate string) string {
	if len(publishedDate) >= 4 {
		return publishedDate[:4]
	}
	return publishedDate
}
