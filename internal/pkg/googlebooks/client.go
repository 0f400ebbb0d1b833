// Package googlebooks 封装 Google Books Volumes 查询接口。
// 参考: https://www.googleapis.com/books/v1/volumes
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config Google Books 配置
type Config struct {
	BaseURL string        // 默认: https://www.googleapis.com/books/v1
	APIKey  string        // 可选,匿名配额不够时使用
	Lang    string        // 限定语言,如 zh/en,可选
	Timeout time.Duration // 默认: 15s
}

// Client Google Books 客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/books/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Volume 查询到的书目信息
type Volume struct {
	Title         string
	Authors       []string
	Description   string
	Categories    []string
	PublishedDate string
	ThumbnailURL  string
	ISBN          string
}

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Authors             []string `json:"authors"`
			Description         string   `json:"description"`
			Categories          []string `json:"categories"`
			PublishedDate       string   `json:"publishedDate"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
			ImageLinks struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// SearchByTitle 按书名查询,返回最匹配的一条;查不到时返回 (nil, nil)
func (c *Client) SearchByTitle(ctx context.Context, title string) (*Volume, error) {
	q := url.Values{}
	q.Set("q", "intitle:"+title)
	q.Set("maxResults", "5")
	q.Set("orderBy", "relevance")
	if c.cfg.Lang != "" {
		q.Set("langRestrict", c.cfg.Lang)
	}
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}

	reqURL := fmt.Sprintf("%s/volumes?%s", strings.TrimSuffix(c.cfg.BaseURL, "/"), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google books request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books API failed, status: %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed volumesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if parsed.TotalItems == 0 || len(parsed.Items) == 0 {
		log.Debug().Str("title", title).Msg("google books 无匹配书目")
		return nil, nil
	}

	// 优先取有简介的条目
	best := parsed.Items[0].VolumeInfo
	for _, item := range parsed.Items {
		if item.VolumeInfo.Description != "" {
			best = item.VolumeInfo
			break
		}
	}

	vol := &Volume{
		Title:         best.Title,
		Authors:       best.Authors,
		Description:   best.Description,
		Categories:    best.Categories,
		PublishedDate: best.PublishedDate,
		ThumbnailURL:  best.ImageLinks.Thumbnail,
	}
	for _, ident := range best.IndustryIdentifiers {
		if ident.Type == "ISBN_13" {
			vol.ISBN = ident.Identifier
			break
		}
		if vol.ISBN == "" && ident.Type == "ISBN_10" {
			vol.ISBN = ident.Identifier
		}
	}
	return vol, nil
}
