package youtube

import (
	"bytes"
	"context"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mizuki/gamecal/internal/model"
)

// defaultVideoTitle はフォールバック経路でタイトルを取得できなかった場合の既定値。
const defaultVideoTitle = "Untitled Video"

// fetchVideosPage は動画一覧ページのHTMLから動画リンクを抽出する。
// RSSフィードが利用できない場合のフォールバック経路。
func (f *Fetcher) fetchVideosPage(ctx context.Context, channelID string, limit int) ([]model.VideoSummary, error) {
	pageURL := f.pageURLFunc(channelID)

	body, err := f.fetchBody(ctx, pageURL, "text/html, */*")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return extractWatchLinks(body, limit, now), nil
}

// extractWatchLinks はHTMLからwatchリンクのアンカーを抽出してVideoSummaryに変換する。
// 同一動画IDの重複リンクは最初の1件のみ採用する。
func extractWatchLinks(htmlBody []byte, limit int, publishedAt time.Time) []model.VideoSummary {
	videos := make([]model.VideoSummary, 0, limit)
	seen := make(map[string]bool)

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))

	// 現在開いているwatchリンクアンカーの状態
	var currentVideoID string
	var currentTitle string
	var textParts []string

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return videos

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			if string(tn) != "a" || !hasAttr {
				continue
			}

			var href, title string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "href":
					href = string(val)
				case "title":
					title = string(val)
				}
				if !more {
					break
				}
			}

			if !strings.Contains(href, "/watch?v=") {
				continue
			}
			videoID := extractVideoID(href)
			if videoID == "" {
				continue
			}

			currentVideoID = videoID
			currentTitle = title
			textParts = textParts[:0]

		case html.TextToken:
			if currentVideoID != "" {
				textParts = append(textParts, string(tokenizer.Text()))
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) != "a" || currentVideoID == "" {
				continue
			}

			if !seen[currentVideoID] {
				seen[currentVideoID] = true

				title := strings.TrimSpace(currentTitle)
				if title == "" {
					title = strings.TrimSpace(strings.Join(textParts, ""))
				}
				if title == "" {
					title = defaultVideoTitle
				}

				videos = append(videos, model.VideoSummary{
					VideoID:     currentVideoID,
					Title:       title,
					Description: "",
					PublishedAt: publishedAt,
					Thumbnail:   ThumbnailURL(currentVideoID),
				})

				if len(videos) >= limit {
					return videos
				}
			}

			currentVideoID = ""
			currentTitle = ""
		}
	}
}
