package youtube

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/mizuki/gamecal/internal/model"
)

// fetchOutcome はプライマリソース（RSS）のフェッチ結果の分類。
type fetchOutcome int

const (
	// outcomeSuccess は1件以上の動画を取得できた状態。
	outcomeSuccess fetchOutcome = iota
	// outcomeEmpty はフェッチは成功したが動画が0件の状態。フォールバック対象。
	outcomeEmpty
	// outcomeFailure はHTTPエラーやパースエラーで取得できなかった状態。フォールバック対象。
	outcomeFailure
)

// FeedFetcher はチャンネルの最近の動画一覧を取得する。
type FeedFetcher interface {
	// FetchRecent はチャンネルの最近の動画を最大limit件取得する。
	// RSSフィードを第一経路とし、失敗または0件の場合は動画一覧ページの
	// HTMLスクレイピングにフォールバックする。両経路とも失敗した場合は
	// FetchFailureを返す。
	FetchRecent(ctx context.Context, channelID string, limit int) ([]model.VideoSummary, error)
}

// FallbackRecorder はHTMLフォールバックへの切り替えを記録する。
type FallbackRecorder interface {
	RecordFetchFallback(channelID string)
}

// Fetcher はRSSフィードとHTMLフォールバックによる動画取得を行う。
// FeedFetcherインターフェースを実装する。
type Fetcher struct {
	ssrfGuard       SSRFValidator
	fallbacks       FallbackRecorder
	logger          *slog.Logger
	timeout         time.Duration
	maxResponseSize int64

	// URL構築関数。テストで差し替え可能にするためフィールドに持つ。
	feedURLFunc func(channelID string) string
	pageURLFunc func(channelID string) string
}

var _ FeedFetcher = (*Fetcher)(nil)

// NewFetcher はFetcherの新しいインスタンスを生成する。fallbacksはnilでもよい。
func NewFetcher(ssrfGuard SSRFValidator, fallbacks FallbackRecorder, logger *slog.Logger, timeout time.Duration, maxResponseSize int64) *Fetcher {
	return &Fetcher{
		ssrfGuard:       ssrfGuard,
		fallbacks:       fallbacks,
		logger:          logger,
		timeout:         timeout,
		maxResponseSize: maxResponseSize,
		feedURLFunc:     FeedURL,
		pageURLFunc:     VideosPageURL,
	}
}

// FetchRecent はチャンネルの最近の動画を最大limit件取得する。
func (f *Fetcher) FetchRecent(ctx context.Context, channelID string, limit int) ([]model.VideoSummary, error) {
	start := time.Now()

	videos, outcome := f.fetchRSS(ctx, channelID, limit)
	if outcome == outcomeSuccess {
		f.logger.Info("RSSフィードから動画を取得しました",
			slog.String("channel_id", channelID),
			slog.Int("videos_count", len(videos)),
			slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
		)
		return videos, nil
	}

	f.logger.Warn("RSSフィードが利用できないためHTMLフォールバックを試みます",
		slog.String("channel_id", channelID),
		slog.Bool("rss_empty", outcome == outcomeEmpty),
	)
	if f.fallbacks != nil {
		f.fallbacks.RecordFetchFallback(channelID)
	}

	videos, err := f.fetchVideosPage(ctx, channelID, limit)
	if err != nil {
		f.logger.Error("RSSとHTMLフォールバックの両方が失敗しました",
			slog.String("channel_id", channelID),
			slog.String("error", err.Error()),
		)
		return nil, &model.FetchFailure{ChannelID: channelID, Err: err}
	}

	f.logger.Info("HTMLフォールバックから動画を取得しました",
		slog.String("channel_id", channelID),
		slog.Int("videos_count", len(videos)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return videos, nil
}

// fetchRSS はRSSフィードから動画一覧を取得し、結果を3値に分類する。
func (f *Fetcher) fetchRSS(ctx context.Context, channelID string, limit int) ([]model.VideoSummary, fetchOutcome) {
	feedURL := f.feedURLFunc(channelID)

	body, err := f.fetchBody(ctx, feedURL, "application/atom+xml, application/xml, text/xml, */*")
	if err != nil {
		f.logger.Warn("RSSフィードの取得に失敗しました",
			slog.String("channel_id", channelID),
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		return nil, outcomeFailure
	}

	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		f.logger.Warn("RSSフィードのパースに失敗しました",
			slog.String("channel_id", channelID),
			slog.String("error", err.Error()),
		)
		return nil, outcomeFailure
	}

	videos := convertFeedItems(parsedFeed.Items, limit)
	if len(videos) == 0 {
		return nil, outcomeEmpty
	}
	return videos, outcomeSuccess
}

// fetchBody はSSRF検証付きでURLのボディを取得する。
func (f *Fetcher) fetchBody(ctx context.Context, rawURL, accept string) ([]byte, error) {
	if err := f.ssrfGuard.ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("SSRF検証に失敗しました: %w", err)
	}

	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxResponseSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの生成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("異常なHTTPステータスが返されました: status=%d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスの読み取りに失敗しました: %w", err)
	}
	return body, nil
}

// convertFeedItems はgofeedの記事をVideoSummaryに変換する。
// videoId・タイトル・公開日時のいずれかが欠けた記事はスキップする。
func convertFeedItems(items []*gofeed.Item, limit int) []model.VideoSummary {
	videos := make([]model.VideoSummary, 0, limit)

	for _, item := range items {
		if len(videos) >= limit {
			break
		}
		if item == nil {
			continue
		}

		videoID := feedItemVideoID(item)
		if videoID == "" || item.Title == "" || item.PublishedParsed == nil {
			// 不正な記事はエラーとせずスキップ
			continue
		}

		videos = append(videos, model.VideoSummary{
			VideoID:     videoID,
			Title:       item.Title,
			Description: feedItemDescription(item),
			PublishedAt: *item.PublishedParsed,
			Thumbnail:   feedItemThumbnail(item, videoID),
		})
	}

	return videos
}

// feedItemVideoID はYouTube名前空間拡張またはGUIDから動画IDを取り出す。
func feedItemVideoID(item *gofeed.Item) string {
	if ext, ok := item.Extensions["yt"]; ok {
		if ids, ok := ext["videoId"]; ok && len(ids) > 0 {
			return ids[0].Value
		}
	}
	// YouTubeのAtomフィードはGUIDに yt:video:<ID> 形式を使う
	if strings.HasPrefix(item.GUID, "yt:video:") {
		return strings.TrimPrefix(item.GUID, "yt:video:")
	}
	return ""
}

// feedItemDescription は説明文を取り出す。Descriptionが空の場合は
// media:group拡張のdescriptionを使う。
func feedItemDescription(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	if ext, ok := item.Extensions["media"]; ok {
		for _, group := range ext["group"] {
			for _, desc := range group.Children["description"] {
				if desc.Value != "" {
					return desc.Value
				}
			}
		}
	}
	return ""
}

// feedItemThumbnail はmedia拡張のサムネイルURLを取り出す。
// 見つからない場合は動画IDからデフォルトサムネイルURLを構築する。
func feedItemThumbnail(item *gofeed.Item, videoID string) string {
	if ext, ok := item.Extensions["media"]; ok {
		for _, group := range ext["group"] {
			for _, thumb := range group.Children["thumbnail"] {
				if u, ok := thumb.Attrs["url"]; ok && u != "" {
					return u
				}
			}
		}
	}
	return ThumbnailURL(videoID)
}
