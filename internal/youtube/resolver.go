package youtube

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/mizuki/gamecal/internal/model"
)

// チャンネルページHTMLからチャンネルIDを探すパターン。
// 上から順に試し、最初にマッチしたものを採用する。
var (
	externalIDPattern  = regexp.MustCompile(`"externalId":"(UC[a-zA-Z0-9_-]+)"`)
	browseIDPattern    = regexp.MustCompile(`"browseId":"(UC[a-zA-Z0-9_-]+)"`)
	channelHrefPattern = regexp.MustCompile(`href="/channel/(UC[a-zA-Z0-9_-]+)"`)
)

// ChannelResolver はチャンネルURLをチャンネルIDへ解決する。
type ChannelResolver interface {
	// Resolve はチャンネルURLからチャンネルIDを解決する。
	// /channel/ID 形式はHTTPアクセスなしで解決し、ハンドルや
	// カスタムURLはページHTMLを取得してIDを探す。
	Resolve(ctx context.Context, channelURL string) (string, error)
}

// SSRFValidator はURLの検証とSSRF対策済みHTTPクライアントの生成を提供する。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

type channelResolver struct {
	ssrfGuard       SSRFValidator
	logger          *slog.Logger
	timeout         time.Duration
	maxResponseSize int64
}

// NewChannelResolver はChannelResolverを生成する。
func NewChannelResolver(ssrfGuard SSRFValidator, logger *slog.Logger, timeout time.Duration, maxResponseSize int64) ChannelResolver {
	return &channelResolver{
		ssrfGuard:       ssrfGuard,
		logger:          logger,
		timeout:         timeout,
		maxResponseSize: maxResponseSize,
	}
}

func (r *channelResolver) Resolve(ctx context.Context, channelURL string) (string, error) {
	if err := r.ssrfGuard.ValidateURL(channelURL); err != nil {
		return "", fmt.Errorf("チャンネルURLの検証に失敗しました: %w", err)
	}

	// /channel/ID 形式はHTTPアクセス不要
	if id := ExtractChannelIDFromURL(channelURL); id != "" {
		return id, nil
	}

	body, err := r.fetchPage(ctx, channelURL)
	if err != nil {
		r.logger.Warn("チャンネルページの取得に失敗しました",
			slog.String("channel_url", channelURL),
			slog.String("error", err.Error()),
		)
		return "", &model.ResolutionFailure{ChannelURL: channelURL}
	}

	for _, pattern := range []*regexp.Regexp{externalIDPattern, browseIDPattern, channelHrefPattern} {
		if m := pattern.FindSubmatch(body); m != nil {
			return string(m[1]), nil
		}
	}

	r.logger.Warn("チャンネルページからチャンネルIDを抽出できませんでした",
		slog.String("channel_url", channelURL),
	)
	return "", &model.ResolutionFailure{ChannelURL: channelURL}
}

func (r *channelResolver) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	client := r.ssrfGuard.NewSafeClient(r.timeout, r.maxResponseSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの生成に失敗しました: %w", err)
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("チャンネルページの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("チャンネルページが異常なステータスを返しました: status=%d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスの読み取りに失敗しました: %w", err)
	}

	return body, nil
}
