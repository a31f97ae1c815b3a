// Package youtube はYouTubeチャンネルの動画取得とチャンネルID解決を提供する。
// RSSフィードを第一経路、チャンネルページのHTMLスクレイピングを
// フォールバック経路とする二段構えのフェッチ戦略を実装する。
package youtube

import (
	"fmt"
	"net/url"
	"regexp"
)

// channelIDPathPattern は /channel/ID 形式のURLパスからIDを取り出すパターン。
// /@handle、/c/custom、/user/username はHTMLからの解決が必要。
var channelIDPathPattern = regexp.MustCompile(`/channel/([a-zA-Z0-9_-]+)`)

// videoIDPattern は watch URL から11文字の動画IDを取り出すパターン。
var videoIDPattern = regexp.MustCompile(`v=([a-zA-Z0-9_-]{11})`)

// FeedURL はチャンネルIDからRSSフィードURLを生成する。
func FeedURL(channelID string) string {
	return fmt.Sprintf("https://www.youtube.com/feeds/videos.xml?channel_id=%s", channelID)
}

// VideosPageURL はチャンネルIDから動画一覧ページのURLを生成する。
// HTMLフォールバックのフェッチ先。
func VideosPageURL(channelID string) string {
	return fmt.Sprintf("https://www.youtube.com/channel/%s/videos", channelID)
}

// WatchURL は動画IDから視聴ページのURLを生成する。
func WatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// ThumbnailURL は動画IDからデフォルトサムネイルのURLを生成する。
func ThumbnailURL(videoID string) string {
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/default.jpg", videoID)
}

// ExtractChannelIDFromURL はチャンネルURLから直接チャンネルIDを取り出す。
// /channel/ID 形式のみ対応し、ハンドルやカスタムURLなど
// HTML解決が必要な形式では空文字列を返す。
func ExtractChannelIDFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	host := parsed.Hostname()
	if host != "youtube.com" && host != "www.youtube.com" {
		return ""
	}

	if m := channelIDPathPattern.FindStringSubmatch(parsed.Path); m != nil {
		return m[1]
	}

	// ハンドル・カスタムURL・レガシーユーザー名はページHTMLからの解決が必要
	return ""
}

// extractVideoID はhref文字列から動画IDを取り出す。見つからない場合は空文字列。
func extractVideoID(href string) string {
	if m := videoIDPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}
