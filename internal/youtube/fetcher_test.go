package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mizuki/gamecal/internal/model"
)

// mockSSRFGuard はSSRFValidatorのテスト用モック。
type mockSSRFGuard struct {
	validateErr error
}

func (m *mockSSRFGuard) ValidateURL(_ string) error {
	return m.validateErr
}

func (m *mockSSRFGuard) NewSafeClient(timeout time.Duration, _ int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

// mockFallbackRecorder はFallbackRecorderのテスト用モック。
type mockFallbackRecorder struct {
	count     int
	channelID string
}

func (m *mockFallbackRecorder) RecordFetchFallback(channelID string) {
	m.count++
	m.channelID = channelID
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// newTestFetcher はテスト用のFetcherを生成し、RSSとページのURLを
// テストサーバーに向ける。
func newTestFetcher(feedServerURL, pageServerURL string) *Fetcher {
	var buf bytes.Buffer
	f := NewFetcher(&mockSSRFGuard{}, nil, newTestLogger(&buf), 5*time.Second, 5*1024*1024)
	f.feedURLFunc = func(_ string) string { return feedServerURL }
	f.pageURLFunc = func(_ string) string { return pageServerURL }
	return f
}

// atomFeedXML はYouTube形式のAtomフィードを生成する。
func atomFeedXML(entries string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"
      xmlns:yt="http://www.youtube.com/xml/schemas/2015"
      xmlns:media="http://search.yahoo.com/mrss/">
  <title>Game Channel</title>
%s
</feed>`, entries)
}

const atomEntry1 = `  <entry>
    <id>yt:video:dQw4w9WgXcQ</id>
    <yt:videoId>dQw4w9WgXcQ</yt:videoId>
    <title>이벤트 안내 9월 5일</title>
    <published>2026-08-30T10:00:00+00:00</published>
    <media:group>
      <media:description>이벤트 기간: 2026-09-05</media:description>
      <media:thumbnail url="https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg"/>
    </media:group>
  </entry>`

const atomEntry2 = `  <entry>
    <id>yt:video:abcdefghijk</id>
    <yt:videoId>abcdefghijk</yt:videoId>
    <title>패치 노트</title>
    <published>2026-08-29T10:00:00+00:00</published>
  </entry>`

func TestFetcher_FetchRecent_RSSSuccess(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, atomFeedXML(atomEntry1+"\n"+atomEntry2))
	}))
	defer feedServer.Close()

	fallbackCalled := false
	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fallbackCalled = true
		w.WriteHeader(http.StatusOK)
	}))
	defer pageServer.Close()

	f := newTestFetcher(feedServer.URL, pageServer.URL)

	videos, err := f.FetchRecent(context.Background(), "UCtest", 10)
	if err != nil {
		t.Fatalf("FetchRecent() がエラーを返した: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("動画数 = %d, want 2", len(videos))
	}
	if fallbackCalled {
		t.Error("RSS成功時にフォールバックが呼ばれてはならない")
	}

	v := videos[0]
	if v.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q, want %q", v.VideoID, "dQw4w9WgXcQ")
	}
	if v.Title != "이벤트 안내 9월 5일" {
		t.Errorf("Title = %q, want %q", v.Title, "이벤트 안내 9월 5일")
	}
	if v.Description != "이벤트 기간: 2026-09-05" {
		t.Errorf("Description = %q, want %q", v.Description, "이벤트 기간: 2026-09-05")
	}
	if v.Thumbnail != "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg" {
		t.Errorf("Thumbnail = %q, want media拡張のURL", v.Thumbnail)
	}
	if v.PublishedAt.IsZero() {
		t.Error("PublishedAt がゼロ値であってはならない")
	}

	// media拡張のないエントリはデフォルトサムネイルURLになる
	if videos[1].Thumbnail != "https://i.ytimg.com/vi/abcdefghijk/default.jpg" {
		t.Errorf("Thumbnail = %q, want デフォルトサムネイルURL", videos[1].Thumbnail)
	}
	if videos[1].Description != "" {
		t.Errorf("Description = %q, want 空文字列", videos[1].Description)
	}
}

func TestFetcher_FetchRecent_SkipsMalformedEntries(t *testing.T) {
	// videoId・タイトル・公開日時のいずれかが欠けたエントリはスキップされる
	malformed := `  <entry>
    <id>yt:video:lmnopqrstuv</id>
    <yt:videoId>lmnopqrstuv</yt:videoId>
    <published>2026-08-28T10:00:00+00:00</published>
  </entry>
  <entry>
    <title>published欠落の動画</title>
    <yt:videoId>vwxyzabcdef</yt:videoId>
  </entry>`

	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, atomFeedXML(atomEntry1+"\n"+malformed))
	}))
	defer feedServer.Close()

	f := newTestFetcher(feedServer.URL, "http://unused.invalid")

	videos, err := f.FetchRecent(context.Background(), "UCtest", 10)
	if err != nil {
		t.Fatalf("FetchRecent() がエラーを返した: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("動画数 = %d, want 1（不正エントリはスキップ）", len(videos))
	}
	if videos[0].VideoID != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q, want %q", videos[0].VideoID, "dQw4w9WgXcQ")
	}
}

func TestFetcher_FetchRecent_TruncatesToLimit(t *testing.T) {
	var entries bytes.Buffer
	for i := 0; i < 15; i++ {
		id := fmt.Sprintf("video%06d_", i)
		fmt.Fprintf(&entries, `  <entry>
    <yt:videoId>%s</yt:videoId>
    <title>動画 %d</title>
    <published>2026-08-30T10:00:00+00:00</published>
  </entry>
`, id, i)
	}

	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, atomFeedXML(entries.String()))
	}))
	defer feedServer.Close()

	f := newTestFetcher(feedServer.URL, "http://unused.invalid")

	videos, err := f.FetchRecent(context.Background(), "UCtest", 10)
	if err != nil {
		t.Fatalf("FetchRecent() がエラーを返した: %v", err)
	}
	if len(videos) != 10 {
		t.Errorf("動画数 = %d, want 10（limitで打ち切り）", len(videos))
	}
}

func TestFetcher_FetchRecent_FallbackOnRSSFailure(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer feedServer.Close()

	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>
<a href="/watch?v=dQw4w9WgXcQ" title="업데이트 공지">업데이트 공지</a>
</body></html>`)
	}))
	defer pageServer.Close()

	f := newTestFetcher(feedServer.URL, pageServer.URL)

	videos, err := f.FetchRecent(context.Background(), "UCtest", 10)
	if err != nil {
		t.Fatalf("FetchRecent() がエラーを返した: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("動画数 = %d, want 1", len(videos))
	}
	if videos[0].VideoID != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q, want %q", videos[0].VideoID, "dQw4w9WgXcQ")
	}
	if videos[0].Title != "업데이트 공지" {
		t.Errorf("Title = %q, want %q", videos[0].Title, "업데이트 공지")
	}
	if videos[0].Description != "" {
		t.Errorf("Description = %q, want 空文字列", videos[0].Description)
	}
	if videos[0].PublishedAt.IsZero() {
		t.Error("フォールバック動画のPublishedAtは現在時刻であるべき")
	}
}

func TestFetcher_FetchRecent_RecordsFallback(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer feedServer.Close()

	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/watch?v=abcdefghijk">공지</a></body></html>`)
	}))
	defer pageServer.Close()

	recorder := &mockFallbackRecorder{}
	f := newTestFetcher(feedServer.URL, pageServer.URL)
	f.fallbacks = recorder

	if _, err := f.FetchRecent(context.Background(), "UCtest", 10); err != nil {
		t.Fatalf("FetchRecent() がエラーを返した: %v", err)
	}
	if recorder.count != 1 {
		t.Errorf("フォールバック記録回数 = %d, want 1", recorder.count)
	}
	if recorder.channelID != "UCtest" {
		t.Errorf("記録されたチャンネルID = %q, want %q", recorder.channelID, "UCtest")
	}
}

func TestFetcher_FetchRecent_FallbackOnEmptyRSS(t *testing.T) {
	// フェッチ成功かつ0件もフォールバック対象
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, atomFeedXML(""))
	}))
	defer feedServer.Close()

	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/watch?v=abcdefghijk">점검 안내</a></body></html>`)
	}))
	defer pageServer.Close()

	f := newTestFetcher(feedServer.URL, pageServer.URL)

	videos, err := f.FetchRecent(context.Background(), "UCtest", 10)
	if err != nil {
		t.Fatalf("FetchRecent() がエラーを返した: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("動画数 = %d, want 1", len(videos))
	}
}

func TestFetcher_FetchRecent_BothSourcesFail(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer feedServer.Close()

	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer pageServer.Close()

	f := newTestFetcher(feedServer.URL, pageServer.URL)

	_, err := f.FetchRecent(context.Background(), "UCtest", 10)
	if err == nil {
		t.Fatal("両経路失敗時はエラーを返すべき")
	}

	var fetchFailure *model.FetchFailure
	if !errors.As(err, &fetchFailure) {
		t.Fatalf("エラーの型 = %T, want *model.FetchFailure", err)
	}
	if fetchFailure.ChannelID != "UCtest" {
		t.Errorf("ChannelID = %q, want %q", fetchFailure.ChannelID, "UCtest")
	}
}

func TestFetcher_FetchRecent_SSRFValidationFailure(t *testing.T) {
	var buf bytes.Buffer
	f := NewFetcher(
		&mockSSRFGuard{validateErr: errors.New("プライベートIPへのアクセスは禁止されています")},
		nil,
		newTestLogger(&buf),
		5*time.Second,
		5*1024*1024,
	)

	_, err := f.FetchRecent(context.Background(), "UCtest", 10)
	if err == nil {
		t.Fatal("SSRF検証失敗時はエラーを返すべき")
	}

	var fetchFailure *model.FetchFailure
	if !errors.As(err, &fetchFailure) {
		t.Fatalf("エラーの型 = %T, want *model.FetchFailure", err)
	}
}
