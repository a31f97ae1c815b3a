// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// EventCandidate は抽出器が生成した未保存のイベント候補を表す。
// 日付はISO形式（YYYY-MM-DD）の文字列。EndDateは空の場合がある。
type EventCandidate struct {
	Title       string
	Description string
	StartDate   string
	EndDate     string
	SourceURL   string
	VideoID     string
}

// Event はデータベースに保存されたイベントレコードを表す。
// event_keyはグローバルにユニークで、自動抽出イベントでは
// (video_id, start_date) から決定的に導出される。
// VideoIDは手動作成イベントの場合は空になる。
type Event struct {
	ID          string
	EventKey    string
	GameName    string
	Title       string
	Description string
	StartDate   string
	EndDate     string
	SourceURL   string
	VideoID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventKey は自動抽出イベントのイベントキーを導出する。
// 同じ動画・同じ開始日からは常に同じキーが得られるため、挿入は冪等になる。
func EventKey(videoID, startDate string) string {
	return videoID + "_" + startDate
}

// ManualEventKey は手動作成イベントのイベントキーを生成する。
// 作成時刻のミリ秒で一意化する。
func ManualEventKey(now time.Time) string {
	return fmt.Sprintf("manual_%d", now.UnixMilli())
}
