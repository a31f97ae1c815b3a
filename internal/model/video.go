// Package model はドメインモデルを定義する。
package model

import "time"

// VideoSummary はフィード/HTMLから取得した未保存の動画データを表す。
// フェッチャーの戻り値としてのみ使用される一時的なモデル。
type VideoSummary struct {
	VideoID     string
	Title       string
	Description string
	PublishedAt time.Time
	Thumbnail   string
}

// Video はデータベースに保存された動画レコードを表す。
// video_idはユニークで、初回挿入後は更新されない
// （上流でタイトルや説明が編集されても再同期しない）。
type Video struct {
	ID          string
	ChannelID   string
	VideoID     string
	Title       string
	Description string
	PublishedAt time.Time
	VideoURL    string
	CreatedAt   time.Time
}
