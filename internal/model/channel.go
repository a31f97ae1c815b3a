// Package model はドメインモデルを定義する。
package model

import "time"

// Channel は追跡対象のYouTubeチャンネルを表す。
// ゲーム1つにつきチャンネル1つ（game_nameはユニーク）。
// channel_idは登録・更新時に1回だけ解決され、パイプラインは再解決しない。
type Channel struct {
	ID         string
	GameName   string
	ChannelURL string
	ChannelID  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
