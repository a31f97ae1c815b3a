// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/mizuki/gamecal/internal/model"
)

// ChannelRepository はチャンネルデータの永続化インターフェース。
type ChannelRepository interface {
	// FindByID は指定IDのチャンネルを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Channel, error)

	// FindByGameName はゲーム名でチャンネルを検索する。見つからない場合はnilを返す。
	FindByGameName(ctx context.Context, gameName string) (*model.Channel, error)

	// FindByChannelID はYouTubeチャンネルIDでチャンネルを検索する。見つからない場合はnilを返す。
	FindByChannelID(ctx context.Context, channelID string) (*model.Channel, error)

	// ListAll は全チャンネルを登録順（created_at昇順）で返す。
	// スケジューラはこの順序でチャンネルを逐次処理する。
	ListAll(ctx context.Context) ([]*model.Channel, error)

	// Create はチャンネルを作成する。
	Create(ctx context.Context, channel *model.Channel) error

	// Update はチャンネル情報を更新する。
	Update(ctx context.Context, channel *model.Channel) error

	// DeleteByID は指定IDのチャンネルを削除する。
	// 削除対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// VideoRepository は動画データの永続化インターフェース。
// 動画は初回挿入後に更新されない（insert-only）。
type VideoRepository interface {
	// InsertIfAbsent はvideo_idをキーに動画を冪等に挿入する。
	// 既に存在する場合は何もせずfalseを返す。
	InsertIfAbsent(ctx context.Context, video *model.Video) (bool, error)
}

// EventRepository はイベントデータの永続化インターフェース。
// event_keyのユニーク制約により、同時挿入の競合は敗者側が
// 非エラーのno-opとして扱われる。
type EventRepository interface {
	// ExistsByKey は指定event_keyのイベントが存在するかを返す。
	ExistsByKey(ctx context.Context, eventKey string) (bool, error)

	// InsertIfAbsent はevent_keyをキーにイベントを冪等に挿入する。
	// 既に存在する場合（挿入が競合した場合を含む）は何もせずfalseを返す。
	InsertIfAbsent(ctx context.Context, event *model.Event) (bool, error)

	// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Event, error)

	// ListAll は全イベントをstart_date昇順で返す。
	ListAll(ctx context.Context) ([]*model.Event, error)

	// ListByGameName はゲーム名でイベントをstart_date昇順で返す。
	ListByGameName(ctx context.Context, gameName string) ([]*model.Event, error)

	// ListByDateRange は期間と重なるイベントをstart_date昇順で返す。
	// 重なり判定: start_date <= endDate AND (end_date IS NULL OR end_date >= startDate)
	ListByDateRange(ctx context.Context, startDate, endDate string) ([]*model.Event, error)

	// Update はイベントを更新する。更新対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, event *model.Event) (bool, error)

	// DeleteByID は指定IDのイベントを削除する。削除対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// DeleteByVideoID は指定動画に紐づくイベントを一括削除し、削除件数を返す。
	DeleteByVideoID(ctx context.Context, videoID string) (int, error)
}
