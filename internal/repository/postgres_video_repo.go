package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mizuki/gamecal/internal/model"
)

// PostgresVideoRepo はPostgreSQLを使用した動画リポジトリ。
type PostgresVideoRepo struct {
	db *sql.DB
}

// NewPostgresVideoRepo はPostgresVideoRepoを生成する。
func NewPostgresVideoRepo(db *sql.DB) *PostgresVideoRepo {
	return &PostgresVideoRepo{db: db}
}

// InsertIfAbsent はvideo_idをキーに動画を冪等に挿入する。
// ON CONFLICT DO NOTHINGにより、既存の動画は初回挿入時の内容を維持する
// （上流でタイトルや説明が編集されても再同期しない）。
func (r *PostgresVideoRepo) InsertIfAbsent(ctx context.Context, video *model.Video) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO videos (id, channel_id, video_id, title, description, published_at, video_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (video_id) DO NOTHING`,
		video.ID, video.ChannelID, video.VideoID, video.Title,
		nullString(video.Description), video.PublishedAt, video.VideoURL, video.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("動画の挿入に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("挿入件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

var _ VideoRepository = (*PostgresVideoRepo)(nil)
