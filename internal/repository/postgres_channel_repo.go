package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mizuki/gamecal/internal/model"
)

// PostgresChannelRepo はPostgreSQLを使用したチャンネルリポジトリ。
type PostgresChannelRepo struct {
	db *sql.DB
}

// NewPostgresChannelRepo はPostgresChannelRepoを生成する。
func NewPostgresChannelRepo(db *sql.DB) *PostgresChannelRepo {
	return &PostgresChannelRepo{db: db}
}

const channelColumns = `id, game_name, channel_url, channel_id, created_at, updated_at`

// scanChannel は1行をmodel.Channelに読み取る。
func scanChannel(row interface{ Scan(...any) error }) (*model.Channel, error) {
	ch := &model.Channel{}
	err := row.Scan(&ch.ID, &ch.GameName, &ch.ChannelURL, &ch.ChannelID, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// FindByID は指定IDのチャンネルを取得する。見つからない場合はnilを返す。
func (r *PostgresChannelRepo) FindByID(ctx context.Context, id string) (*model.Channel, error) {
	ch, err := scanChannel(r.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("チャンネルの取得に失敗しました: %w", err)
	}
	return ch, nil
}

// FindByGameName はゲーム名でチャンネルを検索する。見つからない場合はnilを返す。
func (r *PostgresChannelRepo) FindByGameName(ctx context.Context, gameName string) (*model.Channel, error) {
	ch, err := scanChannel(r.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE game_name = $1`, gameName,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ゲーム名によるチャンネルの検索に失敗しました: %w", err)
	}
	return ch, nil
}

// FindByChannelID はYouTubeチャンネルIDでチャンネルを検索する。見つからない場合はnilを返す。
func (r *PostgresChannelRepo) FindByChannelID(ctx context.Context, channelID string) (*model.Channel, error) {
	ch, err := scanChannel(r.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE channel_id = $1`, channelID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("チャンネルIDによるチャンネルの検索に失敗しました: %w", err)
	}
	return ch, nil
}

// ListAll は全チャンネルを登録順（created_at昇順）で返す。
func (r *PostgresChannelRepo) ListAll(ctx context.Context) ([]*model.Channel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+channelColumns+` FROM channels ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("チャンネル一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var channels []*model.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("チャンネル行の読み取りに失敗しました: %w", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("チャンネル一覧の走査に失敗しました: %w", err)
	}

	return channels, nil
}

// Create はチャンネルを作成する。
func (r *PostgresChannelRepo) Create(ctx context.Context, channel *model.Channel) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO channels (id, game_name, channel_url, channel_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		channel.ID, channel.GameName, channel.ChannelURL, channel.ChannelID,
		channel.CreatedAt, channel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("チャンネルの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はチャンネル情報を更新する。
func (r *PostgresChannelRepo) Update(ctx context.Context, channel *model.Channel) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE channels SET
		    game_name = $2, channel_url = $3, channel_id = $4, updated_at = now()
		 WHERE id = $1`,
		channel.ID, channel.GameName, channel.ChannelURL, channel.ChannelID,
	)
	if err != nil {
		return fmt.Errorf("チャンネルの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのチャンネルを削除する。削除対象が存在しない場合はfalseを返す。
func (r *PostgresChannelRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("チャンネルの削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

var _ ChannelRepository = (*PostgresChannelRepo)(nil)
