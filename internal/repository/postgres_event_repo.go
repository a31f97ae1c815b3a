package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mizuki/gamecal/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用したイベントリポジトリ。
// event_keyのユニーク制約がパイプラインの冪等性の最終的な安全網となる。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// 日付カラムはISO文字列（YYYY-MM-DD）としてモデルと往復する。
const eventColumns = `id, event_key, game_name, title, description,
	        start_date::text, end_date::text, source_url, video_id, created_at, updated_at`

// scanEvent は1行をmodel.Eventに読み取る。
func scanEvent(row interface{ Scan(...any) error }) (*model.Event, error) {
	ev := &model.Event{}
	var description, endDate, videoID sql.NullString

	err := row.Scan(
		&ev.ID, &ev.EventKey, &ev.GameName, &ev.Title, &description,
		&ev.StartDate, &endDate, &ev.SourceURL, &videoID,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ev.Description = nullStringValue(description)
	ev.EndDate = nullStringValue(endDate)
	ev.VideoID = nullStringValue(videoID)
	return ev, nil
}

// ExistsByKey は指定event_keyのイベントが存在するかを返す。
func (r *PostgresEventRepo) ExistsByKey(ctx context.Context, eventKey string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE event_key = $1)`, eventKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("イベントの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// InsertIfAbsent はevent_keyをキーにイベントを冪等に挿入する。
// 同時挿入が競合した場合はユニーク制約が敗者側の挿入を拒否し、
// falseが返る（非エラーのno-op）。
func (r *PostgresEventRepo) InsertIfAbsent(ctx context.Context, event *model.Event) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, event_key, game_name, title, description,
		                     start_date, end_date, source_url, video_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (event_key) DO NOTHING`,
		event.ID, event.EventKey, event.GameName, event.Title,
		nullString(event.Description), event.StartDate, nullString(event.EndDate),
		event.SourceURL, nullString(event.VideoID), event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("イベントの挿入に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("挿入件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *PostgresEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	return ev, nil
}

// ListAll は全イベントをstart_date昇順で返す。
func (r *PostgresEventRepo) ListAll(ctx context.Context) ([]*model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY start_date ASC`,
	)
}

// ListByGameName はゲーム名でイベントをstart_date昇順で返す。
func (r *PostgresEventRepo) ListByGameName(ctx context.Context, gameName string) ([]*model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE game_name = $1 ORDER BY start_date ASC`,
		gameName,
	)
}

// ListByDateRange は期間と重なるイベントをstart_date昇順で返す。
// 終了日のないイベントは開始日が期間終了日以前であれば含まれる。
func (r *PostgresEventRepo) ListByDateRange(ctx context.Context, startDate, endDate string) ([]*model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE start_date <= $1 AND (end_date IS NULL OR end_date >= $2)
		 ORDER BY start_date ASC`,
		endDate, startDate,
	)
}

// list はクエリを実行して結果をイベントのスライスに読み取る。
func (r *PostgresEventRepo) list(ctx context.Context, query string, args ...any) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("イベント行の読み取りに失敗しました: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベント一覧の走査に失敗しました: %w", err)
	}

	return events, nil
}

// Update はイベントを更新する。event_keyとvideo_idは変更しない。
// 更新対象が存在しない場合はfalseを返す。
func (r *PostgresEventRepo) Update(ctx context.Context, event *model.Event) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET
		    game_name = $2, title = $3, description = $4,
		    start_date = $5, end_date = $6, source_url = $7, updated_at = now()
		 WHERE id = $1`,
		event.ID, event.GameName, event.Title, nullString(event.Description),
		event.StartDate, nullString(event.EndDate), event.SourceURL,
	)
	if err != nil {
		return false, fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// DeleteByID は指定IDのイベントを削除する。削除対象が存在しない場合はfalseを返す。
func (r *PostgresEventRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// DeleteByVideoID は指定動画に紐づくイベントを一括削除し、削除件数を返す。
func (r *PostgresEventRepo) DeleteByVideoID(ctx context.Context, videoID string) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE video_id = $1`, videoID)
	if err != nil {
		return 0, fmt.Errorf("動画に紐づくイベントの削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return int(affected), nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

var _ EventRepository = (*PostgresEventRepo)(nil)
