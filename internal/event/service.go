// Package event はイベントの手動作成・照会・管理のドメインロジックを提供する。
// 自動抽出によるイベント作成はsyncerパッケージが担い、ここではAPI経由の
// 操作のみを扱う。
package event

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mizuki/gamecal/internal/model"
	"github.com/mizuki/gamecal/internal/repository"
)

// isoDateShape はAPIで受け付ける日付の形状（YYYY-MM-DD）。
var isoDateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// CreateInput は手動イベント作成の入力。
type CreateInput struct {
	GameName    string
	Title       string
	Description string
	StartDate   string
	EndDate     string
	SourceURL   string
}

// UpdateInput はイベント更新の入力。空のフィールドは変更しない。
type UpdateInput struct {
	GameName    string
	Title       string
	Description string
	StartDate   string
	EndDate     string
	SourceURL   string
}

// Service はイベントのサービス層。
type Service struct {
	eventRepo repository.EventRepository
	logger    *slog.Logger

	// now は現在時刻の取得関数。手動イベントキーの生成とテストで使う。
	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(eventRepo repository.EventRepository, logger *slog.Logger) *Service {
	return &Service{
		eventRepo: eventRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// Create は手動イベントを作成する。
// イベントキーは作成時刻から生成され、自動抽出イベントとは衝突しない。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Event, error) {
	input.GameName = strings.TrimSpace(input.GameName)
	input.Title = strings.TrimSpace(input.Title)
	if input.GameName == "" || input.Title == "" || input.StartDate == "" || input.SourceURL == "" {
		return nil, model.NewInvalidRequestError()
	}
	if err := validateDate(input.StartDate); err != nil {
		return nil, err
	}
	if input.EndDate != "" {
		if err := validateDate(input.EndDate); err != nil {
			return nil, err
		}
		if input.EndDate < input.StartDate {
			return nil, model.NewInvalidDateError("終了日は開始日以降である必要があります")
		}
	}

	now := s.now()
	event := &model.Event{
		ID:          uuid.NewString(),
		EventKey:    model.ManualEventKey(now),
		GameName:    input.GameName,
		Title:       input.Title,
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		SourceURL:   input.SourceURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	inserted, err := s.eventRepo.InsertIfAbsent(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("イベントの保存に失敗しました: %w", err)
	}
	if !inserted {
		// 同一ミリ秒での手動作成が衝突した場合。実運用ではまず起きない
		return nil, fmt.Errorf("イベントキーが衝突しました: %s", event.EventKey)
	}

	s.logger.Info("手動イベントを作成しました",
		slog.String("event_key", event.EventKey),
		slog.String("game_name", event.GameName),
	)

	return event, nil
}

// Get は指定IDのイベントを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	if event == nil {
		return nil, model.NewEventNotFoundError(id)
	}
	return event, nil
}

// List は全イベントを開始日昇順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Event, error) {
	events, err := s.eventRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	return events, nil
}

// ListByGameName はゲーム名でイベントを開始日昇順で返す。
func (s *Service) ListByGameName(ctx context.Context, gameName string) ([]*model.Event, error) {
	events, err := s.eventRepo.ListByGameName(ctx, gameName)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	return events, nil
}

// ListByDateRange は期間と重なるイベントを開始日昇順で返す。
func (s *Service) ListByDateRange(ctx context.Context, startDate, endDate string) ([]*model.Event, error) {
	if startDate == "" || endDate == "" {
		return nil, model.NewInvalidDateError("startDateとendDateの両方が必要です")
	}
	if err := validateDate(startDate); err != nil {
		return nil, err
	}
	if err := validateDate(endDate); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	return events, nil
}

// ListByMonth は指定年月と重なるイベントを開始日昇順で返す。
func (s *Service) ListByMonth(ctx context.Context, year, month int) ([]*model.Event, error) {
	if year < 1 || month < 1 || month > 12 {
		return nil, model.NewInvalidDateError("年または月が不正です")
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	events, err := s.eventRepo.ListByDateRange(ctx, first.Format("2006-01-02"), last.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	return events, nil
}

// Update はイベントを更新する。イベントキーと動画IDは変更できない。
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*model.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(input.GameName); v != "" {
		event.GameName = v
	}
	if v := strings.TrimSpace(input.Title); v != "" {
		event.Title = v
	}
	if input.Description != "" {
		event.Description = input.Description
	}
	if input.StartDate != "" {
		if err := validateDate(input.StartDate); err != nil {
			return nil, err
		}
		event.StartDate = input.StartDate
	}
	if input.EndDate != "" {
		if err := validateDate(input.EndDate); err != nil {
			return nil, err
		}
		event.EndDate = input.EndDate
	}
	if input.SourceURL != "" {
		event.SourceURL = input.SourceURL
	}
	if event.EndDate != "" && event.EndDate < event.StartDate {
		return nil, model.NewInvalidDateError("終了日は開始日以降である必要があります")
	}

	event.UpdatedAt = s.now()
	updated, err := s.eventRepo.Update(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewEventNotFoundError(id)
	}

	return event, nil
}

// Delete は指定IDのイベントを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.eventRepo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewEventNotFoundError(id)
	}

	s.logger.Info("イベントを削除しました", slog.String("id", id))
	return nil
}

// DeleteByVideoID は指定動画に紐づくイベントを一括削除し、削除件数を返す。
// 誤抽出イベントの一括除去に使う。
func (s *Service) DeleteByVideoID(ctx context.Context, videoID string) (int, error) {
	count, err := s.eventRepo.DeleteByVideoID(ctx, videoID)
	if err != nil {
		return 0, fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}

	s.logger.Info("動画に紐づくイベントを削除しました",
		slog.String("video_id", videoID),
		slog.Int("deleted_count", count),
	)
	return count, nil
}

// validateDate は日付文字列の形状と範囲を検証する。
func validateDate(date string) error {
	if !isoDateShape.MatchString(date) {
		return model.NewInvalidDateError("日付はYYYY-MM-DD形式で指定してください")
	}

	var year, month, day int
	if _, err := fmt.Sscanf(date, "%d-%d-%d", &year, &month, &day); err != nil {
		return model.NewInvalidDateError("日付の解析に失敗しました")
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return model.NewInvalidDateError("月または日が範囲外です")
	}

	return nil
}
