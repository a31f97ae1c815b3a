// Package syncer はチャンネル同期パイプラインとそのスケジューリングを提供する。
// フェッチ → 動画保存 → イベント抽出 → 冪等な保存、の一連の流れを実行する。
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mizuki/gamecal/internal/extractor"
	"github.com/mizuki/gamecal/internal/metrics"
	"github.com/mizuki/gamecal/internal/model"
	"github.com/mizuki/gamecal/internal/repository"
	"github.com/mizuki/gamecal/internal/security"
	"github.com/mizuki/gamecal/internal/youtube"
)

// ChannelSyncService は単一チャンネルの同期実行インターフェース。
type ChannelSyncService interface {
	// SyncChannel はチャンネルの最近の動画を取得し、動画とイベントを保存する。
	// フェッチ段階の失敗はエラーとして返す。保存済みデータとの重複は
	// エラーではなく何もしない（冪等な再実行）。
	SyncChannel(ctx context.Context, channel *model.Channel) error
}

// Service はチャンネル同期パイプラインの実装。
type Service struct {
	videoRepo  repository.VideoRepository
	eventRepo  repository.EventRepository
	fetcher    youtube.FeedFetcher
	extractor  extractor.EventExtractorService
	sanitizer  security.ContentSanitizerService
	collector  metrics.MetricsCollector
	logger     *slog.Logger
	fetchLimit int

	// now は現在時刻の取得関数。挿入レコードのタイムスタンプとテストで使う。
	now func() time.Time
}

var _ ChannelSyncService = (*Service)(nil)

// NewService はServiceの新しいインスタンスを生成する。
// fetchLimitが0以下の場合はデフォルト値10を使用する。
func NewService(
	videoRepo repository.VideoRepository,
	eventRepo repository.EventRepository,
	fetcher youtube.FeedFetcher,
	eventExtractor extractor.EventExtractorService,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	fetchLimit int,
) *Service {
	if fetchLimit <= 0 {
		fetchLimit = 10
	}
	return &Service{
		videoRepo:  videoRepo,
		eventRepo:  eventRepo,
		fetcher:    fetcher,
		extractor:  eventExtractor,
		sanitizer:  sanitizer,
		collector:  collector,
		logger:     logger,
		fetchLimit: fetchLimit,
		now:        time.Now,
	}
}

// SyncChannel はチャンネルの最近の動画を取得し、動画とイベントを保存する。
func (s *Service) SyncChannel(ctx context.Context, channel *model.Channel) error {
	start := time.Now()

	videos, err := s.fetcher.FetchRecent(ctx, channel.ChannelID, s.fetchLimit)
	if err != nil {
		s.collector.RecordFetchFailure(channel.ChannelID)
		return fmt.Errorf("チャンネルのフェッチに失敗しました: %w", err)
	}
	s.collector.RecordFetchSuccess(channel.ChannelID)

	videosInserted := 0
	eventsCreated := 0

	for _, video := range videos {
		// フィード/HTML由来のテキストは保存前にサニタイズする
		video.Title = s.sanitizer.Sanitize(video.Title)
		video.Description = s.sanitizer.Sanitize(video.Description)

		inserted, err := s.persistVideo(ctx, channel, video)
		if err != nil {
			s.logger.Error("動画の保存に失敗しました",
				slog.String("channel_id", channel.ChannelID),
				slog.String("video_id", video.VideoID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if inserted {
			videosInserted++
		}

		created, err := s.persistEvents(ctx, channel, video)
		if err != nil {
			s.logger.Error("イベントの保存に失敗しました",
				slog.String("channel_id", channel.ChannelID),
				slog.String("video_id", video.VideoID),
				slog.String("error", err.Error()),
			)
			continue
		}
		eventsCreated += created
	}

	s.collector.RecordVideosInserted(videosInserted)
	s.collector.RecordEventsCreated(eventsCreated)
	s.collector.RecordSyncLatency(time.Since(start))

	s.logger.Info("チャンネル同期が完了しました",
		slog.String("channel_id", channel.ChannelID),
		slog.String("game_name", channel.GameName),
		slog.Int("videos_fetched", len(videos)),
		slog.Int("videos_inserted", videosInserted),
		slog.Int("events_created", eventsCreated),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// persistVideo は動画を挿入する。既存動画の場合は何もせずfalseを返す。
func (s *Service) persistVideo(ctx context.Context, channel *model.Channel, video model.VideoSummary) (bool, error) {
	v := &model.Video{
		ID:          uuid.NewString(),
		ChannelID:   channel.ID,
		VideoID:     video.VideoID,
		Title:       video.Title,
		Description: video.Description,
		PublishedAt: video.PublishedAt,
		VideoURL:    youtube.WatchURL(video.VideoID),
		CreatedAt:   s.now(),
	}
	return s.videoRepo.InsertIfAbsent(ctx, v)
}

// persistEvents は動画からイベント候補を抽出し、未登録のものを挿入する。
// イベントキーの存在確認の後に挿入するが、挿入自体もキー競合時は
// 何もしないため、確認と挿入の間に別の同期が割り込んでも安全。
func (s *Service) persistEvents(ctx context.Context, channel *model.Channel, video model.VideoSummary) (int, error) {
	candidates := s.extractor.Extract(video, channel.GameName)
	created := 0
	now := s.now()

	for _, c := range candidates {
		key := model.EventKey(c.VideoID, c.StartDate)

		exists, err := s.eventRepo.ExistsByKey(ctx, key)
		if err != nil {
			return created, fmt.Errorf("イベントキーの確認に失敗しました: %w", err)
		}
		if exists {
			continue
		}

		event := &model.Event{
			ID:          uuid.NewString(),
			EventKey:    key,
			GameName:    channel.GameName,
			Title:       c.Title,
			Description: c.Description,
			StartDate:   c.StartDate,
			EndDate:     c.EndDate,
			SourceURL:   c.SourceURL,
			VideoID:     c.VideoID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		inserted, err := s.eventRepo.InsertIfAbsent(ctx, event)
		if err != nil {
			return created, fmt.Errorf("イベントの挿入に失敗しました: %w", err)
		}
		if inserted {
			created++
		}
	}

	return created, nil
}
