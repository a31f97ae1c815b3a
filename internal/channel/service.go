// Package channel はチャンネル登録・管理のドメインロジックを提供する。
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mizuki/gamecal/internal/model"
	"github.com/mizuki/gamecal/internal/repository"
	"github.com/mizuki/gamecal/internal/youtube"
)

// Service はチャンネル登録・管理のサービス層。
// URL検証 → チャンネルID解決 → 重複チェック → 保存のフローを統括する。
type Service struct {
	channelRepo repository.ChannelRepository
	resolver    youtube.ChannelResolver
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(channelRepo repository.ChannelRepository, resolver youtube.ChannelResolver, logger *slog.Logger) *Service {
	return &Service{
		channelRepo: channelRepo,
		resolver:    resolver,
		logger:      logger,
	}
}

// Register はゲーム名とチャンネルURLからチャンネルを登録する。
// フロー: 入力検証 → 重複ゲーム名チェック → チャンネルID解決 → 重複チャンネルチェック → 保存
func (s *Service) Register(ctx context.Context, gameName, channelURL string) (*model.Channel, error) {
	gameName = strings.TrimSpace(gameName)
	if gameName == "" {
		return nil, model.NewInvalidRequestError()
	}
	if err := validateChannelURL(channelURL); err != nil {
		return nil, err
	}

	// 1. 同じゲーム名の重複チェック
	existing, err := s.channelRepo.FindByGameName(ctx, gameName)
	if err != nil {
		return nil, fmt.Errorf("チャンネルの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateGameError(gameName)
	}

	// 2. チャンネルID解決
	channelID, err := s.resolver.Resolve(ctx, channelURL)
	if err != nil {
		s.logger.Warn("チャンネルIDの解決に失敗しました",
			slog.String("game_name", gameName),
			slog.String("channel_url", channelURL),
			slog.String("error", err.Error()),
		)
		return nil, model.NewResolutionFailedError(channelURL)
	}

	// 3. 同じチャンネルIDの重複チェック
	existingByID, err := s.channelRepo.FindByChannelID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("チャンネルの検索に失敗しました: %w", err)
	}
	if existingByID != nil {
		return nil, model.NewDuplicateGameError(existingByID.GameName)
	}

	now := time.Now()
	ch := &model.Channel{
		ID:         uuid.NewString(),
		GameName:   gameName,
		ChannelURL: channelURL,
		ChannelID:  channelID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.channelRepo.Create(ctx, ch); err != nil {
		return nil, fmt.Errorf("チャンネルの保存に失敗しました: %w", err)
	}

	s.logger.Info("チャンネルを登録しました",
		slog.String("channel_id", ch.ChannelID),
		slog.String("game_name", ch.GameName),
	)

	return ch, nil
}

// Get は指定IDのチャンネルを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Channel, error) {
	ch, err := s.channelRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("チャンネルの取得に失敗しました: %w", err)
	}
	if ch == nil {
		return nil, model.NewChannelNotFoundError(id)
	}
	return ch, nil
}

// List は全チャンネルを登録順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Channel, error) {
	channels, err := s.channelRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("チャンネル一覧の取得に失敗しました: %w", err)
	}
	return channels, nil
}

// Update はチャンネルのゲーム名・URLを更新する。
// URLが変更された場合はチャンネルIDを再解決する。
func (s *Service) Update(ctx context.Context, id, gameName, channelURL string) (*model.Channel, error) {
	ch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if gameName = strings.TrimSpace(gameName); gameName != "" && gameName != ch.GameName {
		existing, err := s.channelRepo.FindByGameName(ctx, gameName)
		if err != nil {
			return nil, fmt.Errorf("チャンネルの検索に失敗しました: %w", err)
		}
		if existing != nil && existing.ID != ch.ID {
			return nil, model.NewDuplicateGameError(gameName)
		}
		ch.GameName = gameName
	}

	if channelURL != "" && channelURL != ch.ChannelURL {
		if err := validateChannelURL(channelURL); err != nil {
			return nil, err
		}
		channelID, err := s.resolver.Resolve(ctx, channelURL)
		if err != nil {
			return nil, model.NewResolutionFailedError(channelURL)
		}
		ch.ChannelURL = channelURL
		ch.ChannelID = channelID
	}

	ch.UpdatedAt = time.Now()
	if err := s.channelRepo.Update(ctx, ch); err != nil {
		return nil, fmt.Errorf("チャンネルの更新に失敗しました: %w", err)
	}

	return ch, nil
}

// Delete は指定IDのチャンネルを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.channelRepo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("チャンネルの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewChannelNotFoundError(id)
	}

	s.logger.Info("チャンネルを削除しました", slog.String("id", id))
	return nil
}

// validateChannelURL はチャンネルURLの形式を検証する。
// YouTubeのホストであることのみ確認し、到達性の検証はしない。
func validateChannelURL(channelURL string) error {
	if channelURL == "" {
		return model.NewInvalidURLError("チャンネルURLが空です")
	}

	parsed, err := url.Parse(channelURL)
	if err != nil {
		return model.NewInvalidURLError("URLの形式が不正です")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return model.NewInvalidURLError("http/httpsスキームのみ対応しています")
	}

	host := parsed.Hostname()
	if host != "youtube.com" && host != "www.youtube.com" && host != "m.youtube.com" {
		return model.NewInvalidURLError("YouTubeのチャンネルURLを指定してください")
	}

	return nil
}
