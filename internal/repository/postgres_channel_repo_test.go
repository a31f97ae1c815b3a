package repository

import (
	"testing"
	"time"

	"github.com/mizuki/gamecal/internal/model"
)

// PostgresChannelRepoはChannelRepositoryインターフェースを満たすことを検証
func TestPostgresChannelRepo_ImplementsInterface(t *testing.T) {
	var _ ChannelRepository = (*PostgresChannelRepo)(nil)
}

// PostgresVideoRepoはVideoRepositoryインターフェースを満たすことを検証
func TestPostgresVideoRepo_ImplementsInterface(t *testing.T) {
	var _ VideoRepository = (*PostgresVideoRepo)(nil)
}

// NewPostgresChannelRepoが正しく初期化されることを検証
func TestNewPostgresChannelRepo_Initializes(t *testing.T) {
	repo := NewPostgresChannelRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Channelモデルのフィールドが正しく構築されることを検証
func TestPostgresChannelRepo_ChannelModel_Fields(t *testing.T) {
	now := time.Now()
	ch := &model.Channel{
		ID:         "ch-id-1",
		GameName:   "テストゲーム",
		ChannelURL: "https://www.youtube.com/@testgame",
		ChannelID:  "UCxxxxxxxxxxxxxxxxxxxxxx",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if ch.GameName != "テストゲーム" {
		t.Errorf("ch.GameName = %q, want %q", ch.GameName, "テストゲーム")
	}
	if ch.ChannelID != "UCxxxxxxxxxxxxxxxxxxxxxx" {
		t.Errorf("ch.ChannelID = %q, want %q", ch.ChannelID, "UCxxxxxxxxxxxxxxxxxxxxxx")
	}
}

// Videoモデルは作成後に更新フィールドを持たないことを検証（insert-only）
func TestPostgresVideoRepo_VideoModel_InsertOnly(t *testing.T) {
	now := time.Now()
	v := &model.Video{
		ID:          "v-id-1",
		ChannelID:   "UCxxxxxxxxxxxxxxxxxxxxxx",
		VideoID:     "abc12345678",
		Title:       "イベント告知動画",
		PublishedAt: now,
		VideoURL:    "https://www.youtube.com/watch?v=abc12345678",
		CreatedAt:   now,
	}

	if v.VideoID != "abc12345678" {
		t.Errorf("v.VideoID = %q, want %q", v.VideoID, "abc12345678")
	}
}
