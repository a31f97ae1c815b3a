package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mizuki/gamecal/internal/middleware"
	"github.com/mizuki/gamecal/internal/model"
)

// --- モック定義 ---

// mockChannelService はChannelServiceInterfaceのモック実装。
type mockChannelService struct {
	registerFn func(ctx context.Context, gameName, channelURL string) (*model.Channel, error)
	getFn      func(ctx context.Context, id string) (*model.Channel, error)
	listFn     func(ctx context.Context) ([]*model.Channel, error)
	updateFn   func(ctx context.Context, id, gameName, channelURL string) (*model.Channel, error)
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockChannelService) Register(ctx context.Context, gameName, channelURL string) (*model.Channel, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, gameName, channelURL)
	}
	return nil, nil
}

func (m *mockChannelService) Get(ctx context.Context, id string) (*model.Channel, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockChannelService) List(ctx context.Context) ([]*model.Channel, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockChannelService) Update(ctx context.Context, id, gameName, channelURL string) (*model.Channel, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, gameName, channelURL)
	}
	return nil, nil
}

func (m *mockChannelService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockSyncTrigger はChannelSyncTriggerのモック実装。
type mockSyncTrigger struct {
	syncFn func(ctx context.Context, channel *model.Channel) error
}

func (m *mockSyncTrigger) SyncChannel(ctx context.Context, channel *model.Channel) error {
	if m.syncFn != nil {
		return m.syncFn(ctx, channel)
	}
	return nil
}

// --- テストヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseErrorResponse はレスポンスボディから統一エラーフォーマットをパースするヘルパー。
func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var result middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("エラーレスポンスのデコードに失敗しました: %v", err)
	}
	return result
}

func testChannel() *model.Channel {
	return &model.Channel{
		ID:         "ch-id-1",
		GameName:   "maplestory",
		ChannelURL: "https://www.youtube.com/channel/UCxxxxxxxxxxxxxxxxxxxxxx",
		ChannelID:  "UCxxxxxxxxxxxxxxxxxxxxxx",
		CreatedAt:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

// --- POST /api/channels テスト ---

func TestChannelHandler_RegisterChannel_Success(t *testing.T) {
	svc := &mockChannelService{
		registerFn: func(ctx context.Context, gameName, channelURL string) (*model.Channel, error) {
			if gameName != "maplestory" {
				t.Errorf("gameName = %q, want %q", gameName, "maplestory")
			}
			if channelURL != "https://www.youtube.com/channel/UCxxxxxxxxxxxxxxxxxxxxxx" {
				t.Errorf("channelURL = %q, want チャンネルURL", channelURL)
			}
			return testChannel(), nil
		},
	}

	h := NewChannelHandler(svc, &mockSyncTrigger{})

	body := `{"game_name": "maplestory", "channel_url": "https://www.youtube.com/channel/UCxxxxxxxxxxxxxxxxxxxxxx"}`
	req := httptest.NewRequest(http.MethodPost, "/api/channels", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.RegisterChannel(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got channelResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("レスポンスのデコードに失敗しました: %v", err)
	}
	if got.ID != "ch-id-1" {
		t.Errorf("ID = %q, want %q", got.ID, "ch-id-1")
	}
	if got.ChannelID != "UCxxxxxxxxxxxxxxxxxxxxxx" {
		t.Errorf("ChannelID = %q, want %q", got.ChannelID, "UCxxxxxxxxxxxxxxxxxxxxxx")
	}
}

func TestChannelHandler_RegisterChannel_TriggersInitialSync(t *testing.T) {
	svc := &mockChannelService{
		registerFn: func(ctx context.Context, gameName, channelURL string) (*model.Channel, error) {
			return testChannel(), nil
		},
	}
	synced := make(chan string, 1)
	trigger := &mockSyncTrigger{
		syncFn: func(ctx context.Context, channel *model.Channel) error {
			synced <- channel.ChannelID
			return nil
		},
	}
	h := NewChannelHandler(svc, trigger)

	body := `{"game_name": "maplestory", "channel_url": "https://www.youtube.com/channel/UCxxxxxxxxxxxxxxxxxxxxxx"}`
	req := httptest.NewRequest(http.MethodPost, "/api/channels", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.RegisterChannel(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	select {
	case id := <-synced:
		if id != "UCxxxxxxxxxxxxxxxxxxxxxx" {
			t.Errorf("同期対象のChannelID = %q, want %q", id, "UCxxxxxxxxxxxxxxxxxxxxxx")
		}
	case <-time.After(time.Second):
		t.Fatal("登録直後の初回同期が起動されていません")
	}
}

func TestChannelHandler_RegisterChannel_InvalidJSON(t *testing.T) {
	h := NewChannelHandler(&mockChannelService{}, &mockSyncTrigger{})

	req := httptest.NewRequest(http.MethodPost, "/api/channels", bytes.NewBufferString("{invalid"))
	w := httptest.NewRecorder()

	h.RegisterChannel(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	errResp := parseErrorResponse(t, w)
	if errResp.Code != model.ErrCodeInvalidRequest {
		t.Errorf("error code = %q, want %q", errResp.Code, model.ErrCodeInvalidRequest)
	}
}

func TestChannelHandler_RegisterChannel_DuplicateGame(t *testing.T) {
	svc := &mockChannelService{
		registerFn: func(ctx context.Context, gameName, channelURL string) (*model.Channel, error) {
			return nil, model.NewDuplicateGameError(gameName)
		},
	}
	h := NewChannelHandler(svc, &mockSyncTrigger{})

	body := `{"game_name": "maplestory", "channel_url": "https://www.youtube.com/channel/UCxxxxxxxxxxxxxxxxxxxxxx"}`
	req := httptest.NewRequest(http.MethodPost, "/api/channels", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.RegisterChannel(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	errResp := parseErrorResponse(t, w)
	if errResp.Code != model.ErrCodeDuplicateGame {
		t.Errorf("error code = %q, want %q", errResp.Code, model.ErrCodeDuplicateGame)
	}
}

func TestChannelHandler_RegisterChannel_ResolutionFailed(t *testing.T) {
	svc := &mockChannelService{
		registerFn: func(ctx context.Context, gameName, channelURL string) (*model.Channel, error) {
			return nil, model.NewResolutionFailedError(channelURL)
		},
	}
	h := NewChannelHandler(svc, &mockSyncTrigger{})

	body := `{"game_name": "maplestory", "channel_url": "https://www.youtube.com/@handle"}`
	req := httptest.NewRequest(http.MethodPost, "/api/channels", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.RegisterChannel(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

// --- GET /api/channels テスト ---

func TestChannelHandler_ListChannels_Success(t *testing.T) {
	svc := &mockChannelService{
		listFn: func(ctx context.Context) ([]*model.Channel, error) {
			return []*model.Channel{testChannel()}, nil
		},
	}
	h := NewChannelHandler(svc, &mockSyncTrigger{})

	req := httptest.NewRequest(http.MethodGet, "/api/channels", nil)
	w := httptest.NewRecorder()

	h.ListChannels(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got []channelResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("レスポンスのデコードに失敗しました: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("チャンネル数 = %d, want 1", len(got))
	}
	if got[0].GameName != "maplestory" {
		t.Errorf("GameName = %q, want %q", got[0].GameName, "maplestory")
	}
}

func TestChannelHandler_ListChannels_Empty(t *testing.T) {
	svc := &mockChannelService{
		listFn: func(ctx context.Context) ([]*model.Channel, error) {
			return []*model.Channel{}, nil
		},
	}
	h := NewChannelHandler(svc, &mockSyncTrigger{})

	req := httptest.NewRequest(http.MethodGet, "/api/channels", nil)
	w := httptest.NewRecorder()

	h.ListChannels(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	// 空配列はnullではなく[]として返す
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want %q", body, "[]\n")
	}
}

// --- GET /api/channels/{id} テスト ---

func TestChannelHandler_GetChannel_NotFound(t *testing.T) {
	svc := &mockChannelService{
		getFn: func(ctx context.Context, id string) (*model.Channel, error) {
			return nil, model.NewChannelNotFoundError(id)
		},
	}
	h := NewChannelHandler(svc, &mockSyncTrigger{})

	req := httptest.NewRequest(http.MethodGet, "/api/channels/unknown", nil)
	req = withChiURLParam(req, "id", "unknown")
	w := httptest.NewRecorder()

	h.GetChannel(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	errResp := parseErrorResponse(t, w)
	if errResp.Code != model.ErrCodeChannelNotFound {
		t.Errorf("error code = %q, want %q", errResp.Code, model.ErrCodeChannelNotFound)
	}
}

// --- PATCH /api/channels/{id} テスト ---

func TestChannelHandler_UpdateChannel_Success(t *testing.T) {
	svc := &mockChannelService{
		updateFn: func(ctx context.Context, id, gameName, channelURL string) (*model.Channel, error) {
			if id != "ch-id-1" {
				t.Errorf("id = %q, want %q", id, "ch-id-1")
			}
			ch := testChannel()
			ch.GameName = gameName
			return ch, nil
		},
	}
	h := NewChannelHandler(svc, &mockSyncTrigger{})

	body := `{"game_name": "lostark"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/channels/ch-id-1", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "ch-id-1")
	w := httptest.NewRecorder()

	h.UpdateChannel(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got channelResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("レスポンスのデコードに失敗しました: %v", err)
	}
	if got.GameName != "lostark" {
		t.Errorf("GameName = %q, want %q", got.GameName, "lostark")
	}
}

// --- DELETE /api/channels/{id} テスト ---

func TestChannelHandler_DeleteChannel_Success(t *testing.T) {
	called := false
	svc := &mockChannelService{
		deleteFn: func(ctx context.Context, id string) error {
			called = true
			return nil
		},
	}
	h := NewChannelHandler(svc, &mockSyncTrigger{})

	req := httptest.NewRequest(http.MethodDelete, "/api/channels/ch-id-1", nil)
	req = withChiURLParam(req, "id", "ch-id-1")
	w := httptest.NewRecorder()

	h.DeleteChannel(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if !called {
		t.Error("Deleteが呼ばれていません")
	}
}

// --- POST /api/channels/{id}/sync テスト ---

func TestChannelHandler_SyncChannel_Success(t *testing.T) {
	svc := &mockChannelService{
		getFn: func(ctx context.Context, id string) (*model.Channel, error) {
			return testChannel(), nil
		},
	}
	trigger := &mockSyncTrigger{
		syncFn: func(ctx context.Context, channel *model.Channel) error {
			if channel.ChannelID != "UCxxxxxxxxxxxxxxxxxxxxxx" {
				t.Errorf("ChannelID = %q, want %q", channel.ChannelID, "UCxxxxxxxxxxxxxxxxxxxxxx")
			}
			return nil
		},
	}
	h := NewChannelHandler(svc, trigger)

	req := httptest.NewRequest(http.MethodPost, "/api/channels/ch-id-1/sync", nil)
	req = withChiURLParam(req, "id", "ch-id-1")
	w := httptest.NewRecorder()

	h.SyncChannel(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("レスポンスのデコードに失敗しました: %v", err)
	}
	if got["status"] != "synced" {
		t.Errorf("status = %q, want %q", got["status"], "synced")
	}
	if got["game_name"] != "maplestory" {
		t.Errorf("game_name = %q, want %q", got["game_name"], "maplestory")
	}
}

func TestChannelHandler_SyncChannel_FetchFailure(t *testing.T) {
	svc := &mockChannelService{
		getFn: func(ctx context.Context, id string) (*model.Channel, error) {
			return testChannel(), nil
		},
	}
	trigger := &mockSyncTrigger{
		syncFn: func(ctx context.Context, channel *model.Channel) error {
			return &model.FetchFailure{ChannelID: channel.ChannelID, Err: errors.New("接続タイムアウト")}
		},
	}
	h := NewChannelHandler(svc, trigger)

	req := httptest.NewRequest(http.MethodPost, "/api/channels/ch-id-1/sync", nil)
	req = withChiURLParam(req, "id", "ch-id-1")
	w := httptest.NewRecorder()

	h.SyncChannel(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
	errResp := parseErrorResponse(t, w)
	if errResp.Code != model.ErrCodeSyncFailed {
		t.Errorf("error code = %q, want %q", errResp.Code, model.ErrCodeSyncFailed)
	}
}

func TestChannelHandler_SyncChannel_ChannelNotFound(t *testing.T) {
	svc := &mockChannelService{
		getFn: func(ctx context.Context, id string) (*model.Channel, error) {
			return nil, model.NewChannelNotFoundError(id)
		},
	}
	h := NewChannelHandler(svc, &mockSyncTrigger{})

	req := httptest.NewRequest(http.MethodPost, "/api/channels/unknown/sync", nil)
	req = withChiURLParam(req, "id", "unknown")
	w := httptest.NewRecorder()

	h.SyncChannel(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
