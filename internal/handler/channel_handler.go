// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mizuki/gamecal/internal/middleware"
	"github.com/mizuki/gamecal/internal/model"
)

// ChannelServiceInterface はチャンネルハンドラーが必要とするサービスインターフェース。
type ChannelServiceInterface interface {
	// Register はゲーム名とチャンネルURLからチャンネルを登録する。
	Register(ctx context.Context, gameName, channelURL string) (*model.Channel, error)
	// Get は指定IDのチャンネルを取得する。
	Get(ctx context.Context, id string) (*model.Channel, error)
	// List は全チャンネルを登録順で返す。
	List(ctx context.Context) ([]*model.Channel, error)
	// Update はチャンネルのゲーム名・URLを更新する。
	Update(ctx context.Context, id, gameName, channelURL string) (*model.Channel, error)
	// Delete は指定IDのチャンネルを削除する。
	Delete(ctx context.Context, id string) error
}

// ChannelSyncTrigger は手動同期のトリガーインターフェース。
type ChannelSyncTrigger interface {
	// SyncChannel はチャンネルの同期を即時実行する。
	SyncChannel(ctx context.Context, channel *model.Channel) error
}

// ChannelHandler はチャンネル管理のHTTPハンドラー。
type ChannelHandler struct {
	service ChannelServiceInterface
	syncSvc ChannelSyncTrigger
}

// NewChannelHandler はChannelHandlerを生成する。
func NewChannelHandler(service ChannelServiceInterface, syncSvc ChannelSyncTrigger) *ChannelHandler {
	return &ChannelHandler{
		service: service,
		syncSvc: syncSvc,
	}
}

// channelRequest はチャンネル登録・更新リクエストのボディ。
type channelRequest struct {
	GameName   string `json:"game_name"`
	ChannelURL string `json:"channel_url"`
}

// channelResponse はチャンネル情報のAPIレスポンス。
type channelResponse struct {
	ID         string `json:"id"`
	GameName   string `json:"game_name"`
	ChannelURL string `json:"channel_url"`
	ChannelID  string `json:"channel_id"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// RegisterChannel はチャンネル登録を処理する。
// POST /api/channels
func (h *ChannelHandler) RegisterChannel(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	ch, err := h.service.Register(r.Context(), req.GameName, req.ChannelURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 登録直後にベストエフォートで初回同期する。失敗してもログのみで、
	// 登録自体は成功として返す
	go func(ch *model.Channel) {
		if err := h.syncSvc.SyncChannel(context.Background(), ch); err != nil {
			slog.Warn("登録直後の初回同期に失敗しました",
				slog.String("channel_id", ch.ChannelID),
				slog.String("game_name", ch.GameName),
				slog.String("error", err.Error()),
			)
		}
	}(ch)

	writeJSONResponse(w, http.StatusCreated, toChannelResponse(ch))
}

// ListChannels はチャンネル一覧を取得する。
// GET /api/channels
func (h *ChannelHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]channelResponse, len(channels))
	for i, ch := range channels {
		results[i] = toChannelResponse(ch)
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// GetChannel はチャンネル詳細を取得する。
// GET /api/channels/:id
func (h *ChannelHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	ch, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toChannelResponse(ch))
}

// UpdateChannel はチャンネル情報を更新する。
// PATCH /api/channels/:id
func (h *ChannelHandler) UpdateChannel(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	ch, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.GameName, req.ChannelURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toChannelResponse(ch))
}

// DeleteChannel はチャンネルを削除する。
// DELETE /api/channels/:id
func (h *ChannelHandler) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SyncChannel はチャンネルの手動同期を実行する。
// 定期パスのインフライトガードとは独立に即時実行され、
// フェッチ失敗は呼び出し元にエラーとして返される。
// POST /api/channels/:id/sync
func (h *ChannelHandler) SyncChannel(w http.ResponseWriter, r *http.Request) {
	ch, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.syncSvc.SyncChannel(r.Context(), ch); err != nil {
		slog.Warn("手動同期に失敗しました",
			slog.String("channel_id", ch.ChannelID),
			slog.String("game_name", ch.GameName),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewSyncFailedError(ch.GameName, err.Error()))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status":    "synced",
		"game_name": ch.GameName,
	})
}

// --- ヘルパー関数 ---

// toChannelResponse はmodel.ChannelからAPIレスポンスに変換する。
func toChannelResponse(ch *model.Channel) channelResponse {
	return channelResponse{
		ID:         ch.ID,
		GameName:   ch.GameName,
		ChannelURL: ch.ChannelURL,
		ChannelID:  ch.ChannelID,
		CreatedAt:  ch.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  ch.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidURL, model.ErrCodeInvalidDate:
		return http.StatusBadRequest
	case model.ErrCodeChannelNotFound, model.ErrCodeEventNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateGame:
		return http.StatusConflict
	case model.ErrCodeResolutionFailed:
		return http.StatusUnprocessableEntity
	case model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeSyncFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
