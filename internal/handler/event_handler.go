package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mizuki/gamecal/internal/event"
	"github.com/mizuki/gamecal/internal/model"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	Create(ctx context.Context, input event.CreateInput) (*model.Event, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	ListByGameName(ctx context.Context, gameName string) ([]*model.Event, error)
	ListByDateRange(ctx context.Context, startDate, endDate string) ([]*model.Event, error)
	ListByMonth(ctx context.Context, year, month int) ([]*model.Event, error)
	Update(ctx context.Context, id string, input event.UpdateInput) (*model.Event, error)
	Delete(ctx context.Context, id string) error
	DeleteByVideoID(ctx context.Context, videoID string) (int, error)
}

// EventHandler はイベント管理のHTTPハンドラー。
type EventHandler struct {
	service EventServiceInterface
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(service EventServiceInterface) *EventHandler {
	return &EventHandler{service: service}
}

// eventRequest はイベント作成・更新リクエストのボディ。
type eventRequest struct {
	GameName    string `json:"game_name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	SourceURL   string `json:"source_url"`
}

// eventResponse はイベント情報のAPIレスポンス。
type eventResponse struct {
	ID          string `json:"id"`
	EventKey    string `json:"event_key"`
	GameName    string `json:"game_name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	SourceURL   string `json:"source_url"`
	VideoID     string `json:"video_id,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// CreateEvent は手動イベント作成を処理する。
// POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	created, err := h.service.Create(r.Context(), event.CreateInput{
		GameName:    req.GameName,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		SourceURL:   req.SourceURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toEventResponse(created))
}

// ListEvents はイベント一覧を取得する。
// GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toEventResponses(events))
}

// ListEventsByDate は期間と重なるイベント一覧を取得する。
// GET /api/events/by-date?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD
func (h *EventHandler) ListEventsByDate(w http.ResponseWriter, r *http.Request) {
	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")

	events, err := h.service.ListByDateRange(r.Context(), startDate, endDate)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toEventResponses(events))
}

// ListEventsByMonth は指定年月と重なるイベント一覧を取得する。
// GET /api/events/by-month/:year/:month
func (h *EventHandler) ListEventsByMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError("年の形式が不正です"))
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError("月の形式が不正です"))
		return
	}

	events, err := h.service.ListByMonth(r.Context(), year, month)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toEventResponses(events))
}

// ListEventsByGame はゲーム名でイベント一覧を取得する。
// GET /api/events/by-game/:gameName
func (h *EventHandler) ListEventsByGame(w http.ResponseWriter, r *http.Request) {
	gameName, err := url.PathUnescape(chi.URLParam(r, "gameName"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	events, err := h.service.ListByGameName(r.Context(), gameName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toEventResponses(events))
}

// GetEvent はイベント詳細を取得する。
// GET /api/events/:id
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toEventResponse(found))
}

// UpdateEvent はイベントを更新する。
// PUT /api/events/:id
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), event.UpdateInput{
		GameName:    req.GameName,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		SourceURL:   req.SourceURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toEventResponse(updated))
}

// DeleteEvent はイベントを削除する。
// DELETE /api/events/:id
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteEventsByVideo は動画に紐づくイベントを一括削除する。
// DELETE /api/events/by-video/:videoId
func (h *EventHandler) DeleteEventsByVideo(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.DeleteByVideoID(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]int{"deleted_count": count})
}

// --- ヘルパー関数 ---

// toEventResponse はmodel.EventからAPIレスポンスに変換する。
func toEventResponse(e *model.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		EventKey:    e.EventKey,
		GameName:    e.GameName,
		Title:       e.Title,
		Description: e.Description,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		SourceURL:   e.SourceURL,
		VideoID:     e.VideoID,
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toEventResponses(events []*model.Event) []eventResponse {
	results := make([]eventResponse, len(events))
	for i, e := range events {
		results[i] = toEventResponse(e)
	}
	return results
}
