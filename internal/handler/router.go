package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mizuki/gamecal/internal/metrics"
	"github.com/mizuki/gamecal/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ヘルスチェック・メトリクス
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer

	// チャンネル
	ChannelService ChannelServiceInterface
	SyncTrigger    ChannelSyncTrigger

	// イベント
	EventService EventServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SecurityHeadersMiddleware → LoggingMiddleware → RecoveryMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())

	channelHandler := NewChannelHandler(deps.ChannelService, deps.SyncTrigger)
	eventHandler := NewEventHandler(deps.EventService)

	// --- レート制限の外のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- レート制限下のAPIルート ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// チャンネル管理
		r.Route("/api/channels", func(r chi.Router) {
			// POST /api/channels - チャンネル登録（登録専用レート制限を追加）
			r.With(deps.RateLimiter.ChannelRegistrationMiddleware()).Post("/", channelHandler.RegisterChannel)
			r.Get("/", channelHandler.ListChannels)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", channelHandler.GetChannel)
				r.Put("/", channelHandler.UpdateChannel)
				r.Patch("/", channelHandler.UpdateChannel)
				r.Delete("/", channelHandler.DeleteChannel)

				// POST /api/channels/{id}/sync - 手動同期トリガー
				r.Post("/sync", channelHandler.SyncChannel)
			})
		})

		// イベント管理
		r.Route("/api/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListEvents)
			r.Post("/", eventHandler.CreateEvent)

			// 絞り込み系のルートは/{id}より先に定義する
			r.Get("/by-date", eventHandler.ListEventsByDate)
			r.Get("/by-month/{year}/{month}", eventHandler.ListEventsByMonth)
			r.Get("/by-game/{gameName}", eventHandler.ListEventsByGame)
			r.Delete("/by-video/{videoId}", eventHandler.DeleteEventsByVideo)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", eventHandler.GetEvent)
				r.Put("/", eventHandler.UpdateEvent)
				r.Delete("/", eventHandler.DeleteEvent)
			})
		})
	})

	return r
}
