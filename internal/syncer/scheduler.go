package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mizuki/gamecal/internal/metrics"
	"github.com/mizuki/gamecal/internal/repository"
)

// Scheduler は全チャンネルの定期同期を制御する。
//
// 定期パスは単一のインフライトフラグで相互排他され、前回のパスが
// 実行中のティック発火はスキップされる（キューイングしない）。
// 手動同期（ChannelSyncService.SyncChannel）はこのガードの対象外で、
// 定期パスと並行して動作できる。保存層のユニーク制約が最終的な
// 安全網になる。
type Scheduler struct {
	channelRepo repository.ChannelRepository
	syncSvc     ChannelSyncService
	collector   metrics.MetricsCollector
	logger      *slog.Logger

	mu       sync.Mutex
	started  bool
	inFlight bool
	stopCh   chan struct{}
	done     chan struct{}
	passWG   sync.WaitGroup
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(
	channelRepo repository.ChannelRepository,
	syncSvc ChannelSyncService,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		channelRepo: channelRepo,
		syncSvc:     syncSvc,
		collector:   collector,
		logger:      logger,
	}
}

// Start は定期同期を開始する。既に開始済みの場合は何もしない。
// 呼び出し直後に1回の全チャンネルパスを非同期に起動し
// （このパスはインフライトガードの対象外）、その後intervalごとに
// ティッカー駆動のパスを実行する。
func (s *Scheduler) Start(interval time.Duration) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		s.logger.Warn("スケジューラは既に開始されています")
		return
	}
	s.started = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.logger.Info("同期スケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後の初回パス。ガードを取らずに実行する
	s.passWG.Add(1)
	go func() {
		defer s.passWG.Done()
		s.runPass(false)
	}()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				s.logger.Info("同期スケジューラを停止しました")
				return
			case <-ticker.C:
				// パスを非同期に起動する。実行中の判定とスキップは
				// runPass内のインフライトガードが行う
				s.passWG.Add(1)
				go func() {
					defer s.passWG.Done()
					s.runPass(true)
				}()
			}
		}
	}()
}

// Stop はティッカーを停止する。実行中のパスは完了まで走り、
// Stopはその完了を待ってから戻る。開始していない場合は何もしない。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	stopCh := s.stopCh
	done := s.done
	s.mu.Unlock()

	close(stopCh)
	<-done
	s.passWG.Wait()
}

// runPass は全チャンネルを1回同期する。guardedがtrueの場合、
// 前回のパスが実行中ならスキップする。
//
// パスは明示的なキャンセルを持たない。各フェッチ・保存操作が
// 自身のタイムアウトで制限されるため、パス全体の所要時間は有界になる。
func (s *Scheduler) runPass(guarded bool) {
	if guarded {
		s.mu.Lock()
		if s.inFlight {
			s.mu.Unlock()
			s.collector.RecordSyncPassSkipped()
			s.logger.Warn("前回の同期パスが実行中のためスキップします")
			return
		}
		s.inFlight = true
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			s.inFlight = false
			s.mu.Unlock()
		}()
	}

	ctx := context.Background()
	start := time.Now()
	s.collector.RecordSyncPass()

	channels, err := s.channelRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error("チャンネル一覧の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return
	}

	if len(channels) == 0 {
		s.logger.Info("同期対象のチャンネルはありません")
		return
	}

	s.logger.Info("同期パスを開始します",
		slog.Int("channel_count", len(channels)),
	)

	// 登録順に逐次処理する。1チャンネルの失敗は後続を止めない
	for _, channel := range channels {
		if err := s.syncSvc.SyncChannel(ctx, channel); err != nil {
			s.logger.Error("チャンネル同期に失敗しました",
				slog.String("channel_id", channel.ChannelID),
				slog.String("game_name", channel.GameName),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("同期パスが完了しました",
		slog.Int("channel_count", len(channels)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
}
