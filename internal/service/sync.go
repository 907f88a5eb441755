package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/fuelgazer/internal/ingest"
	"github.com/langchou/fuelgazer/internal/metrics"
	"github.com/langchou/fuelgazer/internal/state"
	"github.com/langchou/fuelgazer/pkg/ws"
)

var (
	// ErrSyncInProgress 已有同步在运行
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrSyncNotConfigured 未配置表格数据源
	ErrSyncNotConfigured = errors.New("spreadsheet source not configured")
)

// Broadcaster 同步事件推送
type Broadcaster interface {
	BroadcastMessage(msgType string, data interface{})
}

// SyncEvent 推送给 WebSocket 客户端的同步事件
type SyncEvent struct {
	RunID         string `json:"run_id"`
	EntriesSynced int    `json:"entries_synced"`
	Inserted      int    `json:"inserted"`
	Updated       int    `json:"updated"`
	RowsRejected  int    `json:"rows_rejected"`
	Error         string `json:"error,omitempty"`
}

// SyncOptions 同步参数
type SyncOptions struct {
	SheetRange string
	Timeout    time.Duration
}

// SyncService 表格同步服务
type SyncService struct {
	logger  *zap.Logger
	engine  *ingest.Engine
	fetcher ingest.Fetcher
	opts    SyncOptions
	stats   *StatsService
	metrics *metrics.Metrics
	hub     Broadcaster
	machine *state.Machine

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewSyncService 创建同步服务，fetcher 为 nil 时同步返回 ErrSyncNotConfigured
func NewSyncService(
	logger *zap.Logger,
	engine *ingest.Engine,
	fetcher ingest.Fetcher,
	opts SyncOptions,
	stats *StatsService,
	m *metrics.Metrics,
	hub Broadcaster,
) *SyncService {
	svc := &SyncService{
		logger:  logger,
		engine:  engine,
		fetcher: fetcher,
		opts:    opts,
		stats:   stats,
		metrics: m,
		hub:     hub,
	}
	svc.machine = state.NewMachine(svc.onStateChange)
	return svc
}

func (s *SyncService) onStateChange(from, to string) {
	s.logger.Debug("Sync state changed", zap.String("from", from), zap.String("to", to))
}

// Status 当前同步状态
func (s *SyncService) Status() state.SyncStatus {
	return s.machine.Status()
}

// Sync 执行一次同步，返回导入结果
func (s *SyncService) Sync(ctx context.Context) (*ingest.Result, error) {
	if s.fetcher == nil {
		return nil, ErrSyncNotConfigured
	}

	runID := uuid.NewString()
	if err := s.machine.Begin(runID); err != nil {
		if errors.Is(err, state.ErrAlreadySyncing) {
			return nil, ErrSyncInProgress
		}
		return nil, err
	}

	logger := s.logger.With(zap.String("run_id", runID))
	logger.Info("Sync started", zap.String("range", s.opts.SheetRange))
	s.broadcast(ws.MsgTypeSyncStarted, SyncEvent{RunID: runID})

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.engine.Run(ctx, s.fetcher, s.opts.SheetRange)
	elapsed := time.Since(start)
	if err != nil {
		if ferr := s.machine.Fail(err); ferr != nil {
			logger.Error("Failed to record sync failure", zap.Error(ferr))
		}
		if s.metrics != nil {
			s.metrics.RecordSyncFailure(elapsed)
		}
		logger.Error("Sync failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		s.broadcast(ws.MsgTypeSyncFailed, SyncEvent{RunID: runID, Error: err.Error()})
		return nil, fmt.Errorf("sync %s: %w", runID, err)
	}

	for _, rej := range res.Rejected {
		logger.Warn("Skipped malformed row", zap.Int("row", rej.Index), zap.Error(rej.Err))
	}

	if cerr := s.machine.Complete(res.Accepted, len(res.Rejected)); cerr != nil {
		logger.Error("Failed to record sync completion", zap.Error(cerr))
	}
	if s.metrics != nil {
		s.metrics.RecordSyncSuccess(res.Accepted, len(res.Rejected), elapsed)
	}
	if s.stats != nil {
		if err := s.stats.RefreshGauges(ctx); err != nil {
			logger.Warn("Failed to refresh gauges", zap.Error(err))
		}
	}

	logger.Info("Sync completed",
		zap.Int("entries_synced", res.Accepted),
		zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated),
		zap.Int("rows_rejected", len(res.Rejected)),
		zap.Duration("elapsed", elapsed),
	)
	s.broadcast(ws.MsgTypeSyncCompleted, SyncEvent{
		RunID:         runID,
		EntriesSynced: res.Accepted,
		Inserted:      res.Inserted,
		Updated:       res.Updated,
		RowsRejected:  len(res.Rejected),
	})

	return res, nil
}

func (s *SyncService) broadcast(msgType string, event SyncEvent) {
	if s.hub != nil {
		s.hub.BroadcastMessage(msgType, event)
	}
}

// StartPeriodic 按固定间隔同步，interval <= 0 时不启动
func (s *SyncService) StartPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("Periodic sync already running, skipping start")
		return
	}
	s.stopCh = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.syncLoop(ctx, interval, s.stopCh)

	s.logger.Info("Periodic sync started", zap.Duration("interval", interval))
}

// Stop 停止定时同步
func (s *SyncService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Periodic sync stopped")
}

func (s *SyncService) syncLoop(ctx context.Context, interval time.Duration, stopCh <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// 失败已在 Sync 内记录
			if _, err := s.Sync(ctx); errors.Is(err, ErrSyncInProgress) {
				s.logger.Debug("Skipping periodic sync, previous run still active")
			}
		}
	}
}
