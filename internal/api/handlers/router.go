package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/fuelgazer/internal/metrics"
	"github.com/langchou/fuelgazer/internal/repository"
	"github.com/langchou/fuelgazer/internal/service"
	"github.com/langchou/fuelgazer/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger       *zap.Logger
	store        repository.FuelStore
	syncService  *service.SyncService
	statsService *service.StatsService
	metrics      *metrics.Metrics
	wsHub        *ws.Hub
	upgrader     websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	store repository.FuelStore,
	syncService *service.SyncService,
	statsService *service.StatsService,
	m *metrics.Metrics,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:       logger,
		store:        store,
		syncService:  syncService,
		statsService: statsService,
		metrics:      m,
		wsHub:        wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// API 路由
	api := r.Group("/api")
	{
		// 加油记录
		api.GET("/fuel-entries", h.ListFuelEntries)
		api.GET("/fuel-entries/last-fillup", h.GetLastFillup)
		api.GET("/fuel-entries/:id", h.GetFuelEntry)

		// 同步
		api.POST("/sync", h.TriggerSync)
		api.GET("/sync/status", h.GetSyncStatus)

		// 统计
		api.GET("/stats/mpg", h.GetConsumption)
		api.GET("/stats/efficiency", h.GetEfficiency)
		api.GET("/stats/segments", h.GetSegments)
		api.GET("/stats/monthly", h.GetMonthly)
		api.GET("/stats/reminders", h.GetReminders)
	}

	// Prometheus
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// InitData WebSocket 新连接的初始数据
func (h *Handler) InitData() *ws.InitData {
	data := &ws.InitData{Sync: h.syncService.Status()}

	latest, err := h.store.Latest(context.Background())
	switch {
	case err == nil:
		data.LatestEntry = latest
	case !errors.Is(err, repository.ErrNotFound):
		h.logger.Warn("Failed to load latest fuel entry", zap.Error(err))
	}
	return data
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	count, err := h.store.Count(c.Request.Context())
	if err != nil {
		h.logger.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"entries":    count,
		"sync_state": h.syncService.Status().State,
		"ws_clients": h.wsHub.ClientCount(),
	})
}
