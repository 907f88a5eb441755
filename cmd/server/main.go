package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/fuelgazer/internal/api/handlers"
	"github.com/langchou/fuelgazer/internal/api/sheets"
	"github.com/langchou/fuelgazer/internal/config"
	"github.com/langchou/fuelgazer/internal/ingest"
	"github.com/langchou/fuelgazer/internal/metrics"
	"github.com/langchou/fuelgazer/internal/repository"
	"github.com/langchou/fuelgazer/internal/service"
	"github.com/langchou/fuelgazer/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting Fuelgazer", zap.String("port", cfg.ServerPort))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	store, err := repository.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer store.Close()

	// 执行数据库迁移
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migrated successfully")

	// 保养计划
	schedule, err := config.LoadServiceSchedule(cfg.ServiceScheduleFile)
	if err != nil {
		logger.Fatal("Failed to load service schedule", zap.Error(err))
	}
	logger.Info("Service schedule loaded", zap.Int("services", len(schedule.Services)))

	// 表格客户端 (未配置时只提供查询)
	var fetcher ingest.Fetcher
	if cfg.SheetID != "" {
		client, err := sheets.NewClient(ctx, cfg.ServiceAccountFile, cfg.SheetID)
		if err != nil {
			logger.Fatal("Failed to create sheets client", zap.Error(err))
		}
		fetcher = client
	} else {
		logger.Warn("GOOGLE_SHEET_ID not set, sync disabled")
	}

	// 指标
	appMetrics := metrics.NewMetrics(nil)

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run(ctx)

	// 创建服务
	statsService := service.NewStatsService(store, schedule, cfg.Location, cfg.StatsWindow, appMetrics)
	syncService := service.NewSyncService(
		logger,
		ingest.NewEngine(store, cfg.Location),
		fetcher,
		service.SyncOptions{SheetRange: cfg.SheetRange, Timeout: cfg.SyncTimeout},
		statsService,
		appMetrics,
		wsHub,
	)

	// 启动时刷新指标
	if err := statsService.RefreshGauges(ctx); err != nil {
		logger.Warn("Failed to set initial metrics", zap.Error(err))
	}

	if fetcher != nil {
		syncService.StartPeriodic(ctx, cfg.SyncInterval)
	}

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(logger, store, syncService, statsService, appMetrics, wsHub)
	wsHub.SetInitDataProvider(handler.InitData)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(appMetrics.GinMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 停止定时同步
	syncService.Stop()

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
