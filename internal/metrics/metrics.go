package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/langchou/fuelgazer/internal/models"
)

// 同步结果标签
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics 应用指标
type Metrics struct {
	registry *prometheus.Registry

	// 同步
	SyncOperationsTotal *prometheus.CounterVec
	EntriesSyncedLast   prometheus.Gauge
	RowsRejectedLast    prometheus.Gauge
	SyncDuration        prometheus.Histogram

	// 车辆
	OdometerKm           prometheus.Gauge
	KmUntilService       *prometheus.GaugeVec
	DaysSinceLastFueling prometheus.Gauge
	KmPerLiter           prometheus.Gauge
	CostPerKm            prometheus.Gauge

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics 在独立注册表上创建指标，registry 为 nil 时新建
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		SyncOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelgazer_sync_operations_total",
				Help: "Total number of spreadsheet sync operations",
			},
			[]string{"status"},
		),
		EntriesSyncedLast: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fuelgazer_entries_synced_last",
			Help: "Number of entries accepted by the last successful sync",
		}),
		RowsRejectedLast: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fuelgazer_rows_rejected_last",
			Help: "Number of rows rejected by the last successful sync",
		}),
		SyncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fuelgazer_sync_duration_seconds",
			Help:    "Sync duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		OdometerKm: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fuelgazer_odometer_km",
			Help: "Highest recorded odometer reading",
		}),
		KmUntilService: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fuelgazer_km_until_service",
				Help: "Kilometres remaining until the next service, negative when overdue",
			},
			[]string{"service_type"},
		),
		DaysSinceLastFueling: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fuelgazer_days_since_last_fueling",
			Help: "Whole days since the most recent fill-up",
		}),
		KmPerLiter: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fuelgazer_km_per_liter",
			Help: "Fuel efficiency over all recorded fill-ups",
		}),
		CostPerKm: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fuelgazer_cost_per_km",
			Help: "Fuel cost per kilometre over all recorded fill-ups",
		}),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelgazer_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fuelgazer_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
}

// Registry 返回底层注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordSyncSuccess 记录一次成功同步
func (m *Metrics) RecordSyncSuccess(accepted, rejected int, elapsed time.Duration) {
	m.SyncOperationsTotal.WithLabelValues(StatusSuccess).Inc()
	m.EntriesSyncedLast.Set(float64(accepted))
	m.RowsRejectedLast.Set(float64(rejected))
	m.SyncDuration.Observe(elapsed.Seconds())
}

// RecordSyncFailure 记录一次失败同步
func (m *Metrics) RecordSyncFailure(elapsed time.Duration) {
	m.SyncOperationsTotal.WithLabelValues(StatusError).Inc()
	m.SyncDuration.Observe(elapsed.Seconds())
}

// SetServiceReminders 刷新保养提醒指标
func (m *Metrics) SetServiceReminders(currentKm float64, reminders []models.ServiceReminder) {
	m.OdometerKm.Set(currentKm)
	for _, r := range reminders {
		m.KmUntilService.WithLabelValues(r.ServiceType).Set(r.KmRemaining)
	}
}

// GinMiddleware 记录请求数和耗时
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := statusClass(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return strconv.Itoa(code)
	}
	return fmt.Sprintf("%dxx", code/100)
}
