package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/langchou/fuelgazer/internal/ingest"
	"github.com/langchou/fuelgazer/internal/metrics"
	"github.com/langchou/fuelgazer/internal/models"
	"github.com/langchou/fuelgazer/internal/repository"
)

func newTestStore(t *testing.T) *repository.SQLiteFuelRepository {
	t.Helper()
	repo, err := repository.NewSQLiteFuelRepository(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(repo.Close)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

// seed 通过导入引擎写入表格行
func seed(t *testing.T, store *repository.SQLiteFuelRepository, rows [][]string) {
	t.Helper()
	res, err := ingest.NewEngine(store, time.UTC).Ingest(context.Background(), rows)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(res.Rejected) != 0 {
		t.Fatalf("seed rows rejected: %v", res.Rejected)
	}
}

func sampleRows() [][]string {
	return [][]string{
		{"10/01/2025 10:00:00", "1000", "3.0", "1.80", "5.40"},
		{"15/01/2025 10:00:00", "1050", "2.5", "1.85", "4.63"},
		{"20/01/2025 10:00:00", "1120", "3.5", "1.90", "6.65"},
		{"02/02/2025 10:00:00", "1200", "4.0", "1.95", "7.80"},
	}
}

func testSchedule() models.ServiceSchedule {
	return models.ServiceSchedule{Services: []models.ServiceInterval{
		{Type: "oil_change", IntervalKm: 1000, LastServiceKm: 0},
		{Type: "air_filter", IntervalKm: 3000, LastServiceKm: 0},
	}}
}

func newTestStats(store repository.FuelStore, m *metrics.Metrics) *StatsService {
	s := NewStatsService(store, testSchedule(), time.UTC, 30*24*time.Hour, m)
	s.now = func() time.Time { return time.Date(2025, 2, 5, 12, 0, 0, 0, time.UTC) }
	return s
}

func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.NewRegistry())
}

var nopLogger = zap.NewNop()
