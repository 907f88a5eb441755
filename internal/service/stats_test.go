package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/langchou/fuelgazer/internal/calc"
)

func TestParsePeriod(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	dublin := time.FixedZone("IST", 3600)

	tests := []struct {
		month     string
		loc       *time.Location
		wantFrom  time.Time
		wantTo    time.Time
		wantLabel string
	}{
		{"", time.UTC, now.Add(-30 * 24 * time.Hour), now, "Last 30 days"},
		{"2025-01", time.UTC, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), "2025-01"},
		{"2025-2", time.UTC, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "2025-02"},
		{"2024-12", time.UTC, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "2024-12"},
		{"2025-01", dublin, time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC), time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC), "2025-01"},
	}

	for _, tt := range tests {
		t.Run(tt.month+"/"+tt.loc.String(), func(t *testing.T) {
			p, err := ParsePeriod(tt.month, now, tt.loc, 30*24*time.Hour)
			if err != nil {
				t.Fatalf("ParsePeriod: %v", err)
			}
			if !p.From.Equal(tt.wantFrom) || !p.To.Equal(tt.wantTo) {
				t.Errorf("range = [%v, %v), want [%v, %v)", p.From, p.To, tt.wantFrom, tt.wantTo)
			}
			if p.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", p.Label, tt.wantLabel)
			}
		})
	}
}

func TestParsePeriodInvalid(t *testing.T) {
	for _, month := range []string{"2025-13", "2025-00", "January", "2025/01", "25-01", "2025-01-15"} {
		if _, err := ParsePeriod(month, time.Now(), time.UTC, time.Hour); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("ParsePeriod(%q) err = %v, want ErrInvalidPeriod", month, err)
		}
	}
}

func TestWindowLabel(t *testing.T) {
	if got := windowLabel(7 * 24 * time.Hour); got != "Last 7 days" {
		t.Errorf("windowLabel(7d) = %q", got)
	}
	if got := windowLabel(36 * time.Hour); got != "Last 36h0m0s" {
		t.Errorf("windowLabel(36h) = %q", got)
	}
}

func TestStatsConsumption(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, sampleRows())
	stats := newTestStats(store, nil)
	ctx := context.Background()

	c, err := stats.Consumption(ctx, "2025-01")
	if err != nil {
		t.Fatalf("Consumption: %v", err)
	}
	if c.Period != "2025-01" || c.TotalKm != 120 || c.TotalLiters != 6 || c.KmPerLiter != 20 || c.MilesPerGallon != 47.04 {
		t.Errorf("unexpected consumption: %+v", c)
	}
	if c.AverageCostPerLiter != 1.85 {
		t.Errorf("AverageCostPerLiter = %v, want 1.85", c.AverageCostPerLiter)
	}

	if _, err := stats.Consumption(ctx, "2025-03"); !errors.Is(err, calc.ErrInsufficientData) {
		t.Errorf("empty month err = %v, want ErrInsufficientData", err)
	}
	if _, err := stats.Consumption(ctx, "March"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("bad month err = %v, want ErrInvalidPeriod", err)
	}
}

func TestStatsEfficiencyDefaultWindow(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, sampleRows())
	stats := newTestStats(store, nil)

	report, err := stats.Efficiency(context.Background(), "")
	if err != nil {
		t.Fatalf("Efficiency: %v", err)
	}
	// 2.5 + 3.5 + 4.0 升 / 200 km
	if report.Period != "Last 30 days" || report.LPer100Km != 5 {
		t.Errorf("unexpected report: %+v", report)
	}
	// (4.63 + 6.65 + 7.80) / 200
	if report.CostPerKm != 0.095 {
		t.Errorf("CostPerKm = %v, want 0.095", report.CostPerKm)
	}
	perKm, err := stats.CostPerKm(context.Background(), "")
	if err != nil {
		t.Fatalf("CostPerKm: %v", err)
	}
	if perKm != report.CostPerKm {
		t.Errorf("CostPerKm = %v, want %v", perKm, report.CostPerKm)
	}
}

func TestStatsSegmentsAndMonthly(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, sampleRows())
	stats := newTestStats(store, nil)
	ctx := context.Background()

	segments, period, err := stats.Segments(ctx, "2025-01")
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if period.Label != "2025-01" || len(segments) != 2 {
		t.Fatalf("segments = %v (%s), want 2 for 2025-01", segments, period.Label)
	}
	if segments[1].Date != "2025-01-20" || segments[1].DistanceKm != 70 || segments[1].Days != 5 {
		t.Errorf("unexpected segment: %+v", segments[1])
	}

	monthly, err := stats.Monthly(ctx, "")
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if len(monthly) != 2 {
		t.Fatalf("monthly = %v, want 2 months", monthly)
	}
	if monthly[0].Month != "2025-01" || monthly[0].TotalDistanceKm != 120 {
		t.Errorf("january = %+v", monthly[0])
	}
	if monthly[1].Month != "2025-02" || monthly[1].TotalDistanceKm != 80 || monthly[1].TotalCost != 7.8 {
		t.Errorf("february = %+v", monthly[1])
	}

	if _, err := stats.Monthly(ctx, "2025-99"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("Monthly bad month err = %v, want ErrInvalidPeriod", err)
	}
}

func TestStatsLocalizesTimestamps(t *testing.T) {
	store := newTestStore(t)
	// 23:30 UTC 在 UTC+2 已是次月
	seed(t, store, [][]string{
		{"20/01/2025 10:00:00", "1000", "3.0"},
		{"31/01/2025 23:30:00", "1100", "3.0"},
	})
	stats := NewStatsService(store, testSchedule(), time.FixedZone("EET", 2*3600), 30*24*time.Hour, nil)

	monthly, err := stats.Monthly(context.Background(), "")
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if len(monthly) != 1 || monthly[0].Month != "2025-02" {
		t.Errorf("monthly = %+v, want single 2025-02 bucket", monthly)
	}
}

func TestStatsReminders(t *testing.T) {
	store := newTestStore(t)
	m := newTestMetrics()
	stats := newTestStats(store, m)
	ctx := context.Background()

	reminders, err := stats.Reminders(ctx)
	if err != nil {
		t.Fatalf("Reminders on empty store: %v", err)
	}
	if len(reminders) != 2 || reminders[0].KmRemaining != 1000 {
		t.Errorf("reminders = %+v, want oil_change 1000 km left", reminders)
	}

	seed(t, store, sampleRows())
	reminders, err = stats.Reminders(ctx)
	if err != nil {
		t.Fatalf("Reminders: %v", err)
	}
	if reminders[0].ServiceType != "oil_change" || reminders[0].KmRemaining != -200 {
		t.Errorf("oil_change = %+v, want -200", reminders[0])
	}
	if got := testutil.ToFloat64(m.KmUntilService.WithLabelValues("air_filter")); got != 1800 {
		t.Errorf("air_filter gauge = %v, want 1800", got)
	}
	if got := testutil.ToFloat64(m.OdometerKm); got != 1200 {
		t.Errorf("odometer gauge = %v, want 1200", got)
	}
}

func TestStatsRefreshGauges(t *testing.T) {
	store := newTestStore(t)
	m := newTestMetrics()
	stats := newTestStats(store, m)
	ctx := context.Background()

	if err := stats.RefreshGauges(ctx); err != nil {
		t.Fatalf("RefreshGauges on empty store: %v", err)
	}

	seed(t, store, sampleRows())
	if err := stats.RefreshGauges(ctx); err != nil {
		t.Fatalf("RefreshGauges: %v", err)
	}
	// 最近一次 2025-02-02 10:00，now 为 2025-02-05 12:00
	if got := testutil.ToFloat64(m.DaysSinceLastFueling); got != 3 {
		t.Errorf("days since last fueling = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.KmPerLiter); got != 20 {
		t.Errorf("km per liter = %v, want 20", got)
	}
	if got := testutil.ToFloat64(m.CostPerKm); got != 0.095 {
		t.Errorf("cost per km = %v, want 0.095", got)
	}
	if got := testutil.ToFloat64(m.OdometerKm); got != 1200 {
		t.Errorf("odometer = %v, want 1200", got)
	}
}
