package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/langchou/fuelgazer/internal/calc"
	"github.com/langchou/fuelgazer/internal/metrics"
	"github.com/langchou/fuelgazer/internal/models"
	"github.com/langchou/fuelgazer/internal/repository"
)

// ErrInvalidPeriod 月份参数无法解析
var ErrInvalidPeriod = errors.New("invalid period")

var monthPattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)

// Period 统计区间 [From, To)
type Period struct {
	From  time.Time
	To    time.Time
	Label string
}

// ParsePeriod 解析月份参数
// 空字符串表示截至 now 的最近 window；YYYY-MM 表示 loc 时区下的整月
func ParsePeriod(month string, now time.Time, loc *time.Location, window time.Duration) (Period, error) {
	if loc == nil {
		loc = time.UTC
	}

	if month == "" {
		return Period{
			From:  now.Add(-window),
			To:    now,
			Label: windowLabel(window),
		}, nil
	}

	m := monthPattern.FindStringSubmatch(month)
	if m == nil {
		return Period{}, fmt.Errorf("%w: %q, expected YYYY-MM", ErrInvalidPeriod, month)
	}
	year, _ := strconv.Atoi(m[1])
	mon, _ := strconv.Atoi(m[2])
	if mon < 1 || mon > 12 {
		return Period{}, fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, mon)
	}

	from := time.Date(year, time.Month(mon), 1, 0, 0, 0, 0, loc)
	return Period{
		From:  from,
		To:    from.AddDate(0, 1, 0),
		Label: from.Format("2006-01"),
	}, nil
}

func windowLabel(window time.Duration) string {
	day := 24 * time.Hour
	if window%day == 0 {
		return fmt.Sprintf("Last %d days", int(window/day))
	}
	return "Last " + window.String()
}

// EfficiencyReport 区间油耗与每公里花费
type EfficiencyReport struct {
	Period    string  `json:"period"`
	LPer100Km float64 `json:"l_per_100km"`
	CostPerKm float64 `json:"cost_per_km"`
}

// StatsService 统计服务
type StatsService struct {
	store    repository.FuelStore
	schedule models.ServiceSchedule
	loc      *time.Location
	window   time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewStatsService 创建统计服务
func NewStatsService(
	store repository.FuelStore,
	schedule models.ServiceSchedule,
	loc *time.Location,
	window time.Duration,
	m *metrics.Metrics,
) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{
		store:    store,
		schedule: schedule,
		loc:      loc,
		window:   window,
		metrics:  m,
		now:      time.Now,
	}
}

// records 加载区间内的记录，时间转换到配置的时区
func (s *StatsService) records(ctx context.Context, month string) ([]*models.FuelRecord, Period, error) {
	period, err := ParsePeriod(month, s.now(), s.loc, s.window)
	if err != nil {
		return nil, period, err
	}

	records, err := s.store.ListBetween(ctx, period.From, period.To)
	if err != nil {
		return nil, period, err
	}
	s.localize(records)
	return records, period, nil
}

func (s *StatsService) localize(records []*models.FuelRecord) {
	for _, r := range records {
		r.Timestamp = r.Timestamp.In(s.loc)
	}
}

// Consumption 区间油耗概览
func (s *StatsService) Consumption(ctx context.Context, month string) (*models.Consumption, error) {
	records, period, err := s.records(ctx, month)
	if err != nil {
		return nil, err
	}

	c, err := calc.Consumption(records)
	if err != nil {
		return nil, fmt.Errorf("consumption for %s: %w", period.Label, err)
	}
	c.Period = period.Label
	return c, nil
}

// Efficiency 区间油耗 (L/100km) 和每公里花费
func (s *StatsService) Efficiency(ctx context.Context, month string) (*EfficiencyReport, error) {
	records, period, err := s.records(ctx, month)
	if err != nil {
		return nil, err
	}

	lPer100Km, err := calc.Efficiency(records)
	if err != nil {
		return nil, fmt.Errorf("efficiency for %s: %w", period.Label, err)
	}
	costPerKm, err := calc.CostPerKm(records)
	if err != nil {
		return nil, fmt.Errorf("cost per km for %s: %w", period.Label, err)
	}

	return &EfficiencyReport{
		Period:    period.Label,
		LPer100Km: lPer100Km,
		CostPerKm: costPerKm,
	}, nil
}

// CostPerKm 区间每公里花费
func (s *StatsService) CostPerKm(ctx context.Context, month string) (float64, error) {
	records, period, err := s.records(ctx, month)
	if err != nil {
		return 0, err
	}

	v, err := calc.CostPerKm(records)
	if err != nil {
		return 0, fmt.Errorf("cost per km for %s: %w", period.Label, err)
	}
	return v, nil
}

// Segments 区间内相邻加油之间的统计
func (s *StatsService) Segments(ctx context.Context, month string) ([]models.Segment, Period, error) {
	records, period, err := s.records(ctx, month)
	if err != nil {
		return nil, period, err
	}
	return calc.Segments(records), period, nil
}

// Monthly 按月汇总，month 为空时汇总全部记录
func (s *StatsService) Monthly(ctx context.Context, month string) ([]models.MonthlySummary, error) {
	if month != "" {
		records, _, err := s.records(ctx, month)
		if err != nil {
			return nil, err
		}
		return calc.MonthlySummary(records), nil
	}

	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	s.localize(records)
	return calc.MonthlySummary(records), nil
}

// Reminders 按当前最大里程计算保养提醒，并刷新指标
func (s *StatsService) Reminders(ctx context.Context) ([]models.ServiceReminder, error) {
	current, err := s.store.MaxOdometer(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	reminders := calc.ServiceReminders(s.schedule, current)
	if s.metrics != nil {
		s.metrics.SetServiceReminders(current, reminders)
	}
	return reminders, nil
}

// RefreshGauges 刷新保养提醒、距上次加油天数以及全部记录的油耗和每公里花费指标
func (s *StatsService) RefreshGauges(ctx context.Context) error {
	if s.metrics == nil {
		return nil
	}
	if _, err := s.Reminders(ctx); err != nil {
		return err
	}

	latest, err := s.store.Latest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	days := math.Floor(s.now().Sub(latest.Timestamp).Hours() / 24)
	s.metrics.DaysSinceLastFueling.Set(days)

	records, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	if lPer100Km, err := calc.Efficiency(records); err == nil && lPer100Km > 0 {
		s.metrics.KmPerLiter.Set(100 / lPer100Km)
	}
	if costPerKm, err := calc.CostPerKm(records); err == nil {
		s.metrics.CostPerKm.Set(costPerKm)
	}
	return nil
}
