package calc

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/langchou/fuelgazer/internal/models"
)

// Segments 计算相邻两次加油之间的区间数据
// 少于两条记录时返回空切片
func Segments(series []*models.FuelRecord) []models.Segment {
	if len(series) < 2 {
		return []models.Segment{}
	}
	sorted := byOdometer(series)

	segments := make([]models.Segment, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		distance := curr.OdometerKm - prev.OdometerKm

		seg := models.Segment{
			Date:       curr.Timestamp.Format("2006-01-02"),
			DistanceKm: round(distance, 1),
			FuelLiters: curr.FuelLiters,
			Days:       wholeDays(prev, curr),
		}
		if distance > 0 {
			seg.LPer100Km = round(curr.FuelLiters/distance*100, 2)
		}
		if curr.TotalSpend.Valid {
			cost := curr.TotalSpend.Decimal.InexactFloat64()
			seg.Cost = &cost
			if distance > 0 {
				perKm := round(cost/distance, 3)
				seg.CostPerKm = &perKm
			}
		}
		segments = append(segments, seg)
	}
	return segments
}

// wholeDays 两次加油之间的整天数，向下取整
func wholeDays(prev, curr *models.FuelRecord) int {
	return int(math.Floor(curr.Timestamp.Sub(prev.Timestamp).Hours() / 24))
}

type monthTotals struct {
	distance float64
	fuel     float64
	cost     decimal.Decimal
}

// MonthlySummary 按月汇总区间数据，月份升序
// 基于 Segments 汇总，所以第一条记录的油量和花费自然不计入
func MonthlySummary(series []*models.FuelRecord) []models.MonthlySummary {
	segments := Segments(series)
	if len(segments) == 0 {
		return []models.MonthlySummary{}
	}

	months := make(map[string]*monthTotals)
	for _, seg := range segments {
		key := seg.Date[:7]
		t, ok := months[key]
		if !ok {
			t = &monthTotals{}
			months[key] = t
		}
		t.distance += seg.DistanceKm
		t.fuel += seg.FuelLiters
		if seg.Cost != nil {
			t.cost = t.cost.Add(decimal.NewFromFloat(*seg.Cost))
		}
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	summaries := make([]models.MonthlySummary, 0, len(keys))
	for _, k := range keys {
		t := months[k]
		var lPer100 float64
		if t.distance > 0 {
			lPer100 = round(t.fuel/t.distance*100, 2)
		}
		summaries = append(summaries, models.MonthlySummary{
			Month:           k,
			TotalDistanceKm: round(t.distance, 1),
			TotalFuelLiters: round(t.fuel, 2),
			LPer100Km:       lPer100,
			TotalCost:       t.cost.RoundBank(2).InexactFloat64(),
		})
	}
	return summaries
}
