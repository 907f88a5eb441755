// Package calc 基于加油记录序列计算油耗、花费、区间与月度统计。
//
// 所有函数都会先按里程升序复制排序，不修改调用方传入的切片。
// 第一条记录的油量是在该里程读数之前消耗的，因此不计入任何基于距离的比值。
package calc

import (
	"errors"
	"math"
	"sort"

	"github.com/langchou/fuelgazer/internal/models"
)

// ErrInsufficientData 记录不足或总里程非正，无法计算
var ErrInsufficientData = errors.New("not enough data to calculate consumption")

// byOdometer 返回按里程升序排列的副本
func byOdometer(series []*models.FuelRecord) []*models.FuelRecord {
	sorted := make([]*models.FuelRecord, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OdometerKm < sorted[j].OdometerKm
	})
	return sorted
}

// span 校验序列并返回排序结果和首尾里程差
func span(series []*models.FuelRecord) ([]*models.FuelRecord, float64, error) {
	if len(series) < 2 {
		return nil, 0, ErrInsufficientData
	}
	sorted := byOdometer(series)
	distance := sorted[len(sorted)-1].OdometerKm - sorted[0].OdometerKm
	if distance <= 0 {
		return nil, 0, ErrInsufficientData
	}
	return sorted, distance, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
