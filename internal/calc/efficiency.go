package calc

import (
	"github.com/langchou/fuelgazer/internal/models"
)

// kmPerLiterToMPG km/L 转换为美制 MPG
const kmPerLiterToMPG = 2.352

// Efficiency 计算整体油耗 (L/100km)，保留两位小数
func Efficiency(series []*models.FuelRecord) (float64, error) {
	sorted, distance, err := span(series)
	if err != nil {
		return 0, err
	}

	var liters float64
	for _, r := range sorted[1:] {
		liters += r.FuelLiters
	}
	return round(liters/distance*100, 2), nil
}

// CostPerKm 计算每公里花费，保留三位小数
// 只累计设置了总花费的记录
func CostPerKm(series []*models.FuelRecord) (float64, error) {
	sorted, distance, err := span(series)
	if err != nil {
		return 0, err
	}

	var cost float64
	for _, r := range sorted[1:] {
		if r.TotalSpend.Valid {
			cost += r.TotalSpend.Decimal.InexactFloat64()
		}
	}
	return round(cost/distance, 3), nil
}

// Consumption 计算区间油耗概览
func Consumption(series []*models.FuelRecord) (*models.Consumption, error) {
	if len(series) < 2 {
		return nil, ErrInsufficientData
	}
	sorted := byOdometer(series)

	totalKm := sorted[len(sorted)-1].OdometerKm - sorted[0].OdometerKm
	var totalLiters float64
	for _, r := range sorted[1:] {
		totalLiters += r.FuelLiters
	}

	var kmPerLiter float64
	if totalLiters > 0 {
		kmPerLiter = totalKm / totalLiters
	}

	// 平均单价按全部记录统计，包含第一条
	var priceSum float64
	var priceCount int
	for _, r := range sorted {
		if r.CostPerLiter.Valid {
			priceSum += r.CostPerLiter.Decimal.InexactFloat64()
			priceCount++
		}
	}
	var avgPrice float64
	if priceCount > 0 {
		avgPrice = priceSum / float64(priceCount)
	}

	return &models.Consumption{
		TotalKm:             round(totalKm, 2),
		TotalLiters:         round(totalLiters, 2),
		KmPerLiter:          round(kmPerLiter, 2),
		MilesPerGallon:      round(kmPerLiter*kmPerLiterToMPG, 2),
		AverageCostPerLiter: round(avgPrice, 2),
	}, nil
}
