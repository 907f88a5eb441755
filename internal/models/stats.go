package models

// Segment 相邻两次加油之间的区间统计
type Segment struct {
	Date       string   `json:"date"` // 后一次加油的日期 YYYY-MM-DD
	DistanceKm float64  `json:"distance_km"`
	FuelLiters float64  `json:"fuel_liters"`
	LPer100Km  float64  `json:"l_per_100km"`
	Cost       *float64 `json:"cost"`
	CostPerKm  *float64 `json:"cost_per_km"`
	Days       int      `json:"days"`
}

// MonthlySummary 按月汇总
type MonthlySummary struct {
	Month           string  `json:"month"` // YYYY-MM
	TotalDistanceKm float64 `json:"total_distance_km"`
	TotalFuelLiters float64 `json:"total_fuel_liters"`
	LPer100Km       float64 `json:"l_per_100km"`
	TotalCost       float64 `json:"total_cost"`
}

// Consumption 油耗统计
type Consumption struct {
	Period              string  `json:"period"`
	TotalKm             float64 `json:"total_km"`
	TotalLiters         float64 `json:"total_liters"`
	KmPerLiter          float64 `json:"km_per_liter"`
	MilesPerGallon      float64 `json:"miles_per_gallon"`
	AverageCostPerLiter float64 `json:"average_cost_per_liter"`
}
