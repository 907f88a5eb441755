package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FuelRecord 加油记录
type FuelRecord struct {
	ID           int64               `json:"id" db:"id"`
	Timestamp    time.Time           `json:"timestamp" db:"recorded_at"`
	OdometerKm   float64             `json:"odometer_km" db:"odometer_km"`
	FuelLiters   float64             `json:"fuel_liters" db:"fuel_liters"`
	CostPerLiter decimal.NullDecimal `json:"cost_per_liter" db:"cost_per_liter"` // 单价，可为空
	TotalSpend   decimal.NullDecimal `json:"total_spend" db:"total_spend"`       // 总花费，可为空
	Notes        string              `json:"notes" db:"notes"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

// NaturalKey 合并去重使用的自然键 (时间, 里程)
type NaturalKey struct {
	Timestamp  time.Time
	OdometerKm float64
}

// Key 返回记录的自然键
func (r *FuelRecord) Key() NaturalKey {
	return NaturalKey{Timestamp: r.Timestamp, OdometerKm: r.OdometerKm}
}

// Merge 用新记录覆盖可变字段，自然键和 ID 保持不变
func (r *FuelRecord) Merge(src *FuelRecord) {
	r.FuelLiters = src.FuelLiters
	r.CostPerLiter = src.CostPerLiter
	r.TotalSpend = src.TotalSpend
	r.Notes = src.Notes
}

func (r *FuelRecord) String() string {
	return fmt.Sprintf("%s - %gkm", r.Timestamp.Format("2006-01-02"), r.OdometerKm)
}
