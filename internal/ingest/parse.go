package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/langchou/fuelgazer/internal/models"
)

// 表单时间格式，按顺序尝试，日在前优先
var timestampLayouts = []string{
	"2/1/2006 15:04:05",
	"1/2/2006 15:04:05",
}

// 行字段位置
const (
	colTimestamp = iota
	colOdometer
	colFuel
	colCostPerLiter
	colTotalSpend
	colNotes

	minColumns = colFuel + 1
)

var (
	ErrTooFewFields     = errors.New("row has fewer than 3 fields")
	ErrInvalidTimestamp = errors.New("unable to parse timestamp")
	ErrInvalidOdometer  = errors.New("invalid odometer")
	ErrInvalidFuel      = errors.New("invalid fuel volume")
)

// RowError 被拒绝的行
type RowError struct {
	Index int   // 在输入中的下标
	Err   error // 拒绝原因
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ParseTimestamp 依次尝试已知格式，第一个成功的格式生效
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// ParseRow 将一行原始字符串解析为加油记录
// 时间、里程、油量任一无效则拒绝整行；单价和总花费无效时视为未填写
func ParseRow(row []string, loc *time.Location) (*models.FuelRecord, error) {
	if len(row) < minColumns {
		return nil, ErrTooFewFields
	}

	ts, err := ParseTimestamp(row[colTimestamp], loc)
	if err != nil {
		return nil, err
	}

	odometer, err := parseFloat(row[colOdometer])
	if err != nil || odometer < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOdometer, row[colOdometer])
	}

	fuel, err := parseFloat(row[colFuel])
	if err != nil || fuel <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFuel, row[colFuel])
	}

	r := &models.FuelRecord{
		Timestamp:    ts,
		OdometerKm:   odometer,
		FuelLiters:   fuel,
		CostPerLiter: optionalMoney(row, colCostPerLiter),
		TotalSpend:   optionalMoney(row, colTotalSpend),
	}
	if len(row) > colNotes {
		r.Notes = row[colNotes]
	}
	return r, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// optionalMoney 缺失、为空、无法解析或为负时返回未设置
func optionalMoney(row []string, col int) decimal.NullDecimal {
	if len(row) <= col {
		return decimal.NullDecimal{}
	}
	s := strings.TrimSpace(row[col])
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d.Round(2))
}
