package ingest

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestampPrecedence(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		// 日 <= 12 时有歧义，按日在前解析
		{"03/04/2025 08:15:00", time.Date(2025, 4, 3, 8, 15, 0, 0, time.UTC)},
		{"15/01/2025 10:00:00", time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)},
		// 只能按月在前解析
		{"01/15/2025 10:00:00", time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)},
		// 不补零的表单时间
		{"1/15/2025 9:05:07", time.Date(2025, 1, 15, 9, 5, 7, 0, time.UTC)},
		{"5/3/2025 18:00:00", time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in, time.UTC)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTimestampRejects(t *testing.T) {
	for _, in := range []string{"", "2025-01-15 10:00:00", "15/01/2025", "32/13/2025 10:00:00", "15/15/2025 10:00:00"} {
		if _, err := ParseTimestamp(in, time.UTC); !errors.Is(err, ErrInvalidTimestamp) {
			t.Errorf("ParseTimestamp(%q) err = %v, want ErrInvalidTimestamp", in, err)
		}
	}
}

func TestParseTimestampLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	got, err := ParseTimestamp("15/01/2025 10:00:00", loc)
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if want := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got.UTC(), want)
	}
}

func TestParseRow(t *testing.T) {
	r, err := ParseRow([]string{"15/01/2025 10:00:00", " 1500 ", "3.2", "1.85", "5.92", "full"}, time.UTC)
	if err != nil {
		t.Fatalf("ParseRow: %v", err)
	}
	if r.OdometerKm != 1500 || r.FuelLiters != 3.2 || r.Notes != "full" {
		t.Errorf("unexpected record: %+v", r)
	}
	if !r.CostPerLiter.Valid || r.CostPerLiter.Decimal.String() != "1.85" {
		t.Errorf("CostPerLiter = %v, want 1.85", r.CostPerLiter)
	}
	if !r.TotalSpend.Valid || r.TotalSpend.Decimal.String() != "5.92" {
		t.Errorf("TotalSpend = %v, want 5.92", r.TotalSpend)
	}
}

func TestParseRowOptionalFields(t *testing.T) {
	tests := []struct {
		name      string
		row       []string
		wantPrice bool
		wantSpend bool
	}{
		{"absent", []string{"15/01/2025 10:00:00", "1500", "3.2"}, false, false},
		{"empty", []string{"15/01/2025 10:00:00", "1500", "3.2", "", ""}, false, false},
		{"unparsable", []string{"15/01/2025 10:00:00", "1500", "3.2", "n/a", "€5"}, false, false},
		{"negative", []string{"15/01/2025 10:00:00", "1500", "3.2", "-1", "5"}, false, true},
		{"price only", []string{"15/01/2025 10:00:00", "1500", "3.2", "1.9"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRow(tt.row, time.UTC)
			if err != nil {
				t.Fatalf("ParseRow: %v", err)
			}
			if r.CostPerLiter.Valid != tt.wantPrice {
				t.Errorf("CostPerLiter.Valid = %v, want %v", r.CostPerLiter.Valid, tt.wantPrice)
			}
			if r.TotalSpend.Valid != tt.wantSpend {
				t.Errorf("TotalSpend.Valid = %v, want %v", r.TotalSpend.Valid, tt.wantSpend)
			}
			if r.Notes != "" {
				t.Errorf("Notes = %q, want empty", r.Notes)
			}
		})
	}
}

func TestParseRowRounding(t *testing.T) {
	r, err := ParseRow([]string{"15/01/2025 10:00:00", "1500", "3.2", "1.857", "5.925"}, time.UTC)
	if err != nil {
		t.Fatalf("ParseRow: %v", err)
	}
	if got := r.CostPerLiter.Decimal.String(); got != "1.86" {
		t.Errorf("CostPerLiter = %s, want 1.86", got)
	}
	if got := r.TotalSpend.Decimal.String(); got != "5.93" {
		t.Errorf("TotalSpend = %s, want 5.93", got)
	}
}

func TestParseRowRejects(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want error
	}{
		{"too few fields", []string{"15/01/2025 10:00:00", "1500"}, ErrTooFewFields},
		{"empty row", nil, ErrTooFewFields},
		{"bad timestamp", []string{"yesterday", "1500", "3.2"}, ErrInvalidTimestamp},
		{"bad odometer", []string{"15/01/2025 10:00:00", "abc", "3.2"}, ErrInvalidOdometer},
		{"negative odometer", []string{"15/01/2025 10:00:00", "-5", "3.2"}, ErrInvalidOdometer},
		{"nan odometer", []string{"15/01/2025 10:00:00", "NaN", "3.2"}, ErrInvalidOdometer},
		{"bad fuel", []string{"15/01/2025 10:00:00", "1500", ""}, ErrInvalidFuel},
		{"zero fuel", []string{"15/01/2025 10:00:00", "1500", "0"}, ErrInvalidFuel},
		{"infinite fuel", []string{"15/01/2025 10:00:00", "1500", "Inf"}, ErrInvalidFuel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRow(tt.row, time.UTC)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseRow err = %v, want %v", err, tt.want)
			}
		})
	}
}
