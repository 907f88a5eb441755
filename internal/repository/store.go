package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/langchou/fuelgazer/internal/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// RecordWriter 事务内的记录读写
type RecordWriter interface {
	// FindByKey 按自然键 (时间, 里程) 查找，不存在时返回 ErrNotFound
	FindByKey(ctx context.Context, timestamp time.Time, odometerKm float64) (*models.FuelRecord, error)
	// Create 新增记录；若并发写入了相同自然键则覆盖可变字段
	Create(ctx context.Context, r *models.FuelRecord) error
	// Update 按 ID 覆盖可变字段
	Update(ctx context.Context, r *models.FuelRecord) error
}

// FuelStore 加油记录存储
type FuelStore interface {
	Migrate(ctx context.Context) error
	InTx(ctx context.Context, fn func(w RecordWriter) error) error

	List(ctx context.Context) ([]*models.FuelRecord, error)
	GetByID(ctx context.Context, id int64) (*models.FuelRecord, error)
	Latest(ctx context.Context) (*models.FuelRecord, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*models.FuelRecord, error)
	Count(ctx context.Context) (int64, error)
	MaxOdometer(ctx context.Context) (float64, error)

	Close()
}

// Open 根据 URL 打开存储
// sqlite://path 或 file: 开头使用 SQLite，其余按 Postgres 连接串处理
func Open(ctx context.Context, databaseURL string) (FuelStore, error) {
	if strings.HasPrefix(databaseURL, "sqlite://") || strings.HasPrefix(databaseURL, "file:") {
		repo, err := NewSQLiteFuelRepository(strings.TrimPrefix(databaseURL, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return repo, nil
	}

	db, err := New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewFuelRepository(db), nil
}
