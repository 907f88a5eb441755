package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/langchou/fuelgazer/internal/models"
)

// querier 连接池和事务共用的查询接口
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const fuelColumns = `id, recorded_at, odometer_km, fuel_liters, cost_per_liter, total_spend, notes, created_at, updated_at`

// FuelRepository Postgres 加油记录仓库
type FuelRepository struct {
	db *DB
}

// NewFuelRepository 创建加油记录仓库
func NewFuelRepository(db *DB) *FuelRepository {
	return &FuelRepository{db: db}
}

// Migrate 执行迁移
func (r *FuelRepository) Migrate(ctx context.Context) error {
	return r.db.Migrate(ctx)
}

// Close 关闭连接池
func (r *FuelRepository) Close() {
	r.db.Close()
}

// InTx 在事务中执行 fn，fn 返回错误时回滚
func (r *FuelRepository) InTx(ctx context.Context, fn func(w RecordWriter) error) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		return fn(&pgWriter{q: tx})
	})
}

// List 获取全部记录，按时间倒序
func (r *FuelRepository) List(ctx context.Context) ([]*models.FuelRecord, error) {
	query := `SELECT ` + fuelColumns + ` FROM fuel_records ORDER BY recorded_at DESC`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list fuel records: %w", err)
	}
	return collectRecords(rows)
}

// GetByID 通过 ID 获取记录
func (r *FuelRepository) GetByID(ctx context.Context, id int64) (*models.FuelRecord, error) {
	query := `SELECT ` + fuelColumns + ` FROM fuel_records WHERE id = $1`
	rec, err := scanRecord(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get fuel record: %w", err)
	}
	return rec, nil
}

// Latest 获取最近一次加油
func (r *FuelRepository) Latest(ctx context.Context) (*models.FuelRecord, error) {
	query := `SELECT ` + fuelColumns + ` FROM fuel_records ORDER BY recorded_at DESC LIMIT 1`
	rec, err := scanRecord(r.db.Pool.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("get latest fuel record: %w", err)
	}
	return rec, nil
}

// ListBetween 获取 [from, to) 区间内的记录
func (r *FuelRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*models.FuelRecord, error) {
	query := `
		SELECT ` + fuelColumns + `
		FROM fuel_records WHERE recorded_at >= $1 AND recorded_at < $2
		ORDER BY odometer_km
	`
	rows, err := r.db.Pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list fuel records between: %w", err)
	}
	return collectRecords(rows)
}

// Count 统计记录数
func (r *FuelRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM fuel_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count fuel records: %w", err)
	}
	return count, nil
}

// MaxOdometer 获取最大里程读数，无记录时返回 ErrNotFound
func (r *FuelRepository) MaxOdometer(ctx context.Context) (float64, error) {
	var maxKm *float64
	if err := r.db.Pool.QueryRow(ctx, `SELECT MAX(odometer_km) FROM fuel_records`).Scan(&maxKm); err != nil {
		return 0, fmt.Errorf("get max odometer: %w", err)
	}
	if maxKm == nil {
		return 0, ErrNotFound
	}
	return *maxKm, nil
}

// pgWriter 事务内写入
type pgWriter struct {
	q querier
}

func (w *pgWriter) FindByKey(ctx context.Context, timestamp time.Time, odometerKm float64) (*models.FuelRecord, error) {
	query := `SELECT ` + fuelColumns + ` FROM fuel_records WHERE recorded_at = $1 AND odometer_km = $2`
	rec, err := scanRecord(w.q.QueryRow(ctx, query, timestamp, odometerKm))
	if err != nil {
		return nil, fmt.Errorf("find fuel record by key: %w", err)
	}
	return rec, nil
}

func (w *pgWriter) Create(ctx context.Context, rec *models.FuelRecord) error {
	query := `
		INSERT INTO fuel_records (recorded_at, odometer_km, fuel_liters, cost_per_liter, total_spend, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (recorded_at, odometer_km) DO UPDATE SET
			fuel_liters = EXCLUDED.fuel_liters,
			cost_per_liter = EXCLUDED.cost_per_liter,
			total_spend = EXCLUDED.total_spend,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	now := time.Now()
	err := w.q.QueryRow(ctx, query,
		rec.Timestamp,
		rec.OdometerKm,
		rec.FuelLiters,
		rec.CostPerLiter,
		rec.TotalSpend,
		rec.Notes,
		now,
		now,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert fuel record: %w", err)
	}

	rec.UpdatedAt = now
	return nil
}

func (w *pgWriter) Update(ctx context.Context, rec *models.FuelRecord) error {
	query := `
		UPDATE fuel_records SET
			fuel_liters = $1,
			cost_per_liter = $2,
			total_spend = $3,
			notes = $4,
			updated_at = $5
		WHERE id = $6
	`
	now := time.Now()
	tag, err := w.q.Exec(ctx, query,
		rec.FuelLiters,
		rec.CostPerLiter,
		rec.TotalSpend,
		rec.Notes,
		now,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update fuel record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update fuel record %d: %w", rec.ID, ErrNotFound)
	}

	rec.UpdatedAt = now
	return nil
}

func scanRecord(row pgx.Row) (*models.FuelRecord, error) {
	rec := &models.FuelRecord{}
	err := row.Scan(
		&rec.ID,
		&rec.Timestamp,
		&rec.OdometerKm,
		&rec.FuelLiters,
		&rec.CostPerLiter,
		&rec.TotalSpend,
		&rec.Notes,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func collectRecords(rows pgx.Rows) ([]*models.FuelRecord, error) {
	defer rows.Close()

	records := []*models.FuelRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fuel record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fuel records: %w", err)
	}

	return records, nil
}
