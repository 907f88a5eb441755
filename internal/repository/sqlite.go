package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/langchou/fuelgazer/internal/models"
)

// SQLite 下时间统一以 UTC 存储，金额以 TEXT 存储以保留精度
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS fuel_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recorded_at DATETIME NOT NULL,
    odometer_km REAL NOT NULL,
    fuel_liters REAL NOT NULL,
    cost_per_liter TEXT,
    total_spend TEXT,
    notes TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fuel_records_recorded_at ON fuel_records(recorded_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_fuel_records_natural_key ON fuel_records(recorded_at, odometer_km);
`

// sqlQuerier *sql.DB 和 *sql.Tx 共用的查询接口
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteFuelRepository 嵌入式 SQLite 加油记录仓库
type SQLiteFuelRepository struct {
	db *sql.DB
}

// NewSQLiteFuelRepository 打开 SQLite 数据库，dsn 可以是文件路径或 :memory:
func NewSQLiteFuelRepository(dsn string) (*SQLiteFuelRepository, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite 只允许单写者，内存库每个连接也是独立的
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteFuelRepository{db: db}, nil
}

// Migrate 创建表结构
func (r *SQLiteFuelRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	return nil
}

// Close 关闭数据库
func (r *SQLiteFuelRepository) Close() {
	r.db.Close()
}

// InTx 在事务中执行 fn，fn 返回错误时回滚
func (r *SQLiteFuelRepository) InTx(ctx context.Context, fn func(w RecordWriter) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&sqliteWriter{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// List 获取全部记录，按时间倒序
func (r *SQLiteFuelRepository) List(ctx context.Context) ([]*models.FuelRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+fuelColumns+` FROM fuel_records ORDER BY recorded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list fuel records: %w", err)
	}
	return collectSQLRecords(rows)
}

// GetByID 通过 ID 获取记录
func (r *SQLiteFuelRepository) GetByID(ctx context.Context, id int64) (*models.FuelRecord, error) {
	rec, err := scanSQLRecord(r.db.QueryRowContext(ctx, `SELECT `+fuelColumns+` FROM fuel_records WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get fuel record: %w", err)
	}
	return rec, nil
}

// Latest 获取最近一次加油
func (r *SQLiteFuelRepository) Latest(ctx context.Context) (*models.FuelRecord, error) {
	rec, err := scanSQLRecord(r.db.QueryRowContext(ctx, `SELECT `+fuelColumns+` FROM fuel_records ORDER BY recorded_at DESC LIMIT 1`))
	if err != nil {
		return nil, fmt.Errorf("get latest fuel record: %w", err)
	}
	return rec, nil
}

// ListBetween 获取 [from, to) 区间内的记录
func (r *SQLiteFuelRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*models.FuelRecord, error) {
	query := `
		SELECT ` + fuelColumns + `
		FROM fuel_records WHERE recorded_at >= ? AND recorded_at < ?
		ORDER BY odometer_km
	`
	rows, err := r.db.QueryContext(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list fuel records between: %w", err)
	}
	return collectSQLRecords(rows)
}

// Count 统计记录数
func (r *SQLiteFuelRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fuel_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count fuel records: %w", err)
	}
	return count, nil
}

// MaxOdometer 获取最大里程读数，无记录时返回 ErrNotFound
func (r *SQLiteFuelRepository) MaxOdometer(ctx context.Context) (float64, error) {
	var maxKm sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(odometer_km) FROM fuel_records`).Scan(&maxKm); err != nil {
		return 0, fmt.Errorf("get max odometer: %w", err)
	}
	if !maxKm.Valid {
		return 0, ErrNotFound
	}
	return maxKm.Float64, nil
}

type sqliteWriter struct {
	q sqlQuerier
}

func (w *sqliteWriter) FindByKey(ctx context.Context, timestamp time.Time, odometerKm float64) (*models.FuelRecord, error) {
	query := `SELECT ` + fuelColumns + ` FROM fuel_records WHERE recorded_at = ? AND odometer_km = ?`
	rec, err := scanSQLRecord(w.q.QueryRowContext(ctx, query, timestamp.UTC(), odometerKm))
	if err != nil {
		return nil, fmt.Errorf("find fuel record by key: %w", err)
	}
	return rec, nil
}

func (w *sqliteWriter) Create(ctx context.Context, rec *models.FuelRecord) error {
	query := `
		INSERT INTO fuel_records (recorded_at, odometer_km, fuel_liters, cost_per_liter, total_spend, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (recorded_at, odometer_km) DO UPDATE SET
			fuel_liters = excluded.fuel_liters,
			cost_per_liter = excluded.cost_per_liter,
			total_spend = excluded.total_spend,
			notes = excluded.notes,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now().UTC()
	err := w.q.QueryRowContext(ctx, query,
		rec.Timestamp.UTC(),
		rec.OdometerKm,
		rec.FuelLiters,
		rec.CostPerLiter,
		rec.TotalSpend,
		rec.Notes,
		now,
		now,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert fuel record: %w", err)
	}

	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

func (w *sqliteWriter) Update(ctx context.Context, rec *models.FuelRecord) error {
	query := `
		UPDATE fuel_records SET
			fuel_liters = ?,
			cost_per_liter = ?,
			total_spend = ?,
			notes = ?,
			updated_at = ?
		WHERE id = ?
	`
	now := time.Now().UTC()
	res, err := w.q.ExecContext(ctx, query,
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
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update fuel record %d: %w", rec.ID, ErrNotFound)
	}

	rec.UpdatedAt = now
	return nil
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLRecord(row sqlScanner) (*models.FuelRecord, error) {
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
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func collectSQLRecords(rows *sql.Rows) ([]*models.FuelRecord, error) {
	defer rows.Close()

	records := []*models.FuelRecord{}
	for rows.Next() {
		rec, err := scanSQLRecord(rows)
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
