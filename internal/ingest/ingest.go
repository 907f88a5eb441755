// Package ingest 将表格原始行解析为加油记录，并按自然键合并写入存储。
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/langchou/fuelgazer/internal/models"
	"github.com/langchou/fuelgazer/internal/repository"
)

// ErrFetchFailed 拉取表格数据失败，整次同步中止
var ErrFetchFailed = errors.New("fetch rows failed")

// RecordWriter 事务内的记录读写，FindByKey 未命中时返回 repository.ErrNotFound
type RecordWriter = repository.RecordWriter

// Store 提供事务边界，fn 返回错误时回滚
type Store interface {
	InTx(ctx context.Context, fn func(w RecordWriter) error) error
}

// Fetcher 表格数据源
type Fetcher interface {
	FetchRows(ctx context.Context, readRange string) ([][]string, error)
}

// Result 一次导入的结果
type Result struct {
	Accepted int         `json:"accepted"` // 通过校验并写入 (新增或更新) 的行数
	Inserted int         `json:"inserted"`
	Updated  int         `json:"updated"`
	Rejected []*RowError `json:"-"`
}

// Engine 导入引擎
type Engine struct {
	store Store
	loc   *time.Location
}

// NewEngine 创建导入引擎，loc 为表格时间所在时区
func NewEngine(store Store, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{store: store, loc: loc}
}

// Run 拉取表格数据并导入
// 拉取失败时不写入任何数据，也不重试
func (e *Engine) Run(ctx context.Context, fetcher Fetcher, readRange string) (*Result, error) {
	rows, err := fetcher.FetchRows(ctx, readRange)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return e.Ingest(ctx, rows)
}

// Ingest 解析并合并一批原始行
// 单行错误跳过并记录在 Result.Rejected；存储错误使整批回滚
func (e *Engine) Ingest(ctx context.Context, rows [][]string) (*Result, error) {
	res := &Result{}

	var parsed []*models.FuelRecord
	for i, row := range rows {
		r, err := ParseRow(row, e.loc)
		if err != nil {
			res.Rejected = append(res.Rejected, &RowError{Index: i, Err: err})
			continue
		}
		parsed = append(parsed, r)
	}

	err := e.store.InTx(ctx, func(w RecordWriter) error {
		for _, r := range parsed {
			inserted, err := merge(ctx, w, r)
			if err != nil {
				return err
			}
			if inserted {
				res.Inserted++
			} else {
				res.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest rows: %w", err)
	}

	res.Accepted = res.Inserted + res.Updated
	return res, nil
}

// merge 按自然键查找，存在则覆盖可变字段，否则新增
func merge(ctx context.Context, w RecordWriter, r *models.FuelRecord) (bool, error) {
	existing, err := w.FindByKey(ctx, r.Timestamp, r.OdometerKm)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if err := w.Create(ctx, r); err != nil {
			return false, fmt.Errorf("create record %s: %w", r, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("find record %s: %w", r, err)
	}

	existing.Merge(r)
	if err := w.Update(ctx, existing); err != nil {
		return false, fmt.Errorf("update record %s: %w", existing, err)
	}
	return false, nil
}
