// Package history is an ambient, opt-in audit sink implementing
// core.HistoryPort. It is wired only at the engine facade / CLI layer
// (internal/engine, cmd/typist) — the planner and executor never see
// it, preserving spec §6's "the core is stateless between runs".
//
// Adapted from the teacher's internal/repository/sqlite.go: same
// GORM-over-SQLite shape, collapsed from a multi-table profile/history
// CRM schema down to the one append-only run_records table this
// domain needs.
package history

import (
	"context"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/typist/humantype/internal/core"
)

// runRecordRow is the GORM model backing core.RunRecord.
type runRecordRow struct {
	ID          string `gorm:"primaryKey"`
	StartedAt   time.Time
	FinishedAt  time.Time
	TextLength  int
	WPM         float64
	CharTyped   int
	Backspaces  int
	Navigations int
	Pauses      int
	Warnings    int
	TotalTimeMs int64
	Cancelled   bool
	FailureKind string
}

// SQLiteHistory implements core.HistoryPort using SQLite via GORM.
type SQLiteHistory struct {
	db *gorm.DB
}

// NewSQLiteHistory opens (creating if absent) the SQLite database at
// dbPath and auto-migrates its schema.
func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	db, err := gorm.Open(sqlite.Open(dbPath), cfg)
	if err != nil {
		return nil, err
	}

	h := &SQLiteHistory{db: db}
	if err := h.migrate(context.Background()); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *SQLiteHistory) migrate(ctx context.Context) error {
	return h.db.WithContext(ctx).AutoMigrate(&runRecordRow{})
}

// RecordRun implements core.HistoryPort.
func (h *SQLiteHistory) RecordRun(ctx context.Context, entry core.RunRecord) error {
	row := runRecordRow{
		ID:          entry.ID,
		StartedAt:   entry.StartedAt,
		FinishedAt:  entry.FinishedAt,
		TextLength:  entry.TextLength,
		WPM:         entry.WPM,
		CharTyped:   entry.Stats.CharTyped,
		Backspaces:  entry.Stats.BackspaceCount,
		Navigations: entry.Stats.NavigationCount,
		Pauses:      entry.Stats.PauseCount,
		Warnings:    entry.Stats.WarningsCount,
		TotalTimeMs: entry.Stats.TotalTimeMs,
		Cancelled:   entry.Cancelled,
		FailureKind: entry.FailureKind,
	}
	if row.ID == "" {
		row.ID = fallbackID(entry.StartedAt)
	}
	return h.db.WithContext(ctx).Create(&row).Error
}

// RecentRuns returns the most recent n run records, newest first.
func (h *SQLiteHistory) RecentRuns(ctx context.Context, n int) ([]core.RunRecord, error) {
	var rows []runRecordRow
	if err := h.db.WithContext(ctx).Order("started_at DESC").Limit(n).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]core.RunRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.RunRecord{
			ID:         r.ID,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
			TextLength: r.TextLength,
			WPM:        r.WPM,
			Stats: core.Statistics{
				CharTyped:       r.CharTyped,
				BackspaceCount:  r.Backspaces,
				NavigationCount: r.Navigations,
				PauseCount:      r.Pauses,
				WarningsCount:   r.Warnings,
				TotalTimeMs:     r.TotalTimeMs,
			},
			Cancelled:   r.Cancelled,
			FailureKind: r.FailureKind,
		})
	}
	return out, nil
}

// Close releases the underlying database connection.
func (h *SQLiteHistory) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func fallbackID(t time.Time) string {
	return t.Format("20060102T150405.000000000")
}
