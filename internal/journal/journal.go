// Package journal keeps an optional SQLite record of webhook deliveries.
// Only outcome metadata is stored; message text and tokens never are.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"slackhook/internal/domain"

	_ "modernc.org/sqlite"
)

// Journal implements domain.DeliveryRecorder using SQLite.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(dbPath string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create journal directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open journal: %w", err)
	}
	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := runMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal migration failed: %w", err)
	}
	return &Journal{db: db, logger: logger}, nil
}

// RecordDelivery stores d. Write failures are logged; delivery outcome
// reporting must never fail the send path.
func (j *Journal) RecordDelivery(ctx context.Context, d domain.Delivery) {
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO deliveries (adapter, channel, status_code, bytes, duration_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Adapter, d.Channel, d.StatusCode, d.Bytes, d.Duration.Milliseconds(), d.Error, d.Timestamp.UTC(),
	)
	if err != nil {
		j.logger.Warn("journal write failed", "err", err)
	}
}

// Recent returns up to limit deliveries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]domain.Delivery, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT adapter, channel, status_code, bytes, duration_ms, error, created_at
		 FROM deliveries ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var out []domain.Delivery
	for rows.Next() {
		var (
			d  domain.Delivery
			ms int64
		)
		if err := rows.Scan(&d.Adapter, &d.Channel, &d.StatusCode, &d.Bytes, &ms, &d.Error, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, d)
	}
	return out, rows.Err()
}

// Prune deletes deliveries older than cutoff and returns how many were removed.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM deliveries WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		j.logger.Info("journal pruned", "removed", n)
	}
	return n, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
