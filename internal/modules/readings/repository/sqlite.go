package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/types"
)

//go:embed sql/upsert-reading.sql
var upsertReadingSQL string

//go:embed sql/scan-readings.sql
var scanReadingsSQL string

type sqliteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository stores readings in the readings table created by the
// migrate package.
func NewSQLiteRepository(db *sql.DB) ReadingRepository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) Write(ctx context.Context, rd types.Reading) error {
	_, err := r.db.ExecContext(ctx, upsertReadingSQL, rd.Datetime, rd.Location, rd.PM1, rd.PM25, rd.PM10)
	if err != nil {
		return fmt.Errorf("upsert reading %q: %w", rd.Datetime, err)
	}
	return nil
}

func (r *sqliteRepository) ScanAll(ctx context.Context) ([]types.Reading, error) {
	rows, err := r.db.QueryContext(ctx, scanReadingsSQL)
	if err != nil {
		return nil, fmt.Errorf("scan readings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()

	out := []types.Reading{}
	for rows.Next() {
		var rd types.Reading
		if err := rows.Scan(&rd.Datetime, &rd.Location, &rd.PM1, &rd.PM25, &rd.PM10); err != nil {
			return nil, fmt.Errorf("scan reading row: %w", err)
		}
		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return out, nil
}

func (r *sqliteRepository) Ping(ctx context.Context) error {
	var ok int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		return err
	}
	return nil
}
