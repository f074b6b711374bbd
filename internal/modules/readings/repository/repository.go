package repository

import (
	"context"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/types"
)

// ReadingRepository is the durable store for readings, keyed by Datetime.
type ReadingRepository interface {
	// Write inserts r or fully replaces the reading with the same Datetime.
	Write(ctx context.Context, r types.Reading) error
	// ScanAll returns every stored reading in no particular order. An error
	// is never reported as an empty result.
	ScanAll(ctx context.Context) ([]types.Reading, error)
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
