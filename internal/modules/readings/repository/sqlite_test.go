package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/migrate"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/types"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// One connection so every statement sees the same in-memory database.
	db.SetMaxOpenConns(1)
	if err := migrate.Run(context.Background(), db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			t.Fatalf("close db: %v", closeErr)
		}
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func sortByDatetime(rs []types.Reading) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].Datetime < rs[j].Datetime })
}

func TestSQLite_ScanAll_Empty(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	got, err := repo.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if got == nil {
		t.Fatal("ScanAll returned nil slice; want empty non-nil")
	}
	if len(got) != 0 {
		t.Fatalf("ScanAll: got %d readings, want 0", len(got))
	}
}

func TestSQLite_WriteThenScan(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	want := types.Reading{Datetime: "2024-01-01T00:00:00Z", Location: "Site A", PM1: 1.2, PM25: 3.4, PM10: 5.6}
	if err := repo.Write(ctx, want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := repo.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("ScanAll = %+v; want [%+v]", got, want)
	}
}

func TestSQLite_EmptyDatetimeIsStored(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	want := types.Reading{Datetime: "", Location: "Site A", PM1: 1, PM25: 2, PM10: 3}
	if err := repo.Write(ctx, want); err != nil {
		t.Fatalf("Write(empty datetime): %v", err)
	}

	got, err := repo.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("ScanAll = %+v; want [%+v]", got, want)
	}
}

func TestSQLite_Write_UpsertReplacesByDatetime(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	first := types.Reading{Datetime: "2024-01-01T00:00:00Z", Location: "Site A", PM1: 1, PM25: 2, PM10: 3}
	second := types.Reading{Datetime: "2024-01-01T00:00:00Z", Location: "Site B", PM1: 9, PM25: 8, PM10: 7}
	if err := repo.Write(ctx, first); err != nil {
		t.Fatalf("Write first: %v", err)
	}
	if err := repo.Write(ctx, second); err != nil {
		t.Fatalf("Write second: %v", err)
	}

	got, err := repo.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ScanAll: got %d readings, want 1", len(got))
	}
	if got[0] != second {
		t.Errorf("stored = %+v; want second write %+v", got[0], second)
	}
}

func TestSQLite_ScanAll_Completeness(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	const n = 25
	want := make([]types.Reading, 0, n)
	for i := 0; i < n; i++ {
		r := types.Reading{
			Datetime: fmt.Sprintf("2024-01-01T00:%02d:00Z", i),
			Location: "Site",
			PM1:      float64(i),
			PM25:     float64(i) + 0.5,
			PM10:     float64(i) * 2,
		}
		if err := repo.Write(ctx, r); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
		want = append(want, r)
	}

	got, err := repo.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(got) != n {
		t.Fatalf("ScanAll: got %d readings, want %d", len(got), n)
	}
	sortByDatetime(got)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reading[%d] = %+v; want %+v", i, got[i], want[i])
		}
	}
}

func TestSQLite_MarkupInStringsRoundTrips(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	want := types.Reading{Datetime: "2024-06-01 12:00", Location: `<b>"Halifax" & Co</b>`, PM1: 0, PM25: 0, PM10: 0}
	if err := repo.Write(ctx, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := repo.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("ScanAll = %+v; want [%+v]", got, want)
	}
}

func TestSQLite_FailuresAreReported(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	repo := NewSQLiteRepository(db)
	if err := db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}
	ctx := context.Background()

	if err := repo.Write(ctx, types.Reading{Datetime: "x"}); err == nil {
		t.Error("Write on closed db = nil; want error")
	}
	got, err := repo.ScanAll(ctx)
	if err == nil {
		t.Error("ScanAll on closed db = nil error; want error")
	}
	if got != nil {
		t.Errorf("ScanAll on closed db = %v; want nil readings", got)
	}
	if err := repo.Ping(ctx); err == nil {
		t.Error("Ping on closed db = nil; want error")
	}
}

func TestSQLite_MissingTableIsAnError(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewSQLiteRepository(db)

	if _, err := repo.ScanAll(context.Background()); err == nil {
		t.Fatal("ScanAll without schema = nil error; want error")
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
