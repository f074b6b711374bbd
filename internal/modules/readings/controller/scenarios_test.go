package controller

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/migrate"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/repository"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/service"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/types"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/views"
)

type memPublisher struct {
	pages [][]byte
}

func (p *memPublisher) Publish(ctx context.Context, doc []byte) error {
	p.pages = append(p.pages, doc)
	return nil
}

// newStack wires the real service, sqlite repository and renderer behind the
// HTTP handlers.
func newStack(t *testing.T) (http.Handler, *memPublisher) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if err := migrate.Run(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	rn, err := views.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	pub := &memPublisher{}
	svc := service.NewService(
		repository.NewSQLiteRepository(db),
		rn,
		pub,
		service.Options{StoreTimeout: 5 * time.Second, PublishTimeout: 5 * time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return newMux(svc), pub
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func getAll(t *testing.T, h http.Handler) []types.Reading {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/get", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /get status = %d; body %s", rec.Code, rec.Body.String())
	}
	var out []types.Reading
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode /get: %v", err)
	}
	return out
}

func TestScenario_saveThenGet(t *testing.T) {
	h, pub := newStack(t)
	body := `{"datetime":"2024-01-01T00:00:00Z","location":"Site A","pm1":1.2,"pm2_5":3.4,"pm10":5.6}`

	rec := do(t, h, http.MethodPost, "/save", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /save status = %d; body %s", rec.Code, rec.Body.String())
	}
	var echoed map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &echoed); err != nil {
		t.Fatalf("decode echo: %v", err)
	}
	var sent map[string]any
	if err := json.Unmarshal([]byte(body), &sent); err != nil {
		t.Fatalf("decode sent: %v", err)
	}
	for k, v := range sent {
		if echoed[k] != v {
			t.Errorf("echo[%s] = %v; want %v", k, echoed[k], v)
		}
	}

	got := getAll(t, h)
	if len(got) != 1 || got[0] != siteA {
		t.Errorf("GET /get = %+v; want [%+v]", got, siteA)
	}
	if len(pub.pages) != 1 || !strings.Contains(string(pub.pages[0]), "Site A") {
		t.Errorf("published pages = %d; want one page showing the reading", len(pub.pages))
	}
}

func TestScenario_invalidLeavesStoreUnchanged(t *testing.T) {
	h, pub := newStack(t)

	before := getAll(t, h)
	rec := do(t, h, http.MethodPost, "/save", `{"datetime":"2024-01-01T00:00:00Z","location":"Site A"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /save status = %d; want 400", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Message != "Invalid data" {
		t.Errorf("message = %q; want Invalid data", body.Message)
	}

	after := getAll(t, h)
	if len(before) != 0 || len(after) != 0 {
		t.Errorf("store changed: before %v after %v", before, after)
	}
	if len(pub.pages) != 0 {
		t.Error("page published for invalid reading")
	}
}

func TestScenario_sameDatetimeUpserts(t *testing.T) {
	h, pub := newStack(t)

	first := `{"datetime":"2024-01-01T00:00:00Z","location":"Site A","pm1":1.2,"pm2_5":3.4,"pm10":5.6}`
	second := `{"datetime":"2024-01-01T00:00:00Z","location":"Site A","pm1":7.7,"pm2_5":3.4,"pm10":5.6}`
	for _, b := range []string{first, second} {
		if rec := do(t, h, http.MethodPost, "/save", b); rec.Code != http.StatusOK {
			t.Fatalf("POST /save status = %d; body %s", rec.Code, rec.Body.String())
		}
	}

	got := getAll(t, h)
	if len(got) != 1 {
		t.Fatalf("GET /get = %+v; want one entry", got)
	}
	if got[0].PM1 != 7.7 {
		t.Errorf("pm1 = %v; want second value 7.7", got[0].PM1)
	}
	if len(pub.pages) != 2 || !strings.Contains(string(pub.pages[1]), ">7.7<") {
		t.Error("latest page does not show the second reading")
	}
}

func TestScenario_unknownFieldsNotPersisted(t *testing.T) {
	h, _ := newStack(t)

	rec := do(t, h, http.MethodPost, "/save",
		`{"datetime":"d","location":"l","pm1":1,"pm2_5":2,"pm10":3,"secret":"x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /save status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("echo contains unknown field: %s", rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/get", "")
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("GET /get contains unknown field: %s", rec.Body.String())
	}
}

func TestScenario_emptyBodyRejected(t *testing.T) {
	h, _ := newStack(t)

	rec := do(t, h, http.MethodPost, "/save", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", rec.Code)
	}
	if got := decodeError(t, rec).Kind; got != "malformed_request" {
		t.Errorf("kind = %q; want malformed_request", got)
	}
}
