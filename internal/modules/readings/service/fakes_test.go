package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRepo struct {
	mu       sync.Mutex
	byKey    map[string]types.Reading
	writes   int
	writeErr error
	scanErr  error
	pingErr  error
	// block makes every call wait for ctx to end.
	block bool
	// nilScan makes ScanAll return a nil slice.
	nilScan bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byKey: map[string]types.Reading{}}
}

func (f *fakeRepo) Write(ctx context.Context, r types.Reading) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.byKey[r.Datetime] = r
	return nil
}

func (f *fakeRepo) ScanAll(ctx context.Context) ([]types.Reading, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	if f.nilScan {
		return nil, nil
	}
	out := make([]types.Reading, 0, len(f.byKey))
	for _, r := range f.byKey {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRepo) Ping(ctx context.Context) error { return f.pingErr }

type fakeRenderer struct {
	calls int
	err   error
}

func (f *fakeRenderer) Render(r types.Reading) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("<p>" + r.Datetime + "</p>"), nil
}

type fakePublisher struct {
	docs  [][]byte
	err   error
	block bool
}

func (f *fakePublisher) Publish(ctx context.Context, doc []byte) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, doc)
	return nil
}

var errBoom = errors.New("boom")
