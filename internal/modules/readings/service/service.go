package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/publisher"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/repository"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/types"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/validator"
)

// Renderer produces the status page for a reading.
type Renderer interface {
	Render(r types.Reading) ([]byte, error)
}

// Options bounds the calls the service makes to external systems.
type Options struct {
	StoreTimeout   time.Duration
	PublishTimeout time.Duration
}

type Service struct {
	repository repository.ReadingRepository
	renderer   Renderer
	publisher  publisher.Publisher
	opts       Options
	logger     *slog.Logger
}

func NewService(repo repository.ReadingRepository, renderer Renderer, pub publisher.Publisher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repository: repo,
		renderer:   renderer,
		publisher:  pub,
		opts:       opts,
		logger:     logger,
	}
}

// Ingest validates body, stores the reading and republishes the status page.
//
// If the reading was stored but the page could not be rendered or published,
// the stored reading is returned together with a KindPublish error. The write
// is never rolled back.
func (s *Service) Ingest(ctx context.Context, body []byte) (types.Reading, error) {
	raw, err := validator.Parse(body)
	if err != nil {
		return types.Reading{}, &Error{Kind: KindMalformedRequest, Err: err}
	}

	res := validator.Validate(raw)
	if !res.Valid() {
		return types.Reading{}, &Error{Kind: KindClientData, Problems: res.Problems}
	}
	reading := res.Reading

	if err := s.write(ctx, reading); err != nil {
		return types.Reading{}, &Error{Kind: KindStorage, Err: err}
	}

	if err := s.publish(ctx, reading); err != nil {
		return reading, &Error{Kind: KindPublish, Err: err}
	}
	return reading, nil
}

// List returns every stored reading. An empty store yields an empty,
// non-nil slice.
func (s *Service) List(ctx context.Context) ([]types.Reading, error) {
	ctx, cancel := withTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	readings, err := s.repository.ScanAll(ctx)
	if err != nil {
		return nil, &Error{Kind: KindStorage, Err: err}
	}
	if readings == nil {
		readings = []types.Reading{}
	}
	return readings, nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	return s.repository.Ping(ctx)
}

func (s *Service) write(ctx context.Context, r types.Reading) error {
	ctx, cancel := withTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	return s.repository.Write(ctx, r)
}

func (s *Service) publish(ctx context.Context, r types.Reading) error {
	doc, err := s.renderer.Render(r)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.opts.PublishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, doc); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "status page published",
		"datetime", r.Datetime,
		"bytes", len(doc),
		"blake3", publisher.Digest(doc),
	)
	return nil
}

// withTimeout leaves ctx unbounded when d is not positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
