package controller

import (
	"context"
	"net/http"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/types"
)

// ReadingService is the part of service.Service the handlers need.
type ReadingService interface {
	Ingest(ctx context.Context, body []byte) (types.Reading, error)
	List(ctx context.Context) ([]types.Reading, error)
}

type ReadingsController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type readingsControllerImpl struct {
	service ReadingService
}

func NewReadingsController(service ReadingService) ReadingsController {
	return &readingsControllerImpl{service: service}
}

func (c *readingsControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /save", c.handleSave)
	mux.HandleFunc("GET /get", c.handleGet)
}
