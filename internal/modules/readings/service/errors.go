package service

import (
	"errors"
	"fmt"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/validator"
)

// Kind classifies an ingest or query failure. The values are stable and
// appear as "kind" in HTTP error bodies.
type Kind string

const (
	KindMalformedRequest Kind = "malformed_request"
	KindClientData       Kind = "client_data"
	KindStorage          Kind = "storage"
	KindPublish          Kind = "publish"
)

// Error is returned by Service operations. Problems is only set for
// KindClientData.
type Error struct {
	Kind     Kind
	Problems []validator.Problem
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case len(e.Problems) > 0:
		return fmt.Sprintf("%s: %d invalid field(s)", e.Kind, len(e.Problems))
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
