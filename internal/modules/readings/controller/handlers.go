package controller

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/service"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/utils"
)

// maxBodyBytes caps POST /save bodies. A reading is well under 1 KiB.
const maxBodyBytes = 64 << 10

const (
	msgInvalidData   = "Invalid data"
	msgTooLarge      = "request body too large"
	msgStoreFailed   = "failed to store reading"
	msgLoadFailed    = "failed to load readings"
	msgInternalError = "internal error"

	// publishWarning is sent as a Warning header when the reading was stored
	// but the status page is stale.
	publishWarning = `199 - "status page not updated"`
)

func (c *readingsControllerImpl) handleSave(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteKindError(w, http.StatusRequestEntityTooLarge, string(service.KindMalformedRequest), msgTooLarge, nil)
			return
		}
		slog.WarnContext(r.Context(), "save: read body failed", "error", err)
		utils.WriteKindError(w, http.StatusBadRequest, string(service.KindMalformedRequest), msgInvalidData, nil)
		return
	}

	reading, err := c.service.Ingest(r.Context(), body)
	if err == nil {
		utils.WriteJSON(w, http.StatusOK, reading)
		return
	}

	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		slog.ErrorContext(r.Context(), "save: unexpected error", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	switch svcErr.Kind {
	case service.KindMalformedRequest:
		utils.WriteKindError(w, http.StatusBadRequest, string(svcErr.Kind), msgInvalidData, nil)
	case service.KindClientData:
		utils.WriteKindError(w, http.StatusBadRequest, string(svcErr.Kind), msgInvalidData, svcErr.Problems)
	case service.KindStorage:
		slog.ErrorContext(r.Context(), "save: store reading failed", "error", svcErr.Err)
		utils.WriteKindError(w, http.StatusInternalServerError, string(svcErr.Kind), msgStoreFailed, nil)
	case service.KindPublish:
		slog.WarnContext(r.Context(), "save: reading stored but status page not updated",
			"datetime", reading.Datetime,
			"error", svcErr.Err,
		)
		w.Header().Set("Warning", publishWarning)
		w.Header().Set("X-Ingest-Warning", string(svcErr.Kind))
		utils.WriteJSON(w, http.StatusMultiStatus, reading)
	default:
		slog.ErrorContext(r.Context(), "save: unhandled error kind", "kind", svcErr.Kind, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, msgInternalError)
	}
}

func (c *readingsControllerImpl) handleGet(w http.ResponseWriter, r *http.Request) {
	readings, err := c.service.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "get: list readings failed", "error", err)
		utils.WriteKindError(w, http.StatusInternalServerError, string(service.KindStorage), msgLoadFailed, nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, readings)
}
