package httpapi

import (
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/config"
)

// Wrap applies the middleware shared by the HTTP server and the Lambda
// front: request ids and request logging. Compression is left to NewServer;
// API Gateway would base64-encode a compressed proxy response.
func Wrap(h http.Handler) http.Handler {
	return requestID(requestLogger(h))
}

// NewServer serves handler with gzip response compression.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           gzhttp.GzipHandler(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
