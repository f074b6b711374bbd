package httpapi

import (
	"net/http"
)

// NewMux registers /healthz and, when siteDir is set, serves the published
// status page directory at /.
func NewMux(store Pinger, siteDir string) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, store)
	if siteDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(siteDir)))
	}
	return mux
}
