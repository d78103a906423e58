package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"quotary/internal/platform/net/middleware"
)

// CommonStack returns the baseline middleware slice for API mounts; compose
// with extra middleware in main as needed
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RequestContext,
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.AccessLog,
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}
