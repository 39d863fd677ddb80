package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"tidepool/internal/platform/net/middleware"
)

// CommonStack returns a baseline per module middleware slice
// compose with extra middleware as needed in main
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.AccessLog,

		// cross-origin: the browser client is a first-class caller
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.RedirectSlashes(),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}
