package middleware

import (
	"net/http"

	"quotary/internal/platform/logger"
	pnet "quotary/internal/platform/net"
)

// RequestContext copies transport identity onto the request context: the
// request id placed by RequestID moves into the logger scope so logger.C
// emits it, and the caller's X-User-Token header becomes the opaque
// identity downstream handlers read via pnet.UserToken. Must run after
// RequestID
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithRequest(r.Context(), pnet.RequestID(r.Context()))
		if tok := r.Header.Get("X-User-Token"); tok != "" {
			ctx = pnet.WithUserToken(ctx, tok)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
