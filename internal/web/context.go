package web

import (
	"net/http"

	"github.com/JonMunkholm/demoimport/internal/core"
)

// withClientIP stores the client address in the request context so imports
// can log it. It runs after TrustedRealIP has resolved RemoteAddr.
func withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithClientIP(r.Context(), remoteHost(r.RemoteAddr))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
