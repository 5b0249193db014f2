package server

import (
	"net/http"
	"strings"
)

// withToken rejects requests that do not present the configured token. Plain
// requests send it as a bearer token; websocket clients, which cannot set
// headers from a browser, may pass it as the token query parameter.
func (s *Server) withToken(next http.Handler) http.Handler {
	if s.config.Token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token != s.config.Token {
			s.writeError(w, r, http.StatusUnauthorized, ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
