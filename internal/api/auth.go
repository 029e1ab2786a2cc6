package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ventolog/ventolog/internal/ledger"
)

// requireToken guards a route with bearer authentication. The resolved
// code lands in the request context for the handler.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
			return
		}
		token := parts[1]
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Token required")
			return
		}

		code, err := s.ledger.ResolveToken(token)
		if errors.Is(err, ledger.ErrTokenInvalid) {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), codeKey, code)
		next(w, r.WithContext(ctx))
	}
}

// authedCode returns the code requireToken resolved for this request.
func authedCode(r *http.Request) string {
	if s, ok := r.Context().Value(codeKey).(string); ok {
		return s
	}
	return ""
}
