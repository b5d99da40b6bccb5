// internal/handlers/api.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"kierki/internal/auth"
)

// ListRoomsHandler returns the current room snapshots as JSON. Callers
// authenticate with the session token issued at username registration,
// either as a bearer token or an auth_token cookie.
func ListRoomsHandler(srv *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
		if _, err := auth.VerifySessionToken(token); err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(srv.snapshotAllRooms())
	}
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	cookie := r.Header.Get("Cookie")
	parts := strings.Split(cookie, "auth_token=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}
