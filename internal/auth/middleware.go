package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/equipsight/api/internal/repository"
)

// Middleware resolves the bearer token against the profile store and injects
// the owning user id into the request context. Every upload and row is tagged
// with this identity downstream.
func Middleware(profiles repository.ProfileRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}

			profile, err := profiles.GetByToken(r.Context(), token)
			if err != nil {
				logger.Warn("rejected request with invalid token", "path", r.URL.Path)
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), profile.ID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
