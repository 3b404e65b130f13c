package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/equipsight/api/internal/domain"
	"github.com/equipsight/api/internal/repository"

	"github.com/google/uuid"
)

type stubProfileRepo struct {
	profile domain.Profile
}

func (s *stubProfileRepo) Create(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	return profile, nil
}

func (s *stubProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Profile, error) {
	if id == s.profile.ID {
		return s.profile, nil
	}
	return domain.Profile{}, repository.ErrNotFound
}

func (s *stubProfileRepo) GetByToken(ctx context.Context, token string) (domain.Profile, error) {
	if token == s.profile.APIToken {
		return s.profile, nil
	}
	return domain.Profile{}, repository.ErrNotFound
}

func (s *stubProfileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

var _ repository.ProfileRepository = (*stubProfileRepo)(nil)

func TestMiddlewareInjectsUserID(t *testing.T) {
	profile := domain.NewProfile("ops@example.com", "secret-token")
	repo := &stubProfileRepo{profile: profile}

	var seen uuid.UUID
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			t.Fatalf("expected user id in context")
		}
		seen = id
	})

	req := httptest.NewRequest(http.MethodGet, "/api/uploads", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()

	Middleware(repo, nil)(inner).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen != profile.ID {
		t.Fatalf("expected user id %s, got %s", profile.ID, seen)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	repo := &stubProfileRepo{profile: domain.NewProfile("ops@example.com", "secret-token")}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run without credentials")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/uploads", nil)
	rec := httptest.NewRecorder()

	Middleware(repo, nil)(inner).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsUnknownToken(t *testing.T) {
	repo := &stubProfileRepo{profile: domain.NewProfile("ops@example.com", "secret-token")}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run with a bad token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/uploads", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()

	Middleware(repo, nil)(inner).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
