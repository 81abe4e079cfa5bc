package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/playtube/backend/internal/auth"
	"github.com/playtube/backend/internal/models"
	"github.com/playtube/backend/internal/repositories"
)

type stubUserLoader struct {
	users map[string]models.User
}

func (s stubUserLoader) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func newGuardFixture(t *testing.T) (*auth.TokenIssuer, stubUserLoader, models.User) {
	t.Helper()
	issuer := auth.NewTokenIssuer("access-secret", time.Minute, "refresh-secret", time.Hour)
	user := models.User{
		ID:           "user-alice",
		Username:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice",
		Password:     "stored-hash",
		RefreshToken: "stored-refresh",
	}
	loader := stubUserLoader{users: map[string]models.User{user.ID: user}}
	return issuer, loader, user
}

func captureUser(t *testing.T) (http.Handler, *models.User, *bool) {
	t.Helper()
	var captured models.User
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			t.Error("expected user in request context")
		}
		captured = user
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return handler, &captured, &called
}

func TestRequireAuthMissingToken(t *testing.T) {
	issuer, loader, _ := newGuardFixture(t)
	handler, _, called := captureUser(t)

	guarded := RequireAuth(issuer, loader)(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/getuser", nil)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if *called {
		t.Fatal("wrapped handler should not run without a token")
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	issuer, loader, _ := newGuardFixture(t)
	handler, _, called := captureUser(t)

	guarded := RequireAuth(issuer, loader)(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/getuser", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "not-a-token"})
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if *called {
		t.Fatal("wrapped handler should not run with a bad token")
	}
}

func TestRequireAuthRefreshTokenRejected(t *testing.T) {
	issuer, loader, user := newGuardFixture(t)
	handler, _, called := captureUser(t)

	guarded := RequireAuth(issuer, loader)(handler)

	refresh, _, err := issuer.IssueRefresh(user.ID)
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/getuser", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: refresh})
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if *called {
		t.Fatal("a refresh token must not pass the access guard")
	}
}

func TestRequireAuthUnknownSubject(t *testing.T) {
	issuer, loader, _ := newGuardFixture(t)
	handler, _, called := captureUser(t)

	guarded := RequireAuth(issuer, loader)(handler)

	token, _, err := issuer.IssueAccess("user-deleted")
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/getuser", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if *called {
		t.Fatal("wrapped handler should not run for a deleted subject")
	}
}

func TestRequireAuthCookieAttachesSanitizedUser(t *testing.T) {
	issuer, loader, user := newGuardFixture(t)
	handler, captured, called := captureUser(t)

	guarded := RequireAuth(issuer, loader)(handler)

	token, _, err := issuer.IssueAccess(user.ID)
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/getuser", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if !*called {
		t.Fatal("expected wrapped handler to run")
	}
	if captured.ID != user.ID || captured.Username != user.Username {
		t.Fatalf("unexpected user in context: %+v", captured)
	}
	if captured.Password != "" || captured.RefreshToken != "" {
		t.Fatal("credentials must be stripped before the record enters the context")
	}
}

func TestRequireAuthBearerHeader(t *testing.T) {
	issuer, loader, user := newGuardFixture(t)
	handler, captured, called := captureUser(t)

	guarded := RequireAuth(issuer, loader)(handler)

	token, _, err := issuer.IssueAccess(user.ID)
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/getuser", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if !*called {
		t.Fatal("expected wrapped handler to run")
	}
	if captured.ID != user.ID {
		t.Fatalf("unexpected user id %q", captured.ID)
	}
}

func TestRequireAuthCookiePrecedence(t *testing.T) {
	issuer, loader, user := newGuardFixture(t)
	handler, _, called := captureUser(t)

	guarded := RequireAuth(issuer, loader)(handler)

	token, _, err := issuer.IssueAccess(user.ID)
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	// A bad cookie must not fall back to a valid Authorization header.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/getuser", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "stale"})
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if *called {
		t.Fatal("cookie value takes precedence even when invalid")
	}
}

var errBoom = errors.New("boom")

type failingLoader struct{}

func (failingLoader) FindByID(context.Context, string) (models.User, error) {
	return models.User{}, errBoom
}

func TestRequireAuthLoaderFailure(t *testing.T) {
	issuer, _, user := newGuardFixture(t)
	handler, _, called := captureUser(t)

	guarded := RequireAuth(issuer, failingLoader{})(handler)

	token, _, err := issuer.IssueAccess(user.ID)
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/getuser", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if *called {
		t.Fatal("wrapped handler should not run when the lookup fails")
	}
}
