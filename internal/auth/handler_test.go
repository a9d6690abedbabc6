package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/garystarr-surgi/invoice-lock/internal/auth"
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
	_ "github.com/garystarr-surgi/invoice-lock/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	sessionManager := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	return auth.NewHandler(nil, auth.NewService(repo), sessionManager), sessionManager
}

func newLoginRequest(t *testing.T, sm *shared.SessionManager, body string) (*http.Request, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hash)
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 1, Email: "manager@example.com", PasswordHash: hashed(t, "correct-horse"), IsActive: true}}
	handler, sm := newAuthHandler(t, repo)

	router := chiRouter(handler)
	req, sess := newLoginRequest(t, sm, `{"email":"manager@example.com","password":"wrong-pass"}`)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", res.Code)
	}
	if sess.User() != "" {
		t.Fatalf("session must stay anonymous, got user %q", sess.User())
	}
}

func TestLoginValidationError(t *testing.T) {
	handler, sm := newAuthHandler(t, &stubRepo{})
	req, _ := newLoginRequest(t, sm, `{"email":"not-an-email","password":"short"}`)
	res := httptest.NewRecorder()
	chiRouter(handler).ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.Code)
	}
}

func TestLoginSuccessAndLogout(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 42, Email: "manager@example.com", PasswordHash: hashed(t, "correct-horse"), IsActive: true}}
	handler, sm := newAuthHandler(t, repo)
	router := chiRouter(handler)

	req, sess := newLoginRequest(t, sm, `{"email":"manager@example.com","password":"correct-horse"}`)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", res.Code, res.Body.String())
	}
	if sess.User() != "42" {
		t.Fatalf("expected session user 42, got %q", sess.User())
	}
	if repo.sessions[sess.ID] != 42 {
		t.Fatalf("expected session %s registered", sess.ID)
	}

	logout := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	logout = logout.WithContext(shared.ContextWithSession(logout.Context(), sess))
	res = httptest.NewRecorder()
	router.ServeHTTP(res, logout)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", res.Code)
	}
	if _, ok := repo.sessions[sess.ID]; ok {
		t.Fatalf("session should be removed")
	}
}

func TestInactiveUserRejected(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 5, Email: "gone@example.com", PasswordHash: hashed(t, "correct-horse")}}
	svc := auth.NewService(repo)
	if _, err := svc.Authenticate(context.Background(), "gone@example.com", "correct-horse"); err != shared.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func chiRouter(h *auth.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)
	return r
}

type failingRepo struct{ stubRepo }

func (failingRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return nil, errors.New("connection reset")
}

func TestAuthenticateSurfacesRepositoryFailure(t *testing.T) {
	svc := auth.NewService(&failingRepo{})
	_, err := svc.Authenticate(context.Background(), "someone@example.com", "pw")
	if err == nil || errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}
