package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubAuth struct {
	refresh  auth.RefreshRequest
	accessID string
	err      error
}

func (s *stubAuth) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: 1, Email: req.Email}, nil
}

func (s *stubAuth) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &auth.LoginResponse{AccessToken: "access", RefreshToken: "refresh", User: &users.UserDTO{ID: 1}}, nil
}

func (s *stubAuth) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenPair, error) {
	s.refresh = req
	if s.err != nil {
		return nil, s.err
	}
	return &auth.TokenPair{AccessToken: "next", RefreshToken: "rotated"}, nil
}

func (s *stubAuth) Logout(ctx context.Context, accessID string) error {
	s.accessID = accessID
	return s.err
}

func TestAuthRegister(t *testing.T) {
	svc := &stubAuth{}
	body := `{"email":"a@example.com","password":"longenough","first_name":"Ada","last_name":"L"}`
	resp := serve(t, http.MethodPost, "/auth/register", AuthRegister(svc, nil), "/auth/register", body, 0, false)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	resp = serve(t, http.MethodPost, "/auth/register", AuthRegister(svc, nil), "/auth/register", `{"email":"bad","password":"short"}`, 0, false)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	svc := &stubAuth{}
	resp := serve(t, http.MethodPost, "/auth/login", AuthLogin(svc, nil), "/auth/login", `{"email":"a@example.com","password":"pw"}`, 0, false)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Storefront-Token"); got != "access" {
		t.Fatalf("unexpected token header %q", got)
	}

	failing := &stubAuth{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	resp = serve(t, http.MethodPost, "/auth/login", AuthLogin(failing, nil), "/auth/login", `{"email":"a@example.com","password":"pw"}`, 0, false)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRefreshReadsBearerToken(t *testing.T) {
	svc := &stubAuth{}
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"r1"}`))
	req.Header.Set("Authorization", "Bearer expired-token")
	resp := httptest.NewRecorder()
	AuthRefresh(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.refresh.AccessToken != "expired-token" || svc.refresh.RefreshToken != "r1" {
		t.Fatalf("unexpected refresh request %+v", svc.refresh)
	}
}

func TestAuthLogoutRevokesContextSession(t *testing.T) {
	svc := &stubAuth{}
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(middleware.WithAccessID(req.Context(), "jti-1"))
	resp := httptest.NewRecorder()
	AuthLogout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if svc.accessID != "jti-1" {
		t.Fatalf("unexpected access id %q", svc.accessID)
	}
}
