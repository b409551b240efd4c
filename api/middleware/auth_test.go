package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type stubSessionChecker struct {
	ok  bool
	err error
}

func (s stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return s.ok, s.err
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "storefront-test", ExpirationMinutes: 10}
}

func mintToken(t *testing.T, cfg config.JWTConfig, userID int64, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    "jti-" + string(role),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthSeedsContext(t *testing.T) {
	cfg := testJWTConfig()
	token := mintToken(t, cfg, 42, enums.RoleStaff)

	var gotUser int64
	var gotStaff bool
	var gotAccess string
	handler := Auth(cfg, stubSessionChecker{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotStaff = IsStaffFromContext(r.Context())
		gotAccess = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotUser != 42 || !gotStaff || gotAccess != "jti-staff" {
		t.Fatalf("unexpected context user=%d staff=%v access=%q", gotUser, gotStaff, gotAccess)
	}
}

func TestAuthRejects(t *testing.T) {
	cfg := testJWTConfig()
	token := mintToken(t, cfg, 42, enums.RoleCustomer)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not run")
	})

	cases := []struct {
		name     string
		header   string
		verifier stubSessionChecker
		want     int
	}{
		{name: "missing header", header: "", verifier: stubSessionChecker{ok: true}, want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", verifier: stubSessionChecker{ok: true}, want: http.StatusUnauthorized},
		{name: "revoked session", header: "Bearer " + token, verifier: stubSessionChecker{ok: false}, want: http.StatusUnauthorized},
		{name: "redis down", header: "Bearer " + token, verifier: stubSessionChecker{err: errors.New("dial tcp")}, want: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp := httptest.NewRecorder()
			Auth(cfg, tc.verifier, nil)(next).ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestRequireStaff(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireStaff(nil)(next)

	cases := []struct {
		name  string
		user  int64
		staff bool
		want  int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "customer", user: 3, want: http.StatusForbidden},
		{name: "staff", user: 1, staff: true, want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.user > 0 {
				req = req.WithContext(WithStaff(WithUserID(req.Context(), tc.user), tc.staff))
			}
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, resp.Code)
			}
		})
	}
}
