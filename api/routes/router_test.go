package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
	counts map[string]int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, counts: map[string]int64{}}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (m *memoryStore) Del(ctx context.Context, keys ...string) error { return nil }

func (m *memoryStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

type stubProducts struct{ created int }

func (s *stubProducts) ListProducts(ctx context.Context, input products.ListProductsInput) (*products.ProductListResult, error) {
	return &products.ProductListResult{Results: []products.ProductDTO{}}, nil
}

func (s *stubProducts) GetProduct(ctx context.Context, id int64) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: id}, nil
}

func (s *stubProducts) CreateProduct(ctx context.Context, input products.CreateProductInput) (*products.ProductDTO, error) {
	s.created++
	return &products.ProductDTO{ID: 1, Title: input.Title}, nil
}

func (s *stubProducts) UpdateProduct(ctx context.Context, id int64, input products.UpdateProductInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: id}, nil
}

func (s *stubProducts) DeleteProduct(ctx context.Context, id int64) error { return nil }

type countingCheckout struct{ calls int }

func (c *countingCheckout) Execute(ctx context.Context, input checkout.Input) (*checkout.Result, error) {
	c.calls++
	return &checkout.Result{Order: &orders.OrderDTO{ID: int64(c.calls), CustomerID: 1, PaymentStatus: enums.PaymentStatusPending}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "test"},
		JWT:  config.JWTConfig{Secret: "router-secret", Issuer: "storefront-test", ExpirationMinutes: 10},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func bearer(t *testing.T, cfg *config.Config, userID int64, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID, Role: role})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return "Bearer " + token
}

type fixture struct {
	cfg      *config.Config
	handler  http.Handler
	products *stubProducts
	checkout *countingCheckout
}

func newFixture() fixture {
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	f := fixture{cfg: cfg, products: &stubProducts{}, checkout: &countingCheckout{}}
	f.handler = NewRouter(cfg, nil, Dependencies{
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Store:    newMemoryStore(),
		Sessions: stubSessions{},
		Metrics:  metrics.NewHTTPMetrics(reg),
		Gatherer: reg,
		Products: f.products,
		Checkout: f.checkout,
	})
	return f
}

func (f fixture) do(method, path, auth, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture()
	if resp := f.do(http.MethodGet, "/health/live", "", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	if resp := f.do(http.MethodGet, "/health/ready", "", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d", resp.Code)
	}

	f.do(http.MethodGet, "/api/v1/products", "", "", nil)
	resp := f.do(http.MethodGet, "/metrics", "", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "storefront_http_requests_total") {
		t.Fatalf("expected http metrics in exposition")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	f := newFixture()
	resp := f.do(http.MethodGet, "/health/live", "", "", map[string]string{"X-Request-Id": "req-1"})
	if got := resp.Header().Get("X-Request-Id"); got != "req-1" {
		t.Fatalf("unexpected request id %q", got)
	}
}

func TestProductWritesRequireStaff(t *testing.T) {
	f := newFixture()
	body := `{"title":"Mug","unit_price":"10.00","inventory":1,"collection":1}`

	if resp := f.do(http.MethodGet, "/api/v1/products", "", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("anonymous browse: expected 200 got %d", resp.Code)
	}
	if resp := f.do(http.MethodPost, "/api/v1/products", "", body, nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: expected 401 got %d", resp.Code)
	}
	if resp := f.do(http.MethodPost, "/api/v1/products", bearer(t, f.cfg, 2, enums.RoleCustomer), body, nil); resp.Code != http.StatusForbidden {
		t.Fatalf("customer create: expected 403 got %d", resp.Code)
	}
	if resp := f.do(http.MethodPost, "/api/v1/products", bearer(t, f.cfg, 1, enums.RoleStaff), body, nil); resp.Code != http.StatusCreated {
		t.Fatalf("staff create: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if f.products.created != 1 {
		t.Fatalf("expected one product created, got %d", f.products.created)
	}
}

func TestCheckoutRequiresAuthAndHonoursIdempotencyKey(t *testing.T) {
	f := newFixture()
	body := `{"cart_id":"` + uuid.NewString() + `"}`

	if resp := f.do(http.MethodPost, "/api/v1/orders", "", body, nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	auth := bearer(t, f.cfg, 7, enums.RoleCustomer)
	headers := map[string]string{"Idempotency-Key": "checkout-1"}
	first := f.do(http.MethodPost, "/api/v1/orders", auth, body, headers)
	second := f.do(http.MethodPost, "/api/v1/orders", auth, body, headers)

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201s got %d and %d", first.Code, second.Code)
	}
	if f.checkout.calls != 1 {
		t.Fatalf("expected checkout to run once, ran %d", f.checkout.calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs")
	}
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture()
	if resp := f.do(http.MethodGet, "/api/v1/nope", "", "", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
