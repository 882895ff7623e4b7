package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domproduct "example.com/storefront/internal/domain/product"
	domuser "example.com/storefront/internal/domain/user"
	"example.com/storefront/internal/infra/persistence/memory"
	"example.com/storefront/internal/infra/sessionstore"
	authuc "example.com/storefront/internal/usecase/auth"
	detailuc "example.com/storefront/internal/usecase/detail"
	listinguc "example.com/storefront/internal/usecase/listing"
	productuc "example.com/storefront/internal/usecase/product"
)

type mockCatalog struct {
	mu        sync.Mutex
	products  []*domproduct.Product
	nextID    int64
	created   []domproduct.CreateInput
	createErr error
	requests  []domproduct.PageRequest
}

func newMockCatalog(n int) *mockCatalog {
	c := &mockCatalog{nextID: 1000}
	for i := 1; i <= n; i++ {
		c.products = append(c.products, &domproduct.Product{
			ID:          int64(i),
			Title:       fmt.Sprintf("Product %d", i),
			Price:       float64(10 + i),
			Description: "A fine product",
			Category:    "Misc",
			Images:      []string{fmt.Sprintf("https://img.test/%d-a.png", i), fmt.Sprintf("https://img.test/%d-b.png", i)},
		})
	}
	return c
}

func (m *mockCatalog) List(ctx context.Context, page domproduct.PageRequest) ([]*domproduct.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, page)
	if page.Offset >= len(m.products) {
		return []*domproduct.Product{}, nil
	}
	end := page.Offset + page.Limit
	if end > len(m.products) {
		end = len(m.products)
	}
	return m.products[page.Offset:end], nil
}

func (m *mockCatalog) ListAll(ctx context.Context) ([]*domproduct.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products, nil
}

func (m *mockCatalog) GetByID(ctx context.Context, id int64) (*domproduct.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domproduct.ErrProductNotFound
}

func (m *mockCatalog) Create(ctx context.Context, in domproduct.CreateInput) (*domproduct.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, in)
	m.nextID++
	return &domproduct.Product{ID: m.nextID, Title: in.Title, Price: in.Price, Images: in.Images}, nil
}

type mockGateway struct {
	password string
	token    string
	profile  *domuser.Profile
	regErr   error
}

func (m *mockGateway) Login(ctx context.Context, c domuser.Credentials) (string, error) {
	if c.Password != m.password {
		return "", domuser.ErrUnauthorized
	}
	return m.token, nil
}

func (m *mockGateway) Register(ctx context.Context, r domuser.Registration) (*domuser.Profile, error) {
	if m.regErr != nil {
		return nil, m.regErr
	}
	return &domuser.Profile{ID: 77, Name: r.Name, Email: r.Email, Avatar: r.Avatar}, nil
}

func (m *mockGateway) Profile(ctx context.Context, token string) (*domuser.Profile, error) {
	if token != m.token {
		return nil, domuser.ErrUnauthorized
	}
	return m.profile, nil
}

type testEnv struct {
	t       *testing.T
	router  http.Handler
	catalog *mockCatalog
	gateway *mockGateway
	store   *sessionstore.Store
	cookie  *http.Cookie
}

func newTestEnv(t *testing.T, products int) *testEnv {
	t.Helper()
	catalog := newMockCatalog(products)
	gateway := &mockGateway{
		password: "changeme",
		token:    "tok-abc",
		profile:  &domuser.Profile{ID: 1, Name: "Jhon", Email: "john@mail.com", Role: "admin"},
	}
	store := sessionstore.New(memory.NewKV(), time.Hour, nil)

	api, err := NewAPI(Dependencies{
		Fetcher:        listinguc.NewFetcher(catalog, nil),
		PageSize:       12,
		Detail:         detailuc.NewController(catalog, nil),
		AuthService:    authuc.NewService(gateway, store, store),
		ProductService: productuc.NewService(catalog, nil),
		Sessions:       store,
		RateLimit:      RateLimitConfig{RPS: 100, Burst: 100},
	})
	require.NoError(t, err)

	return &testEnv{t: t, router: api.Router(), catalog: catalog, gateway: gateway, store: store}
}

// do sends req with the env's session cookie and keeps whatever cookie comes back.
func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	e.t.Helper()
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "storefront_session" {
			e.cookie = c
		}
	}
	return rec
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func (e *testEnv) login() {
	e.t.Helper()
	rec := e.postForm("/login", url.Values{"email": {"john@mail.com"}, "password": {"changeme"}})
	require.Equal(e.t, http.StatusSeeOther, rec.Code)
}
