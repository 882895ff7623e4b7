package http

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domproduct "example.com/storefront/internal/domain/product"
	domsession "example.com/storefront/internal/domain/session"
	domuser "example.com/storefront/internal/domain/user"
	authuc "example.com/storefront/internal/usecase/auth"
	detailuc "example.com/storefront/internal/usecase/detail"
	listinguc "example.com/storefront/internal/usecase/listing"
	productuc "example.com/storefront/internal/usecase/product"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

type API struct {
	fetcher    listinguc.PageFetcher
	pageSize   int
	detail     *detailuc.Controller
	authSvc    *authuc.Service
	productSvc *productuc.Service
	sessions   domsession.Store
	validator  *validator.Validate
	logger     *zap.Logger
	templates  map[string]*template.Template
	limiter    *visitorLimiter
	registry   *prometheus.Registry
	durations  *prometheus.HistogramVec
	health     map[string]HealthCheck
	cookie     CookieConfig
}

type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type Dependencies struct {
	Fetcher        listinguc.PageFetcher
	PageSize       int
	Detail         *detailuc.Controller
	AuthService    *authuc.Service
	ProductService *productuc.Service
	Sessions       domsession.Store
	Logger         *zap.Logger
	Registry       *prometheus.Registry
	Cookie         CookieConfig
	RateLimit      RateLimitConfig
	HealthChecks   map[string]HealthCheck
}

func NewAPI(deps Dependencies) (*API, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	cookie := deps.Cookie
	if cookie.Name == "" {
		cookie.Name = "storefront_session"
	}
	if cookie.TTL <= 0 {
		cookie.TTL = 7 * 24 * time.Hour
	}
	rl := deps.RateLimit
	if rl.RPS <= 0 {
		rl.RPS = 1
	}
	if rl.Burst <= 0 {
		rl.Burst = 5
	}
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = 12
	}

	return &API{
		fetcher:    deps.Fetcher,
		pageSize:   pageSize,
		detail:     deps.Detail,
		authSvc:    deps.AuthService,
		productSvc: deps.ProductService,
		sessions:   deps.Sessions,
		validator:  validator.New(),
		logger:     logger,
		templates:  templates,
		limiter:    newVisitorLimiter(rl.RPS, rl.Burst),
		registry:   registry,
		durations:  registerDurations(registry),
		health:     deps.HealthChecks,
		cookie:     cookie,
	}, nil
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(a.logRequests)
	r.Use(chimw.Recoverer)
	r.Use(a.instrument)

	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(a.sessionMiddleware)

		r.Get("/", a.handleListing)
		r.Get("/product/{id}", a.handleDetail)

		r.Get("/login", a.handleLoginPage)
		r.With(a.rateLimit).Post("/login", a.handleLogin)
		r.Get("/signup", a.handleSignupPage)
		r.With(a.rateLimit).Post("/signup", a.handleSignup)
		r.Post("/logout", a.handleLogout)

		r.Group(func(ar chi.Router) {
			ar.Use(a.requireAuth)
			ar.Get("/admin", a.handleAdminPage)
			ar.Post("/admin", a.handleAdminSubmit)
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/products", a.handleListProducts)
			r.Get("/products/{id}", a.handleGetProduct)
			r.Get("/session", a.handleGetSession)
			r.With(a.requireAuthJSON).Post("/products", a.handleCreateProduct)
		})

		// unknown paths fall back to the listing
		r.NotFound(a.handleListing)
	})

	return r
}

// RunMaintenance forgets idle rate limit visitors until ctx is done.
func (a *API) RunMaintenance(ctx context.Context) {
	a.limiter.cleanupLoop(ctx, time.Minute, 5*time.Minute)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(a.health))
	for name, check := range a.health {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}
	resp := map[string]any{"status": "ok"}
	if status != http.StatusOK {
		resp["status"] = "degraded"
	}
	if len(checks) > 0 {
		resp["checks"] = checks
	}
	writeJSON(w, status, resp)
}

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseIDParam(r *http.Request, key string) (int64, error) {
	idStr := chi.URLParam(r, key)
	return strconv.ParseInt(idStr, 10, 64)
}

func mapProduct(p *domproduct.Product) map[string]any {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"price":       p.Price,
		"description": p.Description,
		"categoryId":  p.CategoryID,
		"category":    p.Category,
		"images":      images,
	}
}

type serverMessager interface {
	ServerMessage() string
}

func handleDomainError(w http.ResponseWriter, err error) {
	var upstream serverMessager
	switch {
	case errors.Is(err, domproduct.ErrProductNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, domproduct.ErrInvalidID):
		respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, domuser.ErrUnauthorized),
		errors.Is(err, domuser.ErrNoToken):
		respondError(w, http.StatusUnauthorized, err)
	case errors.Is(err, domuser.ErrInvalidCredential),
		errors.Is(err, productuc.ErrInvalidDraft):
		respondError(w, http.StatusUnprocessableEntity, err)
	case errors.As(err, &upstream):
		respondError(w, http.StatusBadGateway, err)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}
