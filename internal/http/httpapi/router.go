package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"modaflow/internal/domain"
	"modaflow/internal/http/handlers"
	"modaflow/internal/infra"
	"modaflow/internal/metrics"
	"modaflow/internal/middleware"
	"modaflow/internal/telemetry"
)

type Options struct {
	Logger          infra.Logger
	Metrics         *metrics.Metrics
	CORSOrigins     []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int

	// TrustProxyHeaders rewrites RemoteAddr from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(
		middleware.Role,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		telemetry.Middleware,
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	// Health
	r.Get("/v1/healthz", app.Health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	merchant := middleware.RequireRole(app.Forbidden, domain.RoleMerchant)
	shopper := middleware.RequireRole(app.Forbidden, domain.RoleShopper)

	r.Route("/v1/products", func(r chi.Router) {
		r.Get("/", app.ListProducts)
		r.Get("/{id}", app.GetProduct)
		r.With(merchant).Post("/", app.CreateProduct)
		r.With(merchant).Delete("/{id}", app.DeleteProduct)
	})

	r.Route("/v1/categories", func(r chi.Router) {
		r.Get("/", app.ListCategories)
		r.With(merchant).Post("/", app.CreateCategory)
		r.With(merchant).Delete("/{id}", app.DeleteCategory)
	})

	limit := opts.RateLimitPerMin
	if limit <= 0 {
		limit = 30
	}
	r.With(shopper, middleware.RateLimit(limit, time.Minute, app.TooManyRequests)).Post("/v1/tryon", app.TryOn)

	return r
}
