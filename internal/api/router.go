package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/courierpost/newsletter-service/internal/api/handler"
	apimw "github.com/courierpost/newsletter-service/internal/api/middleware"
	"github.com/courierpost/newsletter-service/internal/metrics"
	"github.com/courierpost/newsletter-service/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	subscriptions *service.SubscriptionService,
	publishes *service.PublishService,
	auth *service.AuthService,
	m *metrics.Metrics,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	sh := handler.NewSubscriptionHandler(subscriptions, logger)
	nh := handler.NewNewsletterHandler(publishes, logger)
	ph := handler.NewPasswordHandler(auth, logger)
	hh := handler.NewHealthHandler()

	nh.OnPublished = m.IssuesPublished.Inc
	nh.OnReplayed = m.PublishReplays.Inc

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Public subscription flow
	r.Post("/subscriptions", sh.Subscribe)
	r.Get("/subscriptions/confirm", sh.Confirm)

	// Legacy synchronous publish; kept behind the same credentials.
	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(auth, logger))
		r.Post("/newsletters", nh.PublishLegacy)
	})

	// Admin surface: idempotent publish and account management.
	r.Route("/admin", func(r chi.Router) {
		r.Use(apimw.RequireAdmin(auth, logger))
		r.Post("/newsletters", nh.Publish)
		r.Post("/password", ph.ChangePassword)
	})

	return r
}
