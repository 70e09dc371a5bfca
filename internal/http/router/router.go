package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"driver-portal/internal/http/handlers"
	"driver-portal/internal/http/middleware"
	"driver-portal/internal/http/middleware/ratelimit"
	"driver-portal/internal/logx"
)

// New constructs a chi-based http.Handler with base middleware and routes.
func New(
	logger logx.Logger,
	base *handlers.Handlers,
	session *handlers.SessionHandler,
	delivery *handlers.DeliveryHandler,
	blocks *handlers.BlockHandler,
	issues *handlers.IssueHandler,
	stats *handlers.StatisticsHandler,
	rl *ratelimit.Middleware,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Observability(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(5 * time.Second))

	r.Get("/ping", base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(base.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(http.HandlerFunc(base.NotFound))

	r.Group(func(r chi.Router) {
		r.Use(rl.Handler())

		r.Get("/session", session.Get)
		r.Post("/session/login", session.Login)
		r.Post("/session/logout", session.Logout)

		r.Get("/deliveries", delivery.List)
		r.Get("/deliveries/{id}", delivery.Get)
		r.Patch("/deliveries/{id}", delivery.Update)
		r.Delete("/deliveries/{id}", delivery.Delete)
		r.Post("/deliveries/{id}/scan", delivery.Scan)
		r.Post("/deliveries/{id}/start", delivery.Start)
		r.Post("/deliveries/{id}/complete", delivery.Complete)

		r.Get("/blocks", blocks.List)
		r.Post("/blocks/{id}/schedule", blocks.Schedule)
		r.Post("/blocks/{id}/cancel", blocks.Cancel)

		r.Get("/issues", issues.List)
		r.Post("/issues", issues.Report)

		r.Get("/statistics", stats.Get)
		r.Post("/refresh", stats.Refresh)
	})

	return r
}
