package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zauberjournal/journal-api/api/controllers"
	"github.com/zauberjournal/journal-api/api/middleware"
	"github.com/zauberjournal/journal-api/internal/iconmappings"
	"github.com/zauberjournal/journal-api/internal/notifications"
	"github.com/zauberjournal/journal-api/pkg/config"
	"github.com/zauberjournal/journal-api/pkg/enums"
	"github.com/zauberjournal/journal-api/pkg/logger"
	pkgredis "github.com/zauberjournal/journal-api/pkg/redis"
)

// NewRouter mounts every HTTP surface. redisClient may be nil, which turns
// off idempotency replay and keeps rate limit counters in process. gatherer
// defaults to the prometheus default registry.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *pkgredis.Client,
	gatherer prometheus.Gatherer,
	center notifications.Center,
	resolver controllers.IconResolver,
	mappingsService iconmappings.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	var (
		idempotencyStore pkgredis.IdempotencyStore
		cachePinger      controllers.Pinger
		rateLimit        func(http.Handler) http.Handler
	)
	notifyPolicy := middleware.NewRateLimitPolicy("notifications", cfg.RateLimit.NotifyWindow, cfg.RateLimit.NotifyLimit)
	if redisClient != nil {
		idempotencyStore = redisClient
		cachePinger = redisClient
		rateLimit = middleware.RateLimit(notifyPolicy, redisClient, logg)
	} else {
		rateLimit = middleware.RateLimit(notifyPolicy, middleware.NewMemoryRateStore(), logg)
	}

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cachePinger, logg))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/icon-mappings", controllers.PublicIconTable(mappingsService, logg))
		r.Get("/icons/emoji", controllers.LookupEmoji(resolver, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(center, logg))
			r.With(rateLimit).Post("/", controllers.CreateNotification(center, logg))
			r.Delete("/{notificationId}", controllers.DeleteNotification(center, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
		r.Use(middleware.Idempotency(idempotencyStore, logg))
		r.Get("/ping", controllers.AdminPing())

		r.Route("/v1/icon-mappings", func(r chi.Router) {
			r.Get("/", controllers.AdminListIconMappings(mappingsService, logg))
			r.Post("/", controllers.AdminCreateIconMapping(mappingsService, logg))
			r.Patch("/{mappingId}", controllers.AdminUpdateIconMapping(mappingsService, logg))
			r.Delete("/{mappingId}", controllers.AdminDeleteIconMapping(mappingsService, logg))
		})
		r.Route("/v1/icons", func(r chi.Router) {
			r.Get("/status", controllers.IconCacheStatus(resolver, logg))
			r.Post("/invalidate", controllers.InvalidateIconCache(resolver, logg))
		})
		r.Post("/v1/notifications/reset", controllers.ResetNotifications(center, logg))
	})

	return r
}
