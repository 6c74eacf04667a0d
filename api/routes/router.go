package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warehouse-incentives/incentives-backend/api/controllers"
	"github.com/warehouse-incentives/incentives-backend/api/middleware"
	"github.com/warehouse-incentives/incentives-backend/internal/auth"
	"github.com/warehouse-incentives/incentives-backend/internal/items"
	"github.com/warehouse-incentives/incentives-backend/internal/pickers"
	"github.com/warehouse-incentives/incentives-backend/internal/ranking"
	"github.com/warehouse-incentives/incentives-backend/pkg/auth/session"
	"github.com/warehouse-incentives/incentives-backend/pkg/config"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
	"github.com/warehouse-incentives/incentives-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	authService auth.Service,
	rankingService ranking.Service,
	itemsService items.Service,
	pickerService pickers.Service,
	profiles controllers.UserFinder,
	metricsHandler http.Handler,
	now func() time.Time,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	limits := cfg.AuthRateLimit
	loginPolicy := middleware.NewAuthRateLimitPolicy("login", limits.LoginWindow,
		middleware.ByIP(limits.LoginIPLimit),
		middleware.ByPickerID(limits.LoginPickerLimit),
	)
	passwordPolicy := middleware.NewAuthRateLimitPolicy("password", limits.PasswordWindow,
		middleware.ByIP(limits.PasswordIPLimit),
		middleware.ByUser(limits.PasswordUserLimit),
	)

	// A nil *redis.Client must not reach the Pinger map as a typed nil.
	pingers := map[string]controllers.Pinger{"db": dbP}
	if redisClient != nil {
		pingers["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, pingers, logg))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(rateLimited(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, cfg.JWT, logg))
		r.With(
			middleware.Auth(cfg.JWT, sessions, logg),
			rateLimited(passwordPolicy, redisClient, logg),
		).Post("/password", controllers.AuthChangePassword(authService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(rateLimited(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminAuthLogin(authService, logg))
	})

	maxUpload := cfg.Ingest.MaxUploadBytes()

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/picker", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RolePicker, enums.RoleSupervisor))
			r.Get("/stats", controllers.PickerStats(rankingService, profiles, logg))
		})

		r.Route("/supervisor", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleSupervisor, enums.RoleAdmin))
			r.Get("/rankings", controllers.SupervisorRankings(rankingService, logg))
			r.Get("/pickers/{pickerId}", controllers.SupervisorPickerDetail(rankingService, itemsService, logg))
			r.Get("/download", controllers.SupervisorDownload(rankingService, now, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
			r.Get("/stats", controllers.AdminStats(itemsService, logg))
			r.Get("/cohorts", controllers.AdminCohortSummary(pickerService, logg))
			r.Group(func(r chi.Router) {
				r.Use(idempotent(redisClient, cfg.Ingest.ReplayTTL, maxUpload, logg))
				r.Post("/uploads", controllers.AdminUploadEvents(itemsService, maxUpload, logg))
				r.Post("/cohorts", controllers.AdminUploadCohorts(pickerService, maxUpload, logg))
				r.Post("/roster", controllers.AdminUploadRoster(pickerService, maxUpload, logg))
				r.Post("/users", controllers.AdminCreateUser(pickerService, logg))
			})
			r.Post("/clear", controllers.AdminClear(itemsService, logg))
		})
	})

	return r
}

func rateLimited(policy middleware.AuthRateLimitPolicy, client *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.AuthRateLimit(policy, client, logg)
}

func idempotent(client *redis.Client, ttl time.Duration, maxBody int64, logg *logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Idempotency(client, ttl, maxBody, logg)
}
