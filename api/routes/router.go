package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tundeafolabi/indicert-backend/api/controllers"
	"github.com/tundeafolabi/indicert-backend/api/middleware"
	"github.com/tundeafolabi/indicert-backend/internal/applications"
	"github.com/tundeafolabi/indicert-backend/internal/audit"
	"github.com/tundeafolabi/indicert-backend/internal/certificates"
	"github.com/tundeafolabi/indicert-backend/internal/review"
	"github.com/tundeafolabi/indicert-backend/pkg/config"
	"github.com/tundeafolabi/indicert-backend/pkg/db"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
	"github.com/tundeafolabi/indicert-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsGatherer prometheus.Gatherer,
	applicationsService applications.Service,
	certificatesService certificates.Service,
	reviewService review.Service,
	auditService audit.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	verifyPolicy := middleware.NewVerifyRateLimitPolicy("verify", cfg.VerifyLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.With(middleware.VerifyRateLimit(verifyPolicy, redisClient, logg)).
			Get("/v1/certificates/{certificateId}/verify", controllers.CertificateVerify(certificatesService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Route("/applications", func(r chi.Router) {
			r.Post("/", controllers.ApplicationCreate(applicationsService, logg))
			r.Get("/", controllers.ApplicationList(applicationsService, logg))
			r.Get("/{applicationId}", controllers.ApplicationDetail(applicationsService, logg))
			r.Put("/{applicationId}", controllers.ApplicationUpdate(applicationsService, logg))
			r.Post("/{applicationId}/submit", controllers.ApplicationSubmit(applicationsService, logg))
		})

		r.Get("/certificates/{certificateId}/pdf", controllers.CertificatePDF(certificatesService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/review", func(r chi.Router) {
			r.Get("/queue", controllers.ReviewQueue(reviewService, logg))
			r.Post("/{applicationId}/approve", controllers.ReviewApprove(reviewService, logg))
			r.Post("/{applicationId}/reject", controllers.ReviewReject(reviewService, logg))
		})

		r.Get("/applications/{applicationId}", controllers.ApplicationDetail(applicationsService, logg))
		r.Get("/applications/{applicationId}/audit", controllers.AuditByApplication(auditService, logg))
		r.Get("/audit", controllers.AuditByAction(auditService, logg))
		r.Post("/certificates/{certificateId}/revoke", controllers.CertificateRevoke(certificatesService, logg))
	})

	return r
}
