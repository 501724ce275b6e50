package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carelink/medtrack/internal/family"
	"github.com/carelink/medtrack/internal/medicine"
)

type RouterConfig struct {
	Medicine *medicine.Service
	Family   *family.Service
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Logger   zerolog.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints, outside the identity gate
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(CallerIdentityMiddleware)

		r.Route("/medicine-plans", func(r chi.Router) {
			r.Post("/", createPlanHandler(cfg.Medicine))
			r.Get("/", listPlansHandler(cfg.Medicine))
			r.Get("/today", todayPlansHandler(cfg.Medicine))
			r.Get("/timeline", timelineHandler(cfg.Medicine))
			r.Get("/{id}", getPlanHandler(cfg.Medicine))
			r.Patch("/{id}", updatePlanHandler(cfg.Medicine))
			r.Delete("/{id}", deletePlanHandler(cfg.Medicine))

			r.Get("/family/{memberId}", familyPlansHandler(cfg.Medicine, cfg.Family))
			r.Get("/family/{memberId}/timeline", familyTimelineHandler(cfg.Medicine, cfg.Family))
		})

		r.Route("/medicine-logs", func(r chi.Router) {
			r.Post("/", recordActionHandler(cfg.Medicine))
			r.Get("/stats", dailyStatsHandler(cfg.Medicine))
		})

		r.Route("/family", func(r chi.Router) {
			r.Post("/", sendFamilyRequestHandler(cfg.Family))
			r.Get("/", listFamilyMembersHandler(cfg.Family))
			r.Get("/requests", listIncomingFamilyRequestsHandler(cfg.Family))
			r.Post("/{id}/respond", respondFamilyRequestHandler(cfg.Family))
			r.Delete("/{id}", removeFamilyMemberHandler(cfg.Family))
		})
	})

	return r
}
