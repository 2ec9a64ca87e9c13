package api

import (
	"context"
	"net/http"
	"time"

	"chall_zone/internal/api/handler"
	"chall_zone/internal/api/middleware"
	"chall_zone/internal/app/service"
	"chall_zone/internal/common"
	"chall_zone/internal/common/security"
	"chall_zone/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/sirupsen/logrus"
)

// HealthCheck is one dependency probed by /health.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Auth       *service.AuthService
	Challenges *service.ChallengeService
	Replies    *service.ReplyService
	Votes      *service.VoteService
	Profiles   *service.ProfileService

	Tokens         *security.TokenIssuer
	Revocations    middleware.RevocationChecker
	Metrics        *metrics.Metrics
	Log            *logrus.Logger
	MaxUploadBytes int64
	RequestTimeout time.Duration
	HealthChecks   map[string]HealthCheck
}

func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout == 0 {
		d.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.AccessLog(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(d.RequestTimeout))
	// Bearer tokens are verified once here; route groups decide whether one
	// is required.
	r.Use(jwtauth.Verifier(d.Tokens.Auth()))

	r.Get("/health", health(d.HealthChecks, d.Log))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(d.Auth, d.Revocations)
		v1.Route("/auth", authHandler.RegisterRoutes)
		v1.Route("/admin", authHandler.RegisterAdminRoutes)

		challengeHandler := handler.NewChallengeHandler(d.Challenges, d.Revocations)
		replyHandler := handler.NewReplyHandler(d.Replies, d.Revocations, d.MaxUploadBytes)
		v1.Get("/categories", challengeHandler.ListCategories)
		v1.Route("/challenges", func(cr chi.Router) {
			challengeHandler.RegisterRoutes(cr)
			replyHandler.RegisterChallengeRoutes(cr)
		})
		v1.Route("/comments", replyHandler.RegisterCommentRoutes)
		v1.Route("/submissions", replyHandler.RegisterSubmissionRoutes)
		v1.Route("/assets", replyHandler.RegisterAssetRoutes)

		v1.Route("/votes", handler.NewVoteHandler(d.Votes, d.Revocations).RegisterRoutes)

		userHandler := handler.NewUserHandler(d.Profiles, d.Revocations, d.MaxUploadBytes)
		v1.Route("/users", userHandler.RegisterRoutes)
		v1.Route("/me", userHandler.RegisterSelfRoutes)
	})

	return r
}

func health(checks map[string]HealthCheck, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.WithError(err).WithField("dependency", name).Warn("health check failed")
				status[name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		common.RespondWithJSON(w, code, status)
	}
}
