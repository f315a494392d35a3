package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/therenansimoes/organizations/api/controllers"
	"github.com/therenansimoes/organizations/api/middleware"
	"github.com/therenansimoes/organizations/pkg/config"
	"github.com/therenansimoes/organizations/pkg/logger"
)

// Pinger is the readiness surface of a wired backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP Pinger,
	redisP Pinger,
	metricsHandler http.Handler,
	membershipService controllers.MembershipService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1/orgs/{orgID}", func(r chi.Router) {
		r.Use(middleware.ViewerContext(logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.ListUsers(membershipService, logg))
			r.Post("/", controllers.InviteUser(membershipService, logg))
			r.Post("/delete-confirm", controllers.ConfirmUserDelete(membershipService, logg))
			r.Post("/delete-cancel", controllers.CancelUserDelete(membershipService, logg))

			r.Route("/{assignmentID}", func(r chi.Router) {
				r.Patch("/", controllers.UpdateUserRole(membershipService, logg))
				r.Post("/reinvite", controllers.ReInviteUser(membershipService, logg))
				r.Post("/delete-request", controllers.RequestUserDelete(membershipService, logg))
			})
		})
	})

	return r
}
