package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/keystone-ppm/keystone/internal/auth"
	"github.com/keystone-ppm/keystone/internal/importer"
	"github.com/keystone-ppm/keystone/internal/observability"
	"github.com/keystone-ppm/keystone/internal/portfolios"
	"github.com/keystone-ppm/keystone/internal/projects"
	"github.com/keystone-ppm/keystone/internal/tasks"
	"github.com/keystone-ppm/keystone/internal/tenants"
	"github.com/keystone-ppm/keystone/internal/users"
	"github.com/keystone-ppm/keystone/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Tokens           *auth.TokenManager
	AuthHandler      *auth.Handler
	TenantHandler    *tenants.Handler
	UserHandler      *users.Handler
	PortfolioHandler *portfolios.Handler
	ProjectHandler   *projects.Handler
	TaskHandler      *tasks.Handler
	ImportHandler    *importer.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router. Public routes carry no identity;
// everything under /api/v1 behind the bearer middleware requires a valid
// access token.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)
		})
		r.Route("/tenants", func(r chi.Router) {
			params.TenantHandler.MountPublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.BearerMiddleware(params.Tokens))

			r.Route("/tenant", func(r chi.Router) {
				params.TenantHandler.MountRoutes(r)
			})
			r.Route("/users", func(r chi.Router) {
				params.UserHandler.MountRoutes(r)
			})
			r.Route("/portfolios", func(r chi.Router) {
				params.PortfolioHandler.MountRoutes(r)
			})
			r.Route("/projects", func(r chi.Router) {
				params.ProjectHandler.MountRoutes(r)
			})
			r.Route("/tasks", func(r chi.Router) {
				params.TaskHandler.MountRoutes(r)
			})
			r.Route("/imports", func(r chi.Router) {
				params.ImportHandler.MountRoutes(r)
			})
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					params.JobHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}
