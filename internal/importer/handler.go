package importer

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keystone-ppm/keystone/internal/authz"
	"github.com/keystone-ppm/keystone/internal/platform/httpx"
	"github.com/keystone-ppm/keystone/internal/shared"
)

// maxUploadBytes caps the request body for CSV uploads.
const maxUploadBytes = 8 << 20

// Handler manages CSV import endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw}
}

// MountRoutes registers import routes. Importing creates records, so the
// route carries the creation permission of the target kind.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermCreateProject))
		r.Post("/projects", h.importKind(KindProjects))
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermEditProject))
		r.Post("/tasks", h.importKind(KindTasks))
	})
}

func (h *Handler) importKind(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := shared.IdentityFromContext(r.Context())

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		defer file.Close()

		result, err := h.service.Import(r.Context(), id, kind, file)
		if err != nil {
			var vErr *ValidationError
			if errors.As(err, &vErr) {
				httpx.JSON(w, http.StatusUnprocessableEntity, vErr)
				return
			}
			h.logger.Error("import", slog.String("kind", kind), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, result)
	}
}
