package portfolios

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/keystone-ppm/keystone/internal/authz"
	"github.com/keystone-ppm/keystone/internal/platform/httpx"
	"github.com/keystone-ppm/keystone/internal/shared"
)

// Handler manages portfolio endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

// MountRoutes registers portfolio routes. Route middleware enforces the
// category-level permission; the service resolves per-instance access.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermViewPortfolio))
		r.Get("/", h.listPortfolios)
		r.Get("/{portfolioID}", h.getPortfolio)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermCreatePortfolio))
		r.Post("/", h.createPortfolio)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermEditPortfolio))
		r.Put("/{portfolioID}", h.updatePortfolio)
		r.Post("/{portfolioID}/projects/{projectID}", h.attachProject)
		r.Delete("/{portfolioID}/projects/{projectID}", h.detachProject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermDeletePortfolio))
		r.Delete("/{portfolioID}", h.deletePortfolio)
	})
}

type listResponse struct {
	Portfolios []Portfolio       `json:"portfolios"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listPortfolios(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	portfolios, pagination, err := h.service.List(r.Context(), id, page, perPage)
	if err != nil {
		h.logger.Error("list portfolios", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if portfolios == nil {
		portfolios = []Portfolio{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Portfolios: portfolios, Pagination: pagination})
}

func (h *Handler) getPortfolio(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	p, err := h.service.Get(r.Context(), id, chi.URLParam(r, "portfolioID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type createRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Code        string     `json:"code" validate:"required,max=50"`
	Description string     `json:"description" validate:"omitempty,max=2000"`
	Type        string     `json:"portfolio_type" validate:"omitempty,oneof=strategic operational innovation maintenance"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	ManagerID   string     `json:"portfolio_manager_id" validate:"omitempty,uuid"`
	Sponsors    []string   `json:"sponsors" validate:"omitempty,dive,max=200"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	TotalBudget float64    `json:"total_budget" validate:"omitempty,gte=0"`
}

func (h *Handler) createPortfolio(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	id, _ := shared.IdentityFromContext(r.Context())
	p, err := h.service.Create(r.Context(), id, CreateInput{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Type:        req.Type,
		Priority:    req.Priority,
		ManagerID:   req.ManagerID,
		Sponsors:    req.Sponsors,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TotalBudget: req.TotalBudget,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

type updateRequest struct {
	Name        string     `json:"name" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Type        string     `json:"portfolio_type" validate:"omitempty,oneof=strategic operational innovation maintenance"`
	Status      string     `json:"status" validate:"omitempty,oneof=draft active on_hold completed cancelled"`
	Health      string     `json:"health_status" validate:"omitempty,oneof=green yellow red"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	ManagerID   string     `json:"portfolio_manager_id" validate:"omitempty,uuid"`
	Sponsors    []string   `json:"sponsors" validate:"omitempty,dive,max=200"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	TotalBudget *float64   `json:"total_budget" validate:"omitempty,gte=0"`
	SpentAmount *float64   `json:"spent_amount" validate:"omitempty,gte=0"`
}

func (h *Handler) updatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	id, _ := shared.IdentityFromContext(r.Context())
	p, err := h.service.Update(r.Context(), id, chi.URLParam(r, "portfolioID"), UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Status:      req.Status,
		Health:      req.Health,
		Priority:    req.Priority,
		ManagerID:   req.ManagerID,
		Sponsors:    req.Sponsors,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TotalBudget: req.TotalBudget,
		SpentAmount: req.SpentAmount,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deletePortfolio(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), id, chi.URLParam(r, "portfolioID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) attachProject(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	err := h.service.AttachProject(r.Context(), id, chi.URLParam(r, "portfolioID"), chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) detachProject(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	err := h.service.DetachProject(r.Context(), id, chi.URLParam(r, "portfolioID"), chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
