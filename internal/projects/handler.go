package projects

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

// Handler manages project endpoints.
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

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermViewProject))
		r.Get("/", h.listProjects)
		r.Get("/{projectID}", h.getProject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermCreateProject))
		r.Post("/", h.createProject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermEditProject))
		r.Put("/{projectID}", h.updateProject)
		r.Post("/{projectID}/transition", h.transitionProject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermDeleteProject))
		r.Delete("/{projectID}", h.deleteProject)
	})
}

type listResponse struct {
	Projects   []Project         `json:"projects"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	filter := ListFilter{
		PortfolioID: r.URL.Query().Get("portfolio_id"),
		Status:      r.URL.Query().Get("status"),
	}

	projects, pagination, err := h.service.List(r.Context(), id, filter, page, perPage)
	if err != nil {
		h.logger.Error("list projects", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if projects == nil {
		projects = []Project{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Projects: projects, Pagination: pagination})
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	p, err := h.service.Get(r.Context(), id, chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type createRequest struct {
	Name         string     `json:"name" validate:"required,max=200"`
	Code         string     `json:"code" validate:"required,max=50"`
	Description  string     `json:"description" validate:"omitempty,max=2000"`
	Type         string     `json:"project_type" validate:"required,oneof=software_development infrastructure research marketing process_improvement compliance other"`
	Methodology  string     `json:"methodology" validate:"omitempty,oneof=waterfall agile scrum kanban hybrid lean"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	PortfolioID  string     `json:"portfolio_id" validate:"omitempty,uuid"`
	ManagerID    string     `json:"project_manager_id" validate:"omitempty,uuid"`
	SponsorID    string     `json:"sponsor_id" validate:"omitempty,uuid"`
	TeamMembers  []string   `json:"team_members" validate:"omitempty,dive,uuid"`
	PlannedStart *time.Time `json:"planned_start_date"`
	PlannedEnd   *time.Time `json:"planned_end_date"`
	TotalBudget  float64    `json:"total_budget" validate:"omitempty,gte=0"`
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
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
		Name:         req.Name,
		Code:         req.Code,
		Description:  req.Description,
		Type:         req.Type,
		Methodology:  req.Methodology,
		Priority:     req.Priority,
		PortfolioID:  req.PortfolioID,
		ManagerID:    req.ManagerID,
		SponsorID:    req.SponsorID,
		TeamMembers:  req.TeamMembers,
		PlannedStart: req.PlannedStart,
		PlannedEnd:   req.PlannedEnd,
		TotalBudget:  req.TotalBudget,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

type milestoneRequest struct {
	ID           string     `json:"id" validate:"omitempty,uuid"`
	Name         string     `json:"name" validate:"required,max=200"`
	Description  string     `json:"description" validate:"omitempty,max=2000"`
	PlannedDate  *time.Time `json:"planned_date"`
	ActualDate   *time.Time `json:"actual_date"`
	Status       string     `json:"status" validate:"omitempty,oneof=planned in_progress completed delayed cancelled"`
	Deliverables []string   `json:"deliverables"`
}

type updateRequest struct {
	Name         string             `json:"name" validate:"omitempty,max=200"`
	Description  *string            `json:"description" validate:"omitempty,max=2000"`
	Type         string             `json:"project_type" validate:"omitempty,oneof=software_development infrastructure research marketing process_improvement compliance other"`
	Methodology  string             `json:"methodology" validate:"omitempty,oneof=waterfall agile scrum kanban hybrid lean"`
	Health       string             `json:"health_status" validate:"omitempty,oneof=green yellow red"`
	Priority     string             `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	PortfolioID  *string            `json:"portfolio_id" validate:"omitempty"`
	ManagerID    string             `json:"project_manager_id" validate:"omitempty,uuid"`
	SponsorID    *string            `json:"sponsor_id" validate:"omitempty"`
	TeamMembers  []string           `json:"team_members" validate:"omitempty,dive,uuid"`
	PlannedStart *time.Time         `json:"planned_start_date"`
	PlannedEnd   *time.Time         `json:"planned_end_date"`
	ActualStart  *time.Time         `json:"actual_start_date"`
	ActualEnd    *time.Time         `json:"actual_end_date"`
	PercentDone  *float64           `json:"percent_complete" validate:"omitempty,gte=0,lte=100"`
	TotalBudget  *float64           `json:"total_budget" validate:"omitempty,gte=0"`
	SpentAmount  *float64           `json:"spent_amount" validate:"omitempty,gte=0"`
	Milestones   []milestoneRequest `json:"milestones" validate:"omitempty,dive"`
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var milestones []Milestone
	if req.Milestones != nil {
		milestones = make([]Milestone, 0, len(req.Milestones))
		for _, m := range req.Milestones {
			milestones = append(milestones, Milestone{
				ID:           m.ID,
				Name:         m.Name,
				Description:  m.Description,
				PlannedDate:  m.PlannedDate,
				ActualDate:   m.ActualDate,
				Status:       m.Status,
				Deliverables: m.Deliverables,
			})
		}
	}
	id, _ := shared.IdentityFromContext(r.Context())
	p, err := h.service.Update(r.Context(), id, chi.URLParam(r, "projectID"), UpdateInput{
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		Methodology:  req.Methodology,
		Health:       req.Health,
		Priority:     req.Priority,
		PortfolioID:  req.PortfolioID,
		ManagerID:    req.ManagerID,
		SponsorID:    req.SponsorID,
		TeamMembers:  req.TeamMembers,
		PlannedStart: req.PlannedStart,
		PlannedEnd:   req.PlannedEnd,
		ActualStart:  req.ActualStart,
		ActualEnd:    req.ActualEnd,
		PercentDone:  req.PercentDone,
		TotalBudget:  req.TotalBudget,
		SpentAmount:  req.SpentAmount,
		Milestones:   milestones,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active on_hold completed cancelled"`
}

func (h *Handler) transitionProject(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	id, _ := shared.IdentityFromContext(r.Context())
	p, err := h.service.Transition(r.Context(), id, chi.URLParam(r, "projectID"), req.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), id, chi.URLParam(r, "projectID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
