package tasks

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

// Handler manages task endpoints.
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

// MountRoutes registers task routes. Listing is nested under the project;
// item routes address tasks directly.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermViewProject))
		r.Get("/", h.listTasks)
		r.Get("/{taskID}", h.getTask)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermEditProject))
		r.Post("/", h.createTask)
		r.Put("/{taskID}", h.updateTask)
		r.Delete("/{taskID}", h.deleteTask)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermEnterTime))
		r.Post("/{taskID}/time", h.logTime)
	})
}

type listResponse struct {
	Tasks      []Task            `json:"tasks"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	id, _ := shared.IdentityFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	tasks, pagination, err := h.service.List(r.Context(), id, projectID, page, perPage)
	if err != nil {
		h.logger.Error("list tasks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if tasks == nil {
		tasks = []Task{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Tasks: tasks, Pagination: pagination})
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	t, err := h.service.Get(r.Context(), id, chi.URLParam(r, "taskID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

type createRequest struct {
	ProjectID    string     `json:"project_id" validate:"required,uuid"`
	ParentTaskID string     `json:"parent_task_id" validate:"omitempty,uuid"`
	Name         string     `json:"name" validate:"required,max=200"`
	Description  string     `json:"description" validate:"omitempty,max=2000"`
	Type         string     `json:"task_type" validate:"omitempty,oneof=story task bug epic subtask"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	AssigneeID   string     `json:"assignee_id" validate:"omitempty,uuid"`
	PlannedStart *time.Time `json:"planned_start_date"`
	PlannedEnd   *time.Time `json:"planned_end_date"`
	EstimatedHrs float64    `json:"estimated_hours" validate:"omitempty,gte=0"`
	StoryPoints  int        `json:"story_points" validate:"omitempty,gte=0"`
	Labels       []string   `json:"labels" validate:"omitempty,dive,max=50"`
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
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
	t, err := h.service.Create(r.Context(), id, CreateInput{
		ProjectID:    req.ProjectID,
		ParentTaskID: req.ParentTaskID,
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		Priority:     req.Priority,
		AssigneeID:   req.AssigneeID,
		PlannedStart: req.PlannedStart,
		PlannedEnd:   req.PlannedEnd,
		EstimatedHrs: req.EstimatedHrs,
		StoryPoints:  req.StoryPoints,
		Labels:       req.Labels,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

type updateRequest struct {
	Name         string     `json:"name" validate:"omitempty,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=2000"`
	Type         string     `json:"task_type" validate:"omitempty,oneof=story task bug epic subtask"`
	Status       string     `json:"status" validate:"omitempty,oneof=todo in_progress in_review testing done blocked cancelled"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	AssigneeID   *string    `json:"assignee_id" validate:"omitempty"`
	PlannedStart *time.Time `json:"planned_start_date"`
	PlannedEnd   *time.Time `json:"planned_end_date"`
	EstimatedHrs *float64   `json:"estimated_hours" validate:"omitempty,gte=0"`
	RemainingHrs *float64   `json:"remaining_hours" validate:"omitempty,gte=0"`
	PercentDone  *float64   `json:"percent_complete" validate:"omitempty,gte=0,lte=100"`
	StoryPoints  *int       `json:"story_points" validate:"omitempty,gte=0"`
	Labels       []string   `json:"labels" validate:"omitempty,dive,max=50"`
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
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
	t, err := h.service.Update(r.Context(), id, chi.URLParam(r, "taskID"), UpdateInput{
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		Status:       req.Status,
		Priority:     req.Priority,
		AssigneeID:   req.AssigneeID,
		PlannedStart: req.PlannedStart,
		PlannedEnd:   req.PlannedEnd,
		EstimatedHrs: req.EstimatedHrs,
		RemainingHrs: req.RemainingHrs,
		PercentDone:  req.PercentDone,
		StoryPoints:  req.StoryPoints,
		Labels:       req.Labels,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), id, chi.URLParam(r, "taskID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type timeEntryRequest struct {
	Date        time.Time `json:"date" validate:"required"`
	Hours       float64   `json:"hours" validate:"required,gt=0,lte=24"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	Billable    *bool     `json:"is_billable"`
}

func (h *Handler) logTime(w http.ResponseWriter, r *http.Request) {
	var req timeEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	billable := true
	if req.Billable != nil {
		billable = *req.Billable
	}
	id, _ := shared.IdentityFromContext(r.Context())
	t, err := h.service.LogTime(r.Context(), id, chi.URLParam(r, "taskID"), TimeEntryInput{
		Date:        req.Date,
		Hours:       req.Hours,
		Description: req.Description,
		Billable:    billable,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}
