package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/keystone-ppm/keystone/internal/authz"
	"github.com/keystone-ppm/keystone/internal/platform/httpx"
	"github.com/keystone-ppm/keystone/internal/shared"
)

// Handler manages user management endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermViewUsers))
		r.Get("/", h.listUsers)
		r.Get("/{userID}", h.getUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermManageUsers, authz.PermInviteUsers))
		r.Post("/", h.createUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermManageUsers))
		r.Put("/{userID}", h.updateUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermManagePortfolioMembers, authz.PermManageProjectMembers))
		r.Put("/{userID}/grants", h.updateGrants)
	})
}

type listResponse struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	users, pagination, err := h.service.List(r.Context(), id, page, perPage)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if users == nil {
		users = []User{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Users: users, Pagination: pagination})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	user, err := h.service.Get(r.Context(), id, chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type createRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=50"`
	Email      string `json:"email" validate:"required,email"`
	FullName   string `json:"full_name" validate:"required,max=200"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"required"`
	JobTitle   string `json:"job_title" validate:"omitempty,max=100"`
	Department string `json:"department" validate:"omitempty,max=100"`
	Phone      string `json:"phone" validate:"omitempty,max=50"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
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
	user, err := h.service.Create(r.Context(), id, CreateInput{
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   req.Password,
		Role:       req.Role,
		JobTitle:   req.JobTitle,
		Department: req.Department,
		Phone:      req.Phone,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

type updateRequest struct {
	Email      string `json:"email" validate:"omitempty,email"`
	FullName   string `json:"full_name" validate:"omitempty,max=200"`
	Status     string `json:"status" validate:"omitempty,oneof=active inactive suspended pending_verification"`
	JobTitle   string `json:"job_title" validate:"omitempty,max=100"`
	Department string `json:"department" validate:"omitempty,max=100"`
	Phone      string `json:"phone" validate:"omitempty,max=50"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
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
	user, err := h.service.Update(r.Context(), id, chi.URLParam(r, "userID"), UpdateInput{
		Email:      req.Email,
		FullName:   req.FullName,
		Status:     req.Status,
		JobTitle:   req.JobTitle,
		Department: req.Department,
		Phone:      req.Phone,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type grantsRequest struct {
	PortfolioAccess []string `json:"portfolio_access"`
	ProjectAccess   []string `json:"project_access"`
}

func (h *Handler) updateGrants(w http.ResponseWriter, r *http.Request) {
	var req grantsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, _ := shared.IdentityFromContext(r.Context())
	user, err := h.service.SetGrants(r.Context(), id, chi.URLParam(r, "userID"), shared.Grants{
		Portfolios: req.PortfolioAccess,
		Projects:   req.ProjectAccess,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
