package tenants

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/keystone-ppm/keystone/internal/authz"
	"github.com/keystone-ppm/keystone/internal/platform/httpx"
	"github.com/keystone-ppm/keystone/internal/shared"
)

// Handler manages tenant endpoints.
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

// MountRoutes registers authenticated tenant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermViewTenant))
		r.Get("/", h.getTenant)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermManageTenant))
		r.Put("/", h.updateTenant)
	})
}

// MountPublicRoutes registers routes reachable without a bearer token.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/register", h.registerTenant)
}

type registerRequest struct {
	Code          string `json:"code" validate:"required,min=2,max=50"`
	Name          string `json:"name" validate:"required,max=200"`
	ContactEmail  string `json:"contact_email" validate:"required,email"`
	AdminUsername string `json:"admin_username" validate:"required,min=3,max=50"`
	AdminEmail    string `json:"admin_email" validate:"required,email"`
	AdminFullName string `json:"admin_full_name" validate:"required,max=200"`
	AdminPassword string `json:"admin_password" validate:"required,min=8"`
}

func (h *Handler) registerTenant(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	tenant, err := h.service.Register(r.Context(), RegisterInput{
		Code:          req.Code,
		Name:          req.Name,
		ContactEmail:  req.ContactEmail,
		AdminUsername: req.AdminUsername,
		AdminEmail:    req.AdminEmail,
		AdminFullName: req.AdminFullName,
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		h.logger.Error("register tenant", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tenant)
}

func (h *Handler) getTenant(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	tenant, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tenant)
}

type updateRequest struct {
	Name         string `json:"name" validate:"omitempty,max=200"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	Status       string `json:"status" validate:"omitempty,oneof=active suspended"`
}

func (h *Handler) updateTenant(w http.ResponseWriter, r *http.Request) {
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
	tenant, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Status:       req.Status,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tenant)
}
