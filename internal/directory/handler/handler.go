package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"leasekeeper/internal/directory/models"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/httputil"
	accountmw "leasekeeper/pkg/platform/middleware/account"
	request "leasekeeper/pkg/platform/middleware/request"
	"leasekeeper/pkg/platform/validation"
)

type Service interface {
	CreateProperty(ctx context.Context, accountID id.AccountID, address string) (*models.Property, error)
	ListProperties(ctx context.Context, accountID id.AccountID) ([]*models.Property, error)
	CreateUnit(ctx context.Context, accountID id.AccountID, propertyID id.PropertyID, apartment string) (*models.Unit, error)
	ListUnits(ctx context.Context, accountID id.AccountID, propertyID *id.PropertyID) ([]*models.Unit, error)
	CreateTenant(ctx context.Context, accountID id.AccountID, name, email, phone string) (*models.Tenant, error)
	ListTenants(ctx context.Context, accountID id.AccountID) ([]*models.Tenant, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the directory routes. r must carry the account middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/properties", h.HandleCreateProperty)
	r.Get("/properties", h.HandleListProperties)
	r.Post("/units", h.HandleCreateUnit)
	r.Get("/units", h.HandleListUnits)
	r.Post("/tenants", h.HandleCreateTenant)
	r.Get("/tenants", h.HandleListTenants)
}

type CreatePropertyRequest struct {
	Address string `json:"address" validate:"required,notblank,max=512"`
}

func (r *CreatePropertyRequest) Normalize()     { r.Address = strings.TrimSpace(r.Address) }
func (r *CreatePropertyRequest) Validate() error { return validation.Validate(r) }

type CreateUnitRequest struct {
	PropertyID      string `json:"property_id" validate:"required,uuid"`
	ApartmentNumber string `json:"apartment_number" validate:"required,notblank,max=32"`
}

func (r *CreateUnitRequest) Normalize()     { r.ApartmentNumber = strings.TrimSpace(r.ApartmentNumber) }
func (r *CreateUnitRequest) Validate() error { return validation.Validate(r) }

type CreateTenantRequest struct {
	Name  string `json:"name" validate:"required,notblank,max=256"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

func (r *CreateTenantRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *CreateTenantRequest) Validate() error { return validation.Validate(r) }

func (h *Handler) HandleCreateProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[CreatePropertyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.CreateProperty(ctx, accountmw.GetAccountID(ctx), req.Address)
	if err != nil {
		h.logger.ErrorContext(ctx, "create property failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) HandleListProperties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.service.ListProperties(ctx, accountmw.GetAccountID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "list properties failed", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleCreateUnit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[CreateUnitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	propertyID, err := id.ParsePropertyID(req.PropertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := h.service.CreateUnit(ctx, accountmw.GetAccountID(ctx), propertyID, req.ApartmentNumber)
	if err != nil {
		h.logger.ErrorContext(ctx, "create unit failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

// HandleListUnits accepts an optional property_id query parameter.
func (h *Handler) HandleListUnits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var propertyID *id.PropertyID
	if raw := r.URL.Query().Get("property_id"); raw != "" {
		parsed, err := id.ParsePropertyID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid property id"))
			return
		}
		propertyID = &parsed
	}
	out, err := h.service.ListUnits(ctx, accountmw.GetAccountID(ctx), propertyID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list units failed", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleCreateTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[CreateTenantRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	t, err := h.service.CreateTenant(ctx, accountmw.GetAccountID(ctx), req.Name, req.Email, req.Phone)
	if err != nil {
		h.logger.ErrorContext(ctx, "create tenant failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) HandleListTenants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.service.ListTenants(ctx, accountmw.GetAccountID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "list tenants failed", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
