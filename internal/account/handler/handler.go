package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"leasekeeper/internal/account/models"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/httputil"
	request "leasekeeper/pkg/platform/middleware/request"
	"leasekeeper/pkg/platform/validation"
)

// Service defines the account operations exposed to platform admins.
type Service interface {
	CreateAccount(ctx context.Context, name, notificationEmail string) (*models.Account, error)
	GetAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	DeactivateAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	ReactivateAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the admin routes. Callers wrap r with the admin token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/accounts", h.HandleCreateAccount)
	r.Get("/admin/accounts/{id}", h.HandleGetAccount)
	r.Post("/admin/accounts/{id}/deactivate", h.HandleDeactivateAccount)
	r.Post("/admin/accounts/{id}/reactivate", h.HandleReactivateAccount)
}

type CreateAccountRequest struct {
	Name              string `json:"name" validate:"required,notblank,max=128"`
	NotificationEmail string `json:"notification_email" validate:"omitempty,email"`
}

func (r *CreateAccountRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.NotificationEmail = strings.TrimSpace(r.NotificationEmail)
}

func (r *CreateAccountRequest) Validate() error {
	return validation.Validate(r)
}

type AccountResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	NotificationEmail string `json:"notification_email,omitempty"`
	Status            string `json:"status"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

func toAccountResponse(a *models.Account) *AccountResponse {
	return &AccountResponse{
		ID:                a.ID.String(),
		Name:              a.Name,
		NotificationEmail: a.NotificationEmail,
		Status:            string(a.Status),
		CreatedAt:         a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateAccountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	account, err := h.service.CreateAccount(ctx, req.Name, req.NotificationEmail)
	if err != nil {
		h.logger.ErrorContext(ctx, "create account failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, "get account failed", h.service.GetAccount)
}

// HandleDeactivateAccount stops the daily job from touching the account.
func (h *Handler) HandleDeactivateAccount(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, "deactivate account failed", h.service.DeactivateAccount)
}

func (h *Handler) HandleReactivateAccount(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, "reactivate account failed", h.service.ReactivateAccount)
}

func (h *Handler) handleByID(w http.ResponseWriter, r *http.Request, failMsg string, fn func(context.Context, id.AccountID) (*models.Account, error)) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	accountID, err := id.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid account id"))
		return
	}

	account, err := fn(ctx, accountID)
	if err != nil {
		h.logger.ErrorContext(ctx, failMsg, "error", err, "request_id", requestID, "account_id", accountID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}
