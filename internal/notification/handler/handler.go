package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"leasekeeper/internal/notification/models"
	"leasekeeper/internal/notification/service"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/clock"
	"leasekeeper/pkg/platform/httputil"
	accountmw "leasekeeper/pkg/platform/middleware/account"
	request "leasekeeper/pkg/platform/middleware/request"
	"leasekeeper/pkg/platform/validation"
)

type Service interface {
	Get(ctx context.Context, accountID id.AccountID, notificationID id.NotificationID) (*models.Notification, error)
	List(ctx context.Context, accountID id.AccountID, filter models.Filter) (*models.Page, error)
	Upcoming(ctx context.Context, accountID id.AccountID) ([]*models.Notification, error)
	Settings(ctx context.Context, accountID id.AccountID) (*models.Settings, error)
	UpdateSettings(ctx context.Context, accountID id.AccountID, days []int) (*models.Settings, error)
}

type Retrier interface {
	RetryOne(ctx context.Context, accountID id.AccountID, notificationID id.NotificationID) (*models.Notification, error)
	RetryBulk(ctx context.Context, accountID id.AccountID, ids []id.NotificationID) (*service.RetryResult, error)
}

type Handler struct {
	service Service
	retrier Retrier
	logger  *slog.Logger
}

func New(service Service, retrier Retrier, logger *slog.Logger) *Handler {
	return &Handler{service: service, retrier: retrier, logger: logger}
}

// Register mounts the notification routes. r must carry the account middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Get("/notifications/upcoming", h.HandleUpcoming)
	r.Get("/notifications/settings", h.HandleGetSettings)
	r.Put("/notifications/settings", h.HandleUpdateSettings)
	r.Post("/notifications/retry", h.HandleRetryBulk)
	r.Get("/notifications/{id}", h.HandleGet)
	r.Post("/notifications/{id}/retry", h.HandleRetryOne)
}

type UpdateSettingsRequest struct {
	Days []int `json:"days_before_expiration" validate:"required,min=1,max=32,dive,gte=0,lte=365"`
}

func (r *UpdateSettingsRequest) Normalize()     {}
func (r *UpdateSettingsRequest) Validate() error { return validation.Validate(r) }

type RetryBulkRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,uuid"`
}

func (r *RetryBulkRequest) Normalize() {
	for i, v := range r.IDs {
		r.IDs[i] = strings.TrimSpace(v)
	}
}

func (r *RetryBulkRequest) Validate() error { return validation.Validate(r) }

type NotificationResponse struct {
	ID                   string  `json:"id"`
	LeaseID              string  `json:"lease_id"`
	Type                 string  `json:"type"`
	DaysBeforeExpiration int     `json:"days_before_expiration"`
	Status               string  `json:"status"`
	SentAt               *string `json:"sent_at,omitempty"`
	Error                *string `json:"error,omitempty"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

type PageResponse struct {
	Items      []*NotificationResponse `json:"items"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalPages int                     `json:"total_pages"`
}

type SettingsResponse struct {
	Days      []int  `json:"days_before_expiration"`
	UpdatedAt string `json:"updated_at"`
}

func toResponse(n *models.Notification) *NotificationResponse {
	resp := &NotificationResponse{
		ID:                   n.ID.String(),
		LeaseID:              n.LeaseID.String(),
		Type:                 string(n.Type),
		DaysBeforeExpiration: n.DaysBeforeExpiration,
		Status:               string(n.Status),
		Error:                n.Error,
		CreatedAt:            n.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            n.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if n.SentAt != nil {
		sent := n.SentAt.UTC().Format(time.RFC3339)
		resp.SentAt = &sent
	}
	return resp
}

func toResponses(items []*models.Notification) []*NotificationResponse {
	out := make([]*NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, toResponse(n))
	}
	return out
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.service.List(ctx, accountmw.GetAccountID(ctx), filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list notifications failed", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &PageResponse{
		Items:      toResponses(page.Items),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	})
}

func (h *Handler) HandleUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.service.Upcoming(ctx, accountmw.GetAccountID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "list upcoming notifications failed", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponses(items))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.service.Get(ctx, accountmw.GetAccountID(ctx), notificationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(n))
}

func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings, err := h.service.Settings(ctx, accountmw.GetAccountID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "load notification settings failed", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSettingsResponse(settings))
}

func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[UpdateSettingsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	settings, err := h.service.UpdateSettings(ctx, accountmw.GetAccountID(ctx), req.Days)
	if err != nil {
		h.logger.WarnContext(ctx, "update notification settings failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSettingsResponse(settings))
}

func (h *Handler) HandleRetryOne(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.retrier.RetryOne(ctx, accountmw.GetAccountID(ctx), notificationID)
	if err != nil {
		h.logger.WarnContext(ctx, "retry notification failed", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(n))
}

func (h *Handler) HandleRetryBulk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[RetryBulkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ids := make([]id.NotificationID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		nid, err := id.ParseNotificationID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		ids = append(ids, nid)
	}

	result, err := h.retrier.RetryBulk(ctx, accountmw.GetAccountID(ctx), ids)
	if err != nil {
		h.logger.WarnContext(ctx, "bulk retry failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func toSettingsResponse(s *models.Settings) *SettingsResponse {
	return &SettingsResponse{Days: s.Days, UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339)}
}

func parseFilter(r *http.Request) (models.Filter, error) {
	values := r.URL.Query()
	var f models.Filter
	var err error

	if raw := values.Get("status"); raw != "" {
		status := models.Status(strings.ToUpper(raw))
		if !status.IsValid() {
			return f, dErrors.New(dErrors.CodeValidation, "status must be one of [PENDING SENT FAILED]")
		}
		f.Status = &status
	}
	if raw := values.Get("type"); raw != "" {
		typ := models.Type(strings.ToUpper(raw))
		if !typ.IsValid() {
			return f, dErrors.New(dErrors.CodeValidation, "type must be one of [LEASE_EXPIRING LEASE_EXPIRED]")
		}
		f.Type = &typ
	}
	if raw := values.Get("lease_id"); raw != "" {
		leaseID, err := id.ParseLeaseID(raw)
		if err != nil {
			return f, err
		}
		f.LeaseID = &leaseID
	}
	// created_to covers the whole named day.
	if raw := values.Get("created_from"); raw != "" {
		from, err := clock.ParseDate(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "created_from must be a date in YYYY-MM-DD format")
		}
		f.CreatedFrom = &from
	}
	if raw := values.Get("created_to"); raw != "" {
		to, err := clock.ParseDate(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "created_to must be a date in YYYY-MM-DD format")
		}
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.CreatedTo = &end
	}

	if f.Page, err = httputil.QueryInt(r, "page", models.DefaultPage); err != nil {
		return f, err
	}
	if f.PageSize, err = httputil.QueryInt(r, "page_size", models.DefaultPageSize); err != nil {
		return f, err
	}
	if f.Page < 1 {
		return f, dErrors.New(dErrors.CodeValidation, "page must be at least 1")
	}
	if f.PageSize < 1 || f.PageSize > models.MaxPageSize {
		return f, dErrors.New(dErrors.CodeValidation, "page_size must be between 1 and 100")
	}
	return f, nil
}
