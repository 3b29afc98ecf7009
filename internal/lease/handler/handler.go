package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"leasekeeper/internal/lease/models"
	"leasekeeper/internal/lease/service"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/clock"
	"leasekeeper/pkg/platform/httputil"
	accountmw "leasekeeper/pkg/platform/middleware/account"
	request "leasekeeper/pkg/platform/middleware/request"
	"leasekeeper/pkg/platform/validation"
)

// Service is the lease lifecycle surface the handler depends on.
type Service interface {
	Create(ctx context.Context, cmd service.CreateCommand) (*models.Lease, error)
	Update(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID, patch models.Patch) (*models.Lease, error)
	Terminate(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) (*models.Lease, error)
	Get(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) (*models.Lease, error)
	List(ctx context.Context, accountID id.AccountID, q service.ListQuery) (*models.Page, error)
	Delete(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) error
	ExpirationTimeline(ctx context.Context, accountID id.AccountID, monthsAhead int) ([]*models.TimelineEntry, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the lease routes. r must carry the account middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/leases", h.HandleCreate)
	r.Get("/leases", h.HandleList)
	r.Get("/leases/timeline", h.HandleTimeline)
	r.Get("/leases/{id}", h.HandleGet)
	r.Patch("/leases/{id}", h.HandleUpdate)
	r.Delete("/leases/{id}", h.HandleDelete)
	r.Post("/leases/{id}/terminate", h.HandleTerminate)
}

type CreateLeaseRequest struct {
	UnitID        string           `json:"unit_id" validate:"required,uuid"`
	TenantID      string           `json:"tenant_id" validate:"required,uuid"`
	StartDate     string           `json:"start_date" validate:"required,date"`
	EndDate       string           `json:"end_date" validate:"required,date"`
	MonthlyRent   *decimal.Decimal `json:"monthly_rent" validate:"required"`
	PaymentTarget string           `json:"payment_target" validate:"required,notblank,max=256"`
	Notes         *string          `json:"notes" validate:"omitempty,max=2000"`
}

func (r *CreateLeaseRequest) Normalize() {
	r.UnitID = strings.TrimSpace(r.UnitID)
	r.TenantID = strings.TrimSpace(r.TenantID)
	r.PaymentTarget = strings.TrimSpace(r.PaymentTarget)
}

func (r *CreateLeaseRequest) Validate() error { return validation.Validate(r) }

// UpdateLeaseRequest is a partial update; absent fields are left unchanged.
type UpdateLeaseRequest struct {
	UnitID        *string          `json:"unit_id" validate:"omitempty,uuid"`
	TenantID      *string          `json:"tenant_id" validate:"omitempty,uuid"`
	StartDate     *string          `json:"start_date" validate:"omitempty,date"`
	EndDate       *string          `json:"end_date" validate:"omitempty,date"`
	MonthlyRent   *decimal.Decimal `json:"monthly_rent"`
	PaymentTarget *string          `json:"payment_target" validate:"omitempty,max=256"`
	Notes         *string          `json:"notes" validate:"omitempty,max=2000"`
}

func (r *UpdateLeaseRequest) Normalize() {}

func (r *UpdateLeaseRequest) Validate() error { return validation.Validate(r) }

func (r *UpdateLeaseRequest) toPatch() (models.Patch, error) {
	p := models.Patch{
		MonthlyRent:   r.MonthlyRent,
		PaymentTarget: r.PaymentTarget,
		Notes:         r.Notes,
	}
	if r.UnitID != nil {
		unitID, err := id.ParseUnitID(*r.UnitID)
		if err != nil {
			return p, err
		}
		p.UnitID = &unitID
	}
	if r.TenantID != nil {
		tenantID, err := id.ParseTenantID(*r.TenantID)
		if err != nil {
			return p, err
		}
		p.TenantID = &tenantID
	}
	var err error
	if p.StartDate, err = optionalDate(r.StartDate); err != nil {
		return p, err
	}
	if p.EndDate, err = optionalDate(r.EndDate); err != nil {
		return p, err
	}
	return p, nil
}

// LeaseResponse renders dates as calendar days and rent as a decimal string.
type LeaseResponse struct {
	ID            string  `json:"id"`
	UnitID        string  `json:"unit_id"`
	TenantID      string  `json:"tenant_id"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	MonthlyRent   string  `json:"monthly_rent"`
	PaymentTarget string  `json:"payment_target"`
	Notes         *string `json:"notes,omitempty"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type PageResponse struct {
	Items      []*LeaseResponse `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

type TimelineEntryResponse struct {
	LeaseID         string `json:"lease_id"`
	EndDate         string `json:"end_date"`
	DaysRemaining   int    `json:"days_remaining"`
	Status          string `json:"status"`
	TenantName      string `json:"tenant_name"`
	PropertyAddress string `json:"property_address"`
	ApartmentNumber string `json:"apartment_number"`
}

func toResponse(l *models.Lease) *LeaseResponse {
	return &LeaseResponse{
		ID:            l.ID.String(),
		UnitID:        l.UnitID.String(),
		TenantID:      l.TenantID.String(),
		StartDate:     clock.FormatDate(l.StartDate),
		EndDate:       clock.FormatDate(l.EndDate),
		MonthlyRent:   l.MonthlyRent.StringFixed(2),
		PaymentTarget: l.PaymentTarget,
		Notes:         l.Notes,
		Status:        string(l.Status),
		CreatedAt:     l.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     l.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[CreateLeaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cmd := service.CreateCommand{
		AccountID:     accountmw.GetAccountID(ctx),
		MonthlyRent:   *req.MonthlyRent,
		PaymentTarget: req.PaymentTarget,
		Notes:         req.Notes,
	}
	var err error
	if cmd.UnitID, err = id.ParseUnitID(req.UnitID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if cmd.TenantID, err = id.ParseTenantID(req.TenantID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	// Both dates passed the date tag; parse cannot fail here.
	cmd.StartDate, _ = clock.ParseDate(req.StartDate)
	cmd.EndDate, _ = clock.ParseDate(req.EndDate)

	lease, err := h.service.Create(ctx, cmd)
	if err != nil {
		h.logger.WarnContext(ctx, "create lease failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(lease))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := parseListQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.service.List(ctx, accountmw.GetAccountID(ctx), q)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leases failed", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}

	resp := &PageResponse{
		Items:      make([]*LeaseResponse, 0, len(page.Items)),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
	for _, l := range page.Items {
		resp.Items = append(resp.Items, toResponse(l))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleTimeline lists leases ending within ?months= months (default 12).
func (h *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	months, err := httputil.QueryInt(r, "months", service.DefaultTimelineMonths)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if months < 1 || months > 120 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "months must be between 1 and 120"))
		return
	}

	entries, err := h.service.ExpirationTimeline(ctx, accountmw.GetAccountID(ctx), months)
	if err != nil {
		h.logger.ErrorContext(ctx, "expiration timeline failed", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	out := make([]*TimelineEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, &TimelineEntryResponse{
			LeaseID:         e.LeaseID.String(),
			EndDate:         clock.FormatDate(e.EndDate),
			DaysRemaining:   e.DaysRemaining,
			Status:          string(e.Status),
			TenantName:      e.TenantName,
			PropertyAddress: e.PropertyAddress,
			ApartmentNumber: e.ApartmentNumber,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, "get lease failed", func(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) (*models.Lease, error) {
		return h.service.Get(ctx, accountID, leaseID)
	})
}

func (h *Handler) HandleTerminate(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, "terminate lease failed", func(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) (*models.Lease, error) {
		return h.service.Terminate(ctx, accountID, leaseID)
	})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	leaseID, err := id.ParseLeaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateLeaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	lease, err := h.service.Update(ctx, accountmw.GetAccountID(ctx), leaseID, patch)
	if err != nil {
		h.logger.WarnContext(ctx, "update lease failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(lease))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	leaseID, err := id.ParseLeaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, accountmw.GetAccountID(ctx), leaseID); err != nil {
		h.logger.WarnContext(ctx, "delete lease failed", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleByID(
	w http.ResponseWriter,
	r *http.Request,
	failMsg string,
	op func(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) (*models.Lease, error),
) {
	ctx := r.Context()
	leaseID, err := id.ParseLeaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	lease, err := op(ctx, accountmw.GetAccountID(ctx), leaseID)
	if err != nil {
		h.logger.WarnContext(ctx, failMsg, "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(lease))
}

func parseListQuery(r *http.Request) (service.ListQuery, error) {
	values := r.URL.Query()
	var q service.ListQuery
	var err error

	q.Search = strings.TrimSpace(values.Get("search"))
	if raw := values.Get("tenant_id"); raw != "" {
		tenantID, err := id.ParseTenantID(raw)
		if err != nil {
			return q, err
		}
		q.Filter.TenantID = &tenantID
	}
	if raw := values.Get("unit_id"); raw != "" {
		unitID, err := id.ParseUnitID(raw)
		if err != nil {
			return q, err
		}
		q.Filter.UnitID = &unitID
	}
	if raw := values.Get("property_id"); raw != "" {
		propertyID, err := id.ParsePropertyID(raw)
		if err != nil {
			return q, err
		}
		q.PropertyID = &propertyID
	}
	if raw := values.Get("status"); raw != "" {
		status := models.Status(strings.ToUpper(raw))
		if !status.IsValid() {
			return q, dErrors.New(dErrors.CodeValidation, "status must be one of [FUTURE ACTIVE EXPIRED TERMINATED]")
		}
		q.Filter.Status = &status
	}

	dates := []struct {
		name string
		dst  **time.Time
	}{
		{"start_from", &q.Filter.StartFrom},
		{"start_to", &q.Filter.StartTo},
		{"end_from", &q.Filter.EndFrom},
		{"end_to", &q.Filter.EndTo},
	}
	for _, d := range dates {
		raw := values.Get(d.name)
		if raw == "" {
			continue
		}
		if *d.dst, err = optionalDate(&raw); err != nil {
			return q, dErrors.New(dErrors.CodeValidation, d.name+" must be a date in YYYY-MM-DD format")
		}
	}

	rents := []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"rent_min", &q.Filter.RentMin},
		{"rent_max", &q.Filter.RentMax},
	}
	for _, rb := range rents {
		raw := values.Get(rb.name)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return q, dErrors.New(dErrors.CodeValidation, rb.name+" must be a number")
		}
		*rb.dst = &v
	}

	if q.Filter.Page, err = httputil.QueryInt(r, "page", models.DefaultPage); err != nil {
		return q, err
	}
	if q.Filter.PageSize, err = httputil.QueryInt(r, "page_size", models.DefaultPageSize); err != nil {
		return q, err
	}
	if q.Filter.Page < 1 {
		return q, dErrors.New(dErrors.CodeValidation, "page must be at least 1")
	}
	if q.Filter.PageSize < 1 || q.Filter.PageSize > models.MaxPageSize {
		return q, dErrors.New(dErrors.CodeValidation, "page_size must be between 1 and 100")
	}
	return q, nil
}

func optionalDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := clock.ParseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
