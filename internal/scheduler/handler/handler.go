package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leasekeeper/internal/scheduler"
	id "leasekeeper/pkg/domain"
	"leasekeeper/pkg/platform/httputil"
	accountmw "leasekeeper/pkg/platform/middleware/account"
	adminmw "leasekeeper/pkg/platform/middleware/admin"
	request "leasekeeper/pkg/platform/middleware/request"
)

type Trigger interface {
	TriggerManually(ctx context.Context, accountID *id.AccountID) (*scheduler.RunReport, error)
}

type JobRunner interface {
	RunJob(ctx context.Context, name string) error
}

type Handler struct {
	trigger Trigger
	jobs    JobRunner
	logger  *slog.Logger
}

// New builds the trigger handler. jobs may be nil when the scheduler is
// disabled; the job endpoint then answers 404.
func New(trigger Trigger, jobs JobRunner, logger *slog.Logger) *Handler {
	return &Handler{trigger: trigger, jobs: jobs, logger: logger}
}

// RegisterAccountRoutes mounts the caller-scope trigger behind the account middleware.
func (h *Handler) RegisterAccountRoutes(r chi.Router) {
	r.Post("/notifications/trigger", h.HandleTriggerOwn)
}

// RegisterAdminRoutes mounts the operator triggers behind the admin token.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/admin/notifications/trigger", h.HandleTriggerAdmin)
	r.Post("/admin/jobs/{name}/run", h.HandleRunJob)
}

func (h *Handler) HandleTriggerOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := accountmw.GetAccountID(ctx)
	h.respond(w, r, &accountID)
}

// HandleTriggerAdmin runs every active account, or only ?account_id= when given.
func (h *Handler) HandleTriggerAdmin(w http.ResponseWriter, r *http.Request) {
	var scope *id.AccountID
	if raw := r.URL.Query().Get("account_id"); raw != "" {
		accountID, err := id.ParseAccountID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		scope = &accountID
	}
	h.respond(w, r, scope)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, scope *id.AccountID) {
	ctx := r.Context()
	report, err := h.trigger.TriggerManually(ctx, scope)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual notification run failed",
			"error", err,
			"request_id", request.GetRequestID(ctx),
			"actor", adminmw.GetAdminActorID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.jobs == nil {
		http.NotFound(w, r)
		return
	}
	name := chi.URLParam(r, "name")
	if err := h.jobs.RunJob(ctx, name); err != nil {
		h.logger.ErrorContext(ctx, "manual job run failed",
			"job", name,
			"error", err,
			"request_id", request.GetRequestID(ctx),
			"actor", adminmw.GetAdminActorID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
