package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accounthandler "leasekeeper/internal/account/handler"
	accountservice "leasekeeper/internal/account/service"
	dirhandler "leasekeeper/internal/directory/handler"
	dirservice "leasekeeper/internal/directory/service"
	leasehandler "leasekeeper/internal/lease/handler"
	leaseservice "leasekeeper/internal/lease/service"
	notifhandler "leasekeeper/internal/notification/handler"
	notifservice "leasekeeper/internal/notification/service"
	"leasekeeper/internal/platform/config"
	"leasekeeper/internal/platform/health"
	"leasekeeper/internal/scheduler"
	schedhandler "leasekeeper/internal/scheduler/handler"
	"leasekeeper/pkg/platform/clock"
	accountmw "leasekeeper/pkg/platform/middleware/account"
	adminmw "leasekeeper/pkg/platform/middleware/admin"
	request "leasekeeper/pkg/platform/middleware/request"
)

type routerDeps struct {
	cfg       config.Config
	logger    *slog.Logger
	clock     clock.Clock
	gatherer  prometheus.Gatherer
	requests  *request.Metrics
	health    *health.Handler
	accounts  *accountservice.Service
	directory *dirservice.Service
	leases    *leaseservice.Service
	notifs    *notifservice.Service
	processor *notifservice.Processor
	trigger   *scheduler.NotificationJob
	runner    *scheduler.Runner
}

// newRouter mounts every endpoint. Account routes require X-Account-ID for an
// active account; operator routes require the admin token.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(d.logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(d.logger))
	r.Use(request.LatencyMiddleware(d.requests))
	if d.cfg.Server.RequestTimeout > 0 {
		r.Use(request.Timeout(d.cfg.Server.RequestTimeout))
	}
	if d.cfg.Server.MaxBodyBytes > 0 {
		r.Use(request.BodyLimit(d.cfg.Server.MaxBodyBytes))
	}
	r.Use(clock.Middleware(d.clock))

	d.health.Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))

	triggers := schedhandler.New(d.trigger, d.runner, d.logger)

	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(d.cfg.AdminToken, d.logger))
		accounthandler.New(d.accounts, d.logger).Register(r)
		triggers.RegisterAdminRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(accountmw.RequireAccount(d.accounts, d.logger))
		dirhandler.New(d.directory, d.logger).Register(r)
		leasehandler.New(d.leases, d.logger).Register(r)
		notifhandler.New(d.notifs, d.processor, d.logger).Register(r)
		triggers.RegisterAccountRoutes(r)
	})

	return r
}
