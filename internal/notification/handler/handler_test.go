package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"leasekeeper/internal/notification/models"
	"leasekeeper/internal/notification/sender"
	"leasekeeper/internal/notification/service"
	"leasekeeper/internal/notification/store"
	id "leasekeeper/pkg/domain"
	"leasekeeper/pkg/platform/clock"
	"leasekeeper/pkg/platform/httputil"
	accountmw "leasekeeper/pkg/platform/middleware/account"
)

type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	store     *store.InMemory
	clock     *clock.Fixed
	deliver   atomic.Bool
	accountID id.AccountID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.clock = clock.NewFixed(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))
	s.store = store.NewInMemory()
	s.accountID = id.AccountID(uuid.New())
	s.deliver.Store(false)

	send := sender.Func(func(context.Context, *models.Notification) error {
		if s.deliver.Load() {
			return nil
		}
		return errors.New("smtp 421")
	})
	opts := []service.Option{service.WithClock(s.clock), service.WithLogger(logger)}
	svc := service.New(s.store, store.NewSettingsInMemory(), opts...)
	processor := service.NewProcessor(s.store, send, opts...)

	r := chi.NewRouter()
	r.Use(accountmw.RequireAccount(nil, logger))
	New(svc, processor, logger).Register(r)
	s.router = r
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(accountmw.Header, s.accountID.String())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// seed stores a notification for a fresh lease and drives it to status.
func (s *HandlerSuite) seed(days int, status models.Status) *models.Notification {
	ctx := context.Background()
	n := models.NewNotification(id.NotificationID(uuid.New()), s.accountID, id.LeaseID(uuid.New()),
		models.TypeLeaseExpiring, days, s.clock.Now())
	_, err := s.store.CreateIfAbsent(ctx, n)
	s.Require().NoError(err)
	switch status {
	case models.StatusFailed:
		n.MarkFailed("smtp 421", s.clock.Now())
	case models.StatusSent:
		n.MarkSent(s.clock.Now())
	default:
		return n
	}
	s.Require().NoError(s.store.Update(ctx, n))
	return n
}

func decode[T any](s *HandlerSuite, rec *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&out), rec.Body.String())
	return out
}

func (s *HandlerSuite) TestListFiltersAndPaging() {
	s.seed(30, models.StatusPending)
	s.seed(14, models.StatusFailed)
	failed := s.seed(7, models.StatusFailed)
	s.seed(1, models.StatusSent)

	rec := s.do(http.MethodGet, "/notifications?status=failed&page_size=1", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	page := decode[PageResponse](s, rec)
	s.Equal(2, page.Total)
	s.Equal(2, page.TotalPages)
	s.Require().Len(page.Items, 1)
	s.Equal("FAILED", page.Items[0].Status)
	s.Require().NotNil(page.Items[0].Error)

	rec = s.do(http.MethodGet, "/notifications?lease_id="+failed.LeaseID.String(), "")
	page = decode[PageResponse](s, rec)
	s.Require().Len(page.Items, 1)
	s.Equal(7, page.Items[0].DaysBeforeExpiration)

	s.Run("rejects unknown status", func() {
		rec := s.do(http.MethodGet, "/notifications?status=queued", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects oversized page", func() {
		rec := s.do(http.MethodGet, "/notifications?page_size=500", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestUpcomingListsPendingOnly() {
	pending := s.seed(30, models.StatusPending)
	s.seed(7, models.StatusSent)

	rec := s.do(http.MethodGet, "/notifications/upcoming", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	items := decode[[]NotificationResponse](s, rec)
	s.Require().Len(items, 1)
	s.Equal(pending.ID.String(), items[0].ID)
}

func (s *HandlerSuite) TestGet() {
	n := s.seed(30, models.StatusSent)

	rec := s.do(http.MethodGet, "/notifications/"+n.ID.String(), "")
	s.Require().Equal(http.StatusOK, rec.Code)
	got := decode[NotificationResponse](s, rec)
	s.Equal("SENT", got.Status)
	s.Require().NotNil(got.SentAt)
	s.Equal("2024-03-01T06:00:00Z", *got.SentAt)

	rec = s.do(http.MethodGet, "/notifications/"+uuid.NewString(), "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/notifications/not-a-uuid", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestRetryOne() {
	s.Run("failed notification is delivered", func() {
		n := s.seed(30, models.StatusFailed)
		s.deliver.Store(true)

		rec := s.do(http.MethodPost, "/notifications/"+n.ID.String()+"/retry", "")
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		got := decode[NotificationResponse](s, rec)
		s.Equal("SENT", got.Status)
		s.Nil(got.Error)
	})

	s.Run("still failing stays failed with new reason", func() {
		n := s.seed(14, models.StatusFailed)
		s.deliver.Store(false)

		rec := s.do(http.MethodPost, "/notifications/"+n.ID.String()+"/retry", "")
		s.Require().Equal(http.StatusOK, rec.Code)
		got := decode[NotificationResponse](s, rec)
		s.Equal("FAILED", got.Status)
	})

	s.Run("sent notification is rejected", func() {
		n := s.seed(7, models.StatusSent)

		rec := s.do(http.MethodPost, "/notifications/"+n.ID.String()+"/retry", "")
		s.Equal(http.StatusBadRequest, rec.Code)
		body := decode[httputil.ErrorResponse](s, rec)
		s.Equal(models.MsgRetryNotFailed, body.ErrorDescription)
	})
}

func (s *HandlerSuite) TestRetryBulk() {
	a := s.seed(30, models.StatusFailed)
	b := s.seed(14, models.StatusFailed)
	sent := s.seed(7, models.StatusSent)

	s.Run("one ineligible id rejects the whole set", func() {
		body := fmt.Sprintf(`{"ids":[%q,%q]}`, a.ID, sent.ID)
		rec := s.do(http.MethodPost, "/notifications/retry", body)
		s.Require().Equal(http.StatusBadRequest, rec.Code)
		s.Equal(models.MsgBulkNotFailed, decode[httputil.ErrorResponse](s, rec).ErrorDescription)

		stored, err := s.store.FindByID(context.Background(), s.accountID, a.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusFailed, stored.Status)
	})

	s.Run("empty list is invalid", func() {
		rec := s.do(http.MethodPost, "/notifications/retry", `{"ids":[]}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("all failed are retried and delivered", func() {
		s.deliver.Store(true)
		body := fmt.Sprintf(`{"ids":[%q,%q]}`, a.ID, b.ID)
		rec := s.do(http.MethodPost, "/notifications/retry", body)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		result := decode[service.RetryResult](s, rec)
		s.Equal(2, result.Retried)
		s.Require().NotNil(result.Pass)
		s.Equal(2, result.Pass.Sent)
	})
}

func (s *HandlerSuite) TestSettings() {
	rec := s.do(http.MethodGet, "/notifications/settings", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal([]int{30}, decode[SettingsResponse](s, rec).Days)

	rec = s.do(http.MethodPut, "/notifications/settings", `{"days_before_expiration":[60,7,30,7]}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal([]int{7, 30, 60}, decode[SettingsResponse](s, rec).Days)

	rec = s.do(http.MethodPut, "/notifications/settings", `{"days_before_expiration":[400]}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/notifications/settings", "")
	s.Equal([]int{7, 30, 60}, decode[SettingsResponse](s, rec).Days)
}

func (s *HandlerSuite) TestRequiresAccountHeader() {
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}
