package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"leasekeeper/internal/account/service"
	"leasekeeper/internal/account/store"
	adminmw "leasekeeper/pkg/platform/middleware/admin"
)

const adminToken = "secret-token"

type HandlerSuite struct {
	suite.Suite
	router http.Handler
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(service.New(store.NewInMemory()), logger)
	r := chi.NewRouter()
	r.Use(adminmw.RequireAdminToken(adminToken, logger))
	h.Register(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path, body string, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("X-Admin-Token", token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestAdminTokenRequired() {
	rec := s.do(http.MethodGet, "/admin/accounts/"+uuid.New().String(), "", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestCreateThenDeactivate() {
	rec := s.do(http.MethodPost, "/admin/accounts", `{"name":"Acme","notification_email":"ops@acme.test"}`, adminToken)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var created AccountResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&created))
	s.Equal("ACTIVE", created.Status)

	rec = s.do(http.MethodPost, "/admin/accounts/"+created.ID+"/deactivate", "", adminToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	var deactivated AccountResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&deactivated))
	s.Equal("INACTIVE", deactivated.Status)
}

func (s *HandlerSuite) TestCreateRejectsBadInput() {
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/admin/accounts", `{"name":""}`, adminToken).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/admin/accounts", `{"name":"A","notification_email":"nope"}`, adminToken).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/admin/accounts", `{"name":"A","extra":1}`, adminToken).Code)
}

func (s *HandlerSuite) TestDuplicateNameConflict() {
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/admin/accounts", `{"name":"Acme"}`, adminToken).Code)
	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/admin/accounts", `{"name":"ACME"}`, adminToken).Code)
}

func (s *HandlerSuite) TestUnknownAndMalformedIDs() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/admin/accounts/"+uuid.New().String(), "", adminToken).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/admin/accounts/nope", "", adminToken).Code)
}
