package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
)

type HealthSuite struct {
	suite.Suite
	handler *Handler
	router  chi.Router
}

func (s *HealthSuite) SetupTest() {
	s.handler = New("test")
	s.router = chi.NewRouter()
	s.handler.Register(s.router)
}

func TestHealthSuite(t *testing.T) {
	suite.Run(t, new(HealthSuite))
}

func (s *HealthSuite) get(path string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	return rec, body
}

func (s *HealthSuite) TestLivenessAlwaysOK() {
	s.handler.RegisterCheck("database", func(context.Context) error { return errors.New("down") })
	rec, body := s.get("/health/live")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("alive", body["status"])
}

func (s *HealthSuite) TestReadinessReportsFailingCheck() {
	s.handler.RegisterCheck("database", func(context.Context) error { return nil })
	s.handler.RegisterCheck("redis", func(context.Context) error { return errors.New("connection refused") })

	rec, body := s.get("/health/ready")

	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal("not_ready", body["status"])
	checks := body["checks"].(map[string]any)
	s.Equal("up", checks["database"])
	s.Equal("down: connection refused", checks["redis"])
}

func (s *HealthSuite) TestStatusIncludesEnvironment() {
	rec, body := s.get("/health")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("test", body["environment"])
}

func (s *HealthSuite) TestReadinessRunsChecksConcurrently() {
	// each check waits for the other to start; serial execution would time out
	kafkaStarted := make(chan struct{})
	postgresStarted := make(chan struct{})
	s.handler.RegisterCheck("kafka", func(ctx context.Context) error {
		close(kafkaStarted)
		select {
		case <-postgresStarted:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	s.handler.RegisterCheck("postgres", func(ctx context.Context) error {
		close(postgresStarted)
		select {
		case <-kafkaStarted:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	rec, body := s.get("/health/ready")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ready", body["status"])
}
