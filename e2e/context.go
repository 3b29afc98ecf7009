package e2e

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
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"leasekeeper/internal/app"
	"leasekeeper/internal/notification/models"
	"leasekeeper/internal/platform/config"
	"leasekeeper/pkg/platform/clock"
)

const adminToken = "e2e-admin-token"

// switchSender fails every send while failing is set.
type switchSender struct {
	failing atomic.Bool
}

func (s *switchSender) Send(context.Context, *models.Notification) error {
	if s.failing.Load() {
		return errors.New("smtp: 554 transaction failed")
	}
	return nil
}

// TestContext holds state between test steps. Each scenario gets its own
// in-memory server and a clock it controls.
type TestContext struct {
	Server           *httptest.Server
	HTTPClient       *http.Client
	Clock            *clock.Fixed
	Sender           *switchSender
	AccountID        string
	IDs              map[string]string
	LastResponse     *http.Response
	LastResponseBody []byte
}

func NewTestContext() (*TestContext, error) {
	cfg := config.FromEnv()
	cfg.Database.URL = ""
	cfg.Redis.URL = ""
	cfg.AdminToken = adminToken
	cfg.Notify.Channel = app.ChannelLog
	cfg.Scheduler.Timezone = "UTC"

	fixed := clock.NewFixed(time.Now().UTC())
	sender := &switchSender{}
	a, err := app.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)),
		app.WithClock(fixed),
		app.WithRegistry(prometheus.NewRegistry()),
		app.WithSender(sender),
	)
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}

	return &TestContext{
		Server:     httptest.NewServer(a.Router),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Clock:      fixed,
		Sender:     sender,
		IDs:        make(map[string]string),
	}, nil
}

func (tc *TestContext) Close() {
	if tc.Server != nil {
		tc.Server.Close()
	}
}

func (tc *TestContext) accountHeaders() map[string]string {
	return map[string]string{"X-Account-ID": tc.AccountID}
}

func (tc *TestContext) adminHeaders() map[string]string {
	return map[string]string{"X-Admin-Token": adminToken}
}

// Do sends a JSON request and stores the response.
func (tc *TestContext) Do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, tc.Server.URL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// expect fails unless the last response has status.
func (tc *TestContext) expect(status int) error {
	if got := tc.GetLastResponseStatus(); got != status {
		return fmt.Errorf("expected status %d but got %d: %s", status, got, tc.LastResponseBody)
	}
	return nil
}

// decode unmarshals the last response body into out.
func (tc *TestContext) decode(out any) error {
	if err := json.Unmarshal(tc.LastResponseBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (tc *TestContext) createdID() (string, error) {
	if err := tc.expect(http.StatusCreated); err != nil {
		return "", err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := tc.decode(&out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}
