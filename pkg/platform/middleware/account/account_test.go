package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "leasekeeper/pkg/domain"
)

type checkerFunc func(ctx context.Context, accountID id.AccountID) (bool, error)

func (f checkerFunc) IsActive(ctx context.Context, accountID id.AccountID) (bool, error) {
	return f(ctx, accountID)
}

func TestRequireAccount(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	active := id.AccountID(uuid.New())
	inactive := id.AccountID(uuid.New())
	checker := checkerFunc(func(_ context.Context, accountID id.AccountID) (bool, error) {
		if accountID == inactive {
			return false, nil
		}
		if accountID == active {
			return true, nil
		}
		return false, errors.New("db down")
	})

	var resolved id.AccountID
	handler := RequireAccount(checker, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved = GetAccountID(r.Context())
	}))

	call := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/leases", nil)
		if header != "" {
			req.Header.Set(Header, header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("not-a-uuid"))
	assert.Equal(t, http.StatusUnauthorized, call(inactive.String()))
	assert.Equal(t, http.StatusInternalServerError, call(uuid.NewString()))
	assert.Equal(t, http.StatusOK, call(active.String()))
	assert.Equal(t, active, resolved)
}
