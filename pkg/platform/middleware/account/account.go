// Package account resolves the tenant scope of an HTTP request. Authentication
// happens upstream; this middleware only trusts the X-Account-ID header set by
// the upstream proxy and checks that the account is active.
package account

import (
	"context"
	"log/slog"
	"net/http"

	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/httputil"
	request "leasekeeper/pkg/platform/middleware/request"
)

// Header carries the caller's account.
const Header = "X-Account-ID"

// ActiveChecker reports whether an account exists and is active.
type ActiveChecker interface {
	IsActive(ctx context.Context, accountID id.AccountID) (bool, error)
}

type contextKeyAccountID struct{}

// GetAccountID returns the scope resolved for the request.
func GetAccountID(ctx context.Context) id.AccountID {
	if accountID, ok := ctx.Value(contextKeyAccountID{}).(id.AccountID); ok {
		return accountID
	}
	return id.AccountID{}
}

// WithAccountID attaches a scope to ctx.
func WithAccountID(ctx context.Context, accountID id.AccountID) context.Context {
	return context.WithValue(ctx, contextKeyAccountID{}, accountID)
}

// RequireAccount rejects requests without a valid, active account.
func RequireAccount(checker ActiveChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			accountID, err := id.ParseAccountID(r.Header.Get(Header))
			if err != nil {
				logger.WarnContext(ctx, "missing or malformed account header", "request_id", requestID)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "account required"))
				return
			}

			if checker != nil {
				active, err := checker.IsActive(ctx, accountID)
				if err != nil {
					logger.ErrorContext(ctx, "account lookup failed", "error", err, "request_id", requestID)
					httputil.WriteError(w, err)
					return
				}
				if !active {
					logger.WarnContext(ctx, "request for unknown or inactive account",
						"account_id", accountID.String(),
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "account is not active"))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithAccountID(ctx, accountID)))
		})
	}
}
