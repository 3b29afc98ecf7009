package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "leasekeeper/pkg/domain-errors"
)

// Normalizable request types trim and canonicalize fields before validation.
type Normalizable interface {
	Normalize()
}

// Validatable request types check themselves after normalization.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare reads exactly one JSON object from the body into T, then
// runs Normalize and Validate when T implements them. Any failure is written
// to w as a 400 and reported with ok=false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req := new(T)
	if err := decodeBody(r.Body, req); err != nil {
		logger.WarnContext(ctx, "request body rejected", "error", err, "request_id", requestID)
		WriteError(w, err)
		return nil, false
	}

	if n, ok := any(req).(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := any(req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			logger.WarnContext(ctx, "request validation failed", "error", err, "request_id", requestID)
			if !errors.As(err, new(*dErrors.Error)) {
				err = dErrors.New(dErrors.CodeValidation, err.Error())
			}
			WriteError(w, err)
			return nil, false
		}
	}
	return req, true
}

func decodeBody(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	case errors.As(err, &tooLarge):
		return dErrors.New(dErrors.CodeBadRequest, "request body too large")
	case err != nil:
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}

	if dec.More() {
		return dErrors.New(dErrors.CodeBadRequest, "request body must contain a single JSON object")
	}
	return nil
}
