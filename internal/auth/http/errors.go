package http

import (
	"errors"
	"net/http"

	"github.com/Auth-ism/ann-ai-backend/internal/auth/service"
	"github.com/Auth-ism/ann-ai-backend/internal/auth/store"
	"github.com/Auth-ism/ann-ai-backend/pkg/httpx"
	"github.com/Auth-ism/ann-ai-backend/pkg/slogx"
)

// writeServiceError translates service-layer sentinel errors into the JSON
// error envelope. Anything unrecognised becomes an opaque 500; the real
// cause is only ever logged, never sent to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var apiErr *httpx.APIError
	switch {
	case errors.Is(err, service.ErrValidation):
		apiErr = httpx.ErrBadRequest(err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		apiErr = httpx.ErrUnauthorized("invalid credentials")
	case errors.Is(err, service.ErrInvalidAdminCode):
		apiErr = httpx.ErrUnauthorized("invalid admin registration code")
	case errors.Is(err, service.ErrDuplicateUser):
		apiErr = httpx.ErrConflict("username or email already registered")
	case errors.Is(err, store.ErrNotFound):
		apiErr = httpx.ErrNotFound("user not found")
	default:
		apiErr = httpx.ErrInternal("internal server error")
	}

	if apiErr.StatusCode >= http.StatusInternalServerError {
		log.Error("request failed", "error", err, "status", apiErr.StatusCode)
	} else {
		log.Debug("request rejected", "error", err, "status", apiErr.StatusCode)
	}

	apiErr.WriteError(w)
}
