package handler

import (
	"errors"
	"net/http"
	"strconv"

	"wavesight/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
)

const TRANSIENT_RETRY_AFTER_SECONDS = 1

// wrapError tags domain errors with the errorx kind RestAbort renders.
func wrapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrValidation):
		return errorx.Wrap(err, errorx.Validation)
	case errors.Is(err, services.ErrForeignKey):
		return errorx.Wrap(err, errorx.NotExist)
	case errors.Is(err, services.ErrSelfVote),
		errors.Is(err, services.ErrDuplicateVote),
		errors.Is(err, services.ErrAlreadyFinalized):
		return errorx.Wrap(err, errorx.Invalid)
	case errors.Is(err, services.ErrRateLimitExceeded):
		return errorx.Wrap(err, errorx.RateLimiting)
	case errors.Is(err, services.ErrNotAuthenticated):
		return errorx.Wrap(err, errorx.Authn)
	case errors.Is(err, services.ErrTransientStorage):
		return errorx.Wrap(err, errorx.Database)
	}
	return errorx.Wrap(err, errorx.Service)
}

// statusCode is used by the RPC style endpoints that answer with a plain JSON body.
func statusCode(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrForeignKey):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSelfVote),
		errors.Is(err, services.ErrDuplicateVote),
		errors.Is(err, services.ErrAlreadyFinalized):
		return http.StatusConflict
	case errors.Is(err, services.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, services.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrTransientStorage):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// restAbort renders a service result. Transient storage failures answer 503
// so clients can tell them apart from bugs.
func restAbort(c echo.Context, v any, err error) error {
	if err == nil {
		return httpx.RestAbort(c, v, nil)
	}

	setRetryAfter(c, err)
	if errors.Is(err, services.ErrTransientStorage) {
		return httpx.Abort(c, wrapError(err), http.StatusServiceUnavailable)
	}
	return httpx.RestAbort(c, nil, wrapError(err))
}

func setRetryAfter(c echo.Context, err error) {
	var rateErr *services.RateLimitError
	switch {
	case errors.As(err, &rateErr) && rateErr.RetryAfter > 0:
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())))
	case errors.Is(err, services.ErrTransientStorage):
		c.Response().Header().Set("Retry-After", strconv.Itoa(TRANSIENT_RETRY_AFTER_SECONDS))
	}
}
