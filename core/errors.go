package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorBadInput            = "QB_BAD_INPUT"
	ServiceErrorConfigInvalid       = "QB_CONFIG_INVALID"
	ServiceErrorOAuthStateInvalid   = "QB_OAUTH_STATE_INVALID"
	ServiceErrorTokenExchangeFailed = "QB_TOKEN_EXCHANGE_FAILED"
	ServiceErrorTokenRefreshFailed  = "QB_TOKEN_REFRESH_FAILED"
	ServiceErrorQueryFailed         = "QB_QUERY_FAILED"
	ServiceErrorCredentialNotFound  = "QB_CREDENTIAL_NOT_FOUND"
	ServiceErrorCredentialMalformed = "QB_CREDENTIAL_MALFORMED"
	ServiceErrorNotConnected        = "QB_NOT_CONNECTED"
	ServiceErrorUnauthorized        = "QB_UNAUTHORIZED"
	ServiceErrorForbidden           = "QB_FORBIDDEN"
	ServiceErrorRateLimited         = "QB_RATE_LIMITED"
	ServiceErrorOperationFailed     = "QB_OPERATION_FAILED"
	ServiceErrorExternalFailure     = "QB_EXTERNAL_FAILURE"
	ServiceErrorProviderUnset       = "QB_PROVIDER_NOT_CONFIGURED"
	ServiceErrorInternal            = "QB_INTERNAL_ERROR"
)

// MissingParametersMessage is returned to callers when the callback lacks a
// code or realm id.
const MissingParametersMessage = "Missing required parameters"

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrCredentialNotFound):
		return newServiceError(err.Error(), goerrors.CategoryNotFound, ServiceErrorCredentialNotFound)
	case errors.Is(err, ErrCredentialMalformed):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorCredentialMalformed)
	case errors.Is(err, ErrNotConnected):
		return newServiceError(err.Error(), goerrors.CategoryAuth, ServiceErrorNotConnected)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "oauth state"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorOAuthStateInvalid)
	case strings.Contains(msg, "provider is not configured"), strings.Contains(msg, "invoice source is not configured"):
		return newServiceError(err.Error(), goerrors.CategoryInternal, ServiceErrorProviderUnset)
	case strings.Contains(msg, "throttl"), strings.Contains(msg, "rate limit"):
		return newServiceError(err.Error(), goerrors.CategoryRateLimit, ServiceErrorRateLimited)
	case strings.Contains(msg, "core: quickbooks."), strings.Contains(msg, "core: base_url"),
		strings.Contains(msg, "core: service_name"), strings.Contains(msg, "core: store.driver"):
		return newServiceError(err.Error(), goerrors.CategoryValidation, ServiceErrorConfigInvalid)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func wrapServiceError(source error, category goerrors.Category, textCode string, message string) *goerrors.Error {
	if source == nil {
		return newServiceError(message, category, textCode)
	}
	wrapped := goerrors.Wrap(source, category, message).WithTextCode(textCode)
	var richErr *goerrors.Error
	if goerrors.As(source, &richErr) && len(richErr.Metadata) > 0 {
		wrapped.WithMetadata(copyAnyMap(richErr.Metadata))
	}
	return ensureServiceErrorEnvelope(wrapped)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryNotFound:
		return ServiceErrorCredentialNotFound
	case goerrors.CategoryAuth:
		return ServiceErrorUnauthorized
	case goerrors.CategoryAuthz:
		return ServiceErrorForbidden
	case goerrors.CategoryRateLimit:
		return ServiceErrorRateLimited
	case goerrors.CategoryOperation:
		return ServiceErrorOperationFailed
	case goerrors.CategoryExternal:
		return ServiceErrorExternalFailure
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HasTextCode reports whether err carries the given go-errors text code.
func HasTextCode(err error, textCode string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}
