package httpapi

import (
	"encoding/json"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor reads the HTTP code carried by a go-errors envelope.
func statusFor(err error, fallback int) int {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code >= http.StatusBadRequest {
		return rich.Code
	}
	return fallback
}

// errorMessage exposes validation messages and hides upstream detail.
func errorMessage(err error, fallback string) string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return fallback
	}
	switch rich.Category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return rich.Message
	default:
		return fallback
	}
}
