package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gezielcarvalho/ascauth/internal/common"
)

// tokenPayload is the success body shared by register, login, and refresh.
type tokenPayload struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

type successResponse struct {
	Success tokenPayload `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// fieldErrorResponse maps a field name to its validation messages.
type fieldErrorResponse struct {
	Error map[string][]string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
}

func writeServerError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server Error"})
}

// isAuthFailure reports whether err is one of the credential/token failures
// that collapse into the single generic unauthorized outcome.
func isAuthFailure(err error) bool {
	return errors.Is(err, common.ErrInvalidCredentials) ||
		errors.Is(err, common.ErrInvalidToken) ||
		errors.Is(err, common.ErrTokenExpired) ||
		errors.Is(err, common.ErrTokenRevoked) ||
		errors.Is(err, common.ErrTokenNotFound)
}
