package api

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/storyfold/pkg/errors"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps structured error codes onto HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	respondJSON(w, statusFor(code), errorResponse{
		Error: errorBody{
			Code:    string(code),
			Message: errors.UserMessage(err),
		},
	})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidStory,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPolicy,
		errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodePathwayNotFound,
		errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNotSeedable, errors.ErrCodePathBudget,
		errors.ErrCodeStructuralViolation, errors.ErrCodeEmptyStatistics:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeStorage:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
