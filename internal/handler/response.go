package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"teahouse/internal/model"
	"teahouse/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, model.NewAPIResponse(status, data, message))
}

// writeError renders any error as the failure envelope. Errors that are not
// APIErrors or known sentinels are logged and reported as a bare 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"
	var details []string

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.StatusCode
		message = apiErr.Message
		details = apiErr.Errors
	case errors.Is(err, model.ErrTeaNotFound):
		status, message = http.StatusNotFound, "Tea not found"
	case errors.Is(err, model.ErrUserNotFound):
		status, message = http.StatusNotFound, "User does not exist"
	case errors.Is(err, model.ErrChannelNotFound):
		status, message = http.StatusNotFound, "Channel not found"
	case errors.Is(err, model.ErrVideoNotFound):
		status, message = http.StatusNotFound, "Video not found"
	case errors.Is(err, model.ErrUserAlreadyExists):
		status, message = http.StatusConflict, "User already exists"
	case errors.Is(err, model.ErrInvalidInput):
		status, message = http.StatusBadRequest, "Invalid input"
	default:
		slog.Error("unhandled error in writeError", "error", err)
	}

	resp := model.NewAPIResponse(status, nil, message)
	resp.Errors = details
	writeJSON(w, status, resp)
}

// maxJSONBody caps JSON request bodies; uploads go through stageMultipart.
const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return apierror.New(http.StatusRequestEntityTooLarge, "Request body too large")
		}
		return apierror.BadRequest("Invalid JSON body")
	}
	return nil
}
