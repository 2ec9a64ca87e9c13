package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithDomainError hides storage details behind a generic message;
// everything else in the taxonomy is safe to echo.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	code := HTTPStatusFromError(err)
	msg := err.Error()
	if code == http.StatusInternalServerError || errors.Is(err, ErrStorage) {
		msg = "Internal Server Error."
	}
	RespondWithError(w, code, msg)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
