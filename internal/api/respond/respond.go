// Package respond centralizes JSON response writing so every handler emits
// the same envelope.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/leaselens/leaselens/internal/model"
)

// ErrorResponse is the wire shape for every error the API returns. Context
// carries machine-readable detail (missing field names, retry hints); internal
// causes are logged, never serialized.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError maps a pipeline error to its HTTP status and envelope. Unknown
// error types become a generic upstream_error so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	e, ok := model.AsError(err)
	if !ok {
		log.Error().Err(err).Msg("unclassified error reached the API")
		WriteJSON(w, http.StatusBadGateway, ErrorResponse{
			Error: "upstream failure",
			Code:  string(model.CodeAPI),
		})
		return
	}
	WriteJSON(w, e.HTTPStatus(), ErrorResponse{
		Error:   e.Message,
		Code:    string(e.Code),
		Context: e.Context,
	})
}

// WriteBadRequest writes a 400 with a validation_error code.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, model.NewValidation(message))
}
