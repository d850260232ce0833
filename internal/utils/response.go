package utils

import (
	"encoding/json"
	"net/http"

	"github.com/Dan9191/card-service/internal/apperror"
)

// Respond writes data as a JSON response with the given status code
func Respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes an application error. Validation errors carry the
// field list, every other kind a single message.
func RespondError(w http.ResponseWriter, err *apperror.Error) {
	if err.Kind == apperror.KindValidation {
		Respond(w, err.HTTPStatus(), map[string]interface{}{"errors": err.Fields})
		return
	}
	Respond(w, err.HTTPStatus(), map[string]string{"error": err.Message})
}
