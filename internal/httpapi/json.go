package httpapi

import (
	"encoding/json"
	"net/http"

	sberrors "sandboxd/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return sberrors.New(sberrors.KindValidation, "INVALID_BODY", 400, "decode_body", "request body is required")
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return sberrors.New(sberrors.KindValidation, "INVALID_BODY", 400, "decode_body", "request body is not valid JSON").WithCause(err)
	}
	return nil
}
