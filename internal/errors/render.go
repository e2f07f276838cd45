package errors

import (
	"encoding/json"
	"net/http"
)

// WriteHTTP renders a classified error as the JSON envelope every handler
// uses at the HTTP boundary (spec §4.6: "the classifier is the single
// source of truth for response shape"). If err is not already a *Error it
// is wrapped as an internal failure first.
func WriteHTTP(w http.ResponseWriter, err error) {
	classified, ok := err.(*Error)
	if !ok {
		classified = New(KindInternal, "INTERNAL_ERROR", 500, "unknown", err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(classified.HTTPStatus)
	_ = json.NewEncoder(w).Encode(classified)
}

// AsSSEEvent renders a classified error as the payload of a terminal SSE
// "error" event (spec §7: streaming endpoints render terminal failures as
// an event, not an HTTP status, once headers are sent).
func (e *Error) AsSSEEvent() map[string]interface{} {
	return map[string]interface{}{
		"ename":     e.Code,
		"evalue":    e.Message,
		"traceback": []string{e.Details},
	}
}
