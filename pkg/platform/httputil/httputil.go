// Package httputil has the JSON helpers shared by all HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"parkspace/pkg/domerrors"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its HTTP status and writes the error envelope.
// Internal errors omit the description so infrastructure detail never
// leaks to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := domerrors.CodeOf(err)

	body := errorBody{Error: string(code)}
	if code != domerrors.CodeInternal {
		var de *domerrors.Error
		if errors.As(err, &de) {
			body.ErrorDescription = de.Message
		}
	}

	WriteJSON(w, domerrors.ToHTTPStatus(code), body)
}

// DecodeJSON reads a bounded JSON request body into dst, rejecting
// unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domerrors.Wrap(domerrors.CodeBadRequest, "malformed request body", err)
	}
	return nil
}
