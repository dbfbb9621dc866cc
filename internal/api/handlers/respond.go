package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/meeterup/meeterup-be/internal/services"
)

// errorBody is the wire shape of every error response: a machine-readable
// kind plus a human-readable message.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var errorKinds = []struct {
	err    error
	status int
	kind   string
}{
	{services.ErrValidation, http.StatusBadRequest, "VALIDATION"},
	{services.ErrDuplicateEmail, http.StatusBadRequest, "DUPLICATE_EMAIL"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{services.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{services.ErrNotAuthorized, http.StatusForbidden, "AUTHORIZATION"},
	{services.ErrSelfReference, http.StatusBadRequest, "SELF_REFERENCE"},
	{services.ErrAlreadyFriends, http.StatusBadRequest, "ALREADY_FRIENDS"},
	{services.ErrDuplicateRequest, http.StatusBadRequest, "DUPLICATE_REQUEST"},
	{services.ErrBlocked, http.StatusForbidden, "BLOCKED"},
	{services.ErrInvalidState, http.StatusBadRequest, "INVALID_STATE"},
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a service error to its HTTP contract. Anything outside
// the taxonomy is logged and surfaced as a generic internal error so no
// internals leak.
func writeError(w http.ResponseWriter, err error) {
	for _, e := range errorKinds {
		if errors.Is(err, e.err) {
			writeJSON(w, e.status, errorBody{Kind: e.kind, Message: err.Error()})
			return
		}
	}
	log.Error().Err(err).Msg("Unhandled internal error")
	writeJSON(w, http.StatusInternalServerError, errorBody{Kind: "INTERNAL", Message: "Internal Server Error"})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Kind: "VALIDATION", Message: message})
}
