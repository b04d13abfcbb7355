package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20

type APIError struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	Status int    `json:"status"`
}

// HandlerFunc renvoie une erreur au lieu d'écrire la réponse d'échec lui-même.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Wrap convertit l'erreur d'un HandlerFunc en réponse JSON.
func Wrap(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			status, reason := mapDomainError(err)
			WriteError(w, status, err, reason)
		}
	})
}

func WriteJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, err error, reason string) {
	msg := http.StatusText(status)
	// Les erreurs internes ne fuient pas de détails techniques
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	WriteJSON(w, APIError{Error: msg, Reason: reason, Status: status}, status)
}

var errBadRequest = errors.New("malformed request body")

// Decode lit un corps JSON strict, limité à maxBodyBytes.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return v, nil
}
