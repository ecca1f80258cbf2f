// Package web holds the small response vocabulary shared by all handlers:
// JSON writing and the flash-with-redirect outcome used for guard failures.
package web

import (
	"encoding/json"
	"net/http"
)

const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-time user-facing status message attached to a redirect.
type Flash struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type flashResponse struct {
	Flash    Flash  `json:"flash"`
	Redirect string `json:"redirect"`
}

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// FlashRedirect answers a guard failure or a completed mutation: the client
// is told where to go next and which one-time message to show there.
func FlashRedirect(w http.ResponseWriter, status int, redirect, flashType, message string) {
	JSON(w, status, flashResponse{
		Flash:    Flash{Type: flashType, Message: message},
		Redirect: redirect,
	})
}

// FieldErrors answers an invalid form submission with per-field messages.
// No workflow call happens after validation fails.
func FieldErrors(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
}
