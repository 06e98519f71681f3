package handlers

import (
	"database/sql"

	"github.com/glowora/glowora-api/internal/email"
)

// Handlers holds all dependencies the HTTP handlers need.
type Handlers struct {
	DB     *sql.DB
	Mailer *email.Mailer
}

// failure is the envelope for validation failures: a human-readable error
// plus optional per-field messages. Unexpected failures use the same shape
// with a generic message after being logged.
type failure struct {
	Success     bool              `json:"success"`
	Error       string            `json:"error"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

func fail(msg string) failure {
	return failure{Success: false, Error: msg}
}

func failFields(msg string, fields map[string]string) failure {
	return failure{Success: false, Error: msg, FieldErrors: fields}
}
