package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxContactNameLen    = 120
	maxContactMessageLen = 5000
)

// ContactMessage is a message submitted through the public contact form.
type ContactMessage struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	Email     string    `json:"email"      db:"email"`
	Message   string    `json:"message"    db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateContactMessageRequest represents a contact form submission.
type CreateContactMessageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate validates CreateContactMessageRequest.
func (r *CreateContactMessageRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxContactNameLen {
		return errors.New("name cannot exceed 120 characters")
	}

	email := strings.TrimSpace(r.Email)
	if email == "" {
		return errors.New("email is required")
	}
	// Light structural check only; delivery is the real validator.
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return errors.New("email is not valid")
	}

	message := strings.TrimSpace(r.Message)
	if message == "" {
		return errors.New("message is required and cannot be empty")
	}
	if utf8.RuneCountInString(message) > maxContactMessageLen {
		return errors.New("message cannot exceed 5000 characters")
	}

	r.Name = name
	r.Email = email
	r.Message = message
	return nil
}
