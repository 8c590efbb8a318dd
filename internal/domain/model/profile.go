//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxProfileNameLen     = 120
	maxProfileHeadlineLen = 255
)

// Profile is the single public display profile for the portfolio owner.
// The row also carries the role record for the owning identity; role
// resolution reads it by user id, the public site reads it by the fixed
// singleton id.
type Profile struct {
	ID        int        `json:"id"                   db:"id"`
	UserID    *string    `json:"user_id,omitempty"    db:"user_id"`
	Role      string     `json:"role"                 db:"role"`
	Name      string     `json:"name"                 db:"name"`
	Headline  string     `json:"headline"             db:"headline"`
	Bio       string     `json:"bio"                  db:"bio"`
	AvatarURL *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	GithubURL *string    `json:"github_url,omitempty" db:"github_url"`
	LinkedURL *string    `json:"linked_url,omitempty" db:"linked_url"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// UpdateProfileRequest represents parameters to update the display profile.
// Role and identity binding are deliberately absent: role records are
// provisioned by the operator CLI, never through the public API.
type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty"`
	Headline  *string `json:"headline,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	GithubURL *string `json:"github_url,omitempty"`
	LinkedURL *string `json:"linked_url,omitempty"`
}

// Validate validates UpdateProfileRequest.
func (r *UpdateProfileRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return errors.New("name cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxProfileNameLen {
			return errors.New("name cannot exceed 120 characters")
		}
		*r.Name = name
	}
	if r.Headline != nil && utf8.RuneCountInString(*r.Headline) > maxProfileHeadlineLen {
		return errors.New("headline cannot exceed 255 characters")
	}
	return nil
}
