package model

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const maxSkillNameLen = 100

// Skill represents a skill entry rendered as a progress bar on the public
// site and linked to projects through the project_skills join table.
type Skill struct {
	ID      int     `json:"id"                 db:"id"`
	Name    string  `json:"name"               db:"name"`
	Level   int     `json:"level"              db:"level"`
	IconURL *string `json:"icon_url,omitempty" db:"icon_url"`
}

// CreateSkillRequest represents parameters to create a Skill.
type CreateSkillRequest struct {
	Name    string  `json:"name"`
	Level   int     `json:"level"`
	IconURL *string `json:"icon_url,omitempty"`
}

// UpdateSkillRequest represents parameters to update a Skill.
type UpdateSkillRequest struct {
	Name    *string `json:"name,omitempty"`
	Level   *int    `json:"level,omitempty"`
	IconURL *string `json:"icon_url,omitempty"`
}

// Validate validates CreateSkillRequest.
func (r *CreateSkillRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxSkillNameLen {
		return errors.New("name cannot exceed 100 characters")
	}
	if r.Level < 0 || r.Level > 100 {
		return errors.New("level must be between 0 and 100")
	}
	r.Name = name
	return nil
}

// Validate validates UpdateSkillRequest.
func (r *UpdateSkillRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return errors.New("name cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxSkillNameLen {
			return errors.New("name cannot exceed 100 characters")
		}
		*r.Name = name
	}
	if r.Level != nil && (*r.Level < 0 || *r.Level > 100) {
		return errors.New("level must be between 0 and 100")
	}
	return nil
}
