package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxProjectTitleLen = 255
	maxProjectTags     = 20
)

// CaseStudy is the optional long-form write-up attached to a project.
// Stored as a JSONB column; absent when the project has no case study.
type CaseStudy struct {
	Objective string   `json:"objective"`
	Process   []string `json:"process"`
	Outcome   string   `json:"outcome"`
}

// Project represents a portfolio project entry.
type Project struct {
	ID          int        `json:"id"                   db:"id"`
	Title       string     `json:"title"                db:"title"`
	Description string     `json:"description"          db:"description"`
	ImageURL    string     `json:"image_url"            db:"image_url"`
	Tags        []string   `json:"tags"                 db:"tags"`
	LiveURL     *string    `json:"live_url,omitempty"   db:"live_url"`
	CaseStudy   *CaseStudy `json:"case_study,omitempty" db:"case_study"`
	Published   bool       `json:"published"            db:"published"`
	CreatedAt   time.Time  `json:"created_at"           db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"           db:"updated_at"`

	// Skills linked through the project_skills join table. Populated on
	// reads; writes go through the SkillIDs request fields.
	Skills []Skill `json:"skills,omitempty" db:"-"`
}

// ProjectsListOptions controls paging and filtering for listing projects.
type ProjectsListOptions struct {
	Limit         int
	Offset        int
	PublishedOnly bool
}

// CreateProjectRequest represents parameters to create a Project.
type CreateProjectRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
	Tags        []string   `json:"tags,omitempty"`
	LiveURL     *string    `json:"live_url,omitempty"`
	CaseStudy   *CaseStudy `json:"case_study,omitempty"`
	Published   *bool      `json:"published,omitempty"`
	SkillIDs    []int      `json:"skill_ids,omitempty"`
}

// UpdateProjectRequest represents parameters to update a Project.
// SkillIDs, when present, replaces the full set of linked skills.
type UpdateProjectRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	LiveURL     *string    `json:"live_url,omitempty"`
	CaseStudy   *CaseStudy `json:"case_study,omitempty"`
	Published   *bool      `json:"published,omitempty"`
	SkillIDs    []int      `json:"skill_ids,omitempty"`
}

// Validate validates CreateProjectRequest.
func (r *CreateProjectRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return errors.New("title is required and cannot be empty")
	}
	if utf8.RuneCountInString(title) > maxProjectTitleLen {
		return errors.New("title cannot exceed 255 characters")
	}
	if len(r.Tags) > maxProjectTags {
		return errors.New("too many tags")
	}
	r.Title = title
	r.Tags = normalizeTags(r.Tags)
	return nil
}

// Validate validates UpdateProjectRequest.
func (r *UpdateProjectRequest) Validate() error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return errors.New("title cannot be empty")
		}
		if utf8.RuneCountInString(title) > maxProjectTitleLen {
			return errors.New("title cannot exceed 255 characters")
		}
		*r.Title = title
	}
	if len(r.Tags) > maxProjectTags {
		return errors.New("too many tags")
	}
	if r.Tags != nil {
		r.Tags = normalizeTags(r.Tags)
	}
	return nil
}

// normalizeTags trims tags and drops empties while preserving order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
