package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectRequest_Validate(t *testing.T) {
	t.Run("valid request normalizes title and tags", func(t *testing.T) {
		req := &CreateProjectRequest{
			Title: "  Portfolio Site  ",
			Tags:  []string{" go ", "", "react"},
		}
		require.NoError(t, req.Validate())
		assert.Equal(t, "Portfolio Site", req.Title)
		assert.Equal(t, []string{"go", "react"}, req.Tags)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		req := &CreateProjectRequest{Title: "   "}
		assert.Error(t, req.Validate())
	})

	t.Run("overlong title rejected", func(t *testing.T) {
		req := &CreateProjectRequest{Title: strings.Repeat("x", 256)}
		assert.Error(t, req.Validate())
	})

	t.Run("too many tags rejected", func(t *testing.T) {
		req := &CreateProjectRequest{Title: "ok", Tags: make([]string, 21)}
		assert.Error(t, req.Validate())
	})
}

func TestUpdateProjectRequest_Validate(t *testing.T) {
	t.Run("nil fields pass", func(t *testing.T) {
		req := &UpdateProjectRequest{}
		assert.NoError(t, req.Validate())
		assert.Nil(t, req.Tags, "absent tags stay absent so the repo can skip the column")
	})

	t.Run("empty title pointer rejected", func(t *testing.T) {
		empty := " "
		req := &UpdateProjectRequest{Title: &empty}
		assert.Error(t, req.Validate())
	})

	t.Run("present tags normalized", func(t *testing.T) {
		req := &UpdateProjectRequest{Tags: []string{" api ", ""}}
		require.NoError(t, req.Validate())
		assert.Equal(t, []string{"api"}, req.Tags)
	})
}

func TestCreateSkillRequest_Validate(t *testing.T) {
	req := &CreateSkillRequest{Name: " Go ", Level: 85}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Go", req.Name)

	assert.Error(t, (&CreateSkillRequest{Name: "Go", Level: 101}).Validate())
	assert.Error(t, (&CreateSkillRequest{Name: "Go", Level: -1}).Validate())
	assert.Error(t, (&CreateSkillRequest{Name: "", Level: 50}).Validate())
}

func TestCreateContactMessageRequest_Validate(t *testing.T) {
	valid := &CreateContactMessageRequest{Name: "A Reader", Email: "reader@example.com", Message: "Hello"}
	require.NoError(t, valid.Validate())

	for _, tc := range []CreateContactMessageRequest{
		{Name: "", Email: "a@b.c", Message: "hi"},
		{Name: "x", Email: "", Message: "hi"},
		{Name: "x", Email: "not-an-email", Message: "hi"},
		{Name: "x", Email: "@nope", Message: "hi"},
		{Name: "x", Email: "a@b.c", Message: "  "},
		{Name: "x", Email: "a@b.c", Message: strings.Repeat("m", 5001)},
	} {
		req := tc
		assert.Error(t, req.Validate(), "expected error for %+v", tc)
	}
}
