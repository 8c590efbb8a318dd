// Package core defines the repository interfaces consumed by the service
// layer. The core defines interfaces and the data layer provides
// implementations (hexagonal architecture).
//
//go:generate mockgen -source=interfaces.go -destination=../mocks/core/core.go -package=core
package core

import (
	"context"
	"time"

	"github.com/openfolio/portfolio-api/internal/domain/model"
)

// ProfileRepository provides access to the display profile and the
// role-bearing profile records.
type ProfileRepository interface {
	// Get returns the singleton display profile.
	Get(ctx context.Context) (*model.Profile, error)

	// GetByUserID returns the profile record bound to an identity.
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)

	// Update updates the display profile.
	Update(ctx context.Context, req model.UpdateProfileRequest) (*model.Profile, error)

	// SetRole binds an identity to a role on the profile record. Used by
	// the operator CLI only; the HTTP surface never exposes it.
	SetRole(ctx context.Context, userID, role string) error
}

// ProjectRepository provides database operations for projects.
type ProjectRepository interface {
	Create(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error)
	GetByID(ctx context.Context, id int) (*model.Project, error)
	List(ctx context.Context, opts model.ProjectsListOptions) ([]*model.Project, error)
	Update(ctx context.Context, id int, req model.UpdateProjectRequest) (*model.Project, error)
	Delete(ctx context.Context, id int) (bool, error)
}

// SkillRepository provides database operations for skills.
type SkillRepository interface {
	Create(ctx context.Context, req *model.CreateSkillRequest) (*model.Skill, error)
	List(ctx context.Context) ([]*model.Skill, error)
	Update(ctx context.Context, id int, req model.UpdateSkillRequest) (*model.Skill, error)
	Delete(ctx context.Context, id int) (bool, error)
}

// ContactRepository provides database operations for contact messages.
type ContactRepository interface {
	Create(ctx context.Context, req *model.CreateContactMessageRequest) (*model.ContactMessage, error)
	List(ctx context.Context, limit, offset int) ([]*model.ContactMessage, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CacheRepository defines the caching operations used for role-lookup
// caching. If TTL is 0 the key does not expire.
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns nil when the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	Health(ctx context.Context) error
}
