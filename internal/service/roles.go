package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/openfolio/portfolio-api/internal/core"
	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	apperrors "github.com/openfolio/portfolio-api/internal/errors"
	"github.com/openfolio/portfolio-api/internal/ports"
)

const defaultRoleCacheTTL = 15 * time.Minute

// RoleResolverOptions groups dependencies for CachedRoleResolver.
type RoleResolverOptions struct {
	Profiles core.ProfileRepository
	Mapper   ports.RoleMapper

	// Cache is optional; without it every Resolve hits the repository.
	Cache    core.CacheRepository
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// CachedRoleResolver resolves an identity's role from its profile record,
// caching per-identity results so session-change notifications do not
// trigger redundant backend reads. Entries are invalidated when the
// identity's session ends.
type CachedRoleResolver struct {
	profiles core.ProfileRepository
	mapper   ports.RoleMapper
	cache    core.CacheRepository
	ttl      time.Duration
	logger   *slog.Logger
}

// NewCachedRoleResolver constructs a CachedRoleResolver.
func NewCachedRoleResolver(opts RoleResolverOptions) (*CachedRoleResolver, error) {
	if opts.Profiles == nil {
		return nil, fmt.Errorf("role resolver: profile repository is required")
	}
	if opts.Mapper == nil {
		return nil, fmt.Errorf("role resolver: role mapper is required")
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultRoleCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRoleResolver{
		profiles: opts.Profiles,
		mapper:   opts.Mapper,
		cache:    opts.Cache,
		ttl:      ttl,
		logger:   logger,
	}, nil
}

// Resolve returns the role record for an identity. A missing profile row is
// ports.ErrRoleNotFound, never a failure. Cache errors are logged and
// degrade to repository reads; only repository transport errors propagate.
func (r *CachedRoleResolver) Resolve(ctx context.Context, identityID string) (domainauth.RoleRecord, error) {
	if identityID == "" {
		return domainauth.RoleRecord{}, ports.ErrRoleNotFound
	}

	if cached, ok := r.cachedRecord(ctx, identityID); ok {
		return cached, nil
	}

	profile, err := r.profiles.GetByUserID(ctx, identityID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return domainauth.RoleRecord{}, ports.ErrRoleNotFound
		}
		return domainauth.RoleRecord{}, fmt.Errorf("role lookup for %s: %w", identityID, err)
	}

	record := domainauth.RoleRecord{
		IdentityID: identityID,
		Role:       r.mapper.Map(profile.Role),
	}
	r.storeRecord(ctx, record)
	return record, nil
}

// Invalidate drops the cached role entry for an identity. Called by the
// auth controller when the identity's session ends.
func (r *CachedRoleResolver) Invalidate(ctx context.Context, identityID string) {
	if r.cache == nil || identityID == "" {
		return
	}
	if _, err := r.cache.Delete(ctx, roleCacheKey(identityID)); err != nil {
		r.logger.WarnContext(ctx, "role cache invalidation failed", "identity_id", identityID, "error", err)
	}
}

func (r *CachedRoleResolver) cachedRecord(ctx context.Context, identityID string) (domainauth.RoleRecord, bool) {
	if r.cache == nil {
		return domainauth.RoleRecord{}, false
	}
	data, err := r.cache.Get(ctx, roleCacheKey(identityID))
	if err != nil {
		r.logger.WarnContext(ctx, "role cache read failed", "identity_id", identityID, "error", err)
		return domainauth.RoleRecord{}, false
	}
	if data == nil {
		return domainauth.RoleRecord{}, false
	}

	var record domainauth.RoleRecord
	if err := json.Unmarshal(data, &record); err != nil {
		r.logger.WarnContext(ctx, "role cache entry corrupt, discarding", "identity_id", identityID, "error", err)
		r.Invalidate(ctx, identityID)
		return domainauth.RoleRecord{}, false
	}
	return record, true
}

func (r *CachedRoleResolver) storeRecord(ctx context.Context, record domainauth.RoleRecord) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, roleCacheKey(record.IdentityID), data, r.ttl); err != nil {
		r.logger.WarnContext(ctx, "role cache write failed", "identity_id", record.IdentityID, "error", err)
	}
}

func roleCacheKey(identityID string) string { return "role:" + identityID }
