package authroles

import (
	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
)

// StaticRoleMapper maps a stored role value to an application role by
// exact string comparison against the configured markers. Unrecognized
// values fall through to viewer, the least privileged role.
type StaticRoleMapper struct {
	AdminMarker  string
	EditorMarker string
}

func (m StaticRoleMapper) Map(stored string) domainauth.Role {
	if m.AdminMarker != "" && stored == m.AdminMarker {
		return domainauth.RoleAdmin
	}
	if m.EditorMarker != "" && stored == m.EditorMarker {
		return domainauth.RoleEditor
	}
	if stored == string(domainauth.RoleEditor) {
		return domainauth.RoleEditor
	}
	return domainauth.RoleViewer
}
