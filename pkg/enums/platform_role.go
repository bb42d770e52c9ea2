package enums

import "fmt"

// PlatformRole maps to the platform_role_enum enum in Postgres. It is the
// profile-level role a user plays on the platform, distinct from the
// per-community MemberRole and from the admin system role.
type PlatformRole string

const (
	PlatformRoleListener  PlatformRole = "listener"
	PlatformRoleModerator PlatformRole = "moderator"
	PlatformRoleSpeaker   PlatformRole = "speaker"
)

var validPlatformRoles = []PlatformRole{
	PlatformRoleListener,
	PlatformRoleModerator,
	PlatformRoleSpeaker,
}

func (r PlatformRole) IsValid() bool {
	for _, candidate := range validPlatformRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParsePlatformRole converts raw input into PlatformRole.
func ParsePlatformRole(value string) (PlatformRole, error) {
	for _, candidate := range validPlatformRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid platform role %q", value)
}
