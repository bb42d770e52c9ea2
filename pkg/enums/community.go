package enums

import "fmt"

// CommunityType maps to the community_type_enum enum in Postgres.
type CommunityType string

const (
	CommunityTypeInstitution  CommunityType = "institution"
	CommunityTypeSubject      CommunityType = "subject"
	CommunityTypeProfessional CommunityType = "professional"
	CommunityTypeInterest     CommunityType = "interest"
)

var validCommunityTypes = []CommunityType{
	CommunityTypeInstitution,
	CommunityTypeSubject,
	CommunityTypeProfessional,
	CommunityTypeInterest,
}

func (t CommunityType) IsValid() bool {
	for _, candidate := range validCommunityTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCommunityType converts raw input into CommunityType.
func ParseCommunityType(value string) (CommunityType, error) {
	for _, candidate := range validCommunityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid community type %q", value)
}

// MemberRole maps to the member_role_enum enum in Postgres.
type MemberRole string

const (
	MemberRoleMember    MemberRole = "member"
	MemberRoleModerator MemberRole = "moderator"
	MemberRoleAdmin     MemberRole = "admin"
)

var validMemberRoles = []MemberRole{
	MemberRoleMember,
	MemberRoleModerator,
	MemberRoleAdmin,
}

func (r MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// PostType maps to the post_type_enum enum in Postgres.
type PostType string

const (
	PostTypeDiscussion   PostType = "discussion"
	PostTypeQuestion     PostType = "question"
	PostTypeAnnouncement PostType = "announcement"
	PostTypeResource     PostType = "resource"
)

var validPostTypes = []PostType{
	PostTypeDiscussion,
	PostTypeQuestion,
	PostTypeAnnouncement,
	PostTypeResource,
}

func (t PostType) IsValid() bool {
	for _, candidate := range validPostTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePostType converts raw input into PostType.
func ParsePostType(value string) (PostType, error) {
	for _, candidate := range validPostTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid post type %q", value)
}
