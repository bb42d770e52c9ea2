package enums

import "fmt"

// PointEventKind maps to the point_event_kind_enum enum in Postgres.
type PointEventKind string

const (
	PointEventKindSessionHosted         PointEventKind = "session_hosted"
	PointEventKindSessionAttended       PointEventKind = "session_attended"
	PointEventKindSessionModerated      PointEventKind = "session_moderated"
	PointEventKindArticlePublished      PointEventKind = "article_published"
	PointEventKindCommunityContribution PointEventKind = "community_contribution"

	// PointEventKindCorrection is the reserved admin-only kind. It is the only
	// kind allowed to carry a negative point value.
	PointEventKindCorrection PointEventKind = "correction"
)

var validPointEventKinds = []PointEventKind{
	PointEventKindSessionHosted,
	PointEventKindSessionAttended,
	PointEventKindSessionModerated,
	PointEventKindArticlePublished,
	PointEventKindCommunityContribution,
	PointEventKindCorrection,
}

// IsValid reports whether the value matches the canonical point event enum.
func (k PointEventKind) IsValid() bool {
	for _, candidate := range validPointEventKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsDeduplicated reports whether the kind records at most one event per
// (user, source) pair. Hosting, attendance, and moderation are tied to a
// specific session; articles and contributions may legitimately repeat.
func (k PointEventKind) IsDeduplicated() bool {
	switch k {
	case PointEventKindSessionHosted, PointEventKindSessionAttended, PointEventKindSessionModerated:
		return true
	}
	return false
}

// ParsePointEventKind converts raw input into PointEventKind.
func ParsePointEventKind(value string) (PointEventKind, error) {
	for _, candidate := range validPointEventKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid point event kind %q", value)
}
