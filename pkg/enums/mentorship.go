package enums

// MentorshipStatus maps to the mentorship_status_enum enum in Postgres.
type MentorshipStatus string

const (
	MentorshipStatusPending   MentorshipStatus = "pending"
	MentorshipStatusActive    MentorshipStatus = "active"
	MentorshipStatusCompleted MentorshipStatus = "completed"
	MentorshipStatusCancelled MentorshipStatus = "cancelled"
)

var validMentorshipStatuses = []MentorshipStatus{
	MentorshipStatusPending,
	MentorshipStatusActive,
	MentorshipStatusCompleted,
	MentorshipStatusCancelled,
}

func (s MentorshipStatus) IsValid() bool {
	for _, candidate := range validMentorshipStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo encodes the mentorship relationship state machine.
func (s MentorshipStatus) CanTransitionTo(next MentorshipStatus) bool {
	switch s {
	case MentorshipStatusPending:
		return next == MentorshipStatusActive || next == MentorshipStatusCancelled
	case MentorshipStatusActive:
		return next == MentorshipStatusCompleted || next == MentorshipStatusCancelled
	}
	return false
}
