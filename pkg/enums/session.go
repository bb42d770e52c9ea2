package enums

import "fmt"

// SessionStatus maps to the session_status_enum enum in Postgres.
type SessionStatus string

const (
	SessionStatusDraft     SessionStatus = "draft"
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusLive      SessionStatus = "live"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

var validSessionStatuses = []SessionStatus{
	SessionStatusDraft,
	SessionStatusScheduled,
	SessionStatusLive,
	SessionStatusCompleted,
	SessionStatusCancelled,
}

func (s SessionStatus) IsValid() bool {
	for _, candidate := range validSessionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo encodes the session lifecycle state machine.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionStatusDraft:
		return next == SessionStatusScheduled || next == SessionStatusCancelled
	case SessionStatusScheduled:
		return next == SessionStatusLive || next == SessionStatusCancelled
	case SessionStatusLive:
		return next == SessionStatusCompleted || next == SessionStatusCancelled
	}
	return false
}

// SessionType maps to the session_type_enum enum in Postgres.
type SessionType string

const (
	SessionTypeKeynote  SessionType = "keynote"
	SessionTypeWorkshop SessionType = "workshop"
	SessionTypePanel    SessionType = "panel"
	SessionTypeQNA      SessionType = "qna"
)

var validSessionTypes = []SessionType{
	SessionTypeKeynote,
	SessionTypeWorkshop,
	SessionTypePanel,
	SessionTypeQNA,
}

func (t SessionType) IsValid() bool {
	for _, candidate := range validSessionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseSessionType converts raw input into SessionType.
func ParseSessionType(value string) (SessionType, error) {
	for _, candidate := range validSessionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid session type %q", value)
}

// ParticipantRole maps to the participant_role_enum enum in Postgres.
type ParticipantRole string

const (
	ParticipantRoleAttendee  ParticipantRole = "attendee"
	ParticipantRoleSpeaker   ParticipantRole = "speaker"
	ParticipantRoleModerator ParticipantRole = "moderator"
	ParticipantRoleObserver  ParticipantRole = "observer"
)

var validParticipantRoles = []ParticipantRole{
	ParticipantRoleAttendee,
	ParticipantRoleSpeaker,
	ParticipantRoleModerator,
	ParticipantRoleObserver,
}

func (r ParticipantRole) IsValid() bool {
	for _, candidate := range validParticipantRoles {
		if candidate == r {
			return true
		}
	}
	return false
}
