package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Blazious/fun-learning-system/pkg/enums"
)

// Session is a scheduled live event (workshop, panel, keynote, Q&A).
type Session struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CommunityID *uuid.UUID          `gorm:"column:community_id;type:uuid"`
	HostID      uuid.UUID           `gorm:"column:host_id;type:uuid;not null;index"`
	Title       string              `gorm:"column:title;type:text;not null"`
	Description string              `gorm:"column:description;type:text;not null"`
	Type        enums.SessionType   `gorm:"column:type;type:text;not null"`
	Status      enums.SessionStatus `gorm:"column:status;type:text;not null;default:draft"`
	ScheduledAt time.Time           `gorm:"column:scheduled_at;not null"`
	StartedAt   *time.Time          `gorm:"column:started_at"`
	EndedAt     *time.Time          `gorm:"column:ended_at"`
	MaxSeats    *int                `gorm:"column:max_seats"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// SessionParticipant records a user's role and attendance in a session.
type SessionParticipant struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID uuid.UUID             `gorm:"column:session_id;type:uuid;not null;uniqueIndex:idx_session_participants_pair"`
	UserID    uuid.UUID             `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_session_participants_pair"`
	Role      enums.ParticipantRole `gorm:"column:role;type:text;not null;default:attendee"`
	Attended  bool                  `gorm:"column:attended;not null;default:false"`
	JoinedAt  *time.Time            `gorm:"column:joined_at"`
	LeftAt    *time.Time            `gorm:"column:left_at"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}

// SessionFeedback is a post-session rating left by a participant.
//
// TableName pins the singular table the migrations create.
type SessionFeedback struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID uuid.UUID       `gorm:"column:session_id;type:uuid;not null;uniqueIndex:idx_session_feedback_pair"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_session_feedback_pair"`
	Rating    decimal.Decimal `gorm:"column:rating;type:numeric(3,2);not null"`
	Comment   *string         `gorm:"column:comment;type:text"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (SessionFeedback) TableName() string { return "session_feedback" }
