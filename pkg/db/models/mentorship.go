package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Blazious/fun-learning-system/pkg/enums"
)

// MentorProfile marks a user as available to mentor and lists their areas.
type MentorProfile struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Expertise  pq.StringArray `gorm:"column:expertise;type:text[]"`
	MaxMentees int            `gorm:"column:max_mentees;not null;default:3"`
	IsOpen     bool           `gorm:"column:is_open;not null;default:true"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// MenteeProfile marks a user as seeking mentorship.
type MenteeProfile struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Goals     pq.StringArray `gorm:"column:goals;type:text[]"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// MentorshipRelationship tracks a mentor/mentee pairing through its lifecycle.
type MentorshipRelationship struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MentorID  uuid.UUID              `gorm:"column:mentor_id;type:uuid;not null;uniqueIndex:idx_mentorships_pair"`
	MenteeID  uuid.UUID              `gorm:"column:mentee_id;type:uuid;not null;uniqueIndex:idx_mentorships_pair"`
	Status    enums.MentorshipStatus `gorm:"column:status;type:text;not null;default:pending"`
	Message   *string                `gorm:"column:message;type:text"`
	StartedAt *time.Time             `gorm:"column:started_at"`
	EndedAt   *time.Time             `gorm:"column:ended_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
