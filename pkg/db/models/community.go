package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Blazious/fun-learning-system/pkg/enums"
)

// Community is a themed space users join to discuss and publish content.
type Community struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug        string              `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Name        string              `gorm:"column:name;type:text;not null"`
	Description string              `gorm:"column:description;type:text;not null"`
	Type        enums.CommunityType `gorm:"column:type;type:text;not null"`
	Topics      pq.StringArray      `gorm:"column:topics;type:text[]"`
	CreatedBy   uuid.UUID           `gorm:"column:created_by;type:uuid;not null"`
	IsActive    bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// CommunityMember is a user's membership in a community.
type CommunityMember struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CommunityID uuid.UUID        `gorm:"column:community_id;type:uuid;not null;uniqueIndex:idx_community_members_pair"`
	UserID      uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_community_members_pair"`
	Role        enums.MemberRole `gorm:"column:role;type:text;not null;default:member"`
	JoinedAt    time.Time        `gorm:"column:joined_at;autoCreateTime"`
}

// CommunityTopic is a discussion thread inside a community.
type CommunityTopic struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CommunityID uuid.UUID `gorm:"column:community_id;type:uuid;not null;index"`
	Title       string    `gorm:"column:title;type:text;not null"`
	CreatedBy   uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
	IsPinned    bool      `gorm:"column:is_pinned;not null;default:false"`
	IsLocked    bool      `gorm:"column:is_locked;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CommunityPost is a message within a topic.
type CommunityPost struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TopicID   uuid.UUID      `gorm:"column:topic_id;type:uuid;not null;index"`
	AuthorID  uuid.UUID      `gorm:"column:author_id;type:uuid;not null"`
	Type      enums.PostType `gorm:"column:type;type:text;not null;default:discussion"`
	Body      string         `gorm:"column:body;type:text;not null"`
	ReplyToID *uuid.UUID     `gorm:"column:reply_to_id;type:uuid"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
