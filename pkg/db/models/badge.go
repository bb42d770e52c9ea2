package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Blazious/fun-learning-system/pkg/enums"
)

// Badge defines an achievement and its award criteria. A badge is awarded
// either when a user's total points reach MinTotalPoints, or when the user
// has accumulated MinEventCount events of EventKind.
type Badge struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug           string                `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Name           string                `gorm:"column:name;type:text;not null"`
	Description    string                `gorm:"column:description;type:text;not null"`
	Rarity         enums.BadgeRarity     `gorm:"column:rarity;type:text;not null"`
	IconURL        *string               `gorm:"column:icon_url;type:text"`
	MinTotalPoints *int                  `gorm:"column:min_total_points"`
	EventKind      *enums.PointEventKind `gorm:"column:event_kind;type:text"`
	MinEventCount  *int                  `gorm:"column:min_event_count"`
	IsActive       bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// BadgeAward links a user to an earned badge. The unique index makes awards
// idempotent under concurrent evaluation.
type BadgeAward struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_badge_awards_user_badge"`
	BadgeID   uuid.UUID `gorm:"column:badge_id;type:uuid;not null;uniqueIndex:idx_badge_awards_user_badge"`
	AwardedAt time.Time `gorm:"column:awarded_at;autoCreateTime"`

	Badge *Badge `gorm:"foreignKey:BadgeID"`
}
