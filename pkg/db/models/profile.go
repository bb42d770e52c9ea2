package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Profile holds the public-facing details for a user, including the cached
// points balance maintained alongside the append-only point event ledger.
type Profile struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Bio         *string        `gorm:"column:bio;type:text"`
	AvatarURL   *string        `gorm:"column:avatar_url;type:text"`
	Interests   pq.StringArray `gorm:"column:interests;type:text[]"`
	TotalPoints int            `gorm:"column:total_points;not null;default:0"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
