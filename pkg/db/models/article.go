package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Article is long-form content authored by a user, optionally tied to a
// community. Publishing an article earns points once per article.
type Article struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AuthorID    uuid.UUID      `gorm:"column:author_id;type:uuid;not null;index"`
	CommunityID *uuid.UUID     `gorm:"column:community_id;type:uuid"`
	Title       string         `gorm:"column:title;type:text;not null"`
	Body        string         `gorm:"column:body;type:text;not null"`
	Tags        pq.StringArray `gorm:"column:tags;type:text[]"`
	IsPublished bool           `gorm:"column:is_published;not null;default:false"`
	PublishedAt *time.Time     `gorm:"column:published_at"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
