package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Blazious/fun-learning-system/pkg/enums"
)

// PointEvent records an immutable points ledger entry. Rows are never updated
// or deleted; a user's balance is the sum of their events.
//
// For deduplicated kinds a partial unique index on (user_id, kind, source_id)
// enforces at most one event per user per source (see migrations).
type PointEvent struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	Kind        enums.PointEventKind `gorm:"column:kind;type:text;not null"`
	Points      int                  `gorm:"column:points;not null"`
	SourceID    *uuid.UUID           `gorm:"column:source_id;type:uuid"`
	Description *string              `gorm:"column:description;type:text"`
	ActorUserID *uuid.UUID           `gorm:"column:actor_user_id;type:uuid"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
}
