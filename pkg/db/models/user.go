package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Blazious/fun-learning-system/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string             `gorm:"type:text;not null;uniqueIndex"`
	Username     string             `gorm:"column:username;type:text;not null;uniqueIndex"`
	PasswordHash string             `gorm:"column:password_hash;not null"`
	FirstName    string             `gorm:"column:first_name;not null"`
	LastName     string             `gorm:"column:last_name;not null"`
	Role         enums.PlatformRole `gorm:"column:role;type:text;not null;default:listener"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true"`
	IsVerified   bool               `gorm:"column:is_verified;not null;default:false"`
	IsAlumni     bool               `gorm:"column:is_alumni;not null;default:false"`
	LastLoginAt  *time.Time         `gorm:"column:last_login_at"`
	DeletedAt    *time.Time         `gorm:"column:deleted_at;index"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
