package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID          `json:"id"`
	Email       string             `json:"email"`
	Username    string             `json:"username"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	Role        enums.PlatformRole `json:"role"`
	IsActive    bool               `json:"is_active"`
	IsVerified  bool               `json:"is_verified"`
	IsAlumni    bool               `json:"is_alumni"`
	LastLoginAt *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ProfileDTO is the public profile shape, carrying the cached points balance.
type ProfileDTO struct {
	UserID      uuid.UUID `json:"user_id"`
	Bio         *string   `json:"bio,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Interests   []string  `json:"interests"`
	TotalPoints int       `json:"total_points"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         enums.PlatformRole
}

// UpdateProfileDTO carries the mutable profile fields.
type UpdateProfileDTO struct {
	Bio       *string
	AvatarURL *string
	Interests []string
}

// UserActivityCounts are the raw counters the repo gathers for stats.
type UserActivityCounts struct {
	Badges           int64
	SessionsAttended int64
	Communities      int64
	Posts            int64
}

// StatsDTO is the activity summary behind GET /users/me/stats.
type StatsDTO struct {
	UserID           uuid.UUID `json:"user_id"`
	TotalPoints      int       `json:"total_points"`
	Badges           int64     `json:"badges"`
	SessionsAttended int64     `json:"sessions_attended"`
	Communities      int64     `json:"communities"`
	Posts            int64     `json:"posts"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		IsVerified:  u.IsVerified,
		IsAlumni:    u.IsAlumni,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func ProfileFromModel(p *models.Profile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		UserID:      p.UserID,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		Interests:   append([]string(nil), p.Interests...),
		TotalPoints: p.TotalPoints,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.PlatformRoleListener
	}
	return &models.User{
		Email:        c.Email,
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Role:         role,
		IsActive:     true,
	}
}
