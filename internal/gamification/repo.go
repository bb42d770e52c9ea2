package gamification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/pkg/db"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	"github.com/Blazious/fun-learning-system/pkg/pagination"
)

// BalanceRow is one leaderboard candidate with the user fields needed for
// tie-breaking.
type BalanceRow struct {
	UserID        uuid.UUID
	Username      string
	TotalPoints   int
	UserCreatedAt time.Time
}

// Repository manages persistence for the points ledger, badges, and
// leaderboard queries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreatePointEvent(ctx context.Context, event *models.PointEvent) error
	ListPointEventsByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.PointEvent, error)
	SumPointsByUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountEventsByUserAndKind(ctx context.Context, userID uuid.UUID, kind enums.PointEventKind) (int64, error)

	CachedTotal(ctx context.Context, userID uuid.UUID) (int, error)
	IncrementCachedTotal(ctx context.Context, userID uuid.UUID, delta int) error
	SetCachedTotal(ctx context.Context, userID uuid.UUID, total int) error

	ListActiveBadges(ctx context.Context) ([]models.Badge, error)
	CreateBadgeAward(ctx context.Context, award *models.BadgeAward) error
	ListBadgeAwardsByUser(ctx context.Context, userID uuid.UUID) ([]models.BadgeAward, error)

	LeaderboardBalances(ctx context.Context, communityID *uuid.UUID, limit int) ([]BalanceRow, error)
	UsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a gamification repository bound to the provided database.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePointEvent(ctx context.Context, event *models.PointEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		if db.IsUniqueViolation(err, "idx_point_events_dedup") {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

func (r *repository) ListPointEventsByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.PointEvent, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit)

	if cursor != nil {
		query = query.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var events []models.PointEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) SumPointsByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.PointEvent{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) CountEventsByUserAndKind(ctx context.Context, userID uuid.UUID, kind enums.PointEventKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PointEvent{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CachedTotal(ctx context.Context, userID uuid.UUID) (int, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).
		Select("total_points").
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return 0, err
	}
	return profile.TotalPoints, nil
}

func (r *repository) IncrementCachedTotal(ctx context.Context, userID uuid.UUID, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("total_points", gorm.Expr("total_points + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SetCachedTotal(ctx context.Context, userID uuid.UUID, total int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("total_points", total)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListActiveBadges(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&badges).Error
	if err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *repository) CreateBadgeAward(ctx context.Context, award *models.BadgeAward) error {
	if err := r.db.WithContext(ctx).Create(award).Error; err != nil {
		if db.IsUniqueViolation(err, "idx_badge_awards_user_badge") {
			return ErrBadgeAlreadyAwarded
		}
		return err
	}
	return nil
}

func (r *repository) ListBadgeAwardsByUser(ctx context.Context, userID uuid.UUID) ([]models.BadgeAward, error) {
	var awards []models.BadgeAward
	err := r.db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Find(&awards).Error
	if err != nil {
		return nil, err
	}
	return awards, nil
}

func (r *repository) LeaderboardBalances(ctx context.Context, communityID *uuid.UUID, limit int) ([]BalanceRow, error) {
	query := r.db.WithContext(ctx).
		Table("users").
		Select(
			"users.id AS user_id",
			"users.username AS username",
			"users.created_at AS user_created_at",
			"COALESCE(SUM(point_events.points), 0) AS total_points",
		).
		Joins("LEFT JOIN point_events ON point_events.user_id = users.id").
		Where("users.deleted_at IS NULL AND users.is_active = ?", true).
		Group("users.id, users.username, users.created_at").
		Having("COALESCE(SUM(point_events.points), 0) > 0").
		Order("total_points DESC").
		Order("users.created_at ASC").
		Order("users.id ASC").
		Limit(limit)

	if communityID != nil {
		query = query.Where(
			"users.id IN (?)",
			r.db.Table("community_members").Select("user_id").Where("community_id = ?", *communityID),
		)
	}

	var rows []BalanceRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
