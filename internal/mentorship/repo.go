package mentorship

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/pkg/db"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
)

// ErrRelationshipExists signals a second request for the same mentor/mentee pair.
var ErrRelationshipExists = errors.New("mentorship relationship already exists")

// Repository manages persistence for mentor/mentee profiles and relationships.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	UpsertMentorProfile(ctx context.Context, profile *models.MentorProfile) error
	FindMentorProfile(ctx context.Context, userID uuid.UUID) (*models.MentorProfile, error)
	ListOpenMentors(ctx context.Context) ([]models.MentorProfile, error)

	UpsertMenteeProfile(ctx context.Context, profile *models.MenteeProfile) error
	FindMenteeProfile(ctx context.Context, userID uuid.UUID) (*models.MenteeProfile, error)

	CreateRelationship(ctx context.Context, relationship *models.MentorshipRelationship) error
	FindRelationshipByID(ctx context.Context, id uuid.UUID) (*models.MentorshipRelationship, error)
	ListRelationshipsByUser(ctx context.Context, userID uuid.UUID) ([]models.MentorshipRelationship, error)
	CountActiveByMentor(ctx context.Context, mentorID uuid.UUID) (int64, error)
	UpdateRelationship(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a mentorship repository bound to the provided database.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) UpsertMentorProfile(ctx context.Context, profile *models.MentorProfile) error {
	existing, err := r.FindMentorProfile(ctx, profile.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(profile).Error
		}
		return err
	}
	profile.ID = existing.ID
	return r.db.WithContext(ctx).
		Model(&models.MentorProfile{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"expertise":   profile.Expertise,
			"max_mentees": profile.MaxMentees,
			"is_open":     profile.IsOpen,
		}).Error
}

func (r *repository) FindMentorProfile(ctx context.Context, userID uuid.UUID) (*models.MentorProfile, error) {
	var profile models.MentorProfile
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) ListOpenMentors(ctx context.Context) ([]models.MentorProfile, error) {
	var mentors []models.MentorProfile
	if err := r.db.WithContext(ctx).
		Where("is_open = ?", true).
		Order("created_at ASC").
		Find(&mentors).Error; err != nil {
		return nil, err
	}
	return mentors, nil
}

func (r *repository) UpsertMenteeProfile(ctx context.Context, profile *models.MenteeProfile) error {
	existing, err := r.FindMenteeProfile(ctx, profile.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(profile).Error
		}
		return err
	}
	profile.ID = existing.ID
	return r.db.WithContext(ctx).
		Model(&models.MenteeProfile{}).
		Where("id = ?", existing.ID).
		Update("goals", profile.Goals).Error
}

func (r *repository) FindMenteeProfile(ctx context.Context, userID uuid.UUID) (*models.MenteeProfile, error) {
	var profile models.MenteeProfile
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) CreateRelationship(ctx context.Context, relationship *models.MentorshipRelationship) error {
	if err := r.db.WithContext(ctx).Create(relationship).Error; err != nil {
		if db.IsUniqueViolation(err, "idx_mentorships_pair") {
			return ErrRelationshipExists
		}
		return err
	}
	return nil
}

func (r *repository) FindRelationshipByID(ctx context.Context, id uuid.UUID) (*models.MentorshipRelationship, error) {
	var relationship models.MentorshipRelationship
	if err := r.db.WithContext(ctx).First(&relationship, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &relationship, nil
}

func (r *repository) ListRelationshipsByUser(ctx context.Context, userID uuid.UUID) ([]models.MentorshipRelationship, error) {
	var relationships []models.MentorshipRelationship
	if err := r.db.WithContext(ctx).
		Where("mentor_id = ? OR mentee_id = ?", userID, userID).
		Order("created_at ASC").
		Find(&relationships).Error; err != nil {
		return nil, err
	}
	return relationships, nil
}

func (r *repository) CountActiveByMentor(ctx context.Context, mentorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MentorshipRelationship{}).
		Where("mentor_id = ? AND status = ?", mentorID, enums.MentorshipStatusActive).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateRelationship(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.MentorshipRelationship{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
