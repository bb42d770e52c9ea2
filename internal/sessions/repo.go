package sessions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/pkg/db"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	"github.com/Blazious/fun-learning-system/pkg/pagination"
)

var (
	// ErrAlreadyRegistered signals a second registration for the same session.
	ErrAlreadyRegistered = errors.New("user is already registered for session")
	// ErrFeedbackExists signals a second feedback submission for the same session.
	ErrFeedbackExists = errors.New("feedback already submitted for session")
)

// ListFilter narrows session listings.
type ListFilter struct {
	CommunityID *uuid.UUID
	Status      *enums.SessionStatus
	HostID      *uuid.UUID
}

// Repository manages persistence for sessions, participants, and feedback.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateSession(ctx context.Context, session *models.Session) error
	FindSessionByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	ListSessions(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Session, error)
	UpdateSession(ctx context.Context, id uuid.UUID, updates map[string]any) error

	AddParticipant(ctx context.Context, participant *models.SessionParticipant) error
	FindParticipant(ctx context.Context, sessionID, userID uuid.UUID) (*models.SessionParticipant, error)
	ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.SessionParticipant, error)
	CountParticipants(ctx context.Context, sessionID uuid.UUID) (int64, error)
	UpdateParticipant(ctx context.Context, sessionID, userID uuid.UUID, updates map[string]any) error

	CreateFeedback(ctx context.Context, feedback *models.SessionFeedback) error
	ListFeedback(ctx context.Context, sessionID uuid.UUID) ([]models.SessionFeedback, error)
	FeedbackStats(ctx context.Context, sessionID uuid.UUID) (decimal.Decimal, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sessions repository bound to the provided database.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) FindSessionByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) ListSessions(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Session, error) {
	query := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit)

	if filter.CommunityID != nil {
		query = query.Where("community_id = ?", *filter.CommunityID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.HostID != nil {
		query = query.Where("host_id = ?", *filter.HostID)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var sessions []models.Session
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) UpdateSession(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Session{}).
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

func (r *repository) AddParticipant(ctx context.Context, participant *models.SessionParticipant) error {
	if err := r.db.WithContext(ctx).Create(participant).Error; err != nil {
		if db.IsUniqueViolation(err, "idx_session_participants_pair") {
			return ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

func (r *repository) FindParticipant(ctx context.Context, sessionID, userID uuid.UUID) (*models.SessionParticipant, error) {
	var participant models.SessionParticipant
	if err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *repository) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.SessionParticipant, error) {
	var participants []models.SessionParticipant
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *repository) CountParticipants(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SessionParticipant{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateParticipant(ctx context.Context, sessionID, userID uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.SessionParticipant{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateFeedback(ctx context.Context, feedback *models.SessionFeedback) error {
	if err := r.db.WithContext(ctx).Create(feedback).Error; err != nil {
		if db.IsUniqueViolation(err, "idx_session_feedback_pair") {
			return ErrFeedbackExists
		}
		return err
	}
	return nil
}

func (r *repository) ListFeedback(ctx context.Context, sessionID uuid.UUID) ([]models.SessionFeedback, error) {
	var feedback []models.SessionFeedback
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *repository) FeedbackStats(ctx context.Context, sessionID uuid.UUID) (decimal.Decimal, int64, error) {
	var row struct {
		Average decimal.NullDecimal
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.SessionFeedback{}).
		Select("AVG(rating) AS average, COUNT(*) AS total").
		Where("session_id = ?", sessionID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	if !row.Average.Valid {
		return decimal.Zero, 0, nil
	}
	return row.Average.Decimal, row.Total, nil
}
