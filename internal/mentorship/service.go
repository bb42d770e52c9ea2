package mentorship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	apperrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/logger"
)

// Service exposes mentor/mentee profiles and the relationship lifecycle.
type Service interface {
	BecomeMentor(ctx context.Context, input MentorProfileInput) (*models.MentorProfile, error)
	BecomeMentee(ctx context.Context, input MenteeProfileInput) (*models.MenteeProfile, error)
	OpenMentors(ctx context.Context) ([]models.MentorProfile, error)

	Request(ctx context.Context, input RequestInput) (*models.MentorshipRelationship, error)
	Accept(ctx context.Context, relationshipID, actorID uuid.UUID) (*models.MentorshipRelationship, error)
	Complete(ctx context.Context, relationshipID, actorID uuid.UUID) (*models.MentorshipRelationship, error)
	Cancel(ctx context.Context, relationshipID, actorID uuid.UUID) (*models.MentorshipRelationship, error)
	Relationships(ctx context.Context, userID uuid.UUID) ([]models.MentorshipRelationship, error)
}

// MentorProfileInput opens or updates a mentor profile.
type MentorProfileInput struct {
	UserID     uuid.UUID
	Expertise  []string
	MaxMentees int
	IsOpen     bool
}

// MenteeProfileInput opens or updates a mentee profile.
type MenteeProfileInput struct {
	UserID uuid.UUID
	Goals  []string
}

// RequestInput is a mentee's request to a specific mentor.
type RequestInput struct {
	MentorID uuid.UUID
	MenteeID uuid.UUID
	Message  string
}

// Options wires the mentorship service dependencies.
type Options struct {
	Repo   Repository
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService validates the options and returns a ready mentorship service.
func NewService(opts Options) (Service, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: opts.Repo, logg: opts.Logger, now: now}, nil
}

func (s *service) BecomeMentor(ctx context.Context, input MentorProfileInput) (*models.MentorProfile, error) {
	if input.UserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if input.MaxMentees <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "max mentees must be positive")
	}

	profile := &models.MentorProfile{
		UserID:     input.UserID,
		Expertise:  pq.StringArray(input.Expertise),
		MaxMentees: input.MaxMentees,
		IsOpen:     input.IsOpen,
	}
	if err := s.repo.UpsertMentorProfile(ctx, profile); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "saving mentor profile")
	}
	return profile, nil
}

func (s *service) BecomeMentee(ctx context.Context, input MenteeProfileInput) (*models.MenteeProfile, error) {
	if input.UserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}

	profile := &models.MenteeProfile{
		UserID: input.UserID,
		Goals:  pq.StringArray(input.Goals),
	}
	if err := s.repo.UpsertMenteeProfile(ctx, profile); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "saving mentee profile")
	}
	return profile, nil
}

func (s *service) OpenMentors(ctx context.Context) ([]models.MentorProfile, error) {
	mentors, err := s.repo.ListOpenMentors(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing mentors")
	}
	return mentors, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*models.MentorshipRelationship, error) {
	if input.MentorID == uuid.Nil || input.MenteeID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "mentor and mentee ids are required")
	}
	if input.MentorID == input.MenteeID {
		return nil, apperrors.New(apperrors.CodeValidation, "cannot request mentorship from yourself")
	}

	mentor, err := s.repo.FindMentorProfile(ctx, input.MentorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "mentor profile not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading mentor profile")
	}
	if !mentor.IsOpen {
		return nil, apperrors.New(apperrors.CodeStateConflict, "mentor is not accepting mentees")
	}
	if _, err := s.repo.FindMenteeProfile(ctx, input.MenteeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "mentee profile not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading mentee profile")
	}

	relationship := &models.MentorshipRelationship{
		MentorID: input.MentorID,
		MenteeID: input.MenteeID,
		Status:   enums.MentorshipStatusPending,
	}
	if input.Message != "" {
		relationship.Message = &input.Message
	}
	if err := s.repo.CreateRelationship(ctx, relationship); err != nil {
		if errors.Is(err, ErrRelationshipExists) {
			return nil, apperrors.Wrap(apperrors.CodeConflict, err, "request already exists")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "creating request")
	}
	return relationship, nil
}

// Accept moves a pending request to active. Only the mentor can accept, and
// their mentee capacity is checked at acceptance time, not request time.
func (s *service) Accept(ctx context.Context, relationshipID, actorID uuid.UUID) (*models.MentorshipRelationship, error) {
	relationship, err := s.find(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	if relationship.MentorID != actorID {
		return nil, apperrors.New(apperrors.CodeForbidden, "only the mentor can accept a request")
	}

	mentor, err := s.repo.FindMentorProfile(ctx, relationship.MentorID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading mentor profile")
	}
	active, err := s.repo.CountActiveByMentor(ctx, relationship.MentorID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "counting active mentorships")
	}
	if active >= int64(mentor.MaxMentees) {
		return nil, apperrors.New(apperrors.CodeStateConflict, "mentor is at capacity")
	}

	startedAt := s.now().UTC()
	return s.transition(ctx, relationship, enums.MentorshipStatusActive, map[string]any{"started_at": startedAt})
}

func (s *service) Complete(ctx context.Context, relationshipID, actorID uuid.UUID) (*models.MentorshipRelationship, error) {
	relationship, err := s.find(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	if relationship.MentorID != actorID && relationship.MenteeID != actorID {
		return nil, apperrors.New(apperrors.CodeForbidden, "only the mentor or mentee can complete a mentorship")
	}

	endedAt := s.now().UTC()
	return s.transition(ctx, relationship, enums.MentorshipStatusCompleted, map[string]any{"ended_at": endedAt})
}

func (s *service) Cancel(ctx context.Context, relationshipID, actorID uuid.UUID) (*models.MentorshipRelationship, error) {
	relationship, err := s.find(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	if relationship.MentorID != actorID && relationship.MenteeID != actorID {
		return nil, apperrors.New(apperrors.CodeForbidden, "only the mentor or mentee can cancel a mentorship")
	}

	endedAt := s.now().UTC()
	return s.transition(ctx, relationship, enums.MentorshipStatusCancelled, map[string]any{"ended_at": endedAt})
}

func (s *service) Relationships(ctx context.Context, userID uuid.UUID) ([]models.MentorshipRelationship, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	relationships, err := s.repo.ListRelationshipsByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing relationships")
	}
	return relationships, nil
}

func (s *service) find(ctx context.Context, relationshipID uuid.UUID) (*models.MentorshipRelationship, error) {
	relationship, err := s.repo.FindRelationshipByID(ctx, relationshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "mentorship not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading mentorship")
	}
	return relationship, nil
}

func (s *service) transition(ctx context.Context, relationship *models.MentorshipRelationship, next enums.MentorshipStatus, extra map[string]any) (*models.MentorshipRelationship, error) {
	if !relationship.Status.CanTransitionTo(next) {
		return nil, apperrors.New(apperrors.CodeStateConflict,
			fmt.Sprintf("cannot move mentorship from %s to %s", relationship.Status, next))
	}

	updates := map[string]any{"status": next}
	for key, value := range extra {
		updates[key] = value
	}
	if err := s.repo.UpdateRelationship(ctx, relationship.ID, updates); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "updating mentorship")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"mentorship_id": relationship.ID.String(),
		"status":        string(next),
	})
	s.logg.Info(logCtx, "mentorship status changed")

	return s.find(ctx, relationship.ID)
}
