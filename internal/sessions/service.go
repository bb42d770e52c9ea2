package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/internal/gamification"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	apperrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/logger"
	"github.com/Blazious/fun-learning-system/pkg/pagination"
)

var (
	minRating = decimal.NewFromInt(1)
	maxRating = decimal.NewFromInt(5)
)

// pointRecorder is the slice of the gamification service completion credits need.
type pointRecorder interface {
	RecordEvent(ctx context.Context, input gamification.RecordEventInput) (*models.PointEvent, error)
}

// Service exposes the session lifecycle, registration, attendance, and feedback.
type Service interface {
	Schedule(ctx context.Context, input ScheduleInput) (*models.Session, error)
	Publish(ctx context.Context, sessionID, actorID uuid.UUID) (*models.Session, error)
	Start(ctx context.Context, sessionID, actorID uuid.UUID) (*models.Session, error)
	Complete(ctx context.Context, sessionID, actorID uuid.UUID) (*models.Session, error)
	Cancel(ctx context.Context, sessionID, actorID uuid.UUID) (*models.Session, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Session, string, error)

	Register(ctx context.Context, sessionID, userID uuid.UUID) (*models.SessionParticipant, error)
	AssignRole(ctx context.Context, input AssignRoleInput) error
	MarkAttendance(ctx context.Context, input AttendanceInput) error
	Participants(ctx context.Context, sessionID uuid.UUID) ([]models.SessionParticipant, error)

	LeaveFeedback(ctx context.Context, input FeedbackInput) (*models.SessionFeedback, error)
	FeedbackSummary(ctx context.Context, sessionID uuid.UUID) (FeedbackSummary, error)
}

// ScheduleInput carries the fields for a new draft session.
type ScheduleInput struct {
	HostID      uuid.UUID
	CommunityID *uuid.UUID
	Title       string
	Description string
	Type        enums.SessionType
	ScheduledAt time.Time
	MaxSeats    *int
}

// AssignRoleInput promotes a registered participant to speaker or moderator.
type AssignRoleInput struct {
	SessionID uuid.UUID
	ActorID   uuid.UUID
	UserID    uuid.UUID
	Role      enums.ParticipantRole
}

// AttendanceInput flags whether a participant actually showed up.
type AttendanceInput struct {
	SessionID uuid.UUID
	ActorID   uuid.UUID
	UserID    uuid.UUID
	Attended  bool
}

// FeedbackInput is a post-session rating from an attendee.
type FeedbackInput struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	Rating    decimal.Decimal
	Comment   string
}

// FeedbackSummary aggregates the ratings left for a session.
type FeedbackSummary struct {
	Average decimal.Decimal `json:"average"`
	Count   int64           `json:"count"`
}

// Options wires the sessions service dependencies.
type Options struct {
	Repo   Repository
	Points pointRecorder
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo   Repository
	points pointRecorder
	logg   *logger.Logger
	now    func() time.Time
}

// NewService validates the options and returns a ready sessions service.
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
	return &service{
		repo:   opts.Repo,
		points: opts.Points,
		logg:   opts.Logger,
		now:    now,
	}, nil
}

func (s *service) Schedule(ctx context.Context, input ScheduleInput) (*models.Session, error) {
	if input.HostID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "host id is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "title is required")
	}
	if !input.Type.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid session type")
	}
	if !input.ScheduledAt.After(s.now()) {
		return nil, apperrors.New(apperrors.CodeValidation, "scheduled time must be in the future")
	}
	if input.MaxSeats != nil && *input.MaxSeats <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "max seats must be positive")
	}

	session := &models.Session{
		CommunityID: input.CommunityID,
		HostID:      input.HostID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Type:        input.Type,
		Status:      enums.SessionStatusDraft,
		ScheduledAt: input.ScheduledAt.UTC(),
		MaxSeats:    input.MaxSeats,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "creating session")
	}

	logCtx := s.logg.WithSessionID(ctx, session.ID.String())
	s.logg.Info(logCtx, "session drafted")
	return session, nil
}

func (s *service) Publish(ctx context.Context, sessionID, actorID uuid.UUID) (*models.Session, error) {
	return s.transition(ctx, sessionID, actorID, enums.SessionStatusScheduled, nil)
}

func (s *service) Start(ctx context.Context, sessionID, actorID uuid.UUID) (*models.Session, error) {
	startedAt := s.now().UTC()
	return s.transition(ctx, sessionID, actorID, enums.SessionStatusLive, map[string]any{"started_at": startedAt})
}

func (s *service) Complete(ctx context.Context, sessionID, actorID uuid.UUID) (*models.Session, error) {
	endedAt := s.now().UTC()
	session, err := s.transition(ctx, sessionID, actorID, enums.SessionStatusCompleted, map[string]any{"ended_at": endedAt})
	if err != nil {
		return nil, err
	}

	s.creditCompletion(ctx, session)
	return session, nil
}

func (s *service) Cancel(ctx context.Context, sessionID, actorID uuid.UUID) (*models.Session, error) {
	return s.transition(ctx, sessionID, actorID, enums.SessionStatusCancelled, nil)
}

func (s *service) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "session not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading session")
	}
	return session, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Session, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	sessions, err := s.repo.ListSessions(ctx, filter, cursor, limit+1)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeDependency, err, "listing sessions")
	}

	nextCursor := ""
	if len(sessions) > limit {
		sessions = sessions[:limit]
		last := sessions[len(sessions)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return sessions, nextCursor, nil
}

func (s *service) Register(ctx context.Context, sessionID, userID uuid.UUID) (*models.SessionParticipant, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != enums.SessionStatusScheduled && session.Status != enums.SessionStatusLive {
		return nil, apperrors.New(apperrors.CodeStateConflict, "session is not open for registration")
	}
	if session.HostID == userID {
		return nil, apperrors.New(apperrors.CodeValidation, "host is already part of the session")
	}

	if session.MaxSeats != nil {
		count, err := s.repo.CountParticipants(ctx, sessionID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDependency, err, "counting participants")
		}
		if count >= int64(*session.MaxSeats) {
			return nil, apperrors.New(apperrors.CodeStateConflict, "session is full")
		}
	}

	participant := &models.SessionParticipant{
		SessionID: sessionID,
		UserID:    userID,
		Role:      enums.ParticipantRoleAttendee,
	}
	if err := s.repo.AddParticipant(ctx, participant); err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			return nil, apperrors.Wrap(apperrors.CodeConflict, err, "already registered")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "registering participant")
	}
	return participant, nil
}

func (s *service) AssignRole(ctx context.Context, input AssignRoleInput) error {
	if !input.Role.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid participant role")
	}

	session, err := s.Get(ctx, input.SessionID)
	if err != nil {
		return err
	}
	if session.HostID != input.ActorID {
		return apperrors.New(apperrors.CodeForbidden, "only the host can assign roles")
	}

	if err := s.repo.UpdateParticipant(ctx, input.SessionID, input.UserID, map[string]any{"role": input.Role}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "participant not found")
		}
		return apperrors.Wrap(apperrors.CodeDependency, err, "assigning role")
	}
	return nil
}

func (s *service) MarkAttendance(ctx context.Context, input AttendanceInput) error {
	session, err := s.Get(ctx, input.SessionID)
	if err != nil {
		return err
	}
	if session.Status != enums.SessionStatusLive && session.Status != enums.SessionStatusCompleted {
		return apperrors.New(apperrors.CodeStateConflict, "attendance can only be marked for live or completed sessions")
	}
	if err := s.requireHostOrModerator(ctx, session, input.ActorID); err != nil {
		return err
	}

	updates := map[string]any{"attended": input.Attended}
	if input.Attended {
		updates["joined_at"] = s.now().UTC()
	}
	if err := s.repo.UpdateParticipant(ctx, input.SessionID, input.UserID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "participant not found")
		}
		return apperrors.Wrap(apperrors.CodeDependency, err, "marking attendance")
	}
	return nil
}

func (s *service) Participants(ctx context.Context, sessionID uuid.UUID) ([]models.SessionParticipant, error) {
	participants, err := s.repo.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing participants")
	}
	return participants, nil
}

func (s *service) LeaveFeedback(ctx context.Context, input FeedbackInput) (*models.SessionFeedback, error) {
	if input.Rating.LessThan(minRating) || input.Rating.GreaterThan(maxRating) {
		return nil, apperrors.New(apperrors.CodeValidation, "rating must be between 1 and 5")
	}

	session, err := s.Get(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != enums.SessionStatusCompleted {
		return nil, apperrors.New(apperrors.CodeStateConflict, "feedback is only accepted for completed sessions")
	}

	participant, err := s.repo.FindParticipant(ctx, input.SessionID, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeForbidden, "only participants can leave feedback")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading participant")
	}
	if !participant.Attended {
		return nil, apperrors.New(apperrors.CodeForbidden, "only attendees can leave feedback")
	}

	feedback := &models.SessionFeedback{
		SessionID: input.SessionID,
		UserID:    input.UserID,
		Rating:    input.Rating,
	}
	if input.Comment != "" {
		feedback.Comment = &input.Comment
	}
	if err := s.repo.CreateFeedback(ctx, feedback); err != nil {
		if errors.Is(err, ErrFeedbackExists) {
			return nil, apperrors.Wrap(apperrors.CodeConflict, err, "feedback already submitted")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "saving feedback")
	}
	return feedback, nil
}

func (s *service) FeedbackSummary(ctx context.Context, sessionID uuid.UUID) (FeedbackSummary, error) {
	average, count, err := s.repo.FeedbackStats(ctx, sessionID)
	if err != nil {
		return FeedbackSummary{}, apperrors.Wrap(apperrors.CodeDependency, err, "aggregating feedback")
	}
	return FeedbackSummary{Average: average.Round(2), Count: count}, nil
}

func (s *service) transition(ctx context.Context, sessionID, actorID uuid.UUID, next enums.SessionStatus, extra map[string]any) (*models.Session, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.HostID != actorID {
		return nil, apperrors.New(apperrors.CodeForbidden, "only the host can change session status")
	}
	if !session.Status.CanTransitionTo(next) {
		return nil, apperrors.New(apperrors.CodeStateConflict,
			fmt.Sprintf("cannot move session from %s to %s", session.Status, next))
	}

	updates := map[string]any{"status": next}
	for key, value := range extra {
		updates[key] = value
	}
	if err := s.repo.UpdateSession(ctx, sessionID, updates); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "updating session status")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"session_id": sessionID.String(),
		"status":     string(next),
	})
	s.logg.Info(logCtx, "session status changed")

	return s.Get(ctx, sessionID)
}

func (s *service) requireHostOrModerator(ctx context.Context, session *models.Session, actorID uuid.UUID) error {
	if session.HostID == actorID {
		return nil
	}
	participant, err := s.repo.FindParticipant(ctx, session.ID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeForbidden, "host or moderator required")
		}
		return apperrors.Wrap(apperrors.CodeDependency, err, "loading participant")
	}
	if participant.Role != enums.ParticipantRoleModerator {
		return apperrors.New(apperrors.CodeForbidden, "host or moderator required")
	}
	return nil
}

// creditCompletion awards points once the session has completed: hosting for
// the host, moderation for moderators who attended, attendance for everyone
// else who showed up. Duplicate credits collapse on the ledger dedup index,
// so a retried completion is harmless.
func (s *service) creditCompletion(ctx context.Context, session *models.Session) {
	if s.points == nil {
		return
	}
	sessionID := session.ID

	s.creditOne(ctx, gamification.RecordEventInput{
		UserID:      session.HostID,
		Kind:        enums.PointEventKindSessionHosted,
		SourceID:    &sessionID,
		Description: session.Title,
	})

	participants, err := s.repo.ListParticipants(ctx, sessionID)
	if err != nil {
		logCtx := s.logg.WithSessionID(ctx, sessionID.String())
		s.logg.Error(logCtx, "listing participants for completion credits failed", err)
		return
	}

	for _, participant := range participants {
		if !participant.Attended {
			continue
		}
		kind := enums.PointEventKindSessionAttended
		if participant.Role == enums.ParticipantRoleModerator {
			kind = enums.PointEventKindSessionModerated
		}
		s.creditOne(ctx, gamification.RecordEventInput{
			UserID:      participant.UserID,
			Kind:        kind,
			SourceID:    &sessionID,
			Description: session.Title,
		})
	}
}

func (s *service) creditOne(ctx context.Context, input gamification.RecordEventInput) {
	if _, err := s.points.RecordEvent(ctx, input); err != nil {
		logCtx := s.logg.WithUserID(ctx, input.UserID.String())
		if errors.Is(err, gamification.ErrDuplicateEvent) {
			s.logg.Info(logCtx, "completion credit already recorded")
			return
		}
		s.logg.Error(logCtx, "recording completion credit failed", err)
	}
}
