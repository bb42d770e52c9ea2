package gamification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	apperrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/pagination"
	"github.com/Blazious/fun-learning-system/pkg/pubsub"
)

// RecordEvent appends an earn event to the ledger and bumps the cached
// balance in the same transaction. A dedup collision returns
// ErrDuplicateEvent (wrapped as a conflict) and leaves the ledger untouched.
func (s *service) RecordEvent(ctx context.Context, input RecordEventInput) (*models.PointEvent, error) {
	if input.UserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if !input.Kind.IsValid() || input.Kind == enums.PointEventKindCorrection {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid point event kind")
	}
	if input.Kind.IsDeduplicated() && input.SourceID == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "source id is required for session-derived kinds")
	}

	value, ok := s.points[input.Kind]
	if !ok {
		return nil, apperrors.New(apperrors.CodeValidation, "no point value configured for kind")
	}

	event := &models.PointEvent{
		UserID:   input.UserID,
		Kind:     input.Kind,
		Points:   value,
		SourceID: input.SourceID,
	}
	if input.Description != "" {
		event.Description = &input.Description
	}

	if err := s.appendEvent(ctx, event); err != nil {
		if errors.Is(err, ErrDuplicateEvent) {
			s.metrics.IncDuplicateEvent(string(input.Kind))
			logCtx := s.logg.WithUserID(ctx, input.UserID.String())
			s.logg.Info(logCtx, "duplicate point event rejected")
			return nil, apperrors.Wrap(apperrors.CodeConflict, err, "point event already recorded for source")
		}
		return nil, err
	}

	s.metrics.IncPointEvent(string(input.Kind))
	s.afterLedgerChange(ctx, event)
	return event, nil
}

// RecordCorrection appends an admin adjustment. Value may be negative but
// never zero, and the acting admin is recorded on the entry.
func (s *service) RecordCorrection(ctx context.Context, input CorrectionInput) (*models.PointEvent, error) {
	if input.UserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "actor user id is required")
	}
	if input.Points == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "correction points must be non-zero")
	}
	if input.Description == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "correction reason is required")
	}

	actorID := input.ActorUserID
	event := &models.PointEvent{
		UserID:      input.UserID,
		Kind:        enums.PointEventKindCorrection,
		Points:      input.Points,
		Description: &input.Description,
		ActorUserID: &actorID,
	}

	if err := s.appendEvent(ctx, event); err != nil {
		return nil, err
	}

	s.metrics.IncPointEvent(string(enums.PointEventKindCorrection))
	s.afterLedgerChange(ctx, event)
	return event, nil
}

// QueryEvents pages a user's ledger in timestamp order, oldest first.
func (s *service) QueryEvents(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.PointEvent, string, error) {
	if userID == uuid.Nil {
		return nil, "", apperrors.New(apperrors.CodeValidation, "user id is required")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	events, err := s.repo.ListPointEventsByUser(ctx, userID, cursor, limit+1)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeDependency, err, "listing point events")
	}

	nextCursor := ""
	if len(events) > limit {
		events = events[:limit]
		last := events[len(events)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return events, nextCursor, nil
}

func (s *service) appendEvent(ctx context.Context, event *models.PointEvent) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CreatePointEvent(ctx, event); err != nil {
			return err
		}
		if err := txRepo.IncrementCachedTotal(ctx, event.UserID, event.Points); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "profile not found for user")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEvent) || apperrors.As(err) != nil {
			return err
		}
		return apperrors.Wrap(apperrors.CodeDependency, err, "recording point event")
	}
	return nil
}

// afterLedgerChange runs the post-commit side effects: synchronous badge
// evaluation, leaderboard cache invalidation, and the async event publish.
// None of them can fail the already-committed ledger write.
func (s *service) afterLedgerChange(ctx context.Context, event *models.PointEvent) {
	logCtx := s.logg.WithUserID(ctx, event.UserID.String())

	if _, err := s.EvaluateBadges(ctx, event.UserID); err != nil {
		s.logg.Error(logCtx, "badge evaluation after ledger change failed", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateLeaderboard(ctx, GlobalScope); err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "scope", GlobalScope), "leaderboard cache invalidation failed")
		}
	}

	if s.pub != nil {
		evt := pubsub.GamificationEvent{
			Type:       pubsub.EventPointsRecorded,
			UserID:     event.UserID,
			Kind:       string(event.Kind),
			Points:     event.Points,
			OccurredAt: time.Now().UTC(),
			SourceID:   event.SourceID,
		}
		if err := s.pub.Publish(ctx, evt); err != nil {
			s.logg.Error(logCtx, "publishing points event failed", err)
		}
	}
}
