package gamification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Blazious/fun-learning-system/pkg/db/models"
	apperrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/pubsub"
)

// EvaluateBadges checks every active badge against the user's current totals
// and awards the ones newly satisfied. Evaluation order is stable (ascending
// badge id), and the unique award constraint makes the operation safe to run
// concurrently: a lost insert race just skips the badge.
func (s *service) EvaluateBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}

	badges, err := s.repo.ListActiveBadges(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing badges")
	}
	if len(badges) == 0 {
		return nil, nil
	}

	existing, err := s.repo.ListBadgeAwardsByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing existing awards")
	}
	held := make(map[uuid.UUID]bool, len(existing))
	for _, award := range existing {
		held[award.BadgeID] = true
	}

	total, err := s.repo.SumPointsByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "summing ledger")
	}

	// Event-count criteria share one count per kind.
	kindCounts := map[string]int64{}

	var awarded []models.Badge
	for _, badge := range badges {
		if held[badge.ID] {
			continue
		}

		qualified, err := s.qualifies(ctx, userID, badge, total, kindCounts)
		if err != nil {
			return awarded, err
		}
		if !qualified {
			continue
		}

		award := &models.BadgeAward{UserID: userID, BadgeID: badge.ID}
		if err := s.repo.CreateBadgeAward(ctx, award); err != nil {
			if errors.Is(err, ErrBadgeAlreadyAwarded) {
				continue
			}
			return awarded, apperrors.Wrap(apperrors.CodeDependency, err, "awarding badge")
		}

		s.metrics.IncBadgeAward(badge.Slug)
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id": userID.String(),
			"badge":   badge.Slug,
		})
		s.logg.Info(logCtx, "badge awarded")
		s.publishBadgeAward(ctx, userID, badge)
		awarded = append(awarded, badge)
	}
	return awarded, nil
}

func (s *service) qualifies(ctx context.Context, userID uuid.UUID, badge models.Badge, total int, kindCounts map[string]int64) (bool, error) {
	switch {
	case badge.MinTotalPoints != nil:
		return total >= *badge.MinTotalPoints, nil

	case badge.EventKind != nil && badge.MinEventCount != nil:
		kind := *badge.EventKind
		count, ok := kindCounts[string(kind)]
		if !ok {
			fresh, err := s.repo.CountEventsByUserAndKind(ctx, userID, kind)
			if err != nil {
				return false, apperrors.Wrap(apperrors.CodeDependency, err, "counting events for badge")
			}
			kindCounts[string(kind)] = fresh
			count = fresh
		}
		return count >= int64(*badge.MinEventCount), nil

	default:
		// A badge with no criteria is never auto-awarded.
		return false, nil
	}
}

// ListBadges returns the active badge catalog in evaluation order.
func (s *service) ListBadges(ctx context.Context) ([]models.Badge, error) {
	badges, err := s.repo.ListActiveBadges(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing badges")
	}
	return badges, nil
}

// UserBadges returns the awards a user holds, oldest first.
func (s *service) UserBadges(ctx context.Context, userID uuid.UUID) ([]models.BadgeAward, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	awards, err := s.repo.ListBadgeAwardsByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing badge awards")
	}
	return awards, nil
}

func (s *service) publishBadgeAward(ctx context.Context, userID uuid.UUID, badge models.Badge) {
	if s.pub == nil {
		return
	}
	evt := pubsub.GamificationEvent{
		Type:       pubsub.EventBadgeAwarded,
		UserID:     userID,
		BadgeSlug:  badge.Slug,
		BadgeName:  badge.Name,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "publishing badge event failed", err)
	}
}
