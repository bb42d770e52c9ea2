package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gpubsub "cloud.google.com/go/pubsub/v2"

	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	"github.com/Blazious/fun-learning-system/pkg/logger"
	"github.com/Blazious/fun-learning-system/pkg/pubsub"
	redisclient "github.com/Blazious/fun-learning-system/pkg/redis"
)

const (
	gamificationConsumer = "gamification-notifications"
	processedTTL         = 24 * time.Hour
)

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer turns gamification events into in-app notifications.
type Consumer struct {
	repo         repository
	subscription *gpubsub.Subscriber
	store        redisclient.IdempotencyStore
	logg         *logger.Logger
}

// NewConsumer builds a gamification notification consumer.
func NewConsumer(repo repository, subscription *gpubsub.Subscriber, store redisclient.IdempotencyStore, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("gamification subscription required")
	}
	if store == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		store:        store,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *gpubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *gpubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
	})

	event, err := pubsub.DecodeGamificationEvent(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode gamification event", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_type": event.Type,
		"user_id":    event.UserID.String(),
	})

	key := c.store.IdempotencyKey(gamificationConsumer, msg.ID)
	fresh, err := c.store.SetNX(ctx, key, "1", processedTTL)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !fresh {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, event); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.store.Del(ctx, key)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, event pubsub.GamificationEvent) error {
	switch event.Type {
	case pubsub.EventBadgeAwarded:
		return c.createBadgeNotification(ctx, event)
	case pubsub.EventPointsRecorded:
		return c.createMilestoneNotification(ctx, event)
	default:
		return nil
	}
}

func (c *Consumer) createBadgeNotification(ctx context.Context, event pubsub.GamificationEvent) error {
	payload, err := json.Marshal(map[string]string{"badge_slug": event.BadgeSlug})
	if err != nil {
		return err
	}
	return c.repo.Create(ctx, &models.Notification{
		UserID:  event.UserID,
		Type:    enums.NotificationTypeBadgeEarned,
		Title:   "New badge earned",
		Body:    fmt.Sprintf("You earned the %s badge.", event.BadgeName),
		Payload: payload,
	})
}

// createMilestoneNotification skips the chatty kinds: a community post does
// not deserve a notification, hosting or publishing does.
func (c *Consumer) createMilestoneNotification(ctx context.Context, event pubsub.GamificationEvent) error {
	switch enums.PointEventKind(event.Kind) {
	case enums.PointEventKindSessionHosted,
		enums.PointEventKindSessionModerated,
		enums.PointEventKindArticlePublished:
	default:
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"kind":   event.Kind,
		"points": event.Points,
	})
	if err != nil {
		return err
	}
	return c.repo.Create(ctx, &models.Notification{
		UserID:  event.UserID,
		Type:    enums.NotificationTypeMilestoneAchieved,
		Title:   "Points earned",
		Body:    fmt.Sprintf("You earned %d points.", event.Points),
		Payload: payload,
	})
}
