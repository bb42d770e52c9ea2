package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
)

// Gamification event types carried on the event stream.
const (
	EventPointsRecorded = "points.recorded"
	EventBadgeAwarded   = "badge.awarded"
)

// GamificationEvent is the envelope published after a points or badge change
// commits. Consumers fan these out into user notifications.
type GamificationEvent struct {
	Type       string     `json:"type"`
	UserID     uuid.UUID  `json:"user_id"`
	Kind       string     `json:"kind,omitempty"`
	Points     int        `json:"points,omitempty"`
	BadgeSlug  string     `json:"badge_slug,omitempty"`
	BadgeName  string     `json:"badge_name,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
	SourceID   *uuid.UUID `json:"source_id,omitempty"`
}

// PublishGamificationEvent serializes and publishes the event, blocking until
// the server acknowledges it.
func PublishGamificationEvent(ctx context.Context, publisher *pubsub.Publisher, event GamificationEvent) error {
	if publisher == nil {
		return fmt.Errorf("publisher is not configured")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling gamification event: %w", err)
	}

	result := publisher.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type": event.Type,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing gamification event: %w", err)
	}
	return nil
}

// GamificationEventPublisher adapts a topic publisher to the narrow Publish
// surface the gamification service depends on.
type GamificationEventPublisher struct {
	publisher *pubsub.Publisher
}

// NewGamificationEventPublisher wraps the provided topic publisher.
func NewGamificationEventPublisher(publisher *pubsub.Publisher) *GamificationEventPublisher {
	return &GamificationEventPublisher{publisher: publisher}
}

func (p *GamificationEventPublisher) Publish(ctx context.Context, event GamificationEvent) error {
	return PublishGamificationEvent(ctx, p.publisher, event)
}

// DecodeGamificationEvent parses a received message payload.
func DecodeGamificationEvent(data []byte) (GamificationEvent, error) {
	var event GamificationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return GamificationEvent{}, fmt.Errorf("decoding gamification event: %w", err)
	}
	if event.Type == "" {
		return GamificationEvent{}, fmt.Errorf("gamification event missing type")
	}
	return event, nil
}
