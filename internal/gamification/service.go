package gamification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/pkg/config"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	"github.com/Blazious/fun-learning-system/pkg/logger"
	"github.com/Blazious/fun-learning-system/pkg/metrics"
	"github.com/Blazious/fun-learning-system/pkg/pagination"
	"github.com/Blazious/fun-learning-system/pkg/pubsub"
	redisclient "github.com/Blazious/fun-learning-system/pkg/redis"
)

// Service exposes the points ledger, badge evaluation, and leaderboards.
type Service interface {
	RecordEvent(ctx context.Context, input RecordEventInput) (*models.PointEvent, error)
	RecordCorrection(ctx context.Context, input CorrectionInput) (*models.PointEvent, error)
	QueryEvents(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.PointEvent, string, error)

	TotalPoints(ctx context.Context, userID uuid.UUID) (int, error)
	VerifyBalance(ctx context.Context, userID uuid.UUID) (BalanceReport, error)

	EvaluateBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error)
	ListBadges(ctx context.Context) ([]models.Badge, error)
	UserBadges(ctx context.Context, userID uuid.UUID) ([]models.BadgeAward, error)

	Leaderboard(ctx context.Context, query LeaderboardQuery) ([]LeaderboardEntry, error)
}

// RecordEventInput captures an earn-side ledger entry. The point value is
// resolved from configuration at record time, never from the caller.
type RecordEventInput struct {
	UserID      uuid.UUID
	Kind        enums.PointEventKind
	SourceID    *uuid.UUID
	Description string
}

// CorrectionInput captures an admin adjustment. Corrections are the only
// entries allowed to carry a negative value.
type CorrectionInput struct {
	UserID      uuid.UUID
	ActorUserID uuid.UUID
	Points      int
	Description string
}

// BalanceReport is the outcome of reconciling a cached balance with the ledger.
type BalanceReport struct {
	UserID      uuid.UUID `json:"user_id"`
	CachedTotal int       `json:"cached_total"`
	LedgerTotal int       `json:"ledger_total"`
	Consistent  bool      `json:"consistent"`
	Repaired    bool      `json:"repaired"`
}

// LeaderboardQuery selects the scope and freshness of a leaderboard read.
type LeaderboardQuery struct {
	CommunityID *uuid.UUID
	Limit       int
	Fresh       bool
}

// LeaderboardEntry is one ranked row. Rank is a 1-based row number; ties on
// points are broken by account age, then user id, so ranks stay distinct.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	TotalPoints int       `json:"total_points"`
}

// TxRunner abstracts transactional execution so tests can supply sqlite.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LeaderboardCache is the Redis surface the leaderboard builder uses.
type LeaderboardCache interface {
	ReplaceLeaderboard(ctx context.Context, scope string, scores map[string]int, ttl time.Duration) error
	TopLeaderboard(ctx context.Context, scope string, limit int) ([]redisclient.RankedMember, error)
	InvalidateLeaderboard(ctx context.Context, scope string) error
}

// EventPublisher pushes gamification events onto the async notification stream.
type EventPublisher interface {
	Publish(ctx context.Context, event pubsub.GamificationEvent) error
}

type service struct {
	repo    Repository
	tx      TxRunner
	points  map[enums.PointEventKind]int
	lbCfg   config.LeaderboardConfig
	cache   LeaderboardCache
	pub     EventPublisher
	metrics *metrics.GamificationMetrics
	logg    *logger.Logger
}

// Options collects the service dependencies. Cache, publisher, and metrics
// are optional; the core ledger semantics never depend on them.
type Options struct {
	Repo        Repository
	Tx          TxRunner
	Points      config.PointsConfig
	Leaderboard config.LeaderboardConfig
	Cache       LeaderboardCache
	Publisher   EventPublisher
	Metrics     *metrics.GamificationMetrics
	Logger      *logger.Logger
}

// NewService wires the gamification service. Point configuration is validated
// again here so a service constructed outside config.Load cannot run with
// negative earn values.
func NewService(opts Options) (Service, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("gamification repository required")
	}
	if opts.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := opts.Points.Validate(); err != nil {
		return nil, err
	}
	if opts.Leaderboard.MaxEntries <= 0 {
		opts.Leaderboard.MaxEntries = 100
	}

	return &service{
		repo:    opts.Repo,
		tx:      opts.Tx,
		points:  opts.Points.Table(),
		lbCfg:   opts.Leaderboard,
		cache:   opts.Cache,
		pub:     opts.Publisher,
		metrics: opts.Metrics,
		logg:    opts.Logger,
	}, nil
}
