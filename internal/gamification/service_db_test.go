package gamification

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/pkg/config"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
)

// sqliteTxRunner satisfies TxRunner over the in-memory test database.
type sqliteTxRunner struct{ db *gorm.DB }

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

var testPoints = config.PointsConfig{
	SessionHosted:         50,
	SessionAttended:       10,
	SessionModerated:      20,
	ArticlePublished:      25,
	CommunityContribution: 5,
}

func newLedgerService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(Options{
		Repo:        NewRepository(conn),
		Tx:          sqliteTxRunner{db: conn},
		Points:      testPoints,
		Leaderboard: config.LeaderboardConfig{CacheTTL: time.Minute, MaxEntries: 100},
		Logger:      testLogger(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

// Whatever order earn events and corrections arrive in, the cached balance
// and the ledger sum must both equal the running total after every write.
func TestService_BalanceTracksRandomEventSequence(t *testing.T) {
	conn := newTestDB(t)
	svc := newLedgerService(t, conn)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := seedUser(t, conn, "randwalk", time.Now())
	auditor := seedUser(t, conn, "auditor", time.Now())

	values := testPoints.Table()
	kinds := []enums.PointEventKind{
		enums.PointEventKindSessionHosted,
		enums.PointEventKindSessionAttended,
		enums.PointEventKindSessionModerated,
		enums.PointEventKindArticlePublished,
		enums.PointEventKindCommunityContribution,
	}

	rng := rand.New(rand.NewSource(1))
	want := 0
	for i := 0; i < 60; i++ {
		if i%10 == 9 {
			delta := rng.Intn(20) - 10
			if delta >= 0 {
				delta++
			}
			if _, err := svc.RecordCorrection(ctx, CorrectionInput{
				UserID:      userID,
				ActorUserID: auditor,
				Points:      delta,
				Description: "audit adjustment",
			}); err != nil {
				t.Fatalf("correction %d: %v", i, err)
			}
			want += delta
		} else {
			kind := kinds[rng.Intn(len(kinds))]
			input := RecordEventInput{UserID: userID, Kind: kind}
			if kind.IsDeduplicated() {
				sid := uuid.New()
				input.SourceID = &sid
			}
			if _, err := svc.RecordEvent(ctx, input); err != nil {
				t.Fatalf("event %d (%s): %v", i, kind, err)
			}
			want += values[kind]
		}

		cached, err := svc.TotalPoints(ctx, userID)
		if err != nil {
			t.Fatalf("total after %d writes: %v", i+1, err)
		}
		ledger, err := repo.SumPointsByUser(ctx, userID)
		if err != nil {
			t.Fatalf("ledger sum after %d writes: %v", i+1, err)
		}
		if cached != want || ledger != want {
			t.Fatalf("after %d writes cached=%d ledger=%d want=%d", i+1, cached, ledger, want)
		}
	}
}

// Concurrent evaluations of the same user end with exactly one award per
// badge; a goroutine losing the insert race skips the badge silently.
func TestService_EvaluateBadgesConcurrent(t *testing.T) {
	conn := newTestDB(t)
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection keeps sqlite from surfacing busy errors while the
	// goroutines interleave their reads and award inserts
	sqlDB.SetMaxOpenConns(1)

	svc := newLedgerService(t, conn)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := seedUser(t, conn, "sprinter", time.Now())

	minPoints := 10
	hostKind := enums.PointEventKindSessionHosted
	hostCount := 1
	badges := []models.Badge{
		{ID: uuid.New(), Slug: "ten-points", Name: "Ten Points", Rarity: enums.BadgeRarityCommon, MinTotalPoints: &minPoints, IsActive: true},
		{ID: uuid.New(), Slug: "first-host", Name: "First Host", Rarity: enums.BadgeRarityRare, EventKind: &hostKind, MinEventCount: &hostCount, IsActive: true},
	}
	for i := range badges {
		if err := conn.Create(&badges[i]).Error; err != nil {
			t.Fatalf("seed badge: %v", err)
		}
	}
	seedEvent(t, conn, userID, enums.PointEventKindSessionHosted, 50, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.EvaluateBadges(ctx, userID); err != nil {
				t.Errorf("evaluate: %v", err)
			}
		}()
	}
	wg.Wait()

	awards, err := repo.ListBadgeAwardsByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list awards: %v", err)
	}
	if len(awards) != 2 {
		t.Fatalf("awards = %d, want one per badge", len(awards))
	}
	seen := map[uuid.UUID]bool{}
	for _, award := range awards {
		if seen[award.BadgeID] {
			t.Fatalf("badge %s awarded twice", award.BadgeID)
		}
		seen[award.BadgeID] = true
	}
}
