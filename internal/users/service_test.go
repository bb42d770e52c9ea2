package users

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/pkg/db/models"
	pkgerrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/logger"
	"github.com/Blazious/fun-learning-system/pkg/pagination"
)

func newService(t *testing.T, repo *Repository) Service {
	t.Helper()
	svc, err := NewService(Options{
		Repo:   repo,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceProfileRoundTrip(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newService(t, repo)

	user, err := repo.CreateWithProfile(context.Background(), CreateUserDTO{
		Email:        "learner@example.com",
		Username:     "learner",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	bio := "distributed systems enthusiast"
	profile, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileDTO{
		Bio:       &bio,
		Interests: []string{"go", "databases"},
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if profile.Bio == nil || *profile.Bio != bio {
		t.Fatalf("expected bio to persist, got %+v", profile)
	}
	if len(profile.Interests) != 2 {
		t.Fatalf("expected two interests, got %v", profile.Interests)
	}

	fetched, err := svc.Profile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if fetched.TotalPoints != 0 {
		t.Fatalf("expected zero balance for fresh profile, got %d", fetched.TotalPoints)
	}
}

func TestServiceUpdateProfileRequiresFields(t *testing.T) {
	svc := newService(t, NewRepository(newTestDB(t)))

	_, err := svc.UpdateProfile(context.Background(), uuid.New(), UpdateProfileDTO{})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceGetUnknownUser(t *testing.T) {
	svc := newService(t, NewRepository(newTestDB(t)))

	_, err := svc.Get(context.Background(), uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceDeactivate(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newService(t, repo)

	user, err := repo.CreateWithProfile(context.Background(), CreateUserDTO{
		Email:        "leaving@example.com",
		Username:     "leaving",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	if err := svc.Deactivate(context.Background(), user.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// the login lookup no longer resolves the account
	if _, err := repo.FindByEmail(context.Background(), "leaving@example.com"); err == nil {
		t.Fatal("expected soft-deleted user to be invisible to email lookup")
	}
}

// activityTables adds the hand-written sqlite schema for the tables the
// stats counters read from other domains.
func activityTables(t *testing.T, db *gorm.DB) {
	t.Helper()
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS badges (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  slug TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  rarity TEXT NOT NULL,
  icon_url TEXT,
  min_total_points INTEGER,
  event_kind TEXT,
  min_event_count INTEGER,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS badge_awards (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  user_id TEXT NOT NULL,
  badge_id TEXT NOT NULL,
  awarded_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS session_participants (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  session_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'attendee',
  attended INTEGER NOT NULL DEFAULT 0,
  joined_at DATETIME,
  left_at DATETIME,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS community_members (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  community_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'member',
  joined_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS community_posts (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  topic_id TEXT NOT NULL,
  author_id TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT 'discussion',
  body TEXT NOT NULL,
  reply_to_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("creating activity schema: %v", err)
		}
	}
}

func TestServiceStatsCountsActivity(t *testing.T) {
	db := newTestDB(t)
	activityTables(t, db)
	repo := NewRepository(db)
	svc := newService(t, repo)

	user, err := repo.CreateWithProfile(context.Background(), CreateUserDTO{
		Email:        "active@example.com",
		Username:     "active",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	if err := db.Model(&models.Profile{}).
		Where("user_id = ?", user.ID).
		UpdateColumn("total_points", 85).Error; err != nil {
		t.Fatalf("seeding balance: %v", err)
	}

	badge := &models.Badge{ID: uuid.New(), Slug: "first-steps", Name: "First Steps"}
	if err := db.Create(badge).Error; err != nil {
		t.Fatalf("seeding badge: %v", err)
	}
	seeds := []any{
		&models.BadgeAward{ID: uuid.New(), UserID: user.ID, BadgeID: badge.ID},
		&models.SessionParticipant{ID: uuid.New(), SessionID: uuid.New(), UserID: user.ID, Attended: true},
		&models.SessionParticipant{ID: uuid.New(), SessionID: uuid.New(), UserID: user.ID, Attended: false},
		&models.CommunityMember{ID: uuid.New(), CommunityID: uuid.New(), UserID: user.ID},
		&models.CommunityPost{ID: uuid.New(), TopicID: uuid.New(), AuthorID: user.ID, Body: "hello"},
		&models.CommunityPost{ID: uuid.New(), TopicID: uuid.New(), AuthorID: user.ID, Body: "again"},
	}
	for _, seed := range seeds {
		if err := db.Create(seed).Error; err != nil {
			t.Fatalf("seeding activity: %v", err)
		}
	}

	stats, err := svc.Stats(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalPoints != 85 {
		t.Fatalf("expected 85 points, got %d", stats.TotalPoints)
	}
	if stats.Badges != 1 || stats.SessionsAttended != 1 || stats.Communities != 1 || stats.Posts != 2 {
		t.Fatalf("unexpected counters: %+v", stats)
	}
}

func TestServiceListPaginates(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newService(t, repo)

	for _, name := range []string{"one", "two", "three"} {
		if _, err := repo.Create(context.Background(), CreateUserDTO{
			Email:        name + "@example.com",
			Username:     name,
			PasswordHash: "hash",
		}); err != nil {
			t.Fatalf("seeding %s: %v", name, err)
		}
	}

	first, cursor, err := svc.List(context.Background(), pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != 2 || cursor == "" {
		t.Fatalf("expected 2 users and a cursor, got %d %q", len(first), cursor)
	}

	rest, next, err := svc.List(context.Background(), pagination.Params{Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatalf("list next page: %v", err)
	}
	if len(rest) != 1 || next != "" {
		t.Fatalf("expected final page of 1, got %d %q", len(rest), next)
	}
	if rest[0].ID == first[0].ID || rest[0].ID == first[1].ID {
		t.Fatal("pages overlap")
	}
}

func TestServiceVerify(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newService(t, repo)

	user, err := repo.Create(context.Background(), CreateUserDTO{
		Email:        "grad@example.com",
		Username:     "grad",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	verified, err := svc.Verify(context.Background(), user.ID, true)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verified.IsVerified || !verified.IsAlumni {
		t.Fatalf("expected verified alumni, got %+v", verified)
	}

	if _, err := svc.Verify(context.Background(), uuid.New(), false); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
