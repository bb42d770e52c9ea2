package communities

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
)

// uuidDefault stands in for the gen_random_uuid() column default the
// postgres migrations use; AutoMigrate would emit the postgres expression,
// which sqlite rejects, so the test schema is written by hand.
const uuidDefault = `(lower(hex(randomblob(4)) || '-' || hex(randomblob(2)) || '-4' || substr(hex(randomblob(2)), 2) || '-' || substr('89ab', 1 + (abs(random()) % 4), 1) || substr(hex(randomblob(2)), 2) || '-' || hex(randomblob(6))))`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS communities (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  slug TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  type TEXT NOT NULL,
  topics TEXT,
  created_by TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS community_members (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  community_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'member',
  joined_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_community_members_pair
  ON community_members (community_id, user_id);`,
		`CREATE TABLE IF NOT EXISTS community_topics (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  community_id TEXT NOT NULL,
  title TEXT NOT NULL,
  created_by TEXT NOT NULL,
  is_pinned INTEGER NOT NULL DEFAULT 0,
  is_locked INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
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
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("creating schema: %v", err)
		}
	}
	return conn
}

func seedCommunity(t *testing.T, conn *gorm.DB, slug string) *models.Community {
	t.Helper()
	community := &models.Community{
		ID:          uuid.New(),
		Slug:        slug,
		Name:        slug,
		Description: "test community",
		Type:        enums.CommunityTypeInterest,
		CreatedBy:   uuid.New(),
		IsActive:    true,
	}
	if err := conn.Create(community).Error; err != nil {
		t.Fatalf("seeding community: %v", err)
	}
	return community
}

func TestAddMemberRejectsDuplicatePair(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	community := seedCommunity(t, conn, "golang")
	userID := uuid.New()

	if err := repo.AddMember(ctx, &models.CommunityMember{
		ID:          uuid.New(),
		CommunityID: community.ID,
		UserID:      userID,
		Role:        enums.MemberRoleMember,
	}); err != nil {
		t.Fatalf("first join: %v", err)
	}

	err := repo.AddMember(ctx, &models.CommunityMember{
		ID:          uuid.New(),
		CommunityID: community.ID,
		UserID:      userID,
		Role:        enums.MemberRoleMember,
	})
	if !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}

	// same user may join a different community
	other := seedCommunity(t, conn, "databases")
	if err := repo.AddMember(ctx, &models.CommunityMember{
		ID:          uuid.New(),
		CommunityID: other.ID,
		UserID:      userID,
		Role:        enums.MemberRoleMember,
	}); err != nil {
		t.Fatalf("joining second community: %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	community := seedCommunity(t, conn, "golang")
	userID := uuid.New()

	if err := repo.RemoveMember(ctx, community.ID, userID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for missing member, got %v", err)
	}

	if err := repo.AddMember(ctx, &models.CommunityMember{
		ID:          uuid.New(),
		CommunityID: community.ID,
		UserID:      userID,
	}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := repo.RemoveMember(ctx, community.ID, userID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := repo.FindMember(ctx, community.ID, userID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected membership to be gone, got %v", err)
	}
}

func TestListCommunitiesExcludesInactive(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	active := seedCommunity(t, conn, "active")
	inactive := seedCommunity(t, conn, "inactive")
	if err := repo.UpdateCommunity(ctx, inactive.ID, map[string]any{"is_active": false}); err != nil {
		t.Fatalf("deactivating: %v", err)
	}

	listed, err := repo.ListCommunities(ctx, nil, 10)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != active.ID {
		t.Fatalf("expected only the active community, got %d rows", len(listed))
	}
}

func TestListTopicsPinnedFirst(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	community := seedCommunity(t, conn, "golang")

	plain := &models.CommunityTopic{ID: uuid.New(), CommunityID: community.ID, Title: "plain", CreatedBy: uuid.New()}
	pinned := &models.CommunityTopic{ID: uuid.New(), CommunityID: community.ID, Title: "pinned", CreatedBy: uuid.New(), IsPinned: true}
	for _, topic := range []*models.CommunityTopic{plain, pinned} {
		if err := repo.CreateTopic(ctx, topic); err != nil {
			t.Fatalf("creating topic: %v", err)
		}
	}

	topics, err := repo.ListTopics(ctx, community.ID)
	if err != nil {
		t.Fatalf("listing topics: %v", err)
	}
	if len(topics) != 2 || !topics[0].IsPinned {
		t.Fatalf("expected pinned topic first, got %+v", topics)
	}
}

func TestCountMembersByRole(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	community := seedCommunity(t, conn, "golang")
	for _, role := range []enums.MemberRole{enums.MemberRoleAdmin, enums.MemberRoleMember, enums.MemberRoleMember} {
		if err := repo.AddMember(ctx, &models.CommunityMember{
			ID:          uuid.New(),
			CommunityID: community.ID,
			UserID:      uuid.New(),
			Role:        role,
		}); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	admins, err := repo.CountMembersByRole(ctx, community.ID, enums.MemberRoleAdmin)
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if admins != 1 {
		t.Fatalf("expected one admin, got %d", admins)
	}
}
