package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Blazious/fun-learning-system/pkg/enums"
)

// uuidDefault stands in for the gen_random_uuid() column default the
// postgres migrations use; AutoMigrate would emit the postgres expression,
// which sqlite rejects, so the test schema is written by hand.
const uuidDefault = `(lower(hex(randomblob(4)) || '-' || hex(randomblob(2)) || '-4' || substr(hex(randomblob(2)), 2) || '-' || substr('89ab', 1 + (abs(random()) % 4), 1) || substr(hex(randomblob(2)), 2) || '-' || hex(randomblob(6))))`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	users := `CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  email TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'listener',
  is_active INTEGER NOT NULL DEFAULT 1,
  is_verified INTEGER NOT NULL DEFAULT 0,
  is_alumni INTEGER NOT NULL DEFAULT 0,
  last_login_at DATETIME,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	profiles := `CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  user_id TEXT NOT NULL UNIQUE,
  bio TEXT,
  avatar_url TEXT,
  interests TEXT,
  total_points INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(profiles).Error)
	return db
}

func TestCreateWithProfile(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "hash",
		FirstName:    "Alice",
		LastName:     "Reed",
		Role:         enums.PlatformRoleSpeaker,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)

	user2, err := repo.CreateWithProfile(ctx, CreateUserDTO{
		Email:        "bob@example.com",
		Username:     "bob",
		PasswordHash: "hash",
		FirstName:    "Bob",
		LastName:     "Stone",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PlatformRoleListener, user2.Role)

	profile, err := repo.FindProfile(ctx, user2.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, profile.TotalPoints)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	dto := CreateUserDTO{
		Email:        "dup@example.com",
		Username:     "first",
		PasswordHash: "hash",
		FirstName:    "First",
		LastName:     "User",
	}
	_, err := repo.Create(ctx, dto)
	require.NoError(t, err)

	dto.Username = "second"
	_, err = repo.Create(ctx, dto)
	require.Error(t, err)
}

func TestFindByEmailExcludesSoftDeleted(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:        "gone@example.com",
		Username:     "gone",
		PasswordHash: "hash",
		FirstName:    "Gone",
		LastName:     "Soon",
	})
	require.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, user.ID, time.Now().UTC()))

	_, err = repo.FindByEmail(ctx, "gone@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// historical lookups by ID still resolve for ledger attribution
	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	err = repo.SoftDelete(ctx, user.ID, time.Now().UTC())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user, err := repo.CreateWithProfile(ctx, CreateUserDTO{
		Email:        "profile@example.com",
		Username:     "profiled",
		PasswordHash: "hash",
		FirstName:    "Pro",
		LastName:     "File",
	})
	require.NoError(t, err)

	bio := "long-time community host"
	require.NoError(t, repo.UpdateProfile(ctx, user.ID, UpdateProfileDTO{
		Bio:       &bio,
		Interests: []string{"go", "distributed-systems"},
	}))

	profile, err := repo.FindProfile(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.Bio)
	assert.Equal(t, bio, *profile.Bio)
	assert.Len(t, profile.Interests, 2)

	err = repo.UpdateProfile(ctx, uuid.New(), UpdateProfileDTO{Bio: &bio})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateLastLogin(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:        "login@example.com",
		Username:     "login",
		PasswordHash: "hash",
		FirstName:    "Log",
		LastName:     "In",
	})
	require.NoError(t, err)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, found.LastLoginAt.Equal(at))
}
