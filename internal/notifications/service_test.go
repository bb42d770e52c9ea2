package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	pkgerrors "github.com/Blazious/fun-learning-system/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}

	// hand-written schema: AutoMigrate would emit the postgres-only
	// gen_random_uuid() default, which sqlite rejects
	ddl := `CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4)) || '-' || hex(randomblob(2)) || '-4' || substr(hex(randomblob(2)), 2) || '-' || substr('89ab', 1 + (abs(random()) % 4), 1) || substr(hex(randomblob(2)), 2) || '-' || hex(randomblob(6)))),
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  payload TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	if err := conn.Exec(ddl).Error; err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedNotification(t *testing.T, svc Service, userID uuid.UUID, title string) *models.Notification {
	t.Helper()
	notification, err := svc.Create(context.Background(), CreateInput{
		UserID: userID,
		Type:   enums.NotificationTypeBadgeEarned,
		Title:  title,
		Body:   "body",
	})
	if err != nil {
		t.Fatalf("seeding notification: %v", err)
	}
	return notification
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t, newTestDB(t))

	_, err := svc.Create(context.Background(), CreateInput{
		Type:  enums.NotificationTypeBadgeEarned,
		Title: "t",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing user, got %v", err)
	}

	_, err = svc.Create(context.Background(), CreateInput{
		UserID: uuid.New(),
		Type:   "carrier_pigeon",
		Title:  "t",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad type, got %v", err)
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	userID := uuid.New()

	for i := 0; i < 5; i++ {
		n := seedNotification(t, svc, userID, fmt.Sprintf("n-%d", i))
		// space out created_at so ordering is deterministic
		if err := conn.Model(&models.Notification{}).
			Where("id = ?", n.ID).
			UpdateColumn("created_at", time.Now().Add(time.Duration(i)*time.Second)).Error; err != nil {
			t.Fatalf("adjusting timestamps: %v", err)
		}
	}

	first, err := svc.List(context.Background(), ListParams{UserID: userID, Limit: 3})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Items) != 3 || first.Cursor == "" {
		t.Fatalf("expected full first page with cursor, got %d items", len(first.Items))
	}
	if first.Items[0].Title != "n-4" {
		t.Fatalf("expected newest first, got %s", first.Items[0].Title)
	}

	second, err := svc.List(context.Background(), ListParams{UserID: userID, Limit: 3, Cursor: first.Cursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Items) != 2 || second.Cursor != "" {
		t.Fatalf("expected final page of two, got %d items cursor=%q", len(second.Items), second.Cursor)
	}
}

func TestMarkReadAndUnreadFilter(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	userID := uuid.New()

	first := seedNotification(t, svc, userID, "first")
	seedNotification(t, svc, userID, "second")

	if err := svc.MarkRead(context.Background(), userID, first.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	unread, err := svc.List(context.Background(), ListParams{UserID: userID, UnreadOnly: true})
	if err != nil {
		t.Fatalf("listing unread: %v", err)
	}
	if len(unread.Items) != 1 || unread.Items[0].Title != "second" {
		t.Fatalf("expected one unread notification, got %d", len(unread.Items))
	}

	// marking an already-read notification is not an error
	if err := svc.MarkRead(context.Background(), userID, first.ID); err != nil {
		t.Fatalf("second mark read: %v", err)
	}

	// another user's notification is invisible
	err = svc.MarkRead(context.Background(), uuid.New(), first.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign notification, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	userID := uuid.New()

	seedNotification(t, svc, userID, "a")
	seedNotification(t, svc, userID, "b")
	seedNotification(t, svc, uuid.New(), "other-user")

	count, err := svc.MarkAllRead(context.Background(), userID)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected two notifications marked, got %d", count)
	}

	unread, err := svc.List(context.Background(), ListParams{UserID: userID, UnreadOnly: true})
	if err != nil {
		t.Fatalf("listing unread: %v", err)
	}
	if len(unread.Items) != 0 {
		t.Fatalf("expected no unread notifications, got %d", len(unread.Items))
	}
}
