package articles

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/internal/gamification"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	apperrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/logger"
)

type fakeRepo struct {
	Repository

	createFn func(ctx context.Context, article *models.Article) error
	findFn   func(ctx context.Context, id uuid.UUID) (*models.Article, error)
	updateFn func(ctx context.Context, id uuid.UUID, updates map[string]any) error
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeRepo) WithTx(_ *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, article *models.Article) error {
	if f.createFn == nil {
		return errors.New("unexpected Create call")
	}
	return f.createFn(ctx, article)
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	if f.findFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.findFn(ctx, id)
}

func (f *fakeRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if f.updateFn == nil {
		return errors.New("unexpected Update call")
	}
	return f.updateFn(ctx, id, updates)
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteFn == nil {
		return errors.New("unexpected Delete call")
	}
	return f.deleteFn(ctx, id)
}

type fakeRecorder struct {
	recorded []gamification.RecordEventInput
	err      error
}

func (f *fakeRecorder) RecordEvent(_ context.Context, input gamification.RecordEventInput) (*models.PointEvent, error) {
	f.recorded = append(f.recorded, input)
	if f.err != nil {
		return nil, f.err
	}
	return &models.PointEvent{UserID: input.UserID, Kind: input.Kind}, nil
}

func newTestService(t *testing.T, repo Repository, recorder pointRecorder) Service {
	t.Helper()
	svc, err := NewService(Options{
		Repo:   repo,
		Points: recorder,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func expectCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	appErr := apperrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s", code, appErr.Code())
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, nil)

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"missing author", CreateInput{Title: "t", Body: "b"}},
		{"missing title", CreateInput{AuthorID: uuid.New(), Body: "b"}},
		{"missing body", CreateInput{AuthorID: uuid.New(), Title: "t"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			expectCode(t, err, apperrors.CodeValidation)
		})
	}
}

func TestPublishCreditsAuthorOnce(t *testing.T) {
	authorID := uuid.New()
	article := &models.Article{
		ID:       uuid.New(),
		AuthorID: authorID,
		Title:    "profiling go services",
		Body:     "pprof first",
	}

	repo := &fakeRepo{
		findFn: func(_ context.Context, _ uuid.UUID) (*models.Article, error) {
			copied := *article
			return &copied, nil
		},
		updateFn: func(_ context.Context, _ uuid.UUID, updates map[string]any) error {
			article.IsPublished = updates["is_published"].(bool)
			at := updates["published_at"].(time.Time)
			article.PublishedAt = &at
			return nil
		},
	}
	recorder := &fakeRecorder{}
	svc := newTestService(t, repo, recorder)

	published, err := svc.Publish(context.Background(), article.ID, authorID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !published.IsPublished || published.PublishedAt == nil {
		t.Fatalf("expected published article, got %+v", published)
	}

	if len(recorder.recorded) != 1 {
		t.Fatalf("expected one credit, got %d", len(recorder.recorded))
	}
	event := recorder.recorded[0]
	if event.Kind != enums.PointEventKindArticlePublished || event.UserID != authorID {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.SourceID == nil || *event.SourceID != article.ID {
		t.Fatal("expected event sourced from the article id")
	}

	// second publish is a state conflict and must not credit again
	_, err = svc.Publish(context.Background(), article.ID, authorID)
	expectCode(t, err, apperrors.CodeStateConflict)
	if len(recorder.recorded) != 1 {
		t.Fatalf("expected no second credit, got %d", len(recorder.recorded))
	}
}

func TestPublishRequiresAuthor(t *testing.T) {
	article := &models.Article{ID: uuid.New(), AuthorID: uuid.New()}
	repo := &fakeRepo{
		findFn: func(_ context.Context, _ uuid.UUID) (*models.Article, error) {
			return article, nil
		},
	}
	svc := newTestService(t, repo, nil)

	_, err := svc.Publish(context.Background(), article.ID, uuid.New())
	expectCode(t, err, apperrors.CodeForbidden)
}

func TestPublishPointsFailureDoesNotFailPublish(t *testing.T) {
	authorID := uuid.New()
	article := &models.Article{ID: uuid.New(), AuthorID: authorID}
	repo := &fakeRepo{
		findFn: func(_ context.Context, _ uuid.UUID) (*models.Article, error) {
			copied := *article
			return &copied, nil
		},
		updateFn: func(_ context.Context, _ uuid.UUID, updates map[string]any) error {
			article.IsPublished = updates["is_published"].(bool)
			return nil
		},
	}
	recorder := &fakeRecorder{err: errors.New("points backend down")}
	svc := newTestService(t, repo, recorder)

	if _, err := svc.Publish(context.Background(), article.ID, authorID); err != nil {
		t.Fatalf("expected publish to succeed despite points failure, got %v", err)
	}
}

func TestDeleteRules(t *testing.T) {
	authorID := uuid.New()
	article := &models.Article{ID: uuid.New(), AuthorID: authorID, IsPublished: true}
	repo := &fakeRepo{
		findFn: func(_ context.Context, _ uuid.UUID) (*models.Article, error) {
			return article, nil
		},
	}
	svc := newTestService(t, repo, nil)

	err := svc.Delete(context.Background(), article.ID, authorID)
	expectCode(t, err, apperrors.CodeStateConflict)

	err = svc.Delete(context.Background(), article.ID, uuid.New())
	expectCode(t, err, apperrors.CodeForbidden)
}

func TestUpdateOnlyAuthor(t *testing.T) {
	article := &models.Article{ID: uuid.New(), AuthorID: uuid.New(), Title: "old"}
	repo := &fakeRepo{
		findFn: func(_ context.Context, _ uuid.UUID) (*models.Article, error) {
			return article, nil
		},
	}
	svc := newTestService(t, repo, nil)

	title := "new title"
	_, err := svc.Update(context.Background(), UpdateInput{
		ArticleID: article.ID,
		ActorID:   uuid.New(),
		Title:     &title,
	})
	expectCode(t, err, apperrors.CodeForbidden)
}
