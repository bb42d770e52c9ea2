package mentorship

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	apperrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/logger"
)

type fakeRepo struct {
	Repository

	findMentorFn  func(ctx context.Context, userID uuid.UUID) (*models.MentorProfile, error)
	findMenteeFn  func(ctx context.Context, userID uuid.UUID) (*models.MenteeProfile, error)
	createRelFn   func(ctx context.Context, relationship *models.MentorshipRelationship) error
	findRelFn     func(ctx context.Context, id uuid.UUID) (*models.MentorshipRelationship, error)
	countActiveFn func(ctx context.Context, mentorID uuid.UUID) (int64, error)
	updateRelFn   func(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

func (f *fakeRepo) WithTx(_ *gorm.DB) Repository { return f }

func (f *fakeRepo) FindMentorProfile(ctx context.Context, userID uuid.UUID) (*models.MentorProfile, error) {
	if f.findMentorFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.findMentorFn(ctx, userID)
}

func (f *fakeRepo) FindMenteeProfile(ctx context.Context, userID uuid.UUID) (*models.MenteeProfile, error) {
	if f.findMenteeFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.findMenteeFn(ctx, userID)
}

func (f *fakeRepo) CreateRelationship(ctx context.Context, relationship *models.MentorshipRelationship) error {
	if f.createRelFn == nil {
		return errors.New("unexpected CreateRelationship call")
	}
	return f.createRelFn(ctx, relationship)
}

func (f *fakeRepo) FindRelationshipByID(ctx context.Context, id uuid.UUID) (*models.MentorshipRelationship, error) {
	if f.findRelFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.findRelFn(ctx, id)
}

func (f *fakeRepo) CountActiveByMentor(ctx context.Context, mentorID uuid.UUID) (int64, error) {
	if f.countActiveFn == nil {
		return 0, nil
	}
	return f.countActiveFn(ctx, mentorID)
}

func (f *fakeRepo) UpdateRelationship(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if f.updateRelFn == nil {
		return errors.New("unexpected UpdateRelationship call")
	}
	return f.updateRelFn(ctx, id, updates)
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(Options{
		Repo:   repo,
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

func TestRequestRequiresProfilesAndOpenMentor(t *testing.T) {
	mentorID := uuid.New()
	menteeID := uuid.New()

	// no mentor profile
	svc := newTestService(t, &fakeRepo{})
	_, err := svc.Request(context.Background(), RequestInput{MentorID: mentorID, MenteeID: menteeID})
	expectCode(t, err, apperrors.CodeNotFound)

	// closed mentor
	svc = newTestService(t, &fakeRepo{
		findMentorFn: func(_ context.Context, userID uuid.UUID) (*models.MentorProfile, error) {
			return &models.MentorProfile{UserID: userID, IsOpen: false}, nil
		},
	})
	_, err = svc.Request(context.Background(), RequestInput{MentorID: mentorID, MenteeID: menteeID})
	expectCode(t, err, apperrors.CodeStateConflict)

	// self-mentorship
	_, err = svc.Request(context.Background(), RequestInput{MentorID: mentorID, MenteeID: mentorID})
	expectCode(t, err, apperrors.CodeValidation)
}

func TestRequestCreatesPendingRelationship(t *testing.T) {
	mentorID := uuid.New()
	menteeID := uuid.New()
	repo := &fakeRepo{
		findMentorFn: func(_ context.Context, userID uuid.UUID) (*models.MentorProfile, error) {
			return &models.MentorProfile{UserID: userID, IsOpen: true, MaxMentees: 3}, nil
		},
		findMenteeFn: func(_ context.Context, userID uuid.UUID) (*models.MenteeProfile, error) {
			return &models.MenteeProfile{UserID: userID}, nil
		},
		createRelFn: func(_ context.Context, relationship *models.MentorshipRelationship) error {
			relationship.ID = uuid.New()
			return nil
		},
	}
	svc := newTestService(t, repo)

	relationship, err := svc.Request(context.Background(), RequestInput{
		MentorID: mentorID,
		MenteeID: menteeID,
		Message:  "help me with distributed systems",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if relationship.Status != enums.MentorshipStatusPending {
		t.Fatalf("expected pending, got %s", relationship.Status)
	}
	if relationship.Message == nil {
		t.Fatal("expected message to persist")
	}
}

func TestRequestDuplicateIsConflict(t *testing.T) {
	repo := &fakeRepo{
		findMentorFn: func(_ context.Context, userID uuid.UUID) (*models.MentorProfile, error) {
			return &models.MentorProfile{UserID: userID, IsOpen: true}, nil
		},
		findMenteeFn: func(_ context.Context, userID uuid.UUID) (*models.MenteeProfile, error) {
			return &models.MenteeProfile{UserID: userID}, nil
		},
		createRelFn: func(_ context.Context, _ *models.MentorshipRelationship) error {
			return ErrRelationshipExists
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Request(context.Background(), RequestInput{MentorID: uuid.New(), MenteeID: uuid.New()})
	expectCode(t, err, apperrors.CodeConflict)
	if !errors.Is(err, ErrRelationshipExists) {
		t.Fatalf("expected wrapped ErrRelationshipExists, got %v", err)
	}
}

func TestAcceptEnforcesCapacityAndActor(t *testing.T) {
	mentorID := uuid.New()
	relationship := &models.MentorshipRelationship{
		ID:       uuid.New(),
		MentorID: mentorID,
		MenteeID: uuid.New(),
		Status:   enums.MentorshipStatusPending,
	}

	repo := &fakeRepo{
		findRelFn: func(_ context.Context, _ uuid.UUID) (*models.MentorshipRelationship, error) {
			copied := *relationship
			return &copied, nil
		},
		findMentorFn: func(_ context.Context, userID uuid.UUID) (*models.MentorProfile, error) {
			return &models.MentorProfile{UserID: userID, IsOpen: true, MaxMentees: 1}, nil
		},
		countActiveFn: func(_ context.Context, _ uuid.UUID) (int64, error) {
			return 1, nil
		},
	}
	svc := newTestService(t, repo)

	// mentee cannot accept
	_, err := svc.Accept(context.Background(), relationship.ID, relationship.MenteeID)
	expectCode(t, err, apperrors.CodeForbidden)

	// at capacity
	_, err = svc.Accept(context.Background(), relationship.ID, mentorID)
	expectCode(t, err, apperrors.CodeStateConflict)
}

func TestAcceptActivatesRelationship(t *testing.T) {
	mentorID := uuid.New()
	relationship := &models.MentorshipRelationship{
		ID:       uuid.New(),
		MentorID: mentorID,
		MenteeID: uuid.New(),
		Status:   enums.MentorshipStatusPending,
	}

	repo := &fakeRepo{
		findRelFn: func(_ context.Context, _ uuid.UUID) (*models.MentorshipRelationship, error) {
			copied := *relationship
			return &copied, nil
		},
		findMentorFn: func(_ context.Context, userID uuid.UUID) (*models.MentorProfile, error) {
			return &models.MentorProfile{UserID: userID, IsOpen: true, MaxMentees: 3}, nil
		},
		updateRelFn: func(_ context.Context, _ uuid.UUID, updates map[string]any) error {
			relationship.Status = updates["status"].(enums.MentorshipStatus)
			if at, ok := updates["started_at"].(time.Time); ok {
				relationship.StartedAt = &at
			}
			return nil
		},
	}
	svc := newTestService(t, repo)

	accepted, err := svc.Accept(context.Background(), relationship.ID, mentorID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != enums.MentorshipStatusActive || accepted.StartedAt == nil {
		t.Fatalf("expected active relationship with start time, got %+v", accepted)
	}

	// active -> active is not legal
	_, err = svc.Accept(context.Background(), relationship.ID, mentorID)
	expectCode(t, err, apperrors.CodeStateConflict)
}

func TestCompleteRequiresParty(t *testing.T) {
	relationship := &models.MentorshipRelationship{
		ID:       uuid.New(),
		MentorID: uuid.New(),
		MenteeID: uuid.New(),
		Status:   enums.MentorshipStatusActive,
	}
	repo := &fakeRepo{
		findRelFn: func(_ context.Context, _ uuid.UUID) (*models.MentorshipRelationship, error) {
			return relationship, nil
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Complete(context.Background(), relationship.ID, uuid.New())
	expectCode(t, err, apperrors.CodeForbidden)
}

func TestBecomeMentorValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepo{})

	_, err := svc.BecomeMentor(context.Background(), MentorProfileInput{UserID: uuid.New(), MaxMentees: 0})
	expectCode(t, err, apperrors.CodeValidation)

	_, err = svc.BecomeMentor(context.Background(), MentorProfileInput{MaxMentees: 2})
	expectCode(t, err, apperrors.CodeValidation)
}
