package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/Blazious/fun-learning-system/internal/communities"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
)

type fakeCommunities struct {
	communities.Service

	createFn func(ctx context.Context, input communities.CreateCommunityInput) (*models.Community, error)
}

func (f *fakeCommunities) Create(ctx context.Context, input communities.CreateCommunityInput) (*models.Community, error) {
	return f.createFn(ctx, input)
}

func TestCreateCommunityMapsRequest(t *testing.T) {
	actor := uuid.New()
	var captured communities.CreateCommunityInput
	svc := &fakeCommunities{
		createFn: func(_ context.Context, input communities.CreateCommunityInput) (*models.Community, error) {
			captured = input
			return &models.Community{ID: uuid.New(), Slug: input.Slug, Name: input.Name, Type: input.Type}, nil
		},
	}

	body := `{"slug":"go-study","name":"Go Study Group","description":"weekly readings","type":"subject","topics":["go"]}`
	req := authedRequest(http.MethodPost, "/communities", body, actor)
	resp := httptest.NewRecorder()
	CreateCommunity(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.CreatorID != actor {
		t.Fatalf("expected creator %s, got %s", actor, captured.CreatorID)
	}
	if captured.Type != enums.CommunityTypeSubject {
		t.Fatalf("expected subject type, got %s", captured.Type)
	}
	if captured.Slug != "go-study" || len(captured.Topics) != 1 {
		t.Fatalf("unexpected input mapping: %+v", captured)
	}
}

func TestCreateCommunityRejectsUnknownType(t *testing.T) {
	svc := &fakeCommunities{
		createFn: func(_ context.Context, _ communities.CreateCommunityInput) (*models.Community, error) {
			t.Fatal("service must not be called for an invalid type")
			return nil, nil
		},
	}

	body := `{"slug":"go-study","name":"Go Study Group","type":"guild"}`
	req := authedRequest(http.MethodPost, "/communities", body, uuid.New())
	resp := httptest.NewRecorder()
	CreateCommunity(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}
