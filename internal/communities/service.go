package communities

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/internal/gamification"
	"github.com/Blazious/fun-learning-system/pkg/db"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	apperrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/logger"
	"github.com/Blazious/fun-learning-system/pkg/pagination"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// pointRecorder is the slice of the gamification service community posts need.
type pointRecorder interface {
	RecordEvent(ctx context.Context, input gamification.RecordEventInput) (*models.PointEvent, error)
}

// Service exposes community, membership, topic, and post operations.
type Service interface {
	Create(ctx context.Context, input CreateCommunityInput) (*models.Community, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error)
	GetBySlug(ctx context.Context, slug string) (*models.Community, error)
	List(ctx context.Context, params pagination.Params) ([]models.Community, string, error)
	Update(ctx context.Context, input UpdateCommunityInput) (*models.Community, error)
	Deactivate(ctx context.Context, communityID, actorID uuid.UUID) error

	Join(ctx context.Context, communityID, userID uuid.UUID) (*models.CommunityMember, error)
	Leave(ctx context.Context, communityID, userID uuid.UUID) error
	Members(ctx context.Context, communityID uuid.UUID) ([]models.CommunityMember, error)

	CreateTopic(ctx context.Context, input CreateTopicInput) (*models.CommunityTopic, error)
	Topics(ctx context.Context, communityID uuid.UUID) ([]models.CommunityTopic, error)
	ModerateTopic(ctx context.Context, input ModerateTopicInput) error

	CreatePost(ctx context.Context, input CreatePostInput) (*models.CommunityPost, error)
	Posts(ctx context.Context, topicID uuid.UUID, params pagination.Params) ([]models.CommunityPost, string, error)
}

// CreateCommunityInput carries the fields for a new community.
type CreateCommunityInput struct {
	Slug        string
	Name        string
	Description string
	Type        enums.CommunityType
	Topics      []string
	CreatorID   uuid.UUID
}

// UpdateCommunityInput carries the mutable community fields. Nil pointers
// leave the field unchanged.
type UpdateCommunityInput struct {
	CommunityID uuid.UUID
	ActorID     uuid.UUID
	Name        *string
	Description *string
	Topics      []string
}

// CreateTopicInput opens a discussion thread.
type CreateTopicInput struct {
	CommunityID uuid.UUID
	Title       string
	CreatedBy   uuid.UUID
}

// ModerateTopicInput pins or locks a thread.
type ModerateTopicInput struct {
	TopicID uuid.UUID
	ActorID uuid.UUID
	Pinned  *bool
	Locked  *bool
}

// CreatePostInput adds a message to a topic.
type CreatePostInput struct {
	TopicID   uuid.UUID
	AuthorID  uuid.UUID
	Type      enums.PostType
	Body      string
	ReplyToID *uuid.UUID
}

// Options wires the communities service dependencies.
type Options struct {
	Repo   Repository
	Tx     gamification.TxRunner
	Points pointRecorder
	Logger *logger.Logger
}

type service struct {
	repo   Repository
	tx     gamification.TxRunner
	points pointRecorder
	logg   *logger.Logger
}

// NewService validates the options and returns a ready communities service.
func NewService(opts Options) (Service, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if opts.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo:   opts.Repo,
		tx:     opts.Tx,
		points: opts.Points,
		logg:   opts.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateCommunityInput) (*models.Community, error) {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, apperrors.New(apperrors.CodeValidation, "slug must be lowercase letters, digits, and hyphens")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "name is required")
	}
	if !input.Type.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid community type")
	}
	if input.CreatorID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "creator id is required")
	}

	community := &models.Community{
		Slug:        slug,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Type:        input.Type,
		Topics:      pq.StringArray(input.Topics),
		CreatedBy:   input.CreatorID,
		IsActive:    true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CreateCommunity(ctx, community); err != nil {
			return err
		}
		// the creator joins as admin so the community is never orphaned
		return txRepo.AddMember(ctx, &models.CommunityMember{
			CommunityID: community.ID,
			UserID:      input.CreatorID,
			Role:        enums.MemberRoleAdmin,
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, apperrors.Wrap(apperrors.CodeConflict, err, "community slug already exists")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "creating community")
	}

	logCtx := s.logg.WithCommunityID(ctx, community.ID.String())
	s.logg.Info(logCtx, "community created")
	return community, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	community, err := s.repo.FindCommunityByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "community not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading community")
	}
	return community, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Community, error) {
	community, err := s.repo.FindCommunityBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "community not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading community")
	}
	return community, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Community, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	communities, err := s.repo.ListCommunities(ctx, cursor, limit+1)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeDependency, err, "listing communities")
	}

	nextCursor := ""
	if len(communities) > limit {
		communities = communities[:limit]
		last := communities[len(communities)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return communities, nextCursor, nil
}

func (s *service) Update(ctx context.Context, input UpdateCommunityInput) (*models.Community, error) {
	if err := s.requireRole(ctx, input.CommunityID, input.ActorID, enums.MemberRoleModerator, enums.MemberRoleAdmin); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "name cannot be blank")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Topics != nil {
		updates["topics"] = pq.StringArray(input.Topics)
	}
	if len(updates) == 0 {
		return s.GetByID(ctx, input.CommunityID)
	}

	if err := s.repo.UpdateCommunity(ctx, input.CommunityID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "community not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "updating community")
	}
	return s.GetByID(ctx, input.CommunityID)
}

func (s *service) Deactivate(ctx context.Context, communityID, actorID uuid.UUID) error {
	if err := s.requireRole(ctx, communityID, actorID, enums.MemberRoleAdmin); err != nil {
		return err
	}
	if err := s.repo.UpdateCommunity(ctx, communityID, map[string]any{"is_active": false}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "community not found")
		}
		return apperrors.Wrap(apperrors.CodeDependency, err, "deactivating community")
	}

	logCtx := s.logg.WithCommunityID(ctx, communityID.String())
	s.logg.Info(logCtx, "community deactivated")
	return nil
}

func (s *service) Join(ctx context.Context, communityID, userID uuid.UUID) (*models.CommunityMember, error) {
	community, err := s.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if !community.IsActive {
		return nil, apperrors.New(apperrors.CodeStateConflict, "community is not active")
	}

	member := &models.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        enums.MemberRoleMember,
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		if errors.Is(err, ErrAlreadyMember) {
			return nil, apperrors.Wrap(apperrors.CodeConflict, err, "already a member")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "joining community")
	}
	return member, nil
}

func (s *service) Leave(ctx context.Context, communityID, userID uuid.UUID) error {
	member, err := s.repo.FindMember(ctx, communityID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "membership not found")
		}
		return apperrors.Wrap(apperrors.CodeDependency, err, "loading membership")
	}

	if member.Role == enums.MemberRoleAdmin {
		admins, err := s.repo.CountMembersByRole(ctx, communityID, enums.MemberRoleAdmin)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "counting admins")
		}
		if admins <= 1 {
			return apperrors.New(apperrors.CodeStateConflict, "cannot leave as the only admin")
		}
	}

	if err := s.repo.RemoveMember(ctx, communityID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "membership not found")
		}
		return apperrors.Wrap(apperrors.CodeDependency, err, "leaving community")
	}
	return nil
}

func (s *service) Members(ctx context.Context, communityID uuid.UUID) ([]models.CommunityMember, error) {
	members, err := s.repo.ListMembers(ctx, communityID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing members")
	}
	return members, nil
}

func (s *service) CreateTopic(ctx context.Context, input CreateTopicInput) (*models.CommunityTopic, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "title is required")
	}
	if err := s.requireMember(ctx, input.CommunityID, input.CreatedBy); err != nil {
		return nil, err
	}

	topic := &models.CommunityTopic{
		CommunityID: input.CommunityID,
		Title:       strings.TrimSpace(input.Title),
		CreatedBy:   input.CreatedBy,
	}
	if err := s.repo.CreateTopic(ctx, topic); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "creating topic")
	}
	return topic, nil
}

func (s *service) Topics(ctx context.Context, communityID uuid.UUID) ([]models.CommunityTopic, error) {
	topics, err := s.repo.ListTopics(ctx, communityID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing topics")
	}
	return topics, nil
}

func (s *service) ModerateTopic(ctx context.Context, input ModerateTopicInput) error {
	topic, err := s.repo.FindTopicByID(ctx, input.TopicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "topic not found")
		}
		return apperrors.Wrap(apperrors.CodeDependency, err, "loading topic")
	}

	if err := s.requireRole(ctx, topic.CommunityID, input.ActorID, enums.MemberRoleModerator, enums.MemberRoleAdmin); err != nil {
		return err
	}

	updates := map[string]any{}
	if input.Pinned != nil {
		updates["is_pinned"] = *input.Pinned
	}
	if input.Locked != nil {
		updates["is_locked"] = *input.Locked
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.repo.UpdateTopic(ctx, input.TopicID, updates); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "moderating topic")
	}
	return nil
}

func (s *service) CreatePost(ctx context.Context, input CreatePostInput) (*models.CommunityPost, error) {
	if strings.TrimSpace(input.Body) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "post body is required")
	}
	postType := input.Type
	if postType == "" {
		postType = enums.PostTypeDiscussion
	}
	if !postType.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid post type")
	}

	topic, err := s.repo.FindTopicByID(ctx, input.TopicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "topic not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading topic")
	}
	if topic.IsLocked {
		return nil, apperrors.New(apperrors.CodeStateConflict, "topic is locked")
	}

	if err := s.requireMember(ctx, topic.CommunityID, input.AuthorID); err != nil {
		return nil, err
	}

	if input.ReplyToID != nil {
		parent, err := s.repo.FindPostByID(ctx, *input.ReplyToID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.New(apperrors.CodeValidation, "reply target not found")
			}
			return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading reply target")
		}
		if parent.TopicID != input.TopicID {
			return nil, apperrors.New(apperrors.CodeValidation, "reply target belongs to a different topic")
		}
	}

	post := &models.CommunityPost{
		TopicID:   input.TopicID,
		AuthorID:  input.AuthorID,
		Type:      postType,
		Body:      input.Body,
		ReplyToID: input.ReplyToID,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "creating post")
	}

	s.creditContribution(ctx, post)
	return post, nil
}

func (s *service) Posts(ctx context.Context, topicID uuid.UUID, params pagination.Params) ([]models.CommunityPost, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	posts, err := s.repo.ListPostsByTopic(ctx, topicID, cursor, limit+1)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeDependency, err, "listing posts")
	}

	nextCursor := ""
	if len(posts) > limit {
		posts = posts[:limit]
		last := posts[len(posts)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return posts, nextCursor, nil
}

// creditContribution is best effort; a failed points write never rolls back
// the post itself.
func (s *service) creditContribution(ctx context.Context, post *models.CommunityPost) {
	if s.points == nil {
		return
	}
	postID := post.ID
	_, err := s.points.RecordEvent(ctx, gamification.RecordEventInput{
		UserID:      post.AuthorID,
		Kind:        enums.PointEventKindCommunityContribution,
		SourceID:    &postID,
		Description: "community post",
	})
	if err != nil {
		logCtx := s.logg.WithUserID(ctx, post.AuthorID.String())
		s.logg.Error(logCtx, "crediting community contribution failed", err)
	}
}

func (s *service) requireMember(ctx context.Context, communityID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if _, err := s.repo.FindMember(ctx, communityID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeForbidden, "community membership required")
		}
		return apperrors.Wrap(apperrors.CodeDependency, err, "loading membership")
	}
	return nil
}

func (s *service) requireRole(ctx context.Context, communityID, userID uuid.UUID, roles ...enums.MemberRole) error {
	if userID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	member, err := s.repo.FindMember(ctx, communityID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeForbidden, "community membership required")
		}
		return apperrors.Wrap(apperrors.CodeDependency, err, "loading membership")
	}
	for _, role := range roles {
		if member.Role == role {
			return nil
		}
	}
	return apperrors.New(apperrors.CodeForbidden, "insufficient community role")
}
