package articles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/internal/gamification"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	apperrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/logger"
	"github.com/Blazious/fun-learning-system/pkg/pagination"
)

// pointRecorder is the slice of the gamification service publishing needs.
type pointRecorder interface {
	RecordEvent(ctx context.Context, input gamification.RecordEventInput) (*models.PointEvent, error)
}

// Service exposes article drafting, publishing, and listing.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Article, error)
	Get(ctx context.Context, articleID uuid.UUID) (*models.Article, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Article, string, error)
	Update(ctx context.Context, input UpdateInput) (*models.Article, error)
	Publish(ctx context.Context, articleID, actorID uuid.UUID) (*models.Article, error)
	Delete(ctx context.Context, articleID, actorID uuid.UUID) error
}

// CreateInput carries the fields for a new draft article.
type CreateInput struct {
	AuthorID    uuid.UUID
	CommunityID *uuid.UUID
	Title       string
	Body        string
	Tags        []string
}

// UpdateInput carries the mutable article fields. Nil pointers leave the
// field unchanged.
type UpdateInput struct {
	ArticleID uuid.UUID
	ActorID   uuid.UUID
	Title     *string
	Body      *string
	Tags      []string
}

// Options wires the articles service dependencies.
type Options struct {
	Repo   Repository
	Points pointRecorder
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo   Repository
	points pointRecorder
	logg   *logger.Logger
	now    func() time.Time
}

// NewService validates the options and returns a ready articles service.
func NewService(opts Options) (Service, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   opts.Repo,
		points: opts.Points,
		logg:   opts.Logger,
		now:    now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Article, error) {
	if input.AuthorID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "author id is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "body is required")
	}

	article := &models.Article{
		AuthorID:    input.AuthorID,
		CommunityID: input.CommunityID,
		Title:       strings.TrimSpace(input.Title),
		Body:        input.Body,
		Tags:        pq.StringArray(input.Tags),
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "creating article")
	}
	return article, nil
}

func (s *service) Get(ctx context.Context, articleID uuid.UUID) (*models.Article, error) {
	article, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "article not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading article")
	}
	return article, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Article, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	articles, err := s.repo.List(ctx, filter, cursor, limit+1)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeDependency, err, "listing articles")
	}

	nextCursor := ""
	if len(articles) > limit {
		articles = articles[:limit]
		last := articles[len(articles)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return articles, nextCursor, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Article, error) {
	article, err := s.Get(ctx, input.ArticleID)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != input.ActorID {
		return nil, apperrors.New(apperrors.CodeForbidden, "only the author can edit an article")
	}

	updates := map[string]any{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "title cannot be blank")
		}
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Body != nil {
		if strings.TrimSpace(*input.Body) == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "body cannot be blank")
		}
		updates["body"] = *input.Body
	}
	if input.Tags != nil {
		updates["tags"] = pq.StringArray(input.Tags)
	}
	if len(updates) == 0 {
		return article, nil
	}

	if err := s.repo.Update(ctx, input.ArticleID, updates); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "updating article")
	}
	return s.Get(ctx, input.ArticleID)
}

// Publish flips an article live and credits the author once. The published
// state gates the credit: a second publish attempt is a state conflict, so
// the ledger never sees a repeat for the same article.
func (s *service) Publish(ctx context.Context, articleID, actorID uuid.UUID) (*models.Article, error) {
	article, err := s.Get(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != actorID {
		return nil, apperrors.New(apperrors.CodeForbidden, "only the author can publish an article")
	}
	if article.IsPublished {
		return nil, apperrors.New(apperrors.CodeStateConflict, "article is already published")
	}

	publishedAt := s.now().UTC()
	if err := s.repo.Update(ctx, articleID, map[string]any{
		"is_published": true,
		"published_at": publishedAt,
	}); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "publishing article")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"article_id": articleID.String(),
		"user_id":    actorID.String(),
	})
	s.logg.Info(logCtx, "article published")

	s.creditPublication(ctx, article)
	return s.Get(ctx, articleID)
}

func (s *service) Delete(ctx context.Context, articleID, actorID uuid.UUID) error {
	article, err := s.Get(ctx, articleID)
	if err != nil {
		return err
	}
	if article.AuthorID != actorID {
		return apperrors.New(apperrors.CodeForbidden, "only the author can delete an article")
	}
	if article.IsPublished {
		return apperrors.New(apperrors.CodeStateConflict, "published articles cannot be deleted")
	}

	if err := s.repo.Delete(ctx, articleID); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "deleting article")
	}
	return nil
}

// creditPublication is best effort; a failed points write never reverts the
// publish itself.
func (s *service) creditPublication(ctx context.Context, article *models.Article) {
	if s.points == nil {
		return
	}
	articleID := article.ID
	_, err := s.points.RecordEvent(ctx, gamification.RecordEventInput{
		UserID:      article.AuthorID,
		Kind:        enums.PointEventKindArticlePublished,
		SourceID:    &articleID,
		Description: article.Title,
	})
	if err != nil {
		logCtx := s.logg.WithUserID(ctx, article.AuthorID.String())
		s.logg.Error(logCtx, "crediting article publication failed", err)
	}
}
