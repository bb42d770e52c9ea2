package controllers

import (
	"net/http"

	"github.com/Blazious/fun-learning-system/api/responses"
	"github.com/Blazious/fun-learning-system/api/validators"
	"github.com/Blazious/fun-learning-system/internal/articles"
	"github.com/Blazious/fun-learning-system/pkg/logger"
)

type createArticleRequest struct {
	CommunityID *string  `json:"community_id" validate:"omitempty,uuid"`
	Title       string   `json:"title" validate:"required,min=2,max=200"`
	Body        string   `json:"body" validate:"required,min=1"`
	Tags        []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=60"`
}

type updateArticleRequest struct {
	Title *string  `json:"title" validate:"omitempty,min=2,max=200"`
	Body  *string  `json:"body" validate:"omitempty,min=1"`
	Tags  []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=60"`
}

// CreateArticle drafts an article authored by the caller.
func CreateArticle(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createArticleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := articles.CreateInput{
			AuthorID: actor,
			Title:    body.Title,
			Body:     body.Body,
			Tags:     body.Tags,
		}
		if body.CommunityID != nil {
			communityID, err := parseUUIDString(*body.CommunityID, "community_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.CommunityID = &communityID
		}

		article, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, article)
	}
}

// GetArticle fetches one article.
func GetArticle(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articleID, err := pathUUID(r, "articleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		article, err := svc.Get(r.Context(), articleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}

// ListArticles pages articles with author, community, and published filters.
func ListArticles(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter articles.ListFilter
		filter.AuthorID, err = validators.ParseQueryUUID(r, "author_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.CommunityID, err = validators.ParseQueryUUID(r, "community_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.PublishedOnly, err = validators.ParseQueryBool(r, "published")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": cursor})
	}
}

// UpdateArticle applies author edits to a draft or published article.
func UpdateArticle(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		articleID, err := pathUUID(r, "articleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateArticleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.Update(r.Context(), articles.UpdateInput{
			ArticleID: articleID,
			ActorID:   actor,
			Title:     body.Title,
			Body:      body.Body,
			Tags:      body.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}

// PublishArticle flips the article live and credits the author once.
func PublishArticle(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		articleID, err := pathUUID(r, "articleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.Publish(r.Context(), articleID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}

// DeleteArticle removes an unpublished draft.
func DeleteArticle(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		articleID, err := pathUUID(r, "articleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), articleID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
