package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Blazious/fun-learning-system/api/responses"
	"github.com/Blazious/fun-learning-system/api/validators"
	"github.com/Blazious/fun-learning-system/internal/communities"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	pkgerrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/logger"
	"github.com/Blazious/fun-learning-system/pkg/pagination"
)

type createCommunityRequest struct {
	Slug        string   `json:"slug" validate:"required,min=2,max=60"`
	Name        string   `json:"name" validate:"required,min=2,max=120"`
	Description string   `json:"description" validate:"max=2000"`
	Type        string   `json:"type" validate:"required,oneof=institution subject professional interest"`
	Topics      []string `json:"topics" validate:"omitempty,max=20,dive,min=1,max=60"`
}

type updateCommunityRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Topics      []string `json:"topics" validate:"omitempty,max=20,dive,min=1,max=60"`
}

type createTopicRequest struct {
	Title string `json:"title" validate:"required,min=2,max=200"`
}

type moderateTopicRequest struct {
	Pinned *bool `json:"pinned"`
	Locked *bool `json:"locked"`
}

type createPostRequest struct {
	Type      string  `json:"type"`
	Body      string  `json:"body" validate:"required,min=1,max=10000"`
	ReplyToID *string `json:"reply_to_id" validate:"omitempty,uuid"`
}

func pageQuery(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// CreateCommunity opens a new community with the caller as its first admin.
func CreateCommunity(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createCommunityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		community, err := svc.Create(r.Context(), communities.CreateCommunityInput{
			Slug:        body.Slug,
			Name:        body.Name,
			Description: body.Description,
			Type:        enums.CommunityType(body.Type),
			Topics:      body.Topics,
			CreatorID:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, community)
	}
}

// ListCommunities returns active communities, paginated.
func ListCommunities(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": cursor})
	}
}

// GetCommunity resolves a community by id.
func GetCommunity(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID, err := pathUUID(r, "communityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		community, err := svc.GetByID(r.Context(), communityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, community)
	}
}

// GetCommunityBySlug resolves a community by its slug.
func GetCommunityBySlug(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug required"))
			return
		}
		community, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, community)
	}
}

// UpdateCommunity applies moderator edits to a community.
func UpdateCommunity(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		communityID, err := pathUUID(r, "communityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCommunityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		community, err := svc.Update(r.Context(), communities.UpdateCommunityInput{
			CommunityID: communityID,
			ActorID:     actor,
			Name:        body.Name,
			Description: body.Description,
			Topics:      body.Topics,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, community)
	}
}

// DeactivateCommunity retires a community. Admin members only.
func DeactivateCommunity(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		communityID, err := pathUUID(r, "communityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Deactivate(r.Context(), communityID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// JoinCommunity adds the caller as a member.
func JoinCommunity(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		communityID, err := pathUUID(r, "communityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := svc.Join(r.Context(), communityID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, member)
	}
}

// LeaveCommunity removes the caller's membership.
func LeaveCommunity(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		communityID, err := pathUUID(r, "communityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Leave(r.Context(), communityID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "left"})
	}
}

// ListMembers returns a community's membership roll.
func ListMembers(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID, err := pathUUID(r, "communityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		members, err := svc.Members(r.Context(), communityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": members})
	}
}

// CreateTopic opens a discussion thread. Members only.
func CreateTopic(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		communityID, err := pathUUID(r, "communityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createTopicRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		topic, err := svc.CreateTopic(r.Context(), communities.CreateTopicInput{
			CommunityID: communityID,
			Title:       body.Title,
			CreatedBy:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, topic)
	}
}

// ListTopics returns a community's threads, pinned first.
func ListTopics(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID, err := pathUUID(r, "communityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		topics, err := svc.Topics(r.Context(), communityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": topics})
	}
}

// ModerateTopic pins or locks a thread. Moderators and admins only.
func ModerateTopic(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		topicID, err := pathUUID(r, "topicId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body moderateTopicRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ModerateTopic(r.Context(), communities.ModerateTopicInput{
			TopicID: topicID,
			ActorID: actor,
			Pinned:  body.Pinned,
			Locked:  body.Locked,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// CreatePost adds a message to a topic and credits contribution points.
func CreatePost(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		topicID, err := pathUUID(r, "topicId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createPostRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := communities.CreatePostInput{
			TopicID:  topicID,
			AuthorID: actor,
			Type:     enums.PostType(body.Type),
			Body:     body.Body,
		}
		if body.ReplyToID != nil {
			replyTo, err := parseUUIDString(*body.ReplyToID, "reply_to_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.ReplyToID = &replyTo
		}

		post, err := svc.CreatePost(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, post)
	}
}

// ListPosts pages through a topic's messages oldest-first.
func ListPosts(svc communities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topicID, err := pathUUID(r, "topicId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		posts, cursor, err := svc.Posts(r.Context(), topicID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": posts, "cursor": cursor})
	}
}
