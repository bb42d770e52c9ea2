package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Blazious/fun-learning-system/api/responses"
	"github.com/Blazious/fun-learning-system/api/validators"
	"github.com/Blazious/fun-learning-system/internal/mentorship"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/logger"
)

type mentorProfileRequest struct {
	Expertise  []string `json:"expertise" validate:"omitempty,max=20,dive,min=1,max=60"`
	MaxMentees int      `json:"max_mentees" validate:"required,min=1,max=50"`
	IsOpen     bool     `json:"is_open"`
}

type menteeProfileRequest struct {
	Goals []string `json:"goals" validate:"omitempty,max=20,dive,min=1,max=200"`
}

type mentorshipRequestBody struct {
	MentorID string `json:"mentor_id" validate:"required,uuid"`
	Message  string `json:"message" validate:"max=2000"`
}

// BecomeMentor opens or updates the caller's mentor profile.
func BecomeMentor(svc mentorship.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body mentorProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.BecomeMentor(r.Context(), mentorship.MentorProfileInput{
			UserID:     actor,
			Expertise:  body.Expertise,
			MaxMentees: body.MaxMentees,
			IsOpen:     body.IsOpen,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// BecomeMentee opens or updates the caller's mentee profile.
func BecomeMentee(svc mentorship.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body menteeProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.BecomeMentee(r.Context(), mentorship.MenteeProfileInput{
			UserID: actor,
			Goals:  body.Goals,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// ListOpenMentors returns mentors currently accepting mentees.
func ListOpenMentors(svc mentorship.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mentors, err := svc.OpenMentors(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": mentors})
	}
}

// RequestMentorship opens a pending relationship from the caller to a mentor.
func RequestMentorship(svc mentorship.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body mentorshipRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mentorID, err := parseUUIDString(body.MentorID, "mentor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relationship, err := svc.Request(r.Context(), mentorship.RequestInput{
			MentorID: mentorID,
			MenteeID: actor,
			Message:  body.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, relationship)
	}
}

// AcceptMentorship activates a pending relationship. Mentor only.
func AcceptMentorship(svc mentorship.Service, logg *logger.Logger) http.HandlerFunc {
	return mentorshipTransition(logg, svc.Accept)
}

// CompleteMentorship closes out an active relationship. Either party.
func CompleteMentorship(svc mentorship.Service, logg *logger.Logger) http.HandlerFunc {
	return mentorshipTransition(logg, svc.Complete)
}

// CancelMentorship abandons a pending or active relationship. Either party.
func CancelMentorship(svc mentorship.Service, logg *logger.Logger) http.HandlerFunc {
	return mentorshipTransition(logg, svc.Cancel)
}

func mentorshipTransition(
	logg *logger.Logger,
	apply func(ctx context.Context, relationshipID, actorID uuid.UUID) (*models.MentorshipRelationship, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relationshipID, err := pathUUID(r, "relationshipId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relationship, err := apply(r.Context(), relationshipID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, relationship)
	}
}

// MyMentorships lists relationships where the caller is mentor or mentee.
func MyMentorships(svc mentorship.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		relationships, err := svc.Relationships(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": relationships})
	}
}
