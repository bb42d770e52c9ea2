package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Blazious/fun-learning-system/api/responses"
	"github.com/Blazious/fun-learning-system/api/validators"
	"github.com/Blazious/fun-learning-system/internal/sessions"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	pkgerrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/logger"
)

type scheduleSessionRequest struct {
	CommunityID *string   `json:"community_id" validate:"omitempty,uuid"`
	Title       string    `json:"title" validate:"required,min=2,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	Type        string    `json:"type" validate:"required"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	MaxSeats    *int      `json:"max_seats" validate:"omitempty,min=1"`
}

type assignRoleRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required"`
}

type attendanceRequest struct {
	UserID   string `json:"user_id" validate:"required,uuid"`
	Attended bool   `json:"attended"`
}

type feedbackRequest struct {
	Rating  decimal.Decimal `json:"rating"`
	Comment string          `json:"comment" validate:"max=2000"`
}

// ScheduleSession creates a draft session hosted by the caller.
func ScheduleSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body scheduleSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := sessions.ScheduleInput{
			HostID:      actor,
			Title:       body.Title,
			Description: body.Description,
			Type:        enums.SessionType(body.Type),
			ScheduledAt: body.ScheduledAt,
			MaxSeats:    body.MaxSeats,
		}
		if body.CommunityID != nil {
			communityID, err := parseUUIDString(*body.CommunityID, "community_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.CommunityID = &communityID
		}

		session, err := svc.Schedule(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// sessionTransition wires the host-only lifecycle endpoints.
func sessionTransition(
	logg *logger.Logger,
	apply func(r *http.Request) (any, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := apply(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func PublishSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionTransition(logg, func(r *http.Request) (any, error) {
		actor, sessionID, err := sessionActorAndID(r)
		if err != nil {
			return nil, err
		}
		return svc.Publish(r.Context(), sessionID, actor)
	})
}

func StartSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionTransition(logg, func(r *http.Request) (any, error) {
		actor, sessionID, err := sessionActorAndID(r)
		if err != nil {
			return nil, err
		}
		return svc.Start(r.Context(), sessionID, actor)
	})
}

func CompleteSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionTransition(logg, func(r *http.Request) (any, error) {
		actor, sessionID, err := sessionActorAndID(r)
		if err != nil {
			return nil, err
		}
		return svc.Complete(r.Context(), sessionID, actor)
	})
}

func CancelSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionTransition(logg, func(r *http.Request) (any, error) {
		actor, sessionID, err := sessionActorAndID(r)
		if err != nil {
			return nil, err
		}
		return svc.Cancel(r.Context(), sessionID, actor)
	})
}

func sessionActorAndID(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	actor, err := actorID(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	sessionID, err := pathUUID(r, "sessionId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return actor, sessionID, nil
}

// GetSession fetches one session.
func GetSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// ListSessions pages sessions with optional community, status, and host filters.
func ListSessions(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter sessions.ListFilter
		filter.CommunityID, err = validators.ParseQueryUUID(r, "community_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.HostID, err = validators.ParseQueryUUID(r, "host_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.SessionStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid session status"))
				return
			}
			filter.Status = &status
		}

		items, cursor, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": cursor})
	}
}

// RegisterForSession reserves a seat for the caller.
func RegisterForSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, sessionID, err := sessionActorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		participant, err := svc.Register(r.Context(), sessionID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, participant)
	}
}

// AssignParticipantRole promotes a participant. Host only.
func AssignParticipantRole(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, sessionID, err := sessionActorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignRoleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := parseUUIDString(body.UserID, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.AssignRole(r.Context(), sessions.AssignRoleInput{
			SessionID: sessionID,
			ActorID:   actor,
			UserID:    userID,
			Role:      enums.ParticipantRole(body.Role),
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// MarkAttendance records whether a participant actually joined.
func MarkAttendance(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, sessionID, err := sessionActorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body attendanceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := parseUUIDString(body.UserID, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkAttendance(r.Context(), sessions.AttendanceInput{
			SessionID: sessionID,
			ActorID:   actor,
			UserID:    userID,
			Attended:  body.Attended,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// ListParticipants returns the registration roll.
func ListParticipants(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		participants, err := svc.Participants(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": participants})
	}
}

// LeaveFeedback records the caller's post-session rating.
func LeaveFeedback(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, sessionID, err := sessionActorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body feedbackRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		feedback, err := svc.LeaveFeedback(r.Context(), sessions.FeedbackInput{
			SessionID: sessionID,
			UserID:    actor,
			Rating:    body.Rating,
			Comment:   body.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, feedback)
	}
}

// FeedbackSummary returns the average rating and count for a session.
func FeedbackSummary(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.FeedbackSummary(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
