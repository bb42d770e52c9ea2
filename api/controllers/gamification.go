package controllers

import (
	"net/http"

	"github.com/Blazious/fun-learning-system/api/responses"
	"github.com/Blazious/fun-learning-system/api/validators"
	"github.com/Blazious/fun-learning-system/internal/gamification"
	"github.com/Blazious/fun-learning-system/pkg/logger"
)

type correctionRequest struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	Points      int    `json:"points" validate:"required"`
	Description string `json:"description" validate:"required,min=3,max=500"`
}

// MyPointEvents pages the caller's ledger entries, oldest first.
func MyPointEvents(svc gamification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, cursor, err := svc.QueryEvents(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": events, "cursor": cursor})
	}
}

// MyBalance returns the caller's cached point balance.
func MyBalance(svc gamification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		total, err := svc.TotalPoints(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"user_id": actor, "total_points": total})
	}
}

// VerifyMyBalance reconciles the caller's cached balance against the ledger.
func VerifyMyBalance(svc gamification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.VerifyBalance(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// VerifyUserBalance reconciles any user's balance. Moderators only.
func VerifyUserBalance(svc gamification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.VerifyBalance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// RecordCorrection posts an admin adjustment to a user's ledger.
func RecordCorrection(svc gamification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body correctionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := parseUUIDString(body.UserID, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.RecordCorrection(r.Context(), gamification.CorrectionInput{
			UserID:      userID,
			ActorUserID: actor,
			Points:      body.Points,
			Description: body.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}

// ListBadges returns the badge catalog.
func ListBadges(svc gamification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		badges, err := svc.ListBadges(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": badges})
	}
}

// UserBadges returns the badges a user has earned.
func UserBadges(svc gamification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		awards, err := svc.UserBadges(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": awards})
	}
}

// EvaluateMyBadges re-runs badge criteria for the caller and returns any
// newly earned badges.
func EvaluateMyBadges(svc gamification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		awarded, err := svc.EvaluateBadges(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"awarded": awarded})
	}
}

// CommunityLeaderboard ranks the members of one community. `fresh=true`
// bypasses the cache.
func CommunityLeaderboard(svc gamification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID, err := pathUUID(r, "communityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fresh, err := validators.ParseQueryBool(r, "fresh")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.Leaderboard(r.Context(), gamification.LeaderboardQuery{
			CommunityID: &communityID,
			Limit:       limit,
			Fresh:       fresh,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"entries": entries})
	}
}

// Leaderboard returns the global ranked standings. `fresh=true` bypasses
// the cache.
func Leaderboard(svc gamification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fresh, err := validators.ParseQueryBool(r, "fresh")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		communityID, err := validators.ParseQueryUUID(r, "community_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.Leaderboard(r.Context(), gamification.LeaderboardQuery{
			CommunityID: communityID,
			Limit:       limit,
			Fresh:       fresh,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"entries": entries})
	}
}
