package gamification

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Blazious/fun-learning-system/pkg/errors"
)

// GlobalScope is the cache scope for the platform-wide leaderboard.
const GlobalScope = "global"

func scopeKey(communityID *uuid.UUID) string {
	if communityID == nil {
		return GlobalScope
	}
	return "community:" + communityID.String()
}

// Leaderboard returns ranked entries for the requested scope. The Redis
// sorted set is a bounded-staleness cache of scores only; ordering and rank
// assignment always apply the full tie-break (points desc, account age asc,
// user id asc) so ties stay deterministic even on cache hits.
func (s *service) Leaderboard(ctx context.Context, query LeaderboardQuery) ([]LeaderboardEntry, error) {
	limit := query.Limit
	if limit <= 0 || limit > s.lbCfg.MaxEntries {
		limit = s.lbCfg.MaxEntries
	}

	scope := scopeKey(query.CommunityID)

	if !query.Fresh && s.cache != nil {
		entries, ok, err := s.fromCache(ctx, scope, limit)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "scope", scope), "leaderboard cache read failed")
		} else if ok {
			return entries, nil
		}
	}

	return s.build(ctx, query.CommunityID, scope, limit)
}

// build computes the leaderboard from the ledger in SQL and refreshes the
// cache for the scope.
func (s *service) build(ctx context.Context, communityID *uuid.UUID, scope string, limit int) ([]LeaderboardEntry, error) {
	started := time.Now()

	rows, err := s.repo.LeaderboardBalances(ctx, communityID, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "building leaderboard")
	}

	entries := make([]LeaderboardEntry, len(rows))
	scores := make(map[string]int, len(rows))
	for i, row := range rows {
		entries[i] = LeaderboardEntry{
			Rank:        i + 1,
			UserID:      row.UserID,
			Username:    row.Username,
			TotalPoints: row.TotalPoints,
		}
		scores[row.UserID.String()] = row.TotalPoints
	}

	if s.cache != nil && len(scores) > 0 {
		if err := s.cache.ReplaceLeaderboard(ctx, scope, scores, s.lbCfg.CacheTTL); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "scope", scope), "leaderboard cache refresh failed")
		}
	}

	s.metrics.ObserveLeaderboardBuild(scope, time.Since(started))
	return entries, nil
}

// fromCache reads scores from the sorted set, then re-applies the tie-break
// using user rows from the database before assigning row numbers.
func (s *service) fromCache(ctx context.Context, scope string, limit int) ([]LeaderboardEntry, bool, error) {
	members, err := s.cache.TopLeaderboard(ctx, scope, limit)
	if err != nil {
		return nil, false, err
	}
	if len(members) == 0 {
		return nil, false, nil
	}

	ids := make([]uuid.UUID, 0, len(members))
	scores := make(map[uuid.UUID]int, len(members))
	for _, m := range members {
		id, parseErr := uuid.Parse(m.Member)
		if parseErr != nil {
			// Corrupt member; treat the whole scope as a miss.
			return nil, false, nil
		}
		ids = append(ids, id)
		scores[id] = m.Score
	}

	users, err := s.repo.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, false, err
	}
	if len(users) != len(ids) {
		// A cached member no longer resolves to a live user; rebuild.
		return nil, false, nil
	}

	sort.Slice(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if scores[a.ID] != scores[b.ID] {
			return scores[a.ID] > scores[b.ID]
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	entries := make([]LeaderboardEntry, len(users))
	for i, user := range users {
		entries[i] = LeaderboardEntry{
			Rank:        i + 1,
			UserID:      user.ID,
			Username:    user.Username,
			TotalPoints: scores[user.ID],
		}
	}
	return entries, true, nil
}
