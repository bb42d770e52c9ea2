package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RankedMember is a single sorted-set entry with its 1-indexed rank.
type RankedMember struct {
	Rank   int
	Member string
	Score  int
}

// ReplaceLeaderboard atomically rebuilds the sorted set for a scope from the
// provided member scores, applying a TTL so stale caches expire on their own.
func (c *Client) ReplaceLeaderboard(ctx context.Context, scope string, scores map[string]int, ttl time.Duration) error {
	if c.raw == nil {
		return errors.New("redis client not initialized")
	}
	key := c.LeaderboardKey(scope)

	pipe := c.raw.TxPipeline()
	pipe.Del(ctx, key)
	for member, score := range scores {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: member})
	}
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replacing leaderboard %s: %w", scope, err)
	}
	return nil
}

// IncrLeaderboardScore bumps a member's score, returning the new total.
func (c *Client) IncrLeaderboardScore(ctx context.Context, scope, member string, delta int) (int, error) {
	if c.raw == nil {
		return 0, errors.New("redis client not initialized")
	}
	key := c.LeaderboardKey(scope)
	score, err := c.raw.ZIncrBy(ctx, key, float64(delta), member).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing leaderboard score: %w", err)
	}
	return int(score), nil
}

// TopLeaderboard returns the highest-scoring members, ranks starting at 1.
func (c *Client) TopLeaderboard(ctx context.Context, scope string, limit int) ([]RankedMember, error) {
	if c.raw == nil {
		return nil, errors.New("redis client not initialized")
	}
	key := c.LeaderboardKey(scope)
	results, err := c.raw.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard %s: %w", scope, err)
	}

	members := make([]RankedMember, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		members[i] = RankedMember{
			Rank:   i + 1,
			Member: member,
			Score:  int(z.Score),
		}
	}
	return members, nil
}

// LeaderboardRank returns a member's 1-indexed rank and score, or found=false
// when the member is absent from the scope.
func (c *Client) LeaderboardRank(ctx context.Context, scope, member string) (rank, score int, found bool, err error) {
	if c.raw == nil {
		return 0, 0, false, errors.New("redis client not initialized")
	}
	key := c.LeaderboardKey(scope)

	pipe := c.raw.Pipeline()
	rankCmd := pipe.ZRevRank(ctx, key, member)
	scoreCmd := pipe.ZScore(ctx, key, member)
	if _, execErr := pipe.Exec(ctx); execErr != nil {
		if errors.Is(execErr, redis.Nil) {
			return 0, 0, false, nil
		}
		return 0, 0, false, fmt.Errorf("reading leaderboard rank: %w", execErr)
	}

	idx, rankErr := rankCmd.Result()
	if rankErr != nil {
		if errors.Is(rankErr, redis.Nil) {
			return 0, 0, false, nil
		}
		return 0, 0, false, rankErr
	}
	sc, scoreErr := scoreCmd.Result()
	if scoreErr != nil {
		return 0, 0, false, scoreErr
	}
	return int(idx) + 1, int(sc), true, nil
}

// LeaderboardSize returns the number of members in a scope.
func (c *Client) LeaderboardSize(ctx context.Context, scope string) (int64, error) {
	if c.raw == nil {
		return 0, errors.New("redis client not initialized")
	}
	return c.raw.ZCard(ctx, c.LeaderboardKey(scope)).Result()
}

// InvalidateLeaderboard drops the cached sorted set for a scope.
func (c *Client) InvalidateLeaderboard(ctx context.Context, scope string) error {
	return c.Del(ctx, c.LeaderboardKey(scope))
}
