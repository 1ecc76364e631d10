package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// RatingEntry is one member of the ratings snapshot.
type RatingEntry struct {
	Identity domain.Identity `json:"identity"`
	Rating   int             `json:"rating"`
}

// SaveRating adds a rating to the snapshot sorted set.
func (c *Client) SaveRating(ctx context.Context, id domain.Identity, rating int) error {
	key := c.ratingsKey()
	pipe := c.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(rating), Member: string(id)})
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("zadd failed: %w", err)
	}
	return nil
}

// RemoveRating drops an evicted identity from the snapshot.
func (c *Client) RemoveRating(ctx context.Context, id domain.Identity) error {
	if err := c.rdb.ZRem(ctx, c.ratingsKey(), string(id)).Err(); err != nil {
		return fmt.Errorf("zrem failed: %w", err)
	}
	return nil
}

// RatingsAtLeast returns snapshot entries rated >= min, highest first.
func (c *Client) RatingsAtLeast(ctx context.Context, min int, limit int64) ([]RatingEntry, error) {
	results, err := c.rdb.ZRevRangeByScoreWithScores(ctx, c.ratingsKey(), &redis.ZRangeBy{
		Min:   strconv.Itoa(min),
		Max:   "+inf",
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrangebyscore failed: %w", err)
	}

	entries := make([]RatingEntry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, RatingEntry{Identity: domain.Identity(member), Rating: int(z.Score)})
	}
	return entries, nil
}

// ClearRatings removes the snapshot.
func (c *Client) ClearRatings(ctx context.Context) error {
	return c.rdb.Del(ctx, c.ratingsKey()).Err()
}
