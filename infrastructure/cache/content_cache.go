package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blog-social/domain/model"

	"github.com/redis/go-redis/v9"
)

const contentKeyPrefix = "social:content:"

// ContentCache memoizes adapted content per post. A nil client disables it.
type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewContentCache(client *redis.Client, ttl time.Duration) *ContentCache {
	return &ContentCache{client: client, ttl: ttl}
}

func contentKey(postID string) string { return contentKeyPrefix + postID }

func (c *ContentCache) Get(ctx context.Context, postID string) (map[model.Platform]model.AdaptedContent, bool, error) {
	if c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, contentKey(postID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get adapted content for post %s: %w", postID, err)
	}
	var out map[model.Platform]model.AdaptedContent
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, fmt.Errorf("failed to decode adapted content for post %s: %w", postID, err)
	}
	return out, true, nil
}

func (c *ContentCache) Set(ctx context.Context, postID string, content map[model.Platform]model.AdaptedContent) error {
	if c.client == nil || c.ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to encode adapted content for post %s: %w", postID, err)
	}
	return c.client.Set(ctx, contentKey(postID), raw, c.ttl).Err()
}
