package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

var _ domain.ProfileSource = (*CachedProfileRepository)(nil)

const profileCacheTTL = 30 * time.Minute

// missingProfileMarker caches the absence of a profile so repeated snapshot
// requests for users without one do not hit Postgres.
const missingProfileMarker = "none"

type CachedProfileRepository struct {
	next  domain.ProfileSource
	cache *redis.Client
}

func NewCachedProfileRepository(next domain.ProfileSource, cache *redis.Client) *CachedProfileRepository {
	return &CachedProfileRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedProfileRepository) cacheKey(userID string) string {
	return fmt.Sprintf("profile:targets:%s", userID)
}

func (r *CachedProfileRepository) GetNutritionTargets(ctx context.Context, userID string) (*domain.NutritionTargets, error) {
	key := r.cacheKey(userID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		if val == missingProfileMarker {
			return nil, domain.ErrProfileNotFound
		}

		var targets domain.NutritionTargets
		if err := json.Unmarshal([]byte(val), &targets); err == nil {
			return &targets, nil
		}

		log.Printf("[CACHE] Corrupted profile for user %s, cleaning up key", userID)
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	targets, err := r.next.GetNutritionTargets(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			if setErr := r.cache.Set(ctx, key, missingProfileMarker, profileCacheTTL).Err(); setErr != nil {
				log.Printf("[CACHE] Redis set error: %v", setErr)
			}
		}
		return nil, err
	}

	if data, err := json.Marshal(targets); err == nil {
		if setErr := r.cache.Set(ctx, key, data, profileCacheTTL).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return targets, nil
}

// Invalidate drops the cached targets, e.g. after a data reset.
func (r *CachedProfileRepository) Invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, r.cacheKey(userID)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate for user %s: %v", userID, err)
	}
}
