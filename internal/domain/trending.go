package domain

import (
	"sort"
	"sync"
	"time"
)

// Defaults for the trending selection, overridable via config. The floor and
// window were fixed product constants in the original app.
const (
	TrendingWindowHours     = 24
	DefaultTrendingMinViews = 10
	DefaultTrendingLimit    = 20
)

// Engagement weights for the trending score.
const (
	likeWeight  = 1
	replyWeight = 2
	shareWeight = 3
)

// TrendingScore computes the decaying engagement score for a story. The
// linear recency boost reaches zero exactly at the 24-hour expiry, so a
// story's trending eligibility decays in step with its lifetime. Pure; no
// side effects.
func TrendingScore(s *Story, now time.Time) float64 {
	hours := now.Sub(s.CreatedAt).Hours()
	if hours < 0 {
		hours = 0
	}
	boost := float64(TrendingWindowHours) - hours
	if boost < 0 {
		boost = 0
	}
	return float64(s.Engagement.Weight()) * boost
}

// rankTrending filters the recent window down to the trending candidates:
// non-expired stories above the minimum-view floor, sorted by score
// descending, capped at limit. Ties break on recency then ID so the result
// is deterministic for identical inputs.
func rankTrending(stories []*Story, now time.Time, minViews, limit int) []*Story {
	candidates := make([]*Story, 0, len(stories))
	for _, s := range stories {
		if s.Expired(now) {
			continue
		}
		if s.Engagement.ViewCount <= minViews {
			continue
		}
		candidates = append(candidates, s)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := TrendingScore(candidates[i], now), TrendingScore(candidates[j], now)
		if si != sj {
			return si > sj
		}
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// trendingCache memoizes the ranked trending list per time bucket. A compose
// call either sees a fully built bucket or rebuilds it; the cache is never
// partially stale within a single call.
type trendingCache struct {
	mu      sync.Mutex
	bucket  time.Time
	stories []*Story
	ttl     time.Duration
}

func newTrendingCache(ttl time.Duration) *trendingCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &trendingCache{ttl: ttl}
}

// get returns the cached list for now's bucket, or nil on a miss.
func (c *trendingCache) get(now time.Time) ([]*Story, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stories == nil || !now.Truncate(c.ttl).Equal(c.bucket) {
		return nil, false
	}
	return c.stories, true
}

func (c *trendingCache) put(now time.Time, stories []*Story) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bucket = now.Truncate(c.ttl)
	c.stories = stories
}
