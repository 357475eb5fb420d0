package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultNearbyRadiusKm is the proximity radius for the nearby feed section.
const DefaultNearbyRadiusKm = 10.0

// FeedOptions tunes candidate selection. A zero or negative field means "use
// the default"; a literal zero radius or view floor is not a configurable
// state, since either would make its section meaningless.
type FeedOptions struct {
	NearbyRadiusKm   float64
	TrendingMinViews int
	TrendingLimit    int
	TrendingCacheTTL time.Duration
}

func (o FeedOptions) withDefaults() FeedOptions {
	if o.NearbyRadiusKm <= 0 {
		o.NearbyRadiusKm = DefaultNearbyRadiusKm
	}
	if o.TrendingMinViews <= 0 {
		o.TrendingMinViews = DefaultTrendingMinViews
	}
	if o.TrendingLimit <= 0 {
		o.TrendingLimit = DefaultTrendingLimit
	}
	if o.TrendingCacheTTL <= 0 {
		o.TrendingCacheTTL = time.Minute
	}
	return o
}

// FeedService composes a viewer's story feed from three candidate sources:
// accounts the viewer follows, content owners nearby, and platform-wide
// trending stories. Sources are merged in that precedence and deduplicated.
// A failed secondary source degrades the feed instead of failing it.
type FeedService struct {
	stories  StoryRepository
	graph    SocialGraph
	geo      GeoIndex
	opts     FeedOptions
	trending *trendingCache
	logger   *zap.Logger
}

func NewFeedService(stories StoryRepository, graph SocialGraph, geo GeoIndex, opts FeedOptions, logger *zap.Logger) *FeedService {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{
		stories:  stories,
		graph:    graph,
		geo:      geo,
		opts:     opts,
		trending: newTrendingCache(opts.TrendingCacheTTL),
		logger:   logger,
	}
}

// ComposeFeed returns the flat, deduplicated candidate list for viewerID at
// the given instant. The following-path store lookup is the primary source:
// its failure aborts the whole feed with ErrFeedUnavailable. SocialGraph,
// GeoIndex and the trending-window query degrade to zero candidates.
func (s *FeedService) ComposeFeed(ctx context.Context, viewerID uuid.UUID, now time.Time) ([]*Story, error) {
	following := s.followingStories(ctx, viewerID, now)
	if following.err != nil {
		return nil, following.err
	}

	nearby := s.nearbyStories(ctx, viewerID, now)
	trending := s.trendingStories(ctx, now)

	merged := make([]*Story, 0, len(following.stories)+len(nearby)+len(trending))
	seen := make(map[uuid.UUID]struct{})
	for _, section := range [][]*Story{following.stories, nearby, trending} {
		for _, story := range section {
			if _, dup := seen[story.ID]; dup {
				continue
			}
			if story.Expired(now) {
				continue
			}
			seen[story.ID] = struct{}{}
			merged = append(merged, story)
		}
	}
	return merged, nil
}

// ComposeGroupedFeed composes the candidate list and groups it for
// sequential presentation.
func (s *FeedService) ComposeGroupedFeed(ctx context.Context, viewerID uuid.UUID, now time.Time) ([]*StoryGroup, error) {
	stories, err := s.ComposeFeed(ctx, viewerID, now)
	if err != nil {
		return nil, err
	}
	return GroupStories(stories), nil
}

type followingResult struct {
	stories []*Story
	err     error
}

func (s *FeedService) followingStories(ctx context.Context, viewerID uuid.UUID, now time.Time) followingResult {
	authorIDs, err := s.graph.Following(ctx, viewerID)
	if err != nil {
		// Graph outage degrades the section; the store is still reachable.
		s.logger.Warn("social graph lookup failed, skipping following section",
			zap.String("viewer_id", viewerID.String()), zap.Error(err))
		return followingResult{}
	}
	if len(authorIDs) == 0 {
		return followingResult{}
	}

	stories, err := s.stories.FindByAuthors(ctx, authorIDs, now)
	if err != nil {
		// Primary store lookup: without it there is no base candidate list
		// to rank or group, so the whole request fails.
		return followingResult{err: fmt.Errorf("%w: following lookup: %v", ErrFeedUnavailable, err)}
	}
	return followingResult{stories: stories}
}

func (s *FeedService) nearbyStories(ctx context.Context, viewerID uuid.UUID, now time.Time) []*Story {
	loc, err := s.geo.ViewerLocation(ctx, viewerID)
	if err != nil {
		s.logger.Warn("viewer location lookup failed, skipping nearby section",
			zap.String("viewer_id", viewerID.String()), zap.Error(err))
		return nil
	}
	if loc == nil {
		return nil
	}

	ownerIDs, err := s.geo.Nearby(ctx, *loc, s.opts.NearbyRadiusKm)
	if err != nil {
		s.logger.Warn("geo index lookup failed, skipping nearby section", zap.Error(err))
		return nil
	}
	if len(ownerIDs) == 0 {
		return nil
	}

	candidates, err := s.stories.FindByOwners(ctx, ownerIDs, now)
	if err != nil {
		s.logger.Warn("nearby story lookup failed, skipping nearby section", zap.Error(err))
		return nil
	}

	// Second-pass geometric filter: trust the story's own origin, not the
	// index that returned its owner.
	nearby := make([]*Story, 0, len(candidates))
	for _, story := range candidates {
		if story.OriginLocation == nil {
			continue
		}
		if !loc.WithinKm(*story.OriginLocation, s.opts.NearbyRadiusKm) {
			continue
		}
		nearby = append(nearby, story)
	}
	return nearby
}

func (s *FeedService) trendingStories(ctx context.Context, now time.Time) []*Story {
	if cached, ok := s.trending.get(now); ok {
		return cached
	}

	since := now.Add(-TrendingWindowHours * time.Hour)
	recent, err := s.stories.FindRecent(ctx, since, now)
	if err != nil {
		s.logger.Warn("trending window lookup failed, skipping trending section", zap.Error(err))
		return nil
	}

	ranked := rankTrending(recent, now, s.opts.TrendingMinViews, s.opts.TrendingLimit)
	s.trending.put(now, ranked)
	return ranked
}
