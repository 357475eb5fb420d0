package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestFeedService(repo *stubStoryRepo, graph *stubGraph, geo *stubGeo) *FeedService {
	return NewFeedService(repo, graph, geo, FeedOptions{}, nil)
}

func feedIDs(stories []*Story) []uuid.UUID {
	ids := make([]uuid.UUID, len(stories))
	for i, s := range stories {
		ids[i] = s.ID
	}
	return ids
}

func TestFeedOptionsZeroMeansDefault(t *testing.T) {
	opts := FeedOptions{}.withDefaults()
	if opts.NearbyRadiusKm != DefaultNearbyRadiusKm {
		t.Fatalf("radius = %v want %v", opts.NearbyRadiusKm, DefaultNearbyRadiusKm)
	}
	if opts.TrendingMinViews != DefaultTrendingMinViews {
		t.Fatalf("min views = %d want %d", opts.TrendingMinViews, DefaultTrendingMinViews)
	}
	if opts.TrendingLimit != DefaultTrendingLimit {
		t.Fatalf("limit = %d want %d", opts.TrendingLimit, DefaultTrendingLimit)
	}
	if opts.TrendingCacheTTL != time.Minute {
		t.Fatalf("cache ttl = %v want %v", opts.TrendingCacheTTL, time.Minute)
	}

	custom := FeedOptions{
		NearbyRadiusKm:   2.5,
		TrendingMinViews: 1,
		TrendingLimit:    5,
		TrendingCacheTTL: 10 * time.Second,
	}.withDefaults()
	if custom.NearbyRadiusKm != 2.5 || custom.TrendingMinViews != 1 ||
		custom.TrendingLimit != 5 || custom.TrendingCacheTTL != 10*time.Second {
		t.Fatalf("explicit options were overridden: %+v", custom)
	}
}

func TestComposeFeedSections(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	viewer := uuid.New()
	followedAuthor := uuid.New()
	nearbyOwner := uuid.New()

	followed := testStory(followedAuthor, uuid.New(), now.Add(-time.Hour))

	nearby := testStory(uuid.New(), nearbyOwner, now.Add(-2*time.Hour))
	nearby.OriginLocation = &GeoPoint{Lat: 40.7200, Lng: -74.0100} // ~5km from viewer

	trending := testStory(uuid.New(), uuid.New(), now.Add(-3*time.Hour))
	trending.Engagement = Engagement{ViewCount: 50, ShareCount: 3}

	repo := newStubStoryRepo(followed, nearby, trending)
	graph := &stubGraph{following: []uuid.UUID{followedAuthor}}
	geo := &stubGeo{
		viewerLoc: &GeoPoint{Lat: 40.7128, Lng: -74.0060},
		nearby:    []uuid.UUID{nearbyOwner},
	}

	feed, err := newTestFeedService(repo, graph, geo).ComposeFeed(context.Background(), viewer, now)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	want := []uuid.UUID{followed.ID, nearby.ID, trending.ID}
	got := feedIDs(feed)
	if len(got) != len(want) {
		t.Fatalf("expected %d stories got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestComposeFeedDeduplicatesKeepFirst(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	followedAuthor := uuid.New()

	// Authored by a followed account AND trending platform-wide. It must
	// appear once, in its followed slot.
	shared := testStory(followedAuthor, uuid.New(), now.Add(-time.Hour))
	shared.Engagement = Engagement{ViewCount: 40, LikeCount: 12}

	other := testStory(uuid.New(), uuid.New(), now.Add(-2*time.Hour))
	other.Engagement = Engagement{ViewCount: 30, LikeCount: 5}

	repo := newStubStoryRepo(shared, other)
	graph := &stubGraph{following: []uuid.UUID{followedAuthor}}
	geo := &stubGeo{}

	feed, err := newTestFeedService(repo, graph, geo).ComposeFeed(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	if len(feed) != 2 {
		t.Fatalf("expected 2 stories got %d", len(feed))
	}
	if feed[0].ID != shared.ID {
		t.Fatalf("expected shared story first, got %v", feed[0].ID)
	}
	seen := make(map[uuid.UUID]int)
	for _, s := range feed {
		seen[s.ID]++
	}
	if seen[shared.ID] != 1 {
		t.Fatalf("shared story appeared %d times", seen[shared.ID])
	}
}

func TestComposeFeedExcludesExpiredEverywhere(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	followedAuthor := uuid.New()
	nearbyOwner := uuid.New()

	expiredFollowed := testStory(followedAuthor, uuid.New(), now.Add(-25*time.Hour))
	expiredNearby := testStory(uuid.New(), nearbyOwner, now.Add(-26*time.Hour))
	expiredNearby.OriginLocation = &GeoPoint{Lat: 40.7128, Lng: -74.0060}
	expiredTrending := testStory(uuid.New(), uuid.New(), now.Add(-27*time.Hour))
	expiredTrending.Engagement = Engagement{ViewCount: 500, ShareCount: 50}

	live := testStory(followedAuthor, uuid.New(), now.Add(-time.Hour))

	repo := newStubStoryRepo(expiredFollowed, expiredNearby, expiredTrending, live)
	graph := &stubGraph{following: []uuid.UUID{followedAuthor}}
	geo := &stubGeo{
		viewerLoc: &GeoPoint{Lat: 40.7128, Lng: -74.0060},
		nearby:    []uuid.UUID{nearbyOwner},
	}

	feed, err := newTestFeedService(repo, graph, geo).ComposeFeed(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if len(feed) != 1 || feed[0].ID != live.ID {
		t.Fatalf("expected only the live story, got %v", feedIDs(feed))
	}
}

func TestComposeFeedGraphOutageDegrades(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	trending := testStory(uuid.New(), uuid.New(), now.Add(-time.Hour))
	trending.Engagement = Engagement{ViewCount: 25, LikeCount: 8}

	repo := newStubStoryRepo(trending)
	graph := &stubGraph{err: errors.New("graph down")}
	geo := &stubGeo{}

	feed, err := newTestFeedService(repo, graph, geo).ComposeFeed(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("graph outage should degrade, got %v", err)
	}
	if len(feed) != 1 || feed[0].ID != trending.ID {
		t.Fatalf("expected trending fallback, got %v", feedIDs(feed))
	}
}

func TestComposeFeedPrimaryLookupFailure(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	repo := newStubStoryRepo()
	repo.byAuthorsErr = errors.New("connection refused")
	graph := &stubGraph{following: []uuid.UUID{uuid.New()}}
	geo := &stubGeo{}

	_, err := newTestFeedService(repo, graph, geo).ComposeFeed(context.Background(), uuid.New(), now)
	if !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable got %v", err)
	}
}

func TestComposeFeedGeoOutagesDegrade(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	followedAuthor := uuid.New()
	followed := testStory(followedAuthor, uuid.New(), now.Add(-time.Hour))

	cases := []struct {
		name string
		geo  *stubGeo
	}{
		{"location lookup failed", &stubGeo{locErr: errors.New("redis down")}},
		{"no known location", &stubGeo{}},
		{"nearby search failed", &stubGeo{
			viewerLoc: &GeoPoint{Lat: 40.7128, Lng: -74.0060},
			nearbyErr: errors.New("redis down"),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubStoryRepo(followed)
			graph := &stubGraph{following: []uuid.UUID{followedAuthor}}

			feed, err := newTestFeedService(repo, graph, tc.geo).ComposeFeed(context.Background(), uuid.New(), now)
			if err != nil {
				t.Fatalf("geo failure should degrade, got %v", err)
			}
			if len(feed) != 1 || feed[0].ID != followed.ID {
				t.Fatalf("expected followed story only, got %v", feedIDs(feed))
			}
		})
	}
}

func TestComposeFeedTrendingOutageDegrades(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	followedAuthor := uuid.New()
	followed := testStory(followedAuthor, uuid.New(), now.Add(-time.Hour))

	repo := newStubStoryRepo(followed)
	repo.recentErr = errors.New("query timeout")
	graph := &stubGraph{following: []uuid.UUID{followedAuthor}}
	geo := &stubGeo{}

	feed, err := newTestFeedService(repo, graph, geo).ComposeFeed(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("trending failure should degrade, got %v", err)
	}
	if len(feed) != 1 || feed[0].ID != followed.ID {
		t.Fatalf("expected followed story only, got %v", feedIDs(feed))
	}
}

func TestComposeFeedTrendingFloorExclusive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	atFloor := testStory(uuid.New(), uuid.New(), now.Add(-time.Hour))
	atFloor.Engagement = Engagement{ViewCount: 10, ShareCount: 9}

	aboveFloor := testStory(uuid.New(), uuid.New(), now.Add(-time.Hour))
	aboveFloor.Engagement = Engagement{ViewCount: 11, LikeCount: 1}

	repo := newStubStoryRepo(atFloor, aboveFloor)
	feed, err := newTestFeedService(repo, &stubGraph{}, &stubGeo{}).ComposeFeed(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if len(feed) != 1 || feed[0].ID != aboveFloor.ID {
		t.Fatalf("floor must be exclusive, got %v", feedIDs(feed))
	}
}

func TestComposeFeedNearbySecondPassFilter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := uuid.New()

	inRange := testStory(uuid.New(), owner, now.Add(-time.Hour))
	inRange.OriginLocation = &GeoPoint{Lat: 40.7200, Lng: -74.0100}

	// Same owner, but posted from ~32km away. The index returns the owner;
	// the story's own origin disqualifies it.
	outOfRange := testStory(uuid.New(), owner, now.Add(-2*time.Hour))
	outOfRange.OriginLocation = &GeoPoint{Lat: 41.0000, Lng: -74.0060}

	noOrigin := testStory(uuid.New(), owner, now.Add(-3*time.Hour))

	repo := newStubStoryRepo(inRange, outOfRange, noOrigin)
	geo := &stubGeo{
		viewerLoc: &GeoPoint{Lat: 40.7128, Lng: -74.0060},
		nearby:    []uuid.UUID{owner},
	}

	feed, err := newTestFeedService(repo, &stubGraph{}, geo).ComposeFeed(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if len(feed) != 1 || feed[0].ID != inRange.ID {
		t.Fatalf("expected only the in-range story, got %v", feedIDs(feed))
	}
}

func TestComposeFeedDeterministic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	followedAuthor := uuid.New()

	var stories []*Story
	for i := 0; i < 6; i++ {
		s := testStory(followedAuthor, uuid.New(), now.Add(-time.Duration(i+1)*time.Hour))
		stories = append(stories, s)
	}
	for i := 0; i < 6; i++ {
		s := testStory(uuid.New(), uuid.New(), now.Add(-time.Duration(i+1)*time.Hour))
		s.Engagement = Engagement{ViewCount: 20 + i, LikeCount: i}
		stories = append(stories, s)
	}

	repo := newStubStoryRepo(stories...)
	graph := &stubGraph{following: []uuid.UUID{followedAuthor}}
	svc := newTestFeedService(repo, graph, &stubGeo{})

	first, err := svc.ComposeFeed(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("first compose: %v", err)
	}
	second, err := svc.ComposeFeed(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("second compose: %v", err)
	}

	firstIDs, secondIDs := feedIDs(first), feedIDs(second)
	if len(firstIDs) != len(secondIDs) {
		t.Fatalf("lengths differ: %d vs %d", len(firstIDs), len(secondIDs))
	}
	for i := range firstIDs {
		if firstIDs[i] != secondIDs[i] {
			t.Fatalf("order differs at %d: %v vs %v", i, firstIDs[i], secondIDs[i])
		}
	}
}

func TestComposeFeedTrendingCached(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	hot := testStory(uuid.New(), uuid.New(), now.Add(-time.Hour))
	hot.Engagement = Engagement{ViewCount: 40, ShareCount: 5}

	repo := newStubStoryRepo(hot)
	svc := newTestFeedService(repo, &stubGraph{}, &stubGeo{})

	for i := 0; i < 3; i++ {
		if _, err := svc.ComposeFeed(context.Background(), uuid.New(), now); err != nil {
			t.Fatalf("compose %d: %v", i, err)
		}
	}
	if repo.recentCalls != 1 {
		t.Fatalf("expected trending window queried once, got %d", repo.recentCalls)
	}

	// A new cache bucket triggers a fresh query.
	if _, err := svc.ComposeFeed(context.Background(), uuid.New(), now.Add(2*time.Minute)); err != nil {
		t.Fatalf("compose after ttl: %v", err)
	}
	if repo.recentCalls != 2 {
		t.Fatalf("expected cache refresh, got %d queries", repo.recentCalls)
	}
}

func TestComposeGroupedFeed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	followedAuthor := uuid.New()
	pet := uuid.New()

	older := testStory(followedAuthor, pet, now.Add(-3*time.Hour))
	newer := testStory(followedAuthor, pet, now.Add(-time.Hour))
	other := testStory(followedAuthor, uuid.New(), now.Add(-2*time.Hour))

	repo := newStubStoryRepo(older, newer, other)
	graph := &stubGraph{following: []uuid.UUID{followedAuthor}}

	groups, err := newTestFeedService(repo, graph, &stubGeo{}).ComposeGroupedFeed(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("compose grouped: %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups got %d", len(groups))
	}
	if groups[0].ContentOwnerID != pet {
		t.Fatalf("expected the most recently active group first")
	}
	if len(groups[0].Stories) != 2 || groups[0].Stories[0].ID != newer.ID {
		t.Fatalf("expected pet group newest-first, got %v", feedIDs(groups[0].Stories))
	}
}
