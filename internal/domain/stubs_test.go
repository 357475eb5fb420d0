package domain

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// stubStoryRepo is an in-memory StoryRepository. UpdateEngagement serializes
// mutations under a mutex, mirroring the per-record atomicity the real store
// provides.
type stubStoryRepo struct {
	mu      sync.Mutex
	stories map[uuid.UUID]*Story

	byAuthorsErr error
	byOwnersErr  error
	recentErr    error

	createCalls    int
	byAuthorsCalls int
	recentCalls    int
}

func newStubStoryRepo(stories ...*Story) *stubStoryRepo {
	repo := &stubStoryRepo{stories: make(map[uuid.UUID]*Story)}
	for _, s := range stories {
		repo.stories[s.ID] = s
	}
	return repo
}

func (r *stubStoryRepo) CreateStory(_ context.Context, story *Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	r.stories[story.ID] = story
	return nil
}

func (r *stubStoryRepo) GetStoryByID(_ context.Context, id uuid.UUID) (*Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[id]
	if !ok {
		return nil, ErrStoryNotFound
	}
	return story, nil
}

func (r *stubStoryRepo) FindByAuthors(_ context.Context, authorIDs []uuid.UUID, notExpiredAsOf time.Time) ([]*Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byAuthorsCalls++
	if r.byAuthorsErr != nil {
		return nil, r.byAuthorsErr
	}
	return r.filter(notExpiredAsOf, func(s *Story) bool {
		return containsID(authorIDs, s.AuthorID)
	}), nil
}

func (r *stubStoryRepo) FindByOwners(_ context.Context, ownerIDs []uuid.UUID, notExpiredAsOf time.Time) ([]*Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byOwnersErr != nil {
		return nil, r.byOwnersErr
	}
	return r.filter(notExpiredAsOf, func(s *Story) bool {
		return containsID(ownerIDs, s.ContentOwnerID)
	}), nil
}

func (r *stubStoryRepo) FindRecent(_ context.Context, since, notExpiredAsOf time.Time) ([]*Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recentCalls++
	if r.recentErr != nil {
		return nil, r.recentErr
	}
	return r.filter(notExpiredAsOf, func(s *Story) bool {
		return s.CreatedAt.After(since)
	}), nil
}

func (r *stubStoryRepo) UpdateEngagement(_ context.Context, id uuid.UUID, mutate func(*Story) error) (*Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[id]
	if !ok {
		return nil, ErrStoryNotFound
	}
	if err := mutate(story); err != nil {
		return nil, err
	}
	return story, nil
}

// filter returns matching non-expired stories, newest first, like the SQL
// queries it stands in for.
func (r *stubStoryRepo) filter(notExpiredAsOf time.Time, match func(*Story) bool) []*Story {
	var out []*Story
	for _, s := range r.stories {
		if s.Expired(notExpiredAsOf) {
			continue
		}
		if match(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

type stubGraph struct {
	following []uuid.UUID
	followers []uuid.UUID
	err       error
}

func (g *stubGraph) Following(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.following, nil
}

func (g *stubGraph) Followers(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.followers, nil
}

type stubGeo struct {
	viewerLoc *GeoPoint
	nearby    []uuid.UUID
	locErr    error
	nearbyErr error
}

func (g *stubGeo) Nearby(context.Context, GeoPoint, float64) ([]uuid.UUID, error) {
	if g.nearbyErr != nil {
		return nil, g.nearbyErr
	}
	return g.nearby, nil
}

func (g *stubGeo) ViewerLocation(context.Context, uuid.UUID) (*GeoPoint, error) {
	if g.locErr != nil {
		return nil, g.locErr
	}
	return g.viewerLoc, nil
}

// testStory builds a minimal valid photo story.
func testStory(author, owner uuid.UUID, createdAt time.Time) *Story {
	return &Story{
		ID:             uuid.New(),
		AuthorID:       author,
		ContentOwnerID: owner,
		Kind:           StoryKindPhoto,
		Payload:        Payload{Media: &MediaPayload{MediaURL: "https://cdn.example.com/p.jpg"}},
		CreatedAt:      createdAt,
		ExpiresAt:      createdAt.Add(StoryTTL),
	}
}
