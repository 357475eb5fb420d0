package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StoryTTL is how long a story stays visible after creation.
const StoryTTL = 24 * time.Hour

// StoryKind discriminates the payload variant a story carries.
type StoryKind string

const (
	StoryKindPhoto       StoryKind = "photo"
	StoryKindVideo       StoryKind = "video"
	StoryKindText        StoryKind = "text"
	StoryKindPlaydate    StoryKind = "playdate"
	StoryKindEvent       StoryKind = "event"
	StoryKindAchievement StoryKind = "achievement"
	StoryKindMood        StoryKind = "mood"
)

// Valid reports whether k is a known story kind.
func (k StoryKind) Valid() bool {
	switch k {
	case StoryKindPhoto, StoryKindVideo, StoryKindText, StoryKindPlaydate,
		StoryKindEvent, StoryKindAchievement, StoryKindMood:
		return true
	}
	return false
}

// Story is an ephemeral content unit about a pet. ID, author, owner, kind,
// payload, origin location and timestamps are immutable after creation; only
// Engagement mutates during the story's 24-hour life.
type Story struct {
	ID             uuid.UUID  `json:"id"`
	AuthorID       uuid.UUID  `json:"author_id"`
	ContentOwnerID uuid.UUID  `json:"content_owner_id"` // the pet the story is about
	Kind           StoryKind  `json:"kind"`
	Payload        Payload    `json:"payload"`
	OriginLocation *GeoPoint  `json:"origin_location,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	Engagement     Engagement `json:"engagement"`
}

// Expired reports whether the story is past its expiry at the given time.
func (s *Story) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Engagement holds the mutable counters for a story. ViewCount and LikeCount
// are derived from the viewer/liker sets; the mutation helpers below keep
// them in lockstep so the counters are never independently settable.
type Engagement struct {
	ViewCount  int         `json:"view_count"`
	LikeCount  int         `json:"like_count"`
	ReplyCount int         `json:"reply_count"`
	ShareCount int         `json:"share_count"`
	ViewerIDs  []uuid.UUID `json:"viewer_ids"`
	LikerIDs   []uuid.UUID `json:"liker_ids"`
}

// Weight is the engagement term of the trending score. Replies and shares
// signal stronger engagement than likes and carry higher weights.
func (e Engagement) Weight() int {
	return e.LikeCount*likeWeight + e.ReplyCount*replyWeight + e.ShareCount*shareWeight
}

// HasViewer reports whether the viewer already counts toward ViewCount.
func (e Engagement) HasViewer(viewerID uuid.UUID) bool {
	return containsID(e.ViewerIDs, viewerID)
}

// HasLiker reports whether the viewer currently likes the story.
func (e Engagement) HasLiker(viewerID uuid.UUID) bool {
	return containsID(e.LikerIDs, viewerID)
}

// addViewer records a first view from viewerID. Repeat views are no-ops.
func (e *Engagement) addViewer(viewerID uuid.UUID) {
	if e.HasViewer(viewerID) {
		return
	}
	e.ViewerIDs = append(e.ViewerIDs, viewerID)
	e.ViewCount = len(e.ViewerIDs)
}

// toggleLiker flips viewerID's like and returns the new liked state.
func (e *Engagement) toggleLiker(viewerID uuid.UUID) bool {
	if e.HasLiker(viewerID) {
		e.LikerIDs = removeID(e.LikerIDs, viewerID)
		e.LikeCount = len(e.LikerIDs)
		return false
	}
	e.LikerIDs = append(e.LikerIDs, viewerID)
	e.LikeCount = len(e.LikerIDs)
	return true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// StoryGroup is a presentation-level grouping of one owner's active stories,
// newest first. It is never persisted.
type StoryGroup struct {
	AuthorID       uuid.UUID `json:"author_id"`
	ContentOwnerID uuid.UUID `json:"content_owner_id"`
	Stories        []*Story  `json:"stories"`
	LastUpdated    time.Time `json:"last_updated"`
}

// StoryRepository is the durable store for story records. Engagement writes
// go through UpdateEngagement, which must apply the mutation under a
// per-record lock so concurrent viewers cannot break the counter invariants.
type StoryRepository interface {
	CreateStory(ctx context.Context, story *Story) error
	GetStoryByID(ctx context.Context, id uuid.UUID) (*Story, error)
	FindByAuthors(ctx context.Context, authorIDs []uuid.UUID, notExpiredAsOf time.Time) ([]*Story, error)
	FindByOwners(ctx context.Context, ownerIDs []uuid.UUID, notExpiredAsOf time.Time) ([]*Story, error)
	FindRecent(ctx context.Context, since, notExpiredAsOf time.Time) ([]*Story, error)
	UpdateEngagement(ctx context.Context, id uuid.UUID, mutate func(*Story) error) (*Story, error)
}

// SocialGraph resolves follow relationships between accounts.
type SocialGraph interface {
	Following(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Followers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// GeoIndex resolves proximity between viewers and content owners.
type GeoIndex interface {
	Nearby(ctx context.Context, loc GeoPoint, radiusKm float64) ([]uuid.UUID, error)
	ViewerLocation(ctx context.Context, viewerID uuid.UUID) (*GeoPoint, error)
}

// NotificationDispatcher informs a story's audience about its creation.
// Dispatch is fire-and-forget: failures never fail story creation.
type NotificationDispatcher interface {
	NotifyFollowers(ctx context.Context, story *Story)
}
