package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateStoryParams carries the immutable fields of a new story.
type CreateStoryParams struct {
	AuthorID       uuid.UUID
	ContentOwnerID uuid.UUID
	Kind           StoryKind
	Payload        Payload
	OriginLocation *GeoPoint
}

// StoryService owns the story lifecycle: creation-time stamping, expiry
// computation, and engagement mutation with at-most-once accounting per
// viewer. Engagement writes run through the repository's atomic per-record
// update.
type StoryService struct {
	repo        StoryRepository
	dispatchers []NotificationDispatcher
	ttl         time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

func NewStoryService(repo StoryRepository, logger *zap.Logger, dispatchers ...NotificationDispatcher) *StoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoryService{
		repo:        repo,
		dispatchers: dispatchers,
		ttl:         StoryTTL,
		now:         time.Now,
		logger:      logger,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *StoryService) WithClock(now func() time.Time) *StoryService {
	s.now = now
	return s
}

// CreateStory validates the payload against its declared kind, stamps the
// story and persists it, then informs followers asynchronously. A malformed
// payload is rejected before anything is persisted.
func (s *StoryService) CreateStory(ctx context.Context, params CreateStoryParams) (*Story, error) {
	if params.AuthorID == uuid.Nil {
		return nil, &ValidationError{Field: "author_id", Reason: "required"}
	}
	if params.ContentOwnerID == uuid.Nil {
		return nil, &ValidationError{Field: "content_owner_id", Reason: "required"}
	}
	if err := params.Payload.Validate(params.Kind); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	story := &Story{
		ID:             uuid.New(),
		AuthorID:       params.AuthorID,
		ContentOwnerID: params.ContentOwnerID,
		Kind:           params.Kind,
		Payload:        params.Payload,
		OriginLocation: params.OriginLocation,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
	}

	if err := s.repo.CreateStory(ctx, story); err != nil {
		return nil, err
	}

	for _, d := range s.dispatchers {
		go func(d NotificationDispatcher) {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("notification dispatch panicked", zap.Any("panic", r))
				}
			}()
			d.NotifyFollowers(context.Background(), story)
		}(d)
	}

	return story, nil
}

// RecordView counts a first view from viewerID. Repeat views are no-ops, as
// are views on an expired story; neither is an error.
func (s *StoryService) RecordView(ctx context.Context, storyID, viewerID uuid.UUID) (*Story, error) {
	return s.repo.UpdateEngagement(ctx, storyID, func(story *Story) error {
		if story.Expired(s.now()) {
			return nil
		}
		story.Engagement.addViewer(viewerID)
		return nil
	})
}

// ToggleLike flips viewerID's like on the story and returns the new liked
// state. Two toggles are a net no-op; three are equivalent to one. Toggles
// on an expired story are rejected.
func (s *StoryService) ToggleLike(ctx context.Context, storyID, viewerID uuid.UUID) (bool, *Story, error) {
	var liked bool
	story, err := s.repo.UpdateEngagement(ctx, storyID, func(story *Story) error {
		if story.Expired(s.now()) {
			return ErrStoryExpired
		}
		liked = story.Engagement.toggleLiker(viewerID)
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return liked, story, nil
}

// RecordReply counts a reply. Each call is a genuine new reply event; only
// expiry is rejected.
func (s *StoryService) RecordReply(ctx context.Context, storyID uuid.UUID) (*Story, error) {
	return s.repo.UpdateEngagement(ctx, storyID, func(story *Story) error {
		if story.Expired(s.now()) {
			return ErrStoryExpired
		}
		story.Engagement.ReplyCount++
		return nil
	})
}

// RecordShare counts a share. Same semantics as RecordReply.
func (s *StoryService) RecordShare(ctx context.Context, storyID uuid.UUID) (*Story, error) {
	return s.repo.UpdateEngagement(ctx, storyID, func(story *Story) error {
		if story.Expired(s.now()) {
			return ErrStoryExpired
		}
		story.Engagement.ShareCount++
		return nil
	})
}

// GetStory fetches a single story by id.
func (s *StoryService) GetStory(ctx context.Context, id uuid.UUID) (*Story, error) {
	return s.repo.GetStoryByID(ctx, id)
}
