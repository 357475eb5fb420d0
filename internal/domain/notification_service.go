package domain

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeviceTokenRepository stores push-notification device tokens per account.
type DeviceTokenRepository interface {
	RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token string) error
	DeviceTokens(ctx context.Context, userIDs []uuid.UUID) ([]string, error)
}

// Pusher delivers a push message to a single device token.
type Pusher interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// NotificationService pushes story-created notifications to the author's
// followers. It implements NotificationDispatcher; every failure is logged
// and swallowed so dispatch never affects story creation.
type NotificationService struct {
	graph   SocialGraph
	devices DeviceTokenRepository
	pusher  Pusher
	logger  *zap.Logger
}

func NewNotificationService(graph SocialGraph, devices DeviceTokenRepository, pusher Pusher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{graph: graph, devices: devices, pusher: pusher, logger: logger}
}

// RegisterDevice stores a device token for push delivery.
func (s *NotificationService) RegisterDevice(ctx context.Context, userID uuid.UUID, token string) error {
	return s.devices.RegisterDeviceToken(ctx, userID, token)
}

// NotifyFollowers fans a story-created push out to the author's followers.
func (s *NotificationService) NotifyFollowers(ctx context.Context, story *Story) {
	if s.pusher == nil {
		return
	}

	followerIDs, err := s.graph.Followers(ctx, story.AuthorID)
	if err != nil {
		s.logger.Warn("follower lookup failed, skipping push", zap.Error(err))
		return
	}
	if len(followerIDs) == 0 {
		return
	}

	tokens, err := s.devices.DeviceTokens(ctx, followerIDs)
	if err != nil {
		s.logger.Warn("device token lookup failed, skipping push", zap.Error(err))
		return
	}

	title, body := storyNotificationText(story)
	data := map[string]string{
		"type":     "story.created",
		"story_id": story.ID.String(),
		"owner_id": story.ContentOwnerID.String(),
	}
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if err := s.pusher.Send(ctx, token, title, body, data); err != nil {
			s.logger.Debug("push send failed", zap.Error(err))
		}
	}
}

func storyNotificationText(story *Story) (title, body string) {
	switch story.Kind {
	case StoryKindPlaydate:
		return "New playdate", "A pet you follow just had a playdate"
	case StoryKindAchievement:
		return "New achievement", "A pet you follow unlocked an achievement"
	case StoryKindEvent:
		return "New event", "A pet you follow posted an event"
	default:
		return "New story", "A pet you follow posted a new story"
	}
}
