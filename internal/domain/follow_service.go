package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// FollowRepository is the writable side of the social graph.
type FollowRepository interface {
	SocialGraph
	Follow(ctx context.Context, followerID, authorID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, authorID uuid.UUID) error
}

// FollowService manages follow relationships between accounts.
type FollowService struct {
	repo FollowRepository
}

func NewFollowService(repo FollowRepository) *FollowService {
	return &FollowService{repo: repo}
}

func (s *FollowService) Follow(ctx context.Context, followerID, authorID uuid.UUID) error {
	if followerID == authorID {
		return errors.New("cannot follow self")
	}
	return s.repo.Follow(ctx, followerID, authorID)
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, authorID uuid.UUID) error {
	return s.repo.Unfollow(ctx, followerID, authorID)
}

func (s *FollowService) Following(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.Following(ctx, userID)
}
