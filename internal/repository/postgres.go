package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawprint/backend/internal/domain"
)

// storyColumns is the column list shared by every story query.
const storyColumns = `
	id, author_id, content_owner_id, kind, payload,
	origin_lat, origin_lng, created_at, expires_at,
	view_count, like_count, reply_count, share_count,
	viewer_ids, liker_ids
`

// PostgresRepository implements domain.StoryRepository, the social graph and
// the device-token registry on PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateStory inserts a freshly stamped story.
func (r *PostgresRepository) CreateStory(ctx context.Context, story *domain.Story) error {
	payload, err := json.Marshal(story.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var lat, lng *float64
	if story.OriginLocation != nil {
		lat = &story.OriginLocation.Lat
		lng = &story.OriginLocation.Lng
	}

	query := `
		INSERT INTO stories (
			id, author_id, content_owner_id, kind, payload,
			origin_lat, origin_lng, created_at, expires_at,
			view_count, like_count, reply_count, share_count,
			viewer_ids, liker_ids
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0, 0, 0, '{}', '{}')
	`
	_, err = r.db.Exec(ctx, query,
		story.ID,
		story.AuthorID,
		story.ContentOwnerID,
		story.Kind,
		payload,
		lat,
		lng,
		story.CreatedAt,
		story.ExpiresAt,
	)
	return err
}

// GetStoryByID retrieves a story by id.
func (r *PostgresRepository) GetStoryByID(ctx context.Context, id uuid.UUID) (*domain.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	return scanStory(r.db.QueryRow(ctx, query, id))
}

// FindByAuthors retrieves the non-expired stories authored by the given
// accounts, newest first.
func (r *PostgresRepository) FindByAuthors(ctx context.Context, authorIDs []uuid.UUID, notExpiredAsOf time.Time) ([]*domain.Story, error) {
	query := `
		SELECT ` + storyColumns + `
		FROM stories
		WHERE author_id = ANY($1) AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, authorIDs, notExpiredAsOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStories(rows)
}

// FindByOwners retrieves the non-expired stories about the given pets,
// newest first.
func (r *PostgresRepository) FindByOwners(ctx context.Context, ownerIDs []uuid.UUID, notExpiredAsOf time.Time) ([]*domain.Story, error) {
	query := `
		SELECT ` + storyColumns + `
		FROM stories
		WHERE content_owner_id = ANY($1) AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, ownerIDs, notExpiredAsOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStories(rows)
}

// FindRecent retrieves the non-expired stories created since the given
// instant, platform-wide.
func (r *PostgresRepository) FindRecent(ctx context.Context, since, notExpiredAsOf time.Time) ([]*domain.Story, error) {
	query := `
		SELECT ` + storyColumns + `
		FROM stories
		WHERE created_at > $1 AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, since, notExpiredAsOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStories(rows)
}

// UpdateEngagement applies mutate to the story's engagement under a row
// lock, serializing concurrent viewers on the same record.
func (r *PostgresRepository) UpdateEngagement(ctx context.Context, id uuid.UUID, mutate func(*domain.Story) error) (*domain.Story, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1 FOR UPDATE`
	story, err := scanStory(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := mutate(story); err != nil {
		return nil, err
	}

	update := `
		UPDATE stories
		SET view_count = $2, like_count = $3, reply_count = $4, share_count = $5,
		    viewer_ids = $6, liker_ids = $7
		WHERE id = $1
	`
	_, err = tx.Exec(ctx, update,
		story.ID,
		story.Engagement.ViewCount,
		story.Engagement.LikeCount,
		story.Engagement.ReplyCount,
		story.Engagement.ShareCount,
		story.Engagement.ViewerIDs,
		story.Engagement.LikerIDs,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return story, nil
}

// Following returns the account ids the user follows.
func (r *PostgresRepository) Following(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT author_id FROM follows WHERE follower_id = $1`
	return collectIDs(r.db.Query(ctx, query, userID))
}

// Followers returns the account ids following the user.
func (r *PostgresRepository) Followers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT follower_id FROM follows WHERE author_id = $1`
	return collectIDs(r.db.Query(ctx, query, userID))
}

// Follow records a follow edge. Idempotent.
func (r *PostgresRepository) Follow(ctx context.Context, followerID, authorID uuid.UUID) error {
	query := `
		INSERT INTO follows (follower_id, author_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (follower_id, author_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, followerID, authorID)
	return err
}

// Unfollow removes a follow edge.
func (r *PostgresRepository) Unfollow(ctx context.Context, followerID, authorID uuid.UUID) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND author_id = $2`
	_, err := r.db.Exec(ctx, query, followerID, authorID)
	return err
}

// RegisterDeviceToken upserts a push token for the user.
func (r *PostgresRepository) RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	query := `
		INSERT INTO device_tokens (user_id, token, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id
	`
	_, err := r.db.Exec(ctx, query, userID, token)
	return err
}

// DeviceTokens returns the push tokens registered by the given users.
func (r *PostgresRepository) DeviceTokens(ctx context.Context, userIDs []uuid.UUID) ([]string, error) {
	query := `SELECT token FROM device_tokens WHERE user_id = ANY($1)`
	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// DeleteExpiredStories removes stories whose expiry passed more than the
// retention window ago. Feed queries already exclude expired rows; this
// keeps the table from growing without bound.
func (r *PostgresRepository) DeleteExpiredStories(ctx context.Context, retention time.Duration) (int64, error) {
	query := `DELETE FROM stories WHERE expires_at < $1`
	tag, err := r.db.Exec(ctx, query, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// StartCleanupWorker starts a background worker that purges long-expired
// stories on the given interval.
func (r *PostgresRepository) StartCleanupWorker(ctx context.Context, interval, retention time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = r.DeleteExpiredStories(ctx, retention)
			}
		}
	}()
}

// Helper functions for scanning rows

func scanStory(row pgx.Row) (*domain.Story, error) {
	var (
		story      domain.Story
		payload    []byte
		lat, lng   *float64
		viewerIDs  []uuid.UUID
		likerIDs   []uuid.UUID
		engagement = &story.Engagement
	)
	err := row.Scan(
		&story.ID,
		&story.AuthorID,
		&story.ContentOwnerID,
		&story.Kind,
		&payload,
		&lat,
		&lng,
		&story.CreatedAt,
		&story.ExpiresAt,
		&engagement.ViewCount,
		&engagement.LikeCount,
		&engagement.ReplyCount,
		&engagement.ShareCount,
		&viewerIDs,
		&likerIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStoryNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(payload, &story.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if lat != nil && lng != nil {
		story.OriginLocation = &domain.GeoPoint{Lat: *lat, Lng: *lng}
	}
	engagement.ViewerIDs = viewerIDs
	engagement.LikerIDs = likerIDs
	return &story, nil
}

func collectStories(rows pgx.Rows) ([]*domain.Story, error) {
	var stories []*domain.Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

func collectIDs(rows pgx.Rows, err error) ([]uuid.UUID, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
