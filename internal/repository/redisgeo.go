package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/pawprint/backend/internal/domain"
)

const (
	ownerGeoKey      = "geo:owners"
	viewerLocKeyFmt  = "geo:viewer:%s"
	viewerLocTTL     = 24 * time.Hour
	redisDialTimeout = 5 * time.Second
)

// RedisGeoIndex implements domain.GeoIndex on the Redis GEO commands. Owner
// positions live in one geo set; viewer positions are short-lived keys
// refreshed by location reports.
type RedisGeoIndex struct {
	client *redis.Client
}

// NewRedisGeoIndex connects to Redis and verifies the connection.
func NewRedisGeoIndex(url string) (*RedisGeoIndex, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisGeoIndex{client: client}, nil
}

func (g *RedisGeoIndex) Close() error {
	return g.client.Close()
}

// Ping reports whether the index is reachable.
func (g *RedisGeoIndex) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// UpdateOwnerLocation records a content owner's position in the geo set.
func (g *RedisGeoIndex) UpdateOwnerLocation(ctx context.Context, ownerID uuid.UUID, loc domain.GeoPoint) error {
	return g.client.GeoAdd(ctx, ownerGeoKey, &redis.GeoLocation{
		Name:      ownerID.String(),
		Latitude:  loc.Lat,
		Longitude: loc.Lng,
	}).Err()
}

// Nearby returns the content owners within radiusKm of loc.
func (g *RedisGeoIndex) Nearby(ctx context.Context, loc domain.GeoPoint, radiusKm float64) ([]uuid.UUID, error) {
	members, err := g.client.GeoSearch(ctx, ownerGeoKey, &redis.GeoSearchQuery{
		Latitude:   loc.Lat,
		Longitude:  loc.Lng,
		Radius:     radiusKm,
		RadiusUnit: "km",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: geo search: %v", domain.ErrCollaboratorUnavailable, err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SetViewerLocation stores a viewer's last reported position.
func (g *RedisGeoIndex) SetViewerLocation(ctx context.Context, viewerID uuid.UUID, loc domain.GeoPoint) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(viewerLocKeyFmt, viewerID)
	return g.client.Set(ctx, key, data, viewerLocTTL).Err()
}

// ViewerLocation returns the viewer's last reported position, or nil when
// none is known.
func (g *RedisGeoIndex) ViewerLocation(ctx context.Context, viewerID uuid.UUID) (*domain.GeoPoint, error) {
	key := fmt.Sprintf(viewerLocKeyFmt, viewerID)
	data, err := g.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: viewer location: %v", domain.ErrCollaboratorUnavailable, err)
	}

	var loc domain.GeoPoint
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}
