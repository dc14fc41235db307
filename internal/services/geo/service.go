// Package geo answers which open stores lie within a radius of a point.
package geo

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"time"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/metrics"
	"scanpay/internal/models"
)

const (
	DefaultRadiusKm = 5.0
	nearbyCacheTTL  = 30 * time.Second
)

// StoreSource lists the stores eligible for proximity search.
type StoreSource interface {
	ListOpen(ctx context.Context) ([]*models.Store, error)
}

// Cache is the subset of the cache service used for nearby results.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Query is a nearby lookup. Lat and Lng are required; a zero RadiusKm means
// the default radius.
type Query struct {
	Lat      *float64
	Lng      *float64
	RadiusKm float64
}

type Result struct {
	*models.Store
	DistanceKm float64 `json:"distanceKm"`
}

type Service interface {
	Nearby(ctx context.Context, q Query) ([]Result, error)
}

type service struct {
	stores        StoreSource
	cache         Cache
	metrics       *metrics.Metrics
	defaultRadius float64
}

// NewService creates the store locator. cache and m may be nil.
func NewService(stores StoreSource, cache Cache, m *metrics.Metrics, defaultRadiusKm float64) Service {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = DefaultRadiusKm
	}
	return &service{
		stores:        stores,
		cache:         cache,
		metrics:       m,
		defaultRadius: defaultRadiusKm,
	}
}

func (s *service) Nearby(ctx context.Context, q Query) ([]Result, error) {
	lat, lng, radius, err := s.normalize(q)
	if err != nil {
		return nil, err
	}

	key := cacheKey(lat, lng, radius)
	if s.cache != nil {
		var cached []Result
		if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
			return cached, nil
		}
	}

	stores, err := s.stores.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open stores: %w", err)
	}

	results := Filter(stores, lat, lng, radius)
	s.metrics.ObserveNearby(len(results))

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, key, results, nearbyCacheTTL); err != nil {
			log.Printf("Warning: failed to cache nearby results: %v", err)
		}
	}
	return results, nil
}

func (s *service) normalize(q Query) (lat, lng, radius float64, err error) {
	if q.Lat == nil || q.Lng == nil {
		return 0, 0, 0, apperrors.ErrInvalidQuery
	}
	lat, lng, radius = *q.Lat, *q.Lng, q.RadiusKm
	if !finite(lat) || !finite(lng) || !models.ValidCoordinates(lat, lng) {
		return 0, 0, 0, apperrors.ErrInvalidQuery
	}
	if !finite(radius) || radius < 0 {
		return 0, 0, 0, apperrors.ErrInvalidQuery
	}
	if radius == 0 {
		radius = s.defaultRadius
	}
	return lat, lng, radius, nil
}

// Filter keeps open stores within radiusKm of (lat, lng), nearest first.
// Equal distances are ordered by store id.
func Filter(stores []*models.Store, lat, lng, radiusKm float64) []Result {
	results := make([]Result, 0)
	for _, store := range stores {
		if store == nil || !store.IsOpen() {
			continue
		}
		d := Distance(lat, lng, store.Latitude, store.Longitude)
		if d <= radiusKm {
			results = append(results, Result{Store: store, DistanceKm: d})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].DistanceKm != results[j].DistanceKm {
			return results[i].DistanceKm < results[j].DistanceKm
		}
		return results[i].ID < results[j].ID
	})
	return results
}

func cacheKey(lat, lng, radius float64) string {
	return "nearby:" + strconv.FormatFloat(lat, 'f', -1, 64) + ":" +
		strconv.FormatFloat(lng, 'f', -1, 64) + ":" +
		strconv.FormatFloat(radius, 'f', -1, 64)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
