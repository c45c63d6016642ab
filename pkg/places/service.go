package places

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/abr13/demo-crud-review/pkg/cache"
)

// Config holds the per-resource cache TTLs. Search results are volatile
// and expire within minutes; place details and deeplinks are stable for
// an hour.
type Config struct {
	SearchTTL   time.Duration
	PlaceTTL    time.Duration
	DeeplinkTTL time.Duration
}

// DefaultConfig returns the default TTL configuration.
func DefaultConfig() Config {
	return Config{
		SearchTTL:   5 * time.Minute,
		PlaceTTL:    time.Hour,
		DeeplinkTTL: time.Hour,
	}
}

// Service is the cache-aside query orchestrator. For each query it
// derives a key, attempts a cache read, on miss calls the provider
// exactly once, transforms the result, writes it back with the
// resource-appropriate TTL, and returns it.
//
// Cache failures are absorbed here and only cost the performance
// benefit; provider failures propagate to the caller with no cache
// mutation. The service holds no per-request state and is safe for
// concurrent use.
type Service struct {
	provider Provider
	cache    Cache
	cfg      Config
	logger   zerolog.Logger
}

// NewService creates the orchestrator. Zero TTLs in cfg are replaced
// with defaults.
func NewService(provider Provider, cacheStore Cache, cfg Config, logger zerolog.Logger) *Service {
	if provider == nil {
		panic("provider cannot be nil")
	}
	if cacheStore == nil {
		panic("cache cannot be nil")
	}

	defaults := DefaultConfig()
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = defaults.SearchTTL
	}
	if cfg.PlaceTTL <= 0 {
		cfg.PlaceTTL = defaults.PlaceTTL
	}
	if cfg.DeeplinkTTL <= 0 {
		cfg.DeeplinkTTL = defaults.DeeplinkTTL
	}

	return &Service{
		provider: provider,
		cache:    cacheStore,
		cfg:      cfg,
		logger:   logger,
	}
}

// Search answers a place-search query through the cache-aside flow.
//
// The provider result list is capped at the requested limit BEFORE the
// quality filter runs, matching the gateway's long-standing observable
// behavior: a page may contain fewer than limit viable results, and the
// caller pages on via NextPageToken.
func (s *Service) Search(ctx context.Context, q SearchQuery) (*SearchResponse, error) {
	key := cache.DeriveSearchKey(q.Text, q.Latitude, q.Longitude, q.RadiusMeters, q.Limit)

	if data, ok := s.cache.Get(ctx, key); ok {
		var resp SearchResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			s.logger.Debug().Str("key", key.String()).Msg("Cache hit for search")
			return &resp, nil
		}
		s.logger.Warn().Str("key", key.String()).Msg("Corrupt search cache entry, treating as miss")
	}

	page, err := s.provider.TextSearch(ctx, q.Text, q.Latitude, q.Longitude, q.RadiusMeters)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	raws := page.Results
	if len(raws) > q.Limit {
		raws = raws[:q.Limit]
	}

	summaries := make([]PlaceSummary, 0, len(raws))
	for _, raw := range raws {
		summaries = append(summaries, ToSearchSummary(raw, q.Latitude, q.Longitude))
	}

	resp := &SearchResponse{
		Results:       FilterSummaries(summaries),
		NextPageToken: page.NextPageToken,
	}

	s.writeBack(ctx, key, resp, s.cfg.SearchTTL)
	return resp, nil
}

// PlaceDetails answers a place-detail query through the cache-aside flow.
func (s *Service) PlaceDetails(ctx context.Context, placeID string) (*PlaceDetail, error) {
	key := cache.DerivePlaceKey(placeID)

	if data, ok := s.cache.Get(ctx, key); ok {
		var detail PlaceDetail
		if err := json.Unmarshal(data, &detail); err == nil {
			s.logger.Debug().Str("key", key.String()).Msg("Cache hit for place details")
			return &detail, nil
		}
		s.logger.Warn().Str("key", key.String()).Msg("Corrupt place cache entry, treating as miss")
	}

	raw, err := s.provider.PlaceDetails(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("place details: %w", err)
	}

	detail := ToPlaceDetail(*raw)
	s.writeBack(ctx, key, &detail, s.cfg.PlaceTTL)
	return &detail, nil
}

// Deeplink returns the Google Maps URL for a place. No provider call is
// needed; the link is derived from the place ID and cached like any
// other resource.
func (s *Service) Deeplink(ctx context.Context, placeID string) (*Deeplink, error) {
	key := cache.DeriveDeeplinkKey(placeID)

	if data, ok := s.cache.Get(ctx, key); ok {
		var link Deeplink
		if err := json.Unmarshal(data, &link); err == nil {
			return &link, nil
		}
		s.logger.Warn().Str("key", key.String()).Msg("Corrupt deeplink cache entry, treating as miss")
	}

	link := &Deeplink{
		URL: "https://www.google.com/maps/place/?q=place_id:" + placeID,
	}
	s.writeBack(ctx, key, link, s.cfg.DeeplinkTTL)
	return link, nil
}

// Health reports the cache connection state and stats. The stats call
// pings Redis, so a recovered cache is picked up here.
func (s *Service) Health(ctx context.Context) Health {
	stats := s.cache.Stats(ctx)
	return Health{
		CacheConnected: s.cache.IsConnected(),
		CacheStats:     stats,
	}
}

// writeBack attempts a best-effort cache write. Failures are logged and
// ignored; the freshly computed response is returned to the caller
// either way.
func (s *Service) writeBack(ctx context.Context, key cache.Key, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to marshal cache entry")
		return
	}
	if ok := s.cache.Set(ctx, key, data, ttl); !ok {
		s.logger.Debug().Str("key", key.String()).Msg("Cache write skipped")
		return
	}
	s.logger.Debug().Str("key", key.String()).Dur("ttl", ttl).Msg("Cached response")
}
