// Package places implements the core of the places gateway: the domain
// model, the transformation and filtering pipeline applied to provider
// results, and the cache-aside query orchestrator.
package places

import (
	"context"
	"time"

	"github.com/abr13/demo-crud-review/pkg/cache"
)

// SearchQuery is a validated place-search request. Instances are
// immutable once constructed; the HTTP layer rejects invalid values
// before they reach the core.
type SearchQuery struct {
	Text         string
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	Limit        int
}

// PlaceSummary is a single search result in the gateway's stable output
// schema. Produced only by the transformer and never mutated afterwards.
type PlaceSummary struct {
	PlaceID        string  `json:"placeId"`
	Name           string  `json:"name"`
	Rating         float64 `json:"rating"`
	RatingCount    int     `json:"ratingCount"`
	Category       string  `json:"category"`
	Locality       string  `json:"locality"`
	DistanceMeters int     `json:"distanceMeters"`
}

// OpeningHours carries current open/closed state. A nil *OpeningHours on
// PlaceDetail means the provider supplied no opening-hours data, which
// is a different fact than "closed right now".
type OpeningHours struct {
	IsOpenNow bool `json:"isOpenNow"`
}

// Review is a single user review in provider-returned order.
type Review struct {
	Rating       float64 `json:"rating"`
	Author       string  `json:"author"`
	RelativeTime string  `json:"relativeTime"`
	Text         string  `json:"text"`
}

// PlaceDetail is the detail view of a place, with at most five reviews.
type PlaceDetail struct {
	PlaceID      string        `json:"placeId"`
	Name         string        `json:"name"`
	Rating       float64       `json:"rating"`
	RatingCount  int           `json:"ratingCount"`
	Category     string        `json:"category"`
	Locality     string        `json:"locality"`
	OpeningHours *OpeningHours `json:"openingHours,omitempty"`
	Reviews      []Review      `json:"reviews"`
}

// SearchResponse is the result of a search query.
type SearchResponse struct {
	Results       []PlaceSummary `json:"results"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

// Deeplink points at the place in Google Maps.
type Deeplink struct {
	URL string `json:"url"`
}

// Health reports the cache state for the health endpoint.
type Health struct {
	CacheConnected bool        `json:"cacheConnected"`
	CacheStats     cache.Stats `json:"cacheStats"`
}

// LatLng is a WGS 84 coordinate pair.
type LatLng struct {
	Lat float64
	Lng float64
}

// RawPlace is a provider place record before transformation. Fields the
// provider omitted are zero values, except Location and OpeningHours
// where absence is meaningful and modeled as nil.
type RawPlace struct {
	PlaceID          string
	Name             string
	Rating           float64
	RatingCount      int
	Types            []string
	Vicinity         string
	FormattedAddress string
	Location         *LatLng
	OpeningHours     *RawOpeningHours
	Reviews          []RawReview
}

// RawOpeningHours is provider opening-hours data.
type RawOpeningHours struct {
	OpenNow bool
}

// RawReview is a provider review record.
type RawReview struct {
	Rating       float64
	Author       string
	RelativeTime string
	Text         string
}

// RawSearchPage is one page of provider search results.
type RawSearchPage struct {
	Results       []RawPlace
	NextPageToken string
}

// Provider is the external places API the orchestrator delegates to.
// Implementations must distinguish "zero results" (an empty page, no
// error) from true failures, and own their transport-level retry and
// timeout policy.
type Provider interface {
	TextSearch(ctx context.Context, query string, lat, lng float64, radiusMeters int) (*RawSearchPage, error)
	PlaceDetails(ctx context.Context, placeID string) (*RawPlace, error)
}

// Cache is the advisory key/value store the orchestrator reads through.
// All operations fail open; see pkg/cache.
type Cache interface {
	Get(ctx context.Context, key cache.Key) ([]byte, bool)
	Set(ctx context.Context, key cache.Key, value []byte, ttl time.Duration) bool
	IsConnected() bool
	Stats(ctx context.Context) cache.Stats
}
