package cache

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// Key is a deterministic cache key. The resource-type prefix ("search",
// "place", "deeplink") keeps the keyspaces disjoint.
type Key string

// String returns the key as stored in Redis.
func (k Key) String() string {
	return string(k)
}

// Resource returns the resource-type prefix of the key.
func (k Key) Resource() string {
	s := string(k)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}

// DeriveSearchKey builds the cache key for a text search.
// The free-text query is trimmed and lowercased so logically identical
// queries map to the same key; the joined fields are base64-encoded so
// user-supplied text containing the delimiter cannot collide with a
// different query.
//
// Format: search:<base64(query:lat:lng:radius:limit)>
//
// Coordinates are used verbatim (no rounding), so queries differing only
// in coordinate precision produce distinct keys.
func DeriveSearchKey(query string, lat, lng float64, radiusMeters, limit int) Key {
	normalized := strings.ToLower(strings.TrimSpace(query))
	raw := normalized + ":" +
		formatCoord(lat) + ":" +
		formatCoord(lng) + ":" +
		strconv.Itoa(radiusMeters) + ":" +
		strconv.Itoa(limit)
	return Key("search:" + base64.StdEncoding.EncodeToString([]byte(raw)))
}

// DerivePlaceKey builds the cache key for place details.
// Place IDs are already opaque provider identifiers, so they are used as-is.
func DerivePlaceKey(placeID string) Key {
	return Key("place:" + placeID)
}

// DeriveDeeplinkKey builds the cache key for a maps deeplink.
func DeriveDeeplinkKey(placeID string) Key {
	return Key("deeplink:" + placeID)
}

// formatCoord renders a coordinate with the fewest digits that round-trip
// exactly, matching the textual form clients sent.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
