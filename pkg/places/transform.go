package places

import (
	"github.com/abr13/demo-crud-review/pkg/geo"
)

// Defaults applied when the provider omits a field.
const (
	defaultCategory = "Business"
	defaultLocality = "Location not available"
)

// Quality thresholds for search results. Both boundaries are inclusive:
// a place with rating 2.0 and 5 ratings is kept.
const (
	minRating      = 2.0
	minRatingCount = 5
)

// maxReviews caps the number of reviews carried on a place detail.
const maxReviews = 5

// ToSearchSummary maps a raw provider record to a PlaceSummary, computing
// the distance from the user's coordinates to the place. Distance is 0
// when the provider supplied no coordinates.
func ToSearchSummary(raw RawPlace, userLat, userLng float64) PlaceSummary {
	distance := 0
	if raw.Location != nil {
		distance = geo.Haversine(userLat, userLng, raw.Location.Lat, raw.Location.Lng)
	}

	return PlaceSummary{
		PlaceID:        raw.PlaceID,
		Name:           raw.Name,
		Rating:         raw.Rating,
		RatingCount:    raw.RatingCount,
		Category:       categoryOf(raw.Types),
		Locality:       localityOf(raw.Vicinity, raw.FormattedAddress),
		DistanceMeters: distance,
	}
}

// ToPlaceDetail maps a raw provider record to a PlaceDetail. Reviews are
// truncated to the first maxReviews in provider-returned order.
// OpeningHours stays nil when the provider supplied none; absent and
// "closed" are different facts and must not be conflated.
func ToPlaceDetail(raw RawPlace) PlaceDetail {
	detail := PlaceDetail{
		PlaceID:     raw.PlaceID,
		Name:        raw.Name,
		Rating:      raw.Rating,
		RatingCount: raw.RatingCount,
		Category:    categoryOf(raw.Types),
		Locality:    localityOf(raw.FormattedAddress, ""),
		Reviews:     []Review{},
	}

	if raw.OpeningHours != nil {
		detail.OpeningHours = &OpeningHours{IsOpenNow: raw.OpeningHours.OpenNow}
	}

	for i, r := range raw.Reviews {
		if i == maxReviews {
			break
		}
		detail.Reviews = append(detail.Reviews, Review{
			Rating:       r.Rating,
			Author:       r.Author,
			RelativeTime: r.RelativeTime,
			Text:         r.Text,
		})
	}

	return detail
}

// FilterSummaries drops low-quality search results: first places rated
// below minRating, then places with fewer than minRatingCount ratings.
// Input order is preserved; the input slice is not mutated.
func FilterSummaries(summaries []PlaceSummary) []PlaceSummary {
	filtered := make([]PlaceSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.Rating < minRating {
			continue
		}
		if s.RatingCount < minRatingCount {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

func categoryOf(types []string) string {
	if len(types) > 0 {
		return types[0]
	}
	return defaultCategory
}

func localityOf(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	if fallback != "" {
		return fallback
	}
	return defaultLocality
}
