// Package googleplaces implements the places.Provider interface against
// the Google Places Web Service API (text search and place details).
package googleplaces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/abr13/demo-crud-review/pkg/places"
)

// Prometheus metrics for provider operations.
var (
	providerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "places_provider_requests_total",
		Help: "Total provider requests by endpoint and status",
	}, []string{"endpoint", "status"})

	providerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "places_provider_request_duration_seconds",
		Help:    "Provider request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	providerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "places_provider_errors_total",
		Help: "Total provider errors by class",
	}, []string{"class"})
)

// Google Places API status strings the client reacts to.
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	statusOverLimit   = "OVER_QUERY_LIMIT"
	statusUnknown     = "UNKNOWN_ERROR"
)

// Config holds the provider client configuration.
type Config struct {
	// APIKey authenticates against the Google Places API (REQUIRED).
	APIKey string

	// BaseURL of the Places Web Service. Overridden in tests.
	BaseURL string

	// Timeout per HTTP attempt.
	Timeout time.Duration

	// Retry policy for server/network/rate-limit failures.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://maps.googleapis.com/maps/api/place",
		Timeout: 10 * time.Second,
		Retry:   DefaultRetryConfig(),
	}
}

// Client calls the Google Places API. It owns transport-level concerns:
// per-attempt timeout, retry with backoff for transient failures, and
// error classification. Zero-result searches are an empty page, not an
// error.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     zerolog.Logger
}

var _ places.Provider = (*Client)(nil)

// New creates a new provider client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://maps.googleapis.com/maps/api/place"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg:    cfg,
		logger: log.With().Str("component", "places-provider").Logger(),
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// TextSearch performs a Places text search around the given coordinates.
func (c *Client) TextSearch(ctx context.Context, query string, lat, lng float64, radiusMeters int) (*places.RawSearchPage, error) {
	params := url.Values{
		"query":    {query},
		"location": {formatCoord(lat) + "," + formatCoord(lng)},
		"radius":   {strconv.Itoa(radiusMeters)},
		"key":      {c.cfg.APIKey},
	}

	var payload searchResponse
	if err := c.get(ctx, "/textsearch/json", params, &payload, statusOK, statusZeroResults); err != nil {
		return nil, err
	}

	page := &places.RawSearchPage{
		Results:       make([]places.RawPlace, 0, len(payload.Results)),
		NextPageToken: payload.NextPageToken,
	}
	for _, r := range payload.Results {
		page.Results = append(page.Results, r.toRaw())
	}
	return page, nil
}

// PlaceDetails fetches the detail record for a place ID.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (*places.RawPlace, error) {
	params := url.Values{
		"place_id": {placeID},
		"key":      {c.cfg.APIKey},
	}

	var payload detailsResponse
	if err := c.get(ctx, "/details/json", params, &payload, statusOK); err != nil {
		return nil, err
	}

	raw := payload.Result.toRaw()
	return &raw, nil
}

// get performs a GET with retry and decodes the JSON payload into out.
// Provider status-level errors (a status outside okStatuses in an HTTP
// 200 body) are raised inside the retried function so OVER_QUERY_LIMIT
// and UNKNOWN_ERROR get retried while REQUEST_DENIED fails fast.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out statusPayload, okStatuses ...string) error {
	startTime := time.Now()
	defer func() {
		providerRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	reqURL := c.cfg.BaseURL + endpoint + "?" + params.Encode()

	return retryWithBackoff(ctx, c.cfg.Retry, c.logger, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Provider request failed")
			providerErrorsTotal.WithLabelValues(string(errorClassNetwork)).Inc()
			providerRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &places.ProviderError{Message: "no response from places provider", Err: err}
		}
		defer resp.Body.Close()

		providerRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			class := classifyStatusCode(resp.StatusCode)
			providerErrorsTotal.WithLabelValues(string(class)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Provider returned error status")
			return &places.ProviderError{
				StatusCode: resp.StatusCode,
				Message:    httpErrorMessage(resp.StatusCode),
			}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			providerErrorsTotal.WithLabelValues(string(errorClassNetwork)).Inc()
			return &places.ProviderError{Message: "read provider response", Err: err}
		}
		if err := json.Unmarshal(body, out); err != nil {
			providerErrorsTotal.WithLabelValues(string(errorClassProvider)).Inc()
			return &places.ProviderError{Message: "decode provider response", Err: err}
		}

		status, errorMessage := out.statusInfo()
		for _, ok := range okStatuses {
			if status == ok {
				return nil
			}
		}
		return c.statusError(status, errorMessage)
	})
}

// statusError builds the error for a non-OK provider status.
func (c *Client) statusError(status, message string) error {
	if message == "" {
		message = "Unknown error"
	}
	providerErrorsTotal.WithLabelValues(string(classifyProviderStatus(status))).Inc()
	c.logger.Warn().
		Str("status", status).
		Str("message", message).
		Msg("Provider returned non-OK status")
	return &places.ProviderError{Status: status, Message: message}
}

// httpErrorMessage maps provider HTTP statuses to the stable messages
// exposed at the gateway boundary. Upstream payloads never leak.
func httpErrorMessage(statusCode int) string {
	switch {
	case statusCode == http.StatusBadRequest:
		return "invalid request to places provider"
	case statusCode == http.StatusForbidden:
		return "places provider access denied"
	case statusCode == http.StatusNotFound:
		return "places provider endpoint not found"
	case statusCode >= 500:
		return "places provider unavailable"
	default:
		return "places provider error"
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Google Places API payload types.

// statusPayload exposes the application-level status every Places API
// response body carries.
type statusPayload interface {
	statusInfo() (status, errorMessage string)
}

type searchResponse struct {
	Results       []placeResult `json:"results"`
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message"`
	NextPageToken string        `json:"next_page_token"`
}

func (r *searchResponse) statusInfo() (string, string) {
	return r.Status, r.ErrorMessage
}

type detailsResponse struct {
	Result       placeResult `json:"result"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
}

func (r *detailsResponse) statusInfo() (string, string) {
	return r.Status, r.ErrorMessage
}

type placeResult struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	Rating           float64       `json:"rating"`
	UserRatingsTotal int           `json:"user_ratings_total"`
	Types            []string      `json:"types"`
	Vicinity         string        `json:"vicinity"`
	FormattedAddress string        `json:"formatted_address"`
	Geometry         *geometry     `json:"geometry"`
	OpeningHours     *openingHours `json:"opening_hours"`
	Reviews          []review      `json:"reviews"`
}

type geometry struct {
	Location *location `json:"location"`
}

type location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type openingHours struct {
	OpenNow bool `json:"open_now"`
}

type review struct {
	Rating                  float64 `json:"rating"`
	AuthorName              string  `json:"author_name"`
	RelativeTimeDescription string  `json:"relative_time_description"`
	Text                    string  `json:"text"`
}

func (p placeResult) toRaw() places.RawPlace {
	raw := places.RawPlace{
		PlaceID:          p.PlaceID,
		Name:             p.Name,
		Rating:           p.Rating,
		RatingCount:      p.UserRatingsTotal,
		Types:            p.Types,
		Vicinity:         p.Vicinity,
		FormattedAddress: p.FormattedAddress,
	}
	if p.Geometry != nil && p.Geometry.Location != nil {
		raw.Location = &places.LatLng{
			Lat: p.Geometry.Location.Lat,
			Lng: p.Geometry.Location.Lng,
		}
	}
	if p.OpeningHours != nil {
		raw.OpeningHours = &places.RawOpeningHours{OpenNow: p.OpeningHours.OpenNow}
	}
	for _, r := range p.Reviews {
		raw.Reviews = append(raw.Reviews, places.RawReview{
			Rating:       r.Rating,
			Author:       r.AuthorName,
			RelativeTime: r.RelativeTimeDescription,
			Text:         r.Text,
		})
	}
	return raw
}
