// Package testutil provides testing utilities for the places gateway.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// Paths of the Places Web Service endpoints the gateway calls.
const (
	TextSearchPath   = "/textsearch/json"
	PlaceDetailsPath = "/details/json"
)

// MockPlacesResponse defines the behavior for a mock provider response.
type MockPlacesResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockPlaces is a configurable mock Google Places API server for testing.
type MockPlaces struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	SearchCount  int
	DetailsCount int
	LastQuery    url.Values
}

// NewMockPlaces creates a new mock provider server.
func NewMockPlaces() *MockPlaces {
	mock := &MockPlaces{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastQuery = r.URL.Query()
		switch r.URL.Path {
		case TextSearchPath:
			mock.SearchCount++
		case PlaceDetailsPath:
			mock.DetailsCount++
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL, suitable as the provider BaseURL.
func (m *MockPlaces) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockPlaces) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockPlaces) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.SearchCount = 0
	m.DetailsCount = 0
	m.LastQuery = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockPlaces) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockPlaces) SetResponse(path string, resp MockPlacesResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockPlaces) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetSearchCount returns the number of text-search requests.
func (m *MockPlaces) GetSearchCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.SearchCount
}

// GetDetailsCount returns the number of place-details requests.
func (m *MockPlaces) GetDetailsCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.DetailsCount
}

// defaultHandler answers with an empty OK search page.
func (m *MockPlaces) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"results": [], "status": "OK"}`))
}

// SearchBody builds a text-search payload with the given results JSON.
func SearchBody(resultsJSON, nextPageToken string) string {
	body := `{"results": [` + resultsJSON + `], "status": "OK"`
	if nextPageToken != "" {
		body += `, "next_page_token": "` + nextPageToken + `"`
	}
	return body + `}`
}

// DetailsBody builds a place-details payload with the given result JSON.
func DetailsBody(resultJSON string) string {
	return `{"result": ` + resultJSON + `, "status": "OK"}`
}

// NewOKResponse creates a standard 200 OK response with the given body.
func NewOKResponse(body string) MockPlacesResponse {
	return MockPlacesResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	}
}

// NewStatusResponse creates a 200 response carrying a non-OK provider
// status, the way the Places API reports application-level failures.
func NewStatusResponse(status, errorMessage string) MockPlacesResponse {
	body := `{"results": [], "status": "` + status + `"`
	if errorMessage != "" {
		body += `, "error_message": "` + errorMessage + `"`
	}
	return MockPlacesResponse{
		StatusCode: http.StatusOK,
		Body:       body + `}`,
	}
}

// NewZeroResultsResponse creates an empty ZERO_RESULTS page.
func NewZeroResultsResponse() MockPlacesResponse {
	return MockPlacesResponse{
		StatusCode: http.StatusOK,
		Body:       `{"results": [], "status": "ZERO_RESULTS"}`,
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockPlacesResponse {
	return MockPlacesResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "internal server error"}`,
	}
}

// NewForbiddenResponse creates a 403 response.
func NewForbiddenResponse() MockPlacesResponse {
	return MockPlacesResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"error": "access denied"}`,
	}
}

// SamplePlaceJSON is a representative search result record.
const SamplePlaceJSON = `{
	"place_id": "ChIJ123",
	"name": "Corner House",
	"rating": 4.4,
	"user_ratings_total": 1250,
	"types": ["restaurant", "food"],
	"vicinity": "Residency Road, Bangalore",
	"geometry": {"location": {"lat": 12.9352, "lng": 77.6245}}
}`

// SampleDetailJSON is a representative place-details record with seven
// reviews and opening hours.
const SampleDetailJSON = `{
	"place_id": "ABC123",
	"name": "Busy Bakery",
	"rating": 4.2,
	"user_ratings_total": 87,
	"types": ["bakery"],
	"formatted_address": "42 Bread St",
	"opening_hours": {"open_now": true},
	"reviews": [
		{"rating": 5, "author_name": "a1", "relative_time_description": "a week ago", "text": "r1"},
		{"rating": 4, "author_name": "a2", "relative_time_description": "a week ago", "text": "r2"},
		{"rating": 4, "author_name": "a3", "relative_time_description": "2 weeks ago", "text": "r3"},
		{"rating": 3, "author_name": "a4", "relative_time_description": "2 weeks ago", "text": "r4"},
		{"rating": 5, "author_name": "a5", "relative_time_description": "a month ago", "text": "r5"},
		{"rating": 2, "author_name": "a6", "relative_time_description": "a month ago", "text": "r6"},
		{"rating": 1, "author_name": "a7", "relative_time_description": "a year ago", "text": "r7"}
	]
}`
