package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abr13/demo-crud-review/pkg/places"
)

// Request validation bounds. Values outside these are rejected before
// any cache or provider work happens.
const (
	maxQueryLength = 120

	minRadiusMeters     = 1
	maxRadiusMeters     = 5000
	defaultRadiusMeters = 1500

	minLimit     = 1
	maxLimit     = 20
	defaultLimit = 10
)

// handleSearch serves GET /v1/search?q=...&lat=...&lng=...[&radius=...][&limit=...].
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	resp, err := s.svc.Search(r.Context(), q)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, resp)
}

// handlePlaceDetails serves GET /v1/place/{placeID}.
func (s *Server) handlePlaceDetails(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")
	if placeID == "" {
		s.writeError(w, r, http.StatusBadRequest, codeInvalidRequest, "placeID is required")
		return
	}

	detail, err := s.svc.PlaceDetails(r.Context(), placeID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, detail)
}

// handleDeeplink serves GET /v1/deeplink/{placeID}.
func (s *Server) handleDeeplink(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")
	if placeID == "" {
		s.writeError(w, r, http.StatusBadRequest, codeInvalidRequest, "placeID is required")
		return
	}

	link, err := s.svc.Deeplink(r.Context(), placeID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, link)
}

// healthResponse augments the orchestrator's health report with process
// facts only the HTTP layer knows.
type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	places.Health
}

// handleHealth serves GET /v1/health. Always 200; the body reports the
// cache state because a disconnected cache degrades but does not break
// the gateway.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, healthResponse{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Health:        s.svc.Health(r.Context()),
	})
}

// parseSearchQuery validates the search parameters.
func parseSearchQuery(r *http.Request) (places.SearchQuery, error) {
	var q places.SearchQuery
	params := r.URL.Query()

	q.Text = strings.TrimSpace(params.Get("q"))
	if q.Text == "" {
		return q, fmt.Errorf("q is required")
	}
	if len(q.Text) > maxQueryLength {
		return q, fmt.Errorf("q must be at most %d characters", maxQueryLength)
	}

	var err error
	if q.Latitude, err = parseFloat(params.Get("lat"), "lat"); err != nil {
		return q, err
	}
	if q.Latitude < -90 || q.Latitude > 90 {
		return q, fmt.Errorf("lat must be between -90 and 90")
	}

	if q.Longitude, err = parseFloat(params.Get("lng"), "lng"); err != nil {
		return q, err
	}
	if q.Longitude < -180 || q.Longitude > 180 {
		return q, fmt.Errorf("lng must be between -180 and 180")
	}

	if q.RadiusMeters, err = parseBoundedInt(params.Get("radius"), "radius", minRadiusMeters, maxRadiusMeters, defaultRadiusMeters); err != nil {
		return q, err
	}
	if q.Limit, err = parseBoundedInt(params.Get("limit"), "limit", minLimit, maxLimit, defaultLimit); err != nil {
		return q, err
	}

	return q, nil
}

func parseFloat(value, name string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return f, nil
}

func parseBoundedInt(value, name string, min, max, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s must be between %d and %d", name, min, max)
	}
	return n, nil
}
