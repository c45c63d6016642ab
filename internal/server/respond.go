package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abr13/demo-crud-review/pkg/places"
)

// Stable error codes exposed in the error envelope.
const (
	codeInvalidRequest  = "INVALID_REQUEST"
	codeUnauthorized    = "UNAUTHORIZED"
	codeRateLimited     = "RATE_LIMITED"
	codeNotFound        = "NOT_FOUND"
	codeUpstreamError   = "UPSTREAM_ERROR"
	codeUpstreamTimeout = "UPSTREAM_TIMEOUT"
	codeInternal        = "INTERNAL"
)

// errorEnvelope is the body of every non-2xx response.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"traceId"`
}

// writeJSON writes a 200 response with the given payload.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Str("trace_id", traceID(r.Context())).Msg("Failed to encode response")
	}
}

// writeError writes the error envelope with the request's trace ID.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	envelope := errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		TraceID: traceID(r.Context()),
	}}
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		s.logger.Error().Err(err).Str("trace_id", traceID(r.Context())).Msg("Failed to encode error envelope")
	}
}

// respondServiceError maps orchestrator failures to the envelope.
// Provider failures surface as gateway errors with stable messages;
// upstream payloads never reach the client.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if places.IsTimeout(err) {
		s.writeError(w, r, http.StatusGatewayTimeout, codeUpstreamTimeout, "places provider timed out")
		return
	}

	var pe *places.ProviderError
	if errors.As(err, &pe) {
		if pe.Status == "NOT_FOUND" || pe.StatusCode == http.StatusNotFound {
			s.writeError(w, r, http.StatusNotFound, codeNotFound, "place not found")
			return
		}
		s.writeError(w, r, http.StatusBadGateway, codeUpstreamError, pe.Message)
		return
	}

	s.logger.Error().Err(err).Str("trace_id", traceID(r.Context())).Msg("Unhandled service error")
	s.writeError(w, r, http.StatusInternalServerError, codeInternal, "internal error")
}
