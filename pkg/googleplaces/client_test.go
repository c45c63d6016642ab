package googleplaces

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/abr13/demo-crud-review/internal/testutil"
	"github.com/abr13/demo-crud-review/pkg/places"
)

func testClient(t *testing.T, mock *testutil.MockPlaces) *Client {
	t.Helper()

	cfg := DefaultConfig("test-api-key")
	cfg.BaseURL = mock.URL()
	cfg.Retry = RetryConfig{
		MaxAttempts:       2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New accepted an empty API key")
	}
}

func TestClient_TextSearch(t *testing.T) {
	mock := testutil.NewMockPlaces()
	defer mock.Close()
	mock.SetResponse(testutil.TextSearchPath,
		testutil.NewOKResponse(testutil.SearchBody(testutil.SamplePlaceJSON, "tok-2")))

	c := testClient(t, mock)

	page, err := c.TextSearch(context.Background(), "pizza", 12.9716, 77.5946, 1500)
	if err != nil {
		t.Fatalf("TextSearch failed: %v", err)
	}

	if len(page.Results) != 1 {
		t.Fatalf("len(Results) = %d, want 1", len(page.Results))
	}
	raw := page.Results[0]
	if raw.PlaceID != "ChIJ123" || raw.Name != "Corner House" {
		t.Errorf("identity fields wrong: %+v", raw)
	}
	if raw.Rating != 4.4 || raw.RatingCount != 1250 {
		t.Errorf("rating fields wrong: %+v", raw)
	}
	if raw.Location == nil || raw.Location.Lat != 12.9352 {
		t.Errorf("Location = %+v", raw.Location)
	}
	if page.NextPageToken != "tok-2" {
		t.Errorf("NextPageToken = %q", page.NextPageToken)
	}

	q := mock.LastQuery
	if q.Get("query") != "pizza" {
		t.Errorf("query param = %q", q.Get("query"))
	}
	if q.Get("location") != "12.9716,77.5946" {
		t.Errorf("location param = %q", q.Get("location"))
	}
	if q.Get("radius") != "1500" {
		t.Errorf("radius param = %q", q.Get("radius"))
	}
	if q.Get("key") != "test-api-key" {
		t.Errorf("key param = %q", q.Get("key"))
	}
}

func TestClient_TextSearch_ZeroResultsIsNotAnError(t *testing.T) {
	mock := testutil.NewMockPlaces()
	defer mock.Close()
	mock.SetResponse(testutil.TextSearchPath, testutil.NewZeroResultsResponse())

	c := testClient(t, mock)

	page, err := c.TextSearch(context.Background(), "nothing here", 0, 0, 1500)
	if err != nil {
		t.Fatalf("ZERO_RESULTS must not be an error: %v", err)
	}
	if len(page.Results) != 0 {
		t.Errorf("len(Results) = %d, want 0", len(page.Results))
	}
}

func TestClient_TextSearch_NonOKStatus(t *testing.T) {
	mock := testutil.NewMockPlaces()
	defer mock.Close()
	mock.SetResponse(testutil.TextSearchPath,
		testutil.NewStatusResponse("REQUEST_DENIED", "The provided API key is invalid"))

	c := testClient(t, mock)

	_, err := c.TextSearch(context.Background(), "pizza", 0, 0, 1500)
	if err == nil {
		t.Fatal("non-OK status must be an error")
	}

	var pe *places.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a *ProviderError", err)
	}
	if pe.Status != "REQUEST_DENIED" {
		t.Errorf("Status = %q", pe.Status)
	}
	// Status-level denials are permanent; no second attempt.
	if mock.GetSearchCount() != 1 {
		t.Errorf("search called %d times, want 1", mock.GetSearchCount())
	}
}

func TestClient_TextSearch_OverQueryLimitRetried(t *testing.T) {
	mock := testutil.NewMockPlaces()
	defer mock.Close()
	mock.SetResponse(testutil.TextSearchPath,
		testutil.NewStatusResponse("OVER_QUERY_LIMIT", "You have exceeded your daily request quota"))

	c := testClient(t, mock)

	_, err := c.TextSearch(context.Background(), "pizza", 0, 0, 1500)
	if err == nil {
		t.Fatal("OVER_QUERY_LIMIT must be an error")
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("err = %v, want retry exhaustion", err)
	}
	// Quota exhaustion is transient; both attempts are spent.
	if mock.GetSearchCount() != 2 {
		t.Errorf("search called %d times, want 2", mock.GetSearchCount())
	}
}

func TestClient_TextSearch_RetriesServerErrors(t *testing.T) {
	mock := testutil.NewMockPlaces()
	defer mock.Close()

	attempts := 0
	mock.SetHandler(testutil.TextSearchPath, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(testutil.SearchBody(testutil.SamplePlaceJSON, "")))
	})

	c := testClient(t, mock)

	page, err := c.TextSearch(context.Background(), "pizza", 0, 0, 1500)
	if err != nil {
		t.Fatalf("TextSearch failed after retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if len(page.Results) != 1 {
		t.Errorf("len(Results) = %d, want 1", len(page.Results))
	}
}

func TestClient_TextSearch_ClientErrorNotRetried(t *testing.T) {
	mock := testutil.NewMockPlaces()
	defer mock.Close()
	mock.SetResponse(testutil.TextSearchPath, testutil.NewForbiddenResponse())

	c := testClient(t, mock)

	_, err := c.TextSearch(context.Background(), "pizza", 0, 0, 1500)
	if err == nil {
		t.Fatal("403 must be an error")
	}
	var pe *places.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a *ProviderError", err)
	}
	if pe.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d", pe.StatusCode)
	}
	if pe.Message != "places provider access denied" {
		t.Errorf("Message = %q, upstream payload must not leak", pe.Message)
	}
	if mock.GetSearchCount() != 1 {
		t.Errorf("search called %d times, want 1 (4xx not retried)", mock.GetSearchCount())
	}
}

func TestClient_PlaceDetails(t *testing.T) {
	mock := testutil.NewMockPlaces()
	defer mock.Close()
	mock.SetResponse(testutil.PlaceDetailsPath,
		testutil.NewOKResponse(testutil.DetailsBody(testutil.SampleDetailJSON)))

	c := testClient(t, mock)

	raw, err := c.PlaceDetails(context.Background(), "ABC123")
	if err != nil {
		t.Fatalf("PlaceDetails failed: %v", err)
	}

	if raw.PlaceID != "ABC123" || raw.Name != "Busy Bakery" {
		t.Errorf("identity fields wrong: %+v", raw)
	}
	if raw.OpeningHours == nil || !raw.OpeningHours.OpenNow {
		t.Errorf("OpeningHours = %+v", raw.OpeningHours)
	}
	// The client passes all reviews through; truncation belongs to the transformer.
	if len(raw.Reviews) != 7 {
		t.Errorf("len(Reviews) = %d, want 7", len(raw.Reviews))
	}
	if raw.Reviews[0].Author != "a1" || raw.Reviews[0].RelativeTime != "a week ago" {
		t.Errorf("Reviews[0] = %+v", raw.Reviews[0])
	}

	if mock.LastQuery.Get("place_id") != "ABC123" {
		t.Errorf("place_id param = %q", mock.LastQuery.Get("place_id"))
	}
}

func TestClient_PlaceDetails_NotFoundStatus(t *testing.T) {
	mock := testutil.NewMockPlaces()
	defer mock.Close()
	mock.SetResponse(testutil.PlaceDetailsPath,
		testutil.NewStatusResponse("NOT_FOUND", ""))

	c := testClient(t, mock)

	_, err := c.PlaceDetails(context.Background(), "missing")
	var pe *places.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a *ProviderError", err)
	}
	if pe.Status != "NOT_FOUND" {
		t.Errorf("Status = %q", pe.Status)
	}
	if pe.Message != "Unknown error" {
		t.Errorf("Message = %q, want the empty-message default", pe.Message)
	}
}

func TestClient_Timeout(t *testing.T) {
	mock := testutil.NewMockPlaces()
	defer mock.Close()
	mock.SetResponse(testutil.TextSearchPath, testutil.MockPlacesResponse{
		StatusCode: http.StatusOK,
		Body:       `{"results": [], "status": "OK"}`,
		Delay:      200 * time.Millisecond,
	})

	cfg := DefaultConfig("test-api-key")
	cfg.BaseURL = mock.URL()
	cfg.Timeout = 20 * time.Millisecond
	cfg.Retry = RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = c.TextSearch(context.Background(), "pizza", 0, 0, 1500)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !places.IsTimeout(err) {
		t.Errorf("IsTimeout(%v) = false, want true", err)
	}
}
