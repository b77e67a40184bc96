package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahhal/booking-client/internal/models"
	"github.com/rahhal/booking-client/pkg/token"
)

// rotatingSource hands out tokens from a list and counts refreshes.
type rotatingSource struct {
	tokens    []string
	index     int
	refreshes int
}

func (s *rotatingSource) Token(ctx context.Context) (string, error) {
	return s.tokens[s.index], nil
}

func (s *rotatingSource) Refresh(ctx context.Context) (string, error) {
	s.refreshes++
	if s.index < len(s.tokens)-1 {
		s.index++
	}
	return s.tokens[s.index], nil
}

func newTestClient(t *testing.T, handler http.Handler) (*BookingClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	c := NewBookingClient(Config{BaseURL: server.URL}, token.StaticSource("tok-1"), logger)
	return c, server
}

func TestGetSeatStatusSendsBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{
			"seat_status": map[string]string{"1": "available", "2": "booked"},
		})
	}))

	status, err := c.GetSeatStatus(context.Background(), "trip-1")

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "/trips/trip-1/seats", gotPath)
	assert.Equal(t, models.SeatStatus{1: models.SeatAvailable, 2: models.SeatBooked}, status)
}

func TestUnauthorizedRefreshesOnceAndReplays(t *testing.T) {
	var seenTokens []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		seenTokens = append(seenTokens, auth)
		if auth != "Bearer tok-2" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "token expired"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"seat_status": map[string]string{"1": "available"}})
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	source := &rotatingSource{tokens: []string{"tok-1", "tok-2"}}
	c := NewBookingClient(Config{BaseURL: server.URL}, source, logger)

	status, err := c.GetSeatStatus(context.Background(), "trip-1")

	require.NoError(t, err)
	assert.Len(t, status, 1)
	assert.Equal(t, 1, source.refreshes)
	assert.Equal(t, []string{"Bearer tok-1", "Bearer tok-2"}, seenTokens)
}

func TestUnauthorizedReplaysAtMostOnce(t *testing.T) {
	requests := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "token expired"})
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	source := &rotatingSource{tokens: []string{"tok-1"}}
	c := NewBookingClient(Config{BaseURL: server.URL}, source, logger)

	_, err := c.GetSeatStatus(context.Background(), "trip-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, 1, source.refreshes)
	assert.Equal(t, 2, requests, "one original request plus one replay, never more")
}

func TestCreateHoldMapsSeatConflict(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "Seat 7 already booked"})
	}))

	_, err := c.CreateHold(context.Background(), "trip-1", models.HoldRequest{
		SeatsBooked:   1,
		SelectedSeats: []int{7},
		PaymentType:   models.PaymentCash,
	})

	var conflict *SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Seat 7 already booked", conflict.Message)
}

func TestCreateHoldSendsWireShape(t *testing.T) {
	var gotBody map[string]interface{}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"temp_booking_ref": "ref-1"})
	}))

	ref, err := c.CreateHold(context.Background(), "trip-1", models.HoldRequest{
		SeatsBooked:    2,
		SelectedSeats:  []int{1, 2},
		PaymentType:    models.PaymentOnline,
		CustomerName:   "Ahmed",
		CustomerPhone:  "01000000000",
		IdempotencyKey: "idem-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "ref-1", ref)
	assert.Equal(t, float64(2), gotBody["seats_booked"])
	assert.Equal(t, "ONLINE", gotBody["payment_type"])
	assert.Equal(t, "idem-1", gotBody["idempotency_key"])
}

func TestCreateHoldNonConflictErrorsPassThrough(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "database unavailable"})
	}))

	_, err := c.CreateHold(context.Background(), "trip-1", models.HoldRequest{
		SeatsBooked:   1,
		SelectedSeats: []int{1},
		PaymentType:   models.PaymentCash,
	})

	var conflict *SeatConflictError
	assert.False(t, errors.As(err, &conflict))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "database unavailable", apiErr.Message)
}

func TestGetBookingDetailNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "booking not found"})
	}))

	_, err := c.GetBookingDetail(context.Background(), "O1")

	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConfirmBookingRejectsMissingOrderID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"booking": map[string]interface{}{}})
	}))

	_, err := c.ConfirmBooking(context.Background(), "trip-1", "ref-1", models.ConfirmRequest{TempBookingRef: "ref-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_id")
}

func TestErrorBodyMessageField(t *testing.T) {
	// Some deployments put the text under "message" instead of "error".
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "seats_booked must match"})
	}))

	_, err := c.GetPaymentKey(context.Background(), "O1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "seats_booked must match", apiErr.Message)
}
