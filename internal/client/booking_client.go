// Package client is the thin HTTP wrapper around the remote booking
// service. It owns request construction, bearer-credential injection, the
// 401 refresh-and-retry policy, and mapping error bodies onto typed errors.
// It holds no booking state of its own.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rahhal/booking-client/internal/models"
	"github.com/rahhal/booking-client/pkg/token"
)

// Config holds configuration for the booking service client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// BookingClient issues seat-query, hold, confirm, cancel and payment-key
// requests to the remote booking service.
type BookingClient struct {
	baseURL string
	client  *http.Client
	tokens  token.Source
	logger  *logrus.Logger
}

// NewBookingClient creates a new booking service client. The token source is
// injected so the client never owns credential storage.
func NewBookingClient(cfg Config, tokens token.Source, logger *logrus.Logger) *BookingClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &BookingClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger,
	}
}

// GetSeatStatus fetches the current seat map snapshot for a trip.
func (c *BookingClient) GetSeatStatus(ctx context.Context, tripID string) (models.SeatStatus, error) {
	var resp models.SeatStatusResponse
	path := fmt.Sprintf("/trips/%s/seats", url.PathEscape(tripID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.SeatStatus, nil
}

// CreateHold asks the server for a provisional hold on the selected seats
// and returns the temp booking reference identifying it. A server-reported
// seat conflict comes back as *SeatConflictError.
func (c *BookingClient) CreateHold(ctx context.Context, tripID string, req models.HoldRequest) (string, error) {
	var resp models.HoldResponse
	path := fmt.Sprintf("/trips/%s/hold", url.PathEscape(tripID))
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && isSeatConflictMessage(apiErr.Message) {
			return "", &SeatConflictError{Message: apiErr.Message}
		}
		return "", err
	}
	if resp.TempBookingRef == "" {
		return "", fmt.Errorf("hold response missing temp_booking_ref")
	}
	return resp.TempBookingRef, nil
}

// ConfirmBooking consumes a hold and finalizes the order.
func (c *BookingClient) ConfirmBooking(ctx context.Context, tripID, tempBookingRef string, req models.ConfirmRequest) (*models.ConfirmResponse, error) {
	var resp models.ConfirmResponse
	path := fmt.Sprintf("/trips/%s/confirm/%s", url.PathEscape(tripID), url.PathEscape(tempBookingRef))
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	if resp.OrderID == "" {
		return nil, fmt.Errorf("confirm response missing order_id")
	}
	return &resp, nil
}

// GetPaymentKey fetches the payment-provider key for an online order.
func (c *BookingClient) GetPaymentKey(ctx context.Context, orderID string) (string, error) {
	var resp models.PaymentKeyResponse
	path := fmt.Sprintf("/payment-key/%s", url.PathEscape(orderID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	if resp.PaymentKey == "" {
		return "", fmt.Errorf("payment key response missing payment_key")
	}
	return resp.PaymentKey, nil
}

// GetBookingDetail fetches the finalized booking record for an order.
// Returns an error matching ErrNotFound while the record has not
// materialized yet.
func (c *BookingClient) GetBookingDetail(ctx context.Context, orderID string) (*models.BookingDetail, error) {
	var resp models.BookingDetail
	path := fmt.Sprintf("/bookings/%s", url.PathEscape(orderID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelBooking cancels a finalized booking.
func (c *BookingClient) CancelBooking(ctx context.Context, bookingID string) error {
	path := fmt.Sprintf("/bookings/%s/cancel", url.PathEscape(bookingID))
	return c.do(ctx, http.MethodPost, path, struct{}{}, nil)
}

// do sends one request with a bearer token. On a 401 it refreshes the token
// once and replays the request once; this replaces the original client's
// ambient response interceptor with an explicit retry policy.
func (c *BookingClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	accessToken, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	resp, err := c.send(ctx, method, path, payload, accessToken)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()

		accessToken, err = c.tokens.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("failed to refresh access token: %w", err)
		}

		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Debug("Retrying request with refreshed token")

		resp, err = c.send(ctx, method, path, payload, accessToken)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(responseBody),
		}
	}

	if out != nil && len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, out); err != nil {
			return fmt.Errorf("failed to parse response body: %w", err)
		}
	}
	return nil
}

func (c *BookingClient) send(ctx context.Context, method, path string, payload []byte, accessToken string) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// decodeErrorMessage pulls the "error" field out of an error body; servers
// in the wild also use "message", so both are accepted.
func decodeErrorMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	return parsed.Message
}
