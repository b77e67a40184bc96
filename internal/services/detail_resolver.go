package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rahhal/booking-client/internal/client"
	"github.com/rahhal/booking-client/internal/models"
)

// detailRetries is the number of extra attempts after the first 404; the
// backoff grows linearly (1x, 2x the unit).
const detailRetries = 2

// DetailFetcher is the slice of the booking service the resolver needs.
type DetailFetcher interface {
	GetBookingDetail(ctx context.Context, orderID string) (*models.BookingDetail, error)
}

// DetailResolver fetches finalized booking details by order id. Freshly
// created orders may 404 for a short window until the server materializes
// the record, so not-found responses are retried on a bounded schedule.
// A resolver failure never means the booking failed.
type DetailResolver struct {
	api    DetailFetcher
	unit   time.Duration
	logger *logrus.Logger
}

// NewDetailResolver creates a resolver with the given backoff unit. A zero
// unit defaults to one second, matching the server's typical
// materialization lag.
func NewDetailResolver(api DetailFetcher, unit time.Duration, logger *logrus.Logger) *DetailResolver {
	if unit <= 0 {
		unit = time.Second
	}
	return &DetailResolver{api: api, unit: unit, logger: logger}
}

// Resolve fetches the booking detail for an order. Not-found responses are
// retried up to two more times with increasing delay; exhausting the budget
// yields *DetailUnavailableError, from which the caller may simply resolve
// again later. Any other failure surfaces immediately.
func (r *DetailResolver) Resolve(ctx context.Context, orderID string) (*models.BookingDetail, error) {
	for attempt := 0; ; attempt++ {
		detail, err := r.api.GetBookingDetail(ctx, orderID)
		if err == nil {
			return detail, nil
		}
		if !errors.Is(err, client.ErrNotFound) {
			return nil, fmt.Errorf("failed to fetch booking detail: %w", err)
		}
		if attempt == detailRetries {
			r.logger.WithField("order_id", orderID).Warn("Booking detail not materialized within retry budget")
			return nil, &DetailUnavailableError{OrderID: orderID}
		}

		delay := time.Duration(attempt+1) * r.unit
		r.logger.WithFields(logrus.Fields{
			"order_id": orderID,
			"attempt":  attempt + 1,
			"delay":    delay,
		}).Debug("Booking detail not found yet, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
