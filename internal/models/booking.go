package models

import (
	"errors"
	"time"
)

// PaymentType selects how a booking is settled
type PaymentType string

const (
	PaymentCash   PaymentType = "CASH"
	PaymentOnline PaymentType = "ONLINE"
)

// PaymentStatus represents the settlement state of a finalized booking
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusCashOnArrival PaymentStatus = "CASH_ON_ARRIVAL"
)

// MaxSeatsPerBooking is the most seats a single booking may carry.
const MaxSeatsPerBooking = 8

// HoldRequest is the body of POST /trips/{id}/hold. It asks the server for a
// provisional, time-limited reservation of the selected seats.
type HoldRequest struct {
	SeatsBooked    int         `json:"seats_booked"`
	SelectedSeats  []int       `json:"selected_seats"`
	PaymentType    PaymentType `json:"payment_type"`
	CustomerName   string      `json:"customer_name,omitempty"`
	CustomerPhone  string      `json:"customer_phone,omitempty"`
	IdempotencyKey string      `json:"idempotency_key,omitempty"`
}

// Validate checks the local preconditions that must hold before the request
// may touch the network.
func (r *HoldRequest) Validate() error {
	if len(r.SelectedSeats) == 0 {
		return errors.New("at least one seat must be selected")
	}
	if len(r.SelectedSeats) > MaxSeatsPerBooking {
		return errors.New("cannot book more than 8 seats")
	}
	if r.SeatsBooked != len(r.SelectedSeats) {
		return errors.New("seats_booked must match the number of selected seats")
	}
	if r.PaymentType != PaymentCash && r.PaymentType != PaymentOnline {
		return errors.New("payment_type must be CASH or ONLINE")
	}
	return nil
}

// HoldResponse is the body returned by a successful hold request.
type HoldResponse struct {
	TempBookingRef string `json:"temp_booking_ref"`
}

// ConfirmRequest is the body of POST /trips/{id}/confirm/{ref}.
type ConfirmRequest struct {
	TempBookingRef string `json:"temp_booking_ref"`
	CustomerName   string `json:"customer_name,omitempty"`
	CustomerPhone  string `json:"customer_phone,omitempty"`
}

// BookingSummary is the short booking record embedded in a confirm response.
type BookingSummary struct {
	BookingID     string        `json:"booking_id"`
	SelectedSeats []int         `json:"selected_seats"`
	TotalPrice    float64       `json:"total_price"`
	PaymentType   PaymentType   `json:"payment_type"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

// ConfirmResponse is the body returned by a successful confirm call.
type ConfirmResponse struct {
	OrderID     string         `json:"order_id"`
	Booking     BookingSummary `json:"booking"`
	RedirectURL string         `json:"redirect_url,omitempty"`
}

// PaymentKeyResponse is the body of GET /payment-key/{orderId}.
type PaymentKeyResponse struct {
	PaymentKey string `json:"payment_key"`
}

// BookingConfirmation is the client-side record of a confirmed booking.
// Immutable once created.
type BookingConfirmation struct {
	OrderID       string
	BookingID     string
	SelectedSeats []int
	TotalPrice    float64
	PaymentType   PaymentType
	PaymentURL    string // populated for online payments only
}

// BookingDetail is the fully resolved server-side booking record. It may lag
// order creation by a short window, so lookups must tolerate 404s.
type BookingDetail struct {
	OrderID          string        `json:"order_id"`
	BookingID        string        `json:"booking_id"`
	CustomerName     string        `json:"customer_name"`
	CustomerPhone    string        `json:"customer_phone"`
	Trip             Trip          `json:"trip"`
	SelectedSeats    []int         `json:"selected_seats"`
	TotalPrice       float64       `json:"total_price"`
	PaymentType      PaymentType   `json:"payment_type"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// CancelResponse is the acknowledgement of POST /bookings/{id}/cancel.
type CancelResponse struct {
	Status string `json:"status"`
}
