package models

import "time"

// BusType represents the vehicle layout of a trip
type BusType string

const (
	BusTypeStandard BusType = "STANDARD"
	BusTypeMini     BusType = "MINI"
)

// Trip is the immutable snapshot of a bookable trip, as returned by the
// search API. It is fixed for the lifetime of a booking session.
type Trip struct {
	ID            string    `json:"id"`
	StartLocation string    `json:"start_location"`
	Destination   string    `json:"destination"`
	DepartureDate time.Time `json:"departure_date"`
	BusType       BusType   `json:"bus_type"`
	Price         float64   `json:"price"` // per seat
	Currency      string    `json:"currency,omitempty"`
}
