package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound matches any 404 from the booking service, including
	// booking-detail lookups that the server has not materialized yet.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized matches a 401 that survived the one-shot token refresh.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response from the booking service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("booking service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("booking service returned status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match APIErrors against the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// SeatConflictError is the server telling us a selected seat was taken
// between seat load and hold. The session reacts by reloading the seat map
// and pruning the selection.
type SeatConflictError struct {
	Message string
}

func (e *SeatConflictError) Error() string {
	return e.Message
}

// isSeatConflictMessage reports whether an error body signals a seat
// conflict. The wire contract marks conflicts by naming the seat, e.g.
// "Seat 2 already booked".
func isSeatConflictMessage(message string) bool {
	return strings.Contains(message, "Seat")
}
