package services

import "fmt"

// ValidationError is a local precondition failure. It never reaches the
// network and never moves the session to a failed state.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError is the duplicate-action guard: a second initiate or confirm
// issued while one is already outstanding. Local only.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// StateError reports an action attempted in a session state that does not
// permit it.
type StateError struct {
	State  SessionState
	Action string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s while session is %s", e.Action, e.State)
}

// PaymentError is the embedded payment page reporting a failed payment.
// Terminal for the session; the user restarts from a fresh session.
type PaymentError struct {
	OrderID string
	Reason  string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment failed for order %s: %s", e.OrderID, e.Reason)
}

// DetailUnavailableError means the booking detail record has not
// materialized within the retry budget. The booking itself is still
// successful; the caller may resolve again later.
type DetailUnavailableError struct {
	OrderID string
}

func (e *DetailUnavailableError) Error() string {
	return fmt.Sprintf("booking details for order %s are temporarily unavailable", e.OrderID)
}
