package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rahhal/booking-client/internal/client"
	"github.com/rahhal/booking-client/internal/models"
	"github.com/rahhal/booking-client/pkg/payment"
	"github.com/rahhal/booking-client/pkg/validator"
)

var phoneValidator = validator.NewPhoneValidator()

// SessionState is the position of a booking session in its lifecycle
type SessionState string

const (
	StateIdle                 SessionState = "idle"
	StateSeatsLoading         SessionState = "seats_loading"
	StateSeatsLoaded          SessionState = "seats_loaded"
	StateHolding              SessionState = "holding"
	StateHoldPendingConfirm   SessionState = "hold_pending_confirm"
	StateConfirming           SessionState = "confirming"
	StateOnlinePaymentPending SessionState = "online_payment_pending"
	StateCashFinalized        SessionState = "cash_finalized"
	StateSettled              SessionState = "settled"
	StateFailed               SessionState = "failed"
	StateCancelled            SessionState = "cancelled"
)

// BookingAPI is the slice of the booking service the session drives. The
// concrete implementation is *client.BookingClient.
type BookingAPI interface {
	GetSeatStatus(ctx context.Context, tripID string) (models.SeatStatus, error)
	CreateHold(ctx context.Context, tripID string, req models.HoldRequest) (string, error)
	ConfirmBooking(ctx context.Context, tripID, tempBookingRef string, req models.ConfirmRequest) (*models.ConfirmResponse, error)
	GetPaymentKey(ctx context.Context, orderID string) (string, error)
}

// SessionConfig holds per-session configuration
type SessionConfig struct {
	// PaymentIframeURL is the payment provider page that hosts the card
	// form; the payment key is appended as a query parameter.
	PaymentIframeURL string
	// RequireCustomerInfo demands customer name and phone before a hold may
	// be initiated. Set for agent-assisted bookings where the payer is not
	// the account holder.
	RequireCustomerInfo bool
}

// BookingSession drives one booking attempt for one trip from seat load
// through settlement. It owns the seat selection and the temp booking
// reference exclusively; remote state (seat status, booking detail) is only
// ever replaced wholesale, never patched.
//
// Transitions are serialized: while a remote call is in flight every other
// mutating entry point is rejected locally, and a call that completes after
// the session was cancelled has its result discarded.
type BookingSession struct {
	api    BookingAPI
	trip   models.Trip
	cfg    SessionConfig
	logger *logrus.Logger

	// idempotencyKey is fixed at construction so a retried hold after a
	// transport failure cannot double-reserve.
	idempotencyKey string

	mu             sync.Mutex
	state          SessionState
	busy           bool
	retriable      bool // Failed only from seat load, re-entry allowed
	paymentType    models.PaymentType
	customerName   string
	customerPhone  string
	seatMap        *SeatMap
	tempBookingRef string
	confirmation   *models.BookingConfirmation
	droppedSeats   []int
	failure        error
}

// NewBookingSession creates a session in the Idle state for the given trip.
func NewBookingSession(api BookingAPI, trip models.Trip, paymentType models.PaymentType, cfg SessionConfig, logger *logrus.Logger) *BookingSession {
	return &BookingSession{
		api:            api,
		trip:           trip,
		cfg:            cfg,
		logger:         logger,
		idempotencyKey: uuid.New().String(),
		state:          StateIdle,
		paymentType:    paymentType,
		seatMap:        NewSeatMap(models.SeatStatus{}),
	}
}

// State returns the current session state.
func (s *BookingSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Trip returns the trip this session books.
func (s *BookingSession) Trip() models.Trip {
	return s.trip
}

// SetCustomerInfo records the payer identity used for agent bookings.
func (s *BookingSession) SetCustomerInfo(name, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerName = name
	s.customerPhone = phone
}

// LoadSeats fetches the seat status snapshot and moves the session to
// SeatsLoaded. Allowed from Idle, from SeatsLoaded (manual refresh), and
// from a Failed state that was caused by a seat load, which is the one
// retriable failure.
func (s *BookingSession) LoadSeats(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return &ConflictError{Message: "another request is already in flight"}
	}
	switch s.state {
	case StateIdle, StateSeatsLoaded:
	case StateFailed:
		if !s.retriable {
			s.mu.Unlock()
			return &StateError{State: StateFailed, Action: "load seats"}
		}
	default:
		s.mu.Unlock()
		return &StateError{State: s.state, Action: "load seats"}
	}
	s.busy = true
	s.state = StateSeatsLoading
	s.mu.Unlock()

	status, err := s.api.GetSeatStatus(ctx, s.trip.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discardIfCancelled("seat load") {
		return nil
	}
	s.busy = false

	if err != nil {
		s.state = StateFailed
		s.retriable = true
		s.failure = fmt.Errorf("failed to load seats: %w", err)
		s.logger.WithError(err).WithField("trip_id", s.trip.ID).Error("Seat status load failed")
		return s.failure
	}

	dropped := s.seatMap.Replace(status)
	s.droppedSeats = dropped
	s.state = StateSeatsLoaded
	s.retriable = false
	s.failure = nil

	s.logger.WithFields(logrus.Fields{
		"trip_id":   s.trip.ID,
		"seats":     len(status),
		"available": len(s.seatMap.Available()),
	}).Info("Seat status loaded")
	return nil
}

// ToggleSeat flips the selection of a seat. Unavailable seats are a no-op.
// Selection can only change while seats are loaded and no hold exists.
func (s *BookingSession) ToggleSeat(seatNumber int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSeatsLoaded || s.busy {
		return false
	}
	return s.seatMap.Toggle(seatNumber)
}

// SelectedSeats returns the current selection, ascending.
func (s *BookingSession) SelectedSeats() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seatMap.Selected()
}

// AvailableSeats returns the selectable seats, ascending.
func (s *BookingSession) AvailableSeats() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seatMap.Available()
}

// UnavailableSeats returns the seats that cannot be selected, ascending.
func (s *BookingSession) UnavailableSeats() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seatMap.Unavailable()
}

// DroppedSeats returns the seats pruned from the selection by the most
// recent snapshot replacement, for surfacing as a warning.
func (s *BookingSession) DroppedSeats() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.droppedSeats...)
}

// TotalPrice returns the cost of the current selection.
func (s *BookingSession) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirmation != nil {
		return s.confirmation.TotalPrice
	}
	return float64(s.seatMap.SelectedCount()) * s.trip.Price
}

// InitiateHold validates the selection locally and asks the server to hold
// the selected seats. On success the session stores the temp booking
// reference and waits for the user's explicit confirmation.
//
// A server-reported seat conflict triggers exactly one seat status reload;
// the selection is reconciled against the fresh snapshot and the session
// stays in SeatsLoaded so the user can adjust and retry.
func (s *BookingSession) InitiateHold(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return &ConflictError{Message: "a booking request is already in flight"}
	}
	if s.tempBookingRef != "" {
		s.mu.Unlock()
		return &ConflictError{Message: "a seat hold is already outstanding for this session"}
	}
	if s.state != StateSeatsLoaded {
		s.mu.Unlock()
		return &StateError{State: s.state, Action: "initiate booking"}
	}

	selected := s.seatMap.Selected()
	if len(selected) == 0 {
		s.mu.Unlock()
		return &ValidationError{Message: "please choose at least one seat"}
	}
	if len(selected) > models.MaxSeatsPerBooking {
		s.mu.Unlock()
		return &ValidationError{Message: fmt.Sprintf("cannot choose more than %d seats", models.MaxSeatsPerBooking)}
	}
	if s.cfg.RequireCustomerInfo && (s.customerName == "" || s.customerPhone == "") {
		s.mu.Unlock()
		return &ValidationError{Message: "customer name and phone are required"}
	}
	customerPhone := s.customerPhone
	if customerPhone != "" {
		sanitized, phoneErr := phoneValidator.Validate(customerPhone)
		if phoneErr != nil {
			s.mu.Unlock()
			return &ValidationError{Message: fmt.Sprintf("invalid customer phone: %v", phoneErr)}
		}
		customerPhone = sanitized
		s.customerPhone = sanitized
	}

	req := models.HoldRequest{
		SeatsBooked:    len(selected),
		SelectedSeats:  selected,
		PaymentType:    s.paymentType,
		CustomerName:   s.customerName,
		CustomerPhone:  customerPhone,
		IdempotencyKey: s.idempotencyKey,
	}
	s.busy = true
	s.state = StateHolding
	s.mu.Unlock()

	tempRef, holdErr := s.api.CreateHold(ctx, s.trip.ID, req)

	if conflict, ok := holdErr.(*client.SeatConflictError); ok {
		// Reconcile before giving control back: one reload, then prune.
		status, loadErr := s.api.GetSeatStatus(ctx, s.trip.ID)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.discardIfCancelled("hold") {
			return nil
		}
		s.busy = false
		s.state = StateSeatsLoaded

		if loadErr != nil {
			s.logger.WithError(loadErr).Warn("Seat reload after conflict failed; selection may be stale")
			return conflict
		}

		s.droppedSeats = s.seatMap.Replace(status)
		s.logger.WithFields(logrus.Fields{
			"trip_id":       s.trip.ID,
			"dropped_seats": s.droppedSeats,
			"server_error":  conflict.Message,
		}).Warn("Seat conflict on hold; selection reconciled")
		return conflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discardIfCancelled("hold") {
		return nil
	}
	s.busy = false

	if holdErr != nil {
		s.state = StateFailed
		s.retriable = false
		s.failure = fmt.Errorf("failed to hold seats: %w", holdErr)
		s.logger.WithError(holdErr).WithField("trip_id", s.trip.ID).Error("Seat hold failed")
		return s.failure
	}

	s.tempBookingRef = tempRef
	s.state = StateHoldPendingConfirm
	s.logger.WithFields(logrus.Fields{
		"trip_id":          s.trip.ID,
		"temp_booking_ref": tempRef,
		"seats":            selected,
	}).Info("Seat hold created, awaiting user confirmation")
	return nil
}

// Confirm consumes the outstanding hold and finalizes the booking. From
// this point on the session can no longer be cancelled. For cash bookings
// the confirm response settles the session directly; for online bookings
// the session fetches the payment key, produces the redirect URL, and waits
// for the payment page's signal.
func (s *BookingSession) Confirm(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return &ConflictError{Message: "a booking request is already in flight"}
	}
	if s.state != StateHoldPendingConfirm {
		s.mu.Unlock()
		return &StateError{State: s.state, Action: "confirm booking"}
	}
	tempRef := s.tempBookingRef
	selectedFallback := s.seatMap.Selected()
	req := models.ConfirmRequest{
		TempBookingRef: tempRef,
		CustomerName:   s.customerName,
		CustomerPhone:  s.customerPhone,
	}
	s.busy = true
	s.state = StateConfirming
	s.mu.Unlock()

	resp, err := s.api.ConfirmBooking(ctx, s.trip.ID, tempRef, req)
	if err != nil {
		s.fail(fmt.Errorf("failed to confirm booking: %w", err))
		return s.failure
	}

	seats := resp.Booking.SelectedSeats
	if len(seats) == 0 {
		seats = selectedFallback
	}
	confirmation := &models.BookingConfirmation{
		OrderID:       resp.OrderID,
		BookingID:     resp.Booking.BookingID,
		SelectedSeats: seats,
		TotalPrice:    resp.Booking.TotalPrice,
		PaymentType:   s.paymentType,
	}

	if s.paymentType == models.PaymentOnline {
		paymentKey, keyErr := s.api.GetPaymentKey(ctx, resp.OrderID)
		if keyErr != nil {
			s.fail(fmt.Errorf("failed to fetch payment key: %w", keyErr))
			return s.failure
		}
		confirmation.PaymentURL = payment.BuildRedirectURL(s.cfg.PaymentIframeURL, paymentKey)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.busy = false
		s.tempBookingRef = "" // consumed by confirm
		s.confirmation = confirmation
		s.state = StateOnlinePaymentPending
		s.logger.WithFields(logrus.Fields{
			"order_id": resp.OrderID,
			"trip_id":  s.trip.ID,
		}).Info("Booking confirmed, redirecting to payment")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.tempBookingRef = ""
	s.confirmation = confirmation
	s.state = StateCashFinalized
	s.logger.WithFields(logrus.Fields{
		"order_id": resp.OrderID,
		"trip_id":  s.trip.ID,
	}).Info("Cash booking finalized")
	s.state = StateSettled
	return nil
}

// HandlePaymentSignal applies a terminal signal from the payment redirect
// watcher to an online session.
func (s *BookingSession) HandlePaymentSignal(signal payment.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOnlinePaymentPending {
		return &StateError{State: s.state, Action: "apply payment signal"}
	}

	switch signal.Kind {
	case payment.SignalSucceeded:
		s.state = StateSettled
		s.logger.WithField("order_id", s.confirmation.OrderID).Info("Online payment settled")
		return nil
	case payment.SignalFailed:
		s.state = StateFailed
		s.retriable = false
		s.failure = &PaymentError{OrderID: s.confirmation.OrderID, Reason: signal.Reason}
		s.logger.WithField("order_id", s.confirmation.OrderID).Warn("Online payment failed")
		return s.failure
	default:
		return &ValidationError{Message: "payment signal is not terminal"}
	}
}

// Cancel abandons the session. Permitted only before confirmation begins.
// An existing hold is discarded client-side; the server releases it when
// its TTL lapses. A remote call still in flight completes and its result is
// discarded.
func (s *BookingSession) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle, StateSeatsLoading, StateSeatsLoaded, StateHolding, StateHoldPendingConfirm:
		s.tempBookingRef = ""
		s.state = StateCancelled
		s.logger.WithField("trip_id", s.trip.ID).Info("Booking session cancelled")
		return nil
	case StateCancelled:
		return nil
	default:
		return &StateError{State: s.state, Action: "cancel"}
	}
}

// Confirmation returns the booking confirmation, or nil before confirm.
func (s *BookingSession) Confirmation() *models.BookingConfirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirmation == nil {
		return nil
	}
	copied := *s.confirmation
	copied.SelectedSeats = append([]int(nil), s.confirmation.SelectedSeats...)
	return &copied
}

// Err returns the failure that moved the session to Failed, if any.
func (s *BookingSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// fail records a terminal failure under the lock.
func (s *BookingSession) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.state = StateFailed
	s.retriable = false
	s.failure = err
	s.logger.WithError(err).WithField("trip_id", s.trip.ID).Error("Booking session failed")
}

// discardIfCancelled clears the busy flag and reports true when the session
// was cancelled while a call was in flight; the caller drops the result.
// Must be called with the lock held.
func (s *BookingSession) discardIfCancelled(operation string) bool {
	if s.state != StateCancelled {
		return false
	}
	s.busy = false
	s.logger.WithFields(logrus.Fields{
		"trip_id":   s.trip.ID,
		"operation": operation,
	}).Debug("Discarding result of in-flight call on cancelled session")
	return true
}
