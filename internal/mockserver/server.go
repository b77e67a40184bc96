// Package mockserver is an in-memory implementation of the booking service
// contract the SDK consumes. It exists for local development and end-to-end
// tests: it honors the same wire shapes, reports seat conflicts the same
// way, expires holds on a TTL, and materializes booking details after a
// delay so the detail resolver's retry path can be exercised for real.
package mockserver

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rahhal/booking-client/internal/models"
)

// Options holds mock server configuration
type Options struct {
	JWTSecret   string
	HoldTTL     time.Duration
	DetailDelay time.Duration
}

type tripState struct {
	trip  models.Trip
	seats models.SeatStatus
}

type holdState struct {
	ref            string
	tripID         string
	seats          []int
	paymentType    models.PaymentType
	customerName   string
	customerPhone  string
	idempotencyKey string
	expiresAt      time.Time
}

type orderState struct {
	orderID       string
	bookingID     string
	tripID        string
	seats         []int
	totalPrice    float64
	paymentType   models.PaymentType
	paymentStatus models.PaymentStatus
	paymentKey    string
	customerName  string
	customerPhone string
	createdAt     time.Time
	materializeAt time.Time
	cancelled     bool
}

// Server is the in-memory booking backend.
type Server struct {
	opts   Options
	logger *logrus.Logger

	mu          sync.Mutex
	trips       map[string]*tripState
	holds       map[string]*holdState
	holdsByIdem map[string]string
	orders      map[string]*orderState
}

// New creates an empty mock server.
func New(opts Options, logger *logrus.Logger) *Server {
	if opts.HoldTTL <= 0 {
		opts.HoldTTL = 10 * time.Minute
	}
	return &Server{
		opts:        opts,
		logger:      logger,
		trips:       make(map[string]*tripState),
		holds:       make(map[string]*holdState),
		holdsByIdem: make(map[string]string),
		orders:      make(map[string]*orderState),
	}
}

// AddTrip registers a trip with seatCount seats, the given ones pre-booked.
func (s *Server) AddTrip(trip models.Trip, seatCount int, booked []int) {
	seats := make(models.SeatStatus, seatCount)
	for i := 1; i <= seatCount; i++ {
		seats[i] = models.SeatAvailable
	}
	for _, seatNumber := range booked {
		seats[seatNumber] = models.SeatBooked
	}
	s.mu.Lock()
	s.trips[trip.ID] = &tripState{trip: trip, seats: seats}
	s.mu.Unlock()
}

// IssueToken signs a short-lived access token accepted by the auth
// middleware.
func (s *Server) IssueToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    "booking-mockserver",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.opts.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Router builds the gin engine serving the booking contract under /api.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	// The payment page and app webviews load from other origins during
	// development.
	router.Use(cors.Default())

	api := router.Group("/api")
	api.GET("/auth/dev-token", s.handleDevToken)

	authed := api.Group("")
	authed.Use(s.authMiddleware())
	{
		authed.GET("/trips/:tripID/seats", s.handleSeatStatus)
		authed.POST("/trips/:tripID/hold", s.handleHold)
		authed.POST("/trips/:tripID/confirm/:ref", s.handleConfirm)
		authed.GET("/payment-key/:orderID", s.handlePaymentKey)
		authed.GET("/bookings/:orderID", s.handleBookingDetail)
		authed.POST("/bookings/:bookingID/cancel", s.handleCancel)
	}

	return router
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")
		_, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(s.opts.JWTSecret), nil
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleDevToken(c *gin.Context) {
	token, err := s.IssueToken("dev-user", time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": token})
}

func (s *Server) handleSeatStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseExpiredHoldsLocked()

	trip, ok := s.trips[c.Param("tripID")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
		return
	}
	c.JSON(http.StatusOK, models.SeatStatusResponse{SeatStatus: trip.seats})
}

func (s *Server) handleHold(c *gin.Context) {
	var req models.HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseExpiredHoldsLocked()

	tripID := c.Param("tripID")
	trip, ok := s.trips[tripID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
		return
	}

	if req.IdempotencyKey != "" {
		if ref, exists := s.holdsByIdem[req.IdempotencyKey]; exists {
			if _, live := s.holds[ref]; live {
				c.JSON(http.StatusOK, models.HoldResponse{TempBookingRef: ref})
				return
			}
		}
	}

	for _, seatNumber := range req.SelectedSeats {
		if !trip.seats.IsAvailable(seatNumber) {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Seat %d already booked", seatNumber)})
			return
		}
	}

	hold := &holdState{
		ref:            uuid.New().String(),
		tripID:         tripID,
		seats:          append([]int(nil), req.SelectedSeats...),
		paymentType:    req.PaymentType,
		customerName:   req.CustomerName,
		customerPhone:  req.CustomerPhone,
		idempotencyKey: req.IdempotencyKey,
		expiresAt:      time.Now().Add(s.opts.HoldTTL),
	}
	for _, seatNumber := range hold.seats {
		trip.seats[seatNumber] = models.SeatBooked
	}
	s.holds[hold.ref] = hold
	if hold.idempotencyKey != "" {
		s.holdsByIdem[hold.idempotencyKey] = hold.ref
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":          tripID,
		"temp_booking_ref": hold.ref,
		"seats":            hold.seats,
	}).Info("Hold created")
	c.JSON(http.StatusCreated, models.HoldResponse{TempBookingRef: hold.ref})
}

func (s *Server) handleConfirm(c *gin.Context) {
	var req models.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseExpiredHoldsLocked()

	ref := c.Param("ref")
	hold, ok := s.holds[ref]
	if !ok || hold.tripID != c.Param("tripID") {
		c.JSON(http.StatusNotFound, gin.H{"error": "hold not found or expired"})
		return
	}
	trip := s.trips[hold.tripID]

	paymentStatus := models.PaymentStatusCashOnArrival
	if hold.paymentType == models.PaymentOnline {
		paymentStatus = models.PaymentStatusPending
	}

	now := time.Now()
	order := &orderState{
		orderID:       uuid.New().String(),
		bookingID:     uuid.New().String(),
		tripID:        hold.tripID,
		seats:         hold.seats,
		totalPrice:    float64(len(hold.seats)) * trip.trip.Price,
		paymentType:   hold.paymentType,
		paymentStatus: paymentStatus,
		customerName:  firstNonEmpty(req.CustomerName, hold.customerName),
		customerPhone: firstNonEmpty(req.CustomerPhone, hold.customerPhone),
		createdAt:     now,
		materializeAt: now.Add(s.opts.DetailDelay),
	}
	s.orders[order.orderID] = order

	// The hold is consumed; its seats stay booked under the order now.
	delete(s.holds, ref)
	if hold.idempotencyKey != "" {
		delete(s.holdsByIdem, hold.idempotencyKey)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": order.orderID,
		"trip_id":  order.tripID,
		"seats":    order.seats,
	}).Info("Booking confirmed")

	c.JSON(http.StatusOK, models.ConfirmResponse{
		OrderID: order.orderID,
		Booking: models.BookingSummary{
			BookingID:     order.bookingID,
			SelectedSeats: order.seats,
			TotalPrice:    order.totalPrice,
			PaymentType:   order.paymentType,
			PaymentStatus: order.paymentStatus,
		},
	})
}

func (s *Server) handlePaymentKey(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[c.Param("orderID")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if order.paymentType != models.PaymentOnline {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order is not an online payment"})
		return
	}
	if order.paymentKey == "" {
		order.paymentKey = uuid.New().String()
	}
	c.JSON(http.StatusOK, models.PaymentKeyResponse{PaymentKey: order.paymentKey})
}

func (s *Server) handleBookingDetail(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[c.Param("orderID")]
	if !ok || time.Now().Before(order.materializeAt) {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}

	trip := s.trips[order.tripID]
	c.JSON(http.StatusOK, models.BookingDetail{
		OrderID:          order.orderID,
		BookingID:        order.bookingID,
		CustomerName:     order.customerName,
		CustomerPhone:    order.customerPhone,
		Trip:             trip.trip,
		SelectedSeats:    order.seats,
		TotalPrice:       order.totalPrice,
		PaymentType:      order.paymentType,
		PaymentStatus:    order.paymentStatus,
		PaymentReference: order.paymentKey,
		CreatedAt:        order.createdAt,
	})
}

func (s *Server) handleCancel(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookingID := c.Param("bookingID")
	for _, order := range s.orders {
		if order.bookingID != bookingID {
			continue
		}
		if !order.cancelled {
			order.cancelled = true
			if trip, ok := s.trips[order.tripID]; ok {
				for _, seatNumber := range order.seats {
					trip.seats[seatNumber] = models.SeatAvailable
				}
			}
		}
		c.JSON(http.StatusOK, models.CancelResponse{Status: "cancelled"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
}

// releaseExpiredHoldsLocked frees the seats of lapsed holds. Must be called
// with the lock held.
func (s *Server) releaseExpiredHoldsLocked() {
	now := time.Now()
	for ref, hold := range s.holds {
		if now.Before(hold.expiresAt) {
			continue
		}
		if trip, ok := s.trips[hold.tripID]; ok {
			for _, seatNumber := range hold.seats {
				trip.seats[seatNumber] = models.SeatAvailable
			}
		}
		delete(s.holds, ref)
		if hold.idempotencyKey != "" {
			delete(s.holdsByIdem, hold.idempotencyKey)
		}
		s.logger.WithField("temp_booking_ref", ref).Info("Hold expired, seats released")
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
