// bookctl drives a complete booking flow against a booking service from the
// command line. It is the reference consumer of the SDK: seat load, seat
// selection, hold, confirm, and detail resolution, with the same state
// machine a mobile client would run.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rahhal/booking-client/internal/client"
	"github.com/rahhal/booking-client/internal/config"
	"github.com/rahhal/booking-client/internal/models"
	"github.com/rahhal/booking-client/internal/services"
	"github.com/rahhal/booking-client/pkg/token"
)

func main() {
	var (
		tripID      = flag.String("trip", "", "trip identifier to book")
		seatList    = flag.String("seats", "", "comma-separated seat numbers, e.g. 1,2")
		paymentFlag = flag.String("payment", "cash", "payment type: cash or online")
		name        = flag.String("name", "", "customer name (agent bookings)")
		phone       = flag.String("phone", "", "customer phone (agent bookings)")
		accessToken = flag.String("token", os.Getenv("BOOKING_API_TOKEN"), "bearer token; fetched from the dev endpoint when empty")
		price       = flag.Float64("price", 0, "price per seat, for the total shown before confirm")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err == nil {
		logger.SetLevel(logLevel)
	}

	if *tripID == "" || *seatList == "" {
		flag.Usage()
		os.Exit(2)
	}
	seats, err := parseSeats(*seatList)
	if err != nil {
		logger.Fatalf("Invalid -seats: %v", err)
	}
	paymentType := models.PaymentType(strings.ToUpper(*paymentFlag))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tokens, err := buildTokenSource(ctx, cfg.API.BaseURL, *accessToken)
	if err != nil {
		logger.Fatalf("Failed to obtain access token: %v", err)
	}

	bookingClient := client.NewBookingClient(client.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, tokens, logger)

	session := services.NewBookingSession(bookingClient, models.Trip{ID: *tripID, Price: *price}, paymentType, services.SessionConfig{
		PaymentIframeURL:    cfg.Payment.IframeURL,
		RequireCustomerInfo: *name != "" || *phone != "",
	}, logger)
	session.SetCustomerInfo(*name, *phone)

	if err := session.LoadSeats(ctx); err != nil {
		logger.Fatalf("Seat load failed: %v", err)
	}
	logger.Infof("Available seats: %v", session.AvailableSeats())

	for _, seatNumber := range seats {
		if !session.ToggleSeat(seatNumber) {
			logger.Fatalf("Seat %d is not available", seatNumber)
		}
	}
	logger.Infof("Selected %v, total %.2f", session.SelectedSeats(), session.TotalPrice())

	if err := session.InitiateHold(ctx); err != nil {
		if dropped := session.DroppedSeats(); len(dropped) > 0 {
			logger.Warnf("Seats %v were taken and removed from the selection", dropped)
		}
		logger.Fatalf("Hold failed: %v", err)
	}

	if err := session.Confirm(ctx); err != nil {
		logger.Fatalf("Confirm failed: %v", err)
	}
	confirmation := session.Confirmation()
	logger.Infof("Order %s confirmed, seats %v", confirmation.OrderID, confirmation.SelectedSeats)

	if paymentType == models.PaymentOnline {
		// Settlement happens in the payment page; print the URL and stop.
		fmt.Printf("Open the payment page to settle the booking:\n%s\n", confirmation.PaymentURL)
		return
	}

	resolver := services.NewDetailResolver(bookingClient, cfg.Resolver.RetryUnit, logger)
	detail, err := resolver.Resolve(ctx, confirmation.OrderID)
	if err != nil {
		var unavailable *services.DetailUnavailableError
		if errors.As(err, &unavailable) {
			logger.Warnf("Booking succeeded; details not available yet (order %s)", confirmation.OrderID)
			return
		}
		logger.Fatalf("Detail lookup failed: %v", err)
	}

	out, _ := json.MarshalIndent(detail, "", "  ")
	fmt.Println(string(out))
}

func parseSeats(list string) ([]int, error) {
	parts := strings.Split(list, ",")
	seats := make([]int, 0, len(parts))
	for _, part := range parts {
		seatNumber, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%q is not a seat number", part)
		}
		seats = append(seats, seatNumber)
	}
	return seats, nil
}

// buildTokenSource uses the provided token, or falls back to the mock
// server's dev-token endpoint so local runs need no setup.
func buildTokenSource(ctx context.Context, baseURL, provided string) (token.Source, error) {
	if provided != "" {
		return token.StaticSource(provided), nil
	}
	return token.NewCachingSource(func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/auth/dev-token", nil)
		if err != nil {
			return "", err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("dev token endpoint returned status %d", resp.StatusCode)
		}
		var body struct {
			Access string `json:"access"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", err
		}
		return body.Access, nil
	}), nil
}
