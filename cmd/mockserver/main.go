package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rahhal/booking-client/internal/config"
	"github.com/rahhal/booking-client/internal/models"
	"github.com/rahhal/booking-client/internal/mockserver"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	server := mockserver.New(mockserver.Options{
		JWTSecret:   cfg.MockServer.JWTSecret,
		HoldTTL:     cfg.MockServer.HoldTTL,
		DetailDelay: cfg.MockServer.DetailDelay,
	}, logger)

	// A couple of trips so the app has something to book out of the box.
	server.AddTrip(models.Trip{
		ID:            "trip-cai-alex-0800",
		StartLocation: "Cairo",
		Destination:   "Alexandria",
		DepartureDate: time.Now().Add(24 * time.Hour).Truncate(time.Hour),
		BusType:       models.BusTypeStandard,
		Price:         250,
		Currency:      "EGP",
	}, 49, []int{3, 7, 12})
	server.AddTrip(models.Trip{
		ID:            "trip-cai-hrg-2200",
		StartLocation: "Cairo",
		Destination:   "Hurghada",
		DepartureDate: time.Now().Add(36 * time.Hour).Truncate(time.Hour),
		BusType:       models.BusTypeMini,
		Price:         420,
		Currency:      "EGP",
	}, 14, []int{1})

	logger.Infof("Mock booking service listening on :%s", cfg.MockServer.Port)
	if err := server.Router().Run(":" + cfg.MockServer.Port); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
}
