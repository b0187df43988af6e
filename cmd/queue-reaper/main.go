package main

import (
	"context"
	"errors"
	"log"
	"time"

	"track-review-api/config"
	"track-review-api/services"

	"github.com/joho/godotenv"
)

// queue-reaper runs one sweep over expired queue entries and exits. It is
// meant to be invoked from cron; the API itself never runs timers.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitDB()
	defer config.CloseDB()
	config.InitReviewSettings()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	service := services.NewExpiryService(nil)
	summary, err := service.SweepExpired(ctx)
	if err != nil {
		if errors.Is(err, services.ErrSweepAlreadyRunning) {
			log.Println("Another sweep is already running, exiting")
			return
		}
		log.Fatalf("Sweep failed: %v", err)
	}

	log.Printf("Sweep complete: %d assignments expired, %d tracks backfilled",
		summary.Expired, len(summary.TracksBackfilled))
}
