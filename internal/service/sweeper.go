package service

import (
	"context"
	"log"
	"time"

	"github.com/gastrovia/ticketing/internal/monitoring"
	"github.com/gastrovia/ticketing/internal/repository"
)

// DefaultSweepInterval is how often the sweeper looks for lapsed holds.
const DefaultSweepInterval = time.Minute

// Sweeper periodically expires lapsed PENDING reservations. Because
// holds are advisory, a sweep only flips reservation status; it never
// releases or touches seats, so a buyer who pays just after their hold
// lapses still goes through the normal conditional claim.
type Sweeper struct {
	reservations repository.ReservationStore
	interval     time.Duration
}

// NewSweeper returns a Sweeper. A non-positive interval falls back to
// DefaultSweepInterval.
func NewSweeper(reservations repository.ReservationStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{reservations: reservations, interval: interval}
}

// Run sweeps on the configured interval until ctx is cancelled. Sweep
// errors are logged and the loop keeps going.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.Printf("sweeper: expire pass failed: %v", err)
			}
		}
	}
}

// SweepOnce expires every PENDING reservation whose deadline has passed
// and returns how many were transitioned.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.reservations.ExpirePendingReservations(ctx, time.Now().UTC())
	if err != nil {
		return 0, mapStoreErr(err)
	}
	if n > 0 {
		monitoring.TrackExpiredHolds(n)
		log.Printf("sweeper: expired %d lapsed holds", n)
	}
	return n, nil
}
