package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/models"
)

// ExpiredLister finds reservations whose expiry has passed.
type ExpiredLister interface {
	ExpiredReservations(ctx context.Context, now time.Time) ([]models.ReservationRef, error)
}

// Sweeper periodically cancels reservations past their expires_at.
// Without it, expiry is advisory and holds last until cancelled.
type Sweeper struct {
	ledger   *Ledger
	lister   ExpiredLister
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper builds a sweeper running every interval.
func NewSweeper(ledger *Ledger, lister ExpiredLister, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		ledger:   ledger,
		lister:   lister,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("reservation sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("reservation sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep cancels every reservation expired at this moment and returns how
// many were released.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	refs, err := s.lister.ExpiredReservations(ctx, s.ledger.now())
	if err != nil {
		return 0, err
	}

	released := 0
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return released, err
		}
		_, removed, err := s.ledger.cancel(ctx, ref.UserID, ref.ReservationID, ReasonExpired)
		if err != nil {
			s.logger.Warn("failed to release expired reservation",
				zap.String("user_id", ref.UserID),
				zap.String("reservation_id", ref.ReservationID),
				zap.Error(err),
			)
			continue
		}
		if removed {
			released++
		}
	}
	return released, nil
}
