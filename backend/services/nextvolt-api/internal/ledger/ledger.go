// Package ledger owns reservation holds on stations. Every create and cancel
// locks the user and then the station, re-reads both records and writes
// them back in one store transaction.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/lock"
	"nextvolt/backend/services/nextvolt-api/internal/metrics"
	"nextvolt/backend/services/nextvolt-api/internal/models"
	"nextvolt/backend/services/nextvolt-api/internal/repository"
)

// Cancel reasons reported to metrics.
const (
	ReasonUser    = "user"
	ReasonExpired = "expired"
)

var (
	// ErrUnderMaintenance is returned when reserving an inactive station.
	ErrUnderMaintenance = apperr.New(apperr.KindPreconditionFailed, "station under maintenance")
	// ErrNotAvailable is returned when the station is already held.
	ErrNotAvailable = apperr.New(apperr.KindPreconditionFailed, "station not available")
	// ErrTooLong is returned when the requested minutes exceed the maximum.
	ErrTooLong = apperr.New(apperr.KindInvalidArgument, "minutes exceeds the maximum reservation length")
)

const defaultMaxMinutes = 24 * 60

// Notifier is told about every committed station change.
type Notifier interface {
	PublishStation(station models.Station)
}

// Config holds reservation duration rules.
type Config struct {
	DefaultMinutes int
	MinMinutes     int
	// MaxMinutes caps a request. Non-positive selects one day.
	MaxMinutes int
}

// DefaultConfig returns a 30 minute default with a 10 minute floor and a
// one day cap.
func DefaultConfig() Config {
	return Config{DefaultMinutes: 30, MinMinutes: 10, MaxMinutes: defaultMaxMinutes}
}

// Ledger creates and cancels reservations.
type Ledger struct {
	store    repository.Store
	locker   lock.Locker
	notifier Notifier
	cfg      Config
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// New builds a ledger. notifier may be nil.
func New(store repository.Store, locker lock.Locker, notifier Notifier, cfg Config, logger *zap.Logger) *Ledger {
	if cfg.MaxMinutes <= 0 {
		cfg.MaxMinutes = defaultMaxMinutes
	}
	return &Ledger{
		store:    store,
		locker:   locker,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateInput describes a reservation request. Minutes is nil when the
// caller did not ask for a specific duration.
type CreateInput struct {
	UserID    string
	StationID int64
	Minutes   *int
}

// Duration resolves the requested minutes: default when absent, never
// below the floor. Requests above MaxMinutes fail with ErrTooLong.
func (l *Ledger) Duration(minutes *int) (int, error) {
	d := l.cfg.DefaultMinutes
	if minutes != nil {
		d = *minutes
	}
	if d > l.cfg.MaxMinutes {
		return 0, ErrTooLong
	}
	if d < l.cfg.MinMinutes {
		d = l.cfg.MinMinutes
	}
	return d, nil
}

// Create holds the station for the user.
func (l *Ledger) Create(ctx context.Context, in CreateInput) (*models.Reservation, error) {
	res, err := l.create(ctx, in)
	metrics.IncReservationCreated(createResult(err))
	return res, err
}

func (l *Ledger) create(ctx context.Context, in CreateInput) (*models.Reservation, error) {
	minutes, err := l.Duration(in.Minutes)
	if err != nil {
		return nil, err
	}

	unlockUser, err := l.locker.Lock(ctx, lock.UserKey(in.UserID))
	if err != nil {
		return nil, apperr.Internal("lock user", err)
	}
	defer unlockUser()

	unlockStation, err := l.locker.Lock(ctx, lock.StationKey(in.StationID))
	if err != nil {
		return nil, apperr.Internal("lock station", err)
	}
	defer unlockStation()

	var (
		reservation models.Reservation
		station     *models.Station
	)
	err = l.store.InTx(ctx, func(tx repository.Tx) error {
		user, err := tx.GetUser(ctx, in.UserID)
		if err != nil {
			return err
		}
		st, err := tx.GetStation(ctx, in.StationID)
		if err != nil {
			return err
		}
		if !st.IsActive {
			return ErrUnderMaintenance
		}
		if !st.Available {
			return ErrNotAvailable
		}

		now := l.now().UTC()
		reservation = models.Reservation{
			ID:              l.newID(),
			UserID:          user.ID,
			StationID:       st.ID,
			StationName:     st.Name,
			DurationMinutes: minutes,
			CreatedAt:       now,
			ExpiresAt:       now.Add(time.Duration(minutes) * time.Minute),
		}

		st.Hold(minutes)
		user.Reservations = append(user.Reservations, reservation)

		if err := tx.PutStation(ctx, st); err != nil {
			return err
		}
		if err := tx.PutUser(ctx, user); err != nil {
			return err
		}
		station = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("reservation created",
		zap.String("reservation_id", reservation.ID),
		zap.String("user_id", in.UserID),
		zap.Int64("station_id", in.StationID),
		zap.Int("minutes", minutes),
	)
	l.publish(*station)
	return &reservation, nil
}

// Cancel releases the user's reservation and returns the remaining ones.
// An unknown reservation id leaves everything untouched.
func (l *Ledger) Cancel(ctx context.Context, userID, reservationID string) ([]models.Reservation, error) {
	remaining, _, err := l.cancel(ctx, userID, reservationID, ReasonUser)
	return remaining, err
}

func (l *Ledger) cancel(ctx context.Context, userID, reservationID, reason string) ([]models.Reservation, bool, error) {
	unlockUser, err := l.locker.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, false, apperr.Internal("lock user", err)
	}
	defer unlockUser()

	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	target, ok := user.FindReservation(reservationID)
	if !ok {
		return user.Reservations, false, nil
	}

	unlockStation, err := l.locker.Lock(ctx, lock.StationKey(target.StationID))
	if err != nil {
		return nil, false, apperr.Internal("lock station", err)
	}
	defer unlockStation()

	var (
		remaining []models.Reservation
		removed   bool
		station   *models.Station
	)
	err = l.store.InTx(ctx, func(tx repository.Tx) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if _, removed = u.RemoveReservation(reservationID); !removed {
			remaining = u.Reservations
			return nil
		}

		st, err := tx.GetStation(ctx, target.StationID)
		switch {
		case errors.Is(err, repository.ErrStationNotFound):
			l.logger.Warn("reserved station no longer exists",
				zap.String("reservation_id", reservationID),
				zap.Int64("station_id", target.StationID),
			)
		case err != nil:
			return err
		default:
			st.Release()
			if err := tx.PutStation(ctx, st); err != nil {
				return err
			}
			station = st
		}

		if err := tx.PutUser(ctx, u); err != nil {
			return err
		}
		remaining = u.Reservations
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if removed {
		metrics.IncReservationCancelled(reason)
		l.logger.Info("reservation cancelled",
			zap.String("reservation_id", reservationID),
			zap.String("user_id", userID),
			zap.Int64("station_id", target.StationID),
			zap.String("reason", reason),
		)
	}
	if station != nil {
		l.publish(*station)
	}
	return remaining, removed, nil
}

// List returns the user's reservations, expired ones included.
func (l *Ledger) List(ctx context.Context, userID string) ([]models.Reservation, error) {
	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Reservations, nil
}

func (l *Ledger) publish(station models.Station) {
	if l.notifier == nil {
		return
	}
	l.notifier.PublishStation(station)
}

func createResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnderMaintenance):
		return "under_maintenance"
	case errors.Is(err, ErrNotAvailable):
		return "not_available"
	case errors.Is(err, ErrTooLong):
		return "too_long"
	case apperr.KindOf(err) == apperr.KindNotFound:
		return "not_found"
	default:
		return "error"
	}
}
