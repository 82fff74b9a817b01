package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/config"
)

// StaleReservationCanceller releases pending reservations created before a cutoff
type StaleReservationCanceller interface {
	CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExpirationService periodically cancels pending reservations whose deposit
// was never paid so their dates become bookable again.
type ExpirationService struct {
	reservations StaleReservationCanceller
	cron         *cron.Cron
	schedule     string
	ttl          time.Duration
	logger       *logrus.Logger
	now          func() time.Time
}

// NewExpirationService creates a new ExpirationService
func NewExpirationService(reservations StaleReservationCanceller, cfg config.BookingConfig, logger *logrus.Logger) *ExpirationService {
	return &ExpirationService{
		reservations: reservations,
		cron:         cron.New(cron.WithSeconds()),
		schedule:     cfg.ExpirySchedule,
		ttl:          cfg.PendingTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// Enabled reports whether stale reservations expire at all
func (s *ExpirationService) Enabled() bool {
	return s.ttl > 0
}

// Start schedules the expiry job. It is a no-op when the TTL is zero.
func (s *ExpirationService) Start() error {
	if !s.Enabled() {
		s.logger.Info("Stale reservation expiry disabled")
		return nil
	}

	// Cron format: second minute hour day month weekday
	if _, err := s.cron.AddFunc(s.schedule, s.expireJob); err != nil {
		return fmt.Errorf("failed to schedule stale reservation job: %w", err)
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"schedule": s.schedule,
		"ttl":      s.ttl.String(),
	}).Info("Stale reservation expiry scheduled")
	return nil
}

// Stop waits for a running job to finish and stops the scheduler
func (s *ExpirationService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Stale reservation expiry stopped")
}

func (s *ExpirationService) expireJob() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.WithError(err).Error("[CRON] Stale reservation expiry failed")
	}
}

// RunOnce cancels every pending reservation older than the TTL and returns how many were released
func (s *ExpirationService) RunOnce(ctx context.Context) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}

	startTime := s.now()
	cutoff := startTime.Add(-s.ttl)

	released, err := s.reservations.CancelStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	entry := s.logger.WithFields(logrus.Fields{
		"released": released,
		"cutoff":   cutoff.UTC().Format(time.RFC3339),
		"duration": time.Since(startTime).String(),
	})
	if released > 0 {
		entry.Info("[CRON] Released stale pending reservations")
	} else {
		entry.Debug("[CRON] No stale pending reservations")
	}
	return released, nil
}
