package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ExpiredDeleter removes all rows whose expiry is before now and reports how
// many it deleted.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Sweeper periodically reclaims expired OTP and session rows. Failures are
// logged, never retried in-line — the next tick covers them. Sweeps are safe
// to run concurrently and repeatedly.
type Sweeper struct {
	otps     ExpiredDeleter
	sessions ExpiredDeleter
	cron     *cron.Cron
}

func NewSweeper(otps, sessions ExpiredDeleter) *Sweeper {
	return &Sweeper{otps: otps, sessions: sessions}
}

// Sweep runs one pass over both tables.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now()
	if n, err := s.otps.DeleteExpired(ctx, now); err != nil {
		slog.Error("otp cleanup sweep failed", "deleted", n, "err", err)
	} else if n > 0 {
		slog.Info("otp cleanup sweep", "deleted", n)
	}
	if n, err := s.sessions.DeleteExpired(ctx, now); err != nil {
		slog.Error("session cleanup sweep failed", "deleted", n, "err", err)
	} else if n > 0 {
		slog.Info("session cleanup sweep", "deleted", n)
	}
}

// Start schedules recurring sweeps (cron syntax, e.g. "@hourly").
func (s *Sweeper) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
