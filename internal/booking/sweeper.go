package booking

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically re-derives booking statuses in bulk and sends
// start-time reminders. It runs the same derivation the lazy per-read path
// does, so a booking resolves to the same status whether or not a sweep
// happened first.
type Sweeper struct {
	repo     Repository
	notifier Dispatcher
	interval time.Duration
	window   time.Duration
	now      func() time.Time
}

func NewSweeper(repo Repository, notifier Dispatcher, interval, window time.Duration) *Sweeper {
	return &Sweeper{
		repo:     repo,
		notifier: notifier,
		interval: interval,
		window:   window,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled, sweeping once immediately and then on
// every tick.
func (s *Sweeper) Run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep. The completed pass runs before the
// in-progress pass so a booking that is already over never transits
// through in_progress on its way out.
func (s *Sweeper) RunOnce(ctx context.Context) {
	now := s.now()

	completed, err := s.repo.MarkCompleted(ctx, now)
	if err != nil {
		log.Printf("sweep: mark completed failed: %v", err)
	}

	started, err := s.repo.MarkInProgress(ctx, now)
	if err != nil {
		log.Printf("sweep: mark in progress failed: %v", err)
	}

	if completed > 0 || started > 0 {
		log.Printf("sweep: %d completed, %d started", completed, started)
	}

	s.sendReminders(ctx, now)
}

func (s *Sweeper) sendReminders(ctx context.Context, now time.Time) {
	if s.notifier == nil {
		return
	}

	candidates, err := s.repo.ListReminderCandidates(ctx, now, s.window)
	if err != nil {
		log.Printf("sweep: list reminder candidates failed: %v", err)
		return
	}

	for _, b := range candidates {
		if err := s.notifier.BookingReminder(ctx, b.UserID, b.ID, b.StartTime); err != nil {
			log.Printf("sweep: reminder for booking %s failed: %v", b.ID, err)
			continue
		}
		// Flag only after a successful dispatch so a failed reminder is
		// retried on the next tick.
		if err := s.repo.MarkReminderSent(ctx, b.ID); err != nil {
			log.Printf("sweep: mark reminder sent for booking %s failed: %v", b.ID, err)
		}
	}
}
