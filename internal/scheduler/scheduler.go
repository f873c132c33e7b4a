package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs a job once per day, aligned to local midnight. The
// first run fires at the next midnight after Start; later runs follow
// every 24 hours.
type Scheduler struct {
	Run    func(ctx context.Context)
	Logger *slog.Logger
	Now    func() time.Time

	mu     sync.Mutex
	timer  *time.Timer
	ticker *time.Ticker
	done   chan struct{}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	s.done = make(chan struct{})
	// Captured here so the callback still observes the close after Stop
	// has reset s.done.
	done := s.done

	now := s.now()
	wait := NextMidnight(now).Sub(now)
	s.logger().Info("token sweep scheduled", "first_run_in", wait.Round(time.Second).String())

	s.timer = time.AfterFunc(wait, func() {
		s.fire()

		s.mu.Lock()
		select {
		case <-done:
			s.mu.Unlock()
			return
		default:
		}
		s.ticker = time.NewTicker(24 * time.Hour)
		ticker := s.ticker
		s.mu.Unlock()

		for {
			select {
			case <-ticker.C:
				s.fire()
			case <-done:
				return
			}
		}
	})
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return
	}
	close(s.done)
	s.done = nil
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
}

func (s *Scheduler) fire() {
	if s.Run == nil {
		return
	}
	s.Run(context.Background())
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// NextMidnight returns the first local midnight strictly after t.
func NextMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}
