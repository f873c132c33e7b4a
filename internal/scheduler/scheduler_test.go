package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestNextMidnight(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)

	cases := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{
			name: "mid afternoon",
			at:   time.Date(2025, 3, 10, 15, 30, 0, 0, loc),
			want: time.Date(2025, 3, 11, 0, 0, 0, 0, loc),
		},
		{
			name: "exactly midnight rolls to next day",
			at:   time.Date(2025, 3, 10, 0, 0, 0, 0, loc),
			want: time.Date(2025, 3, 11, 0, 0, 0, 0, loc),
		},
		{
			name: "month boundary",
			at:   time.Date(2025, 3, 31, 23, 59, 59, 0, loc),
			want: time.Date(2025, 4, 1, 0, 0, 0, 0, loc),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextMidnight(tc.at)
			if !got.Equal(tc.want) {
				t.Fatalf("NextMidnight(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestSchedulerStopBeforeFirstRun(t *testing.T) {
	ran := make(chan struct{}, 1)
	s := &Scheduler{
		Run: func(ctx context.Context) {
			ran <- struct{}{}
		},
	}

	s.Start()
	s.Stop()

	select {
	case <-ran:
		t.Fatalf("job ran after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSchedulerStopDuringFirstRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s := &Scheduler{
		// One millisecond before midnight, so the first run fires
		// almost immediately.
		Now: func() time.Time {
			return time.Date(2025, 3, 10, 23, 59, 59, 999*int(time.Millisecond), time.UTC)
		},
		Run: func(ctx context.Context) {
			close(started)
			<-release
		},
	}

	s.Start()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatalf("first run never fired")
	}

	s.Stop()
	close(release)

	time.Sleep(50 * time.Millisecond)

	s.mu.Lock()
	ticker := s.ticker
	s.mu.Unlock()
	if ticker != nil {
		t.Fatalf("ticker created after Stop")
	}
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	s := &Scheduler{Run: func(ctx context.Context) {}}
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
