// Package scheduler wires up the cron job that periodically triggers a
// full pipeline run inside the configured daytime window.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// RunFunc is the pipeline entry point the scheduler fires.
type RunFunc func(ctx context.Context) error

// Scheduler wraps robfig/cron and gates runs to an hour window, so the
// account only shows activity during plausible working hours.
type Scheduler struct {
	cron      *cron.Cron
	run       RunFunc
	spec      string // cron spec, e.g. "@every 60m"
	startHour int
	endHour   int
	inFlight  atomic.Bool
}

func New(run RunFunc, startHour, endHour, intervalMins int) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cron.DefaultLogger)),
		run:       run,
		spec:      fmt.Sprintf("@every %dm", intervalMins),
		startHour: startHour,
		endHour:   endHour,
	}
}

// Start registers the cron entry and blocks until ctx is cancelled.
// A run already in flight when ctx is cancelled finishes on its own.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	log.Printf("⏰ Scheduler started: %s between %02d:00 and %02d:00", s.spec, s.startHour, s.endHour)
	s.cron.Start()

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.withinWindow(time.Now()) {
		log.Printf("💤 Outside run window (%02d:00-%02d:00), skipping tick.", s.startHour, s.endHour)
		return
	}
	//one run at a time: a run outlasting the interval must not get a
	//second browser session racing it against the same repository
	if !s.inFlight.CompareAndSwap(false, true) {
		log.Println("⏭ Previous run still in flight, skipping tick.")
		return
	}
	defer s.inFlight.Store(false)

	if err := s.run(ctx); err != nil {
		log.Printf("⚠️ Scheduled run failed: %v", err)
	}
}

func (s *Scheduler) withinWindow(now time.Time) bool {
	h := now.Hour()
	return h >= s.startHour && h < s.endHour
}
