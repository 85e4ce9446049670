package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/raulk/clock"
	"github.com/robfig/cron/v3"

	"github.com/gavelhq/gavel/storage"
)

// A ScheduledExporter runs snapshots on a cron schedule, evaluated in UTC.
// Overlap is prevented by the export advisory lock: if a previous run is
// still going when the schedule fires again, the new run is skipped.
type ScheduledExporter struct {
	snapshotter *Snapshotter
	spec        string

	Clock clock.Clock
}

func NewScheduledExporter(s *Snapshotter, spec string) *ScheduledExporter {
	return &ScheduledExporter{
		snapshotter: s,
		spec:        spec,
		Clock:       clock.New(),
	}
}

func (s *ScheduledExporter) Run(ctx context.Context) error {
	sched, err := cron.ParseStandard(s.spec)
	if err != nil {
		return fmt.Errorf("parse export schedule %q: %w", s.spec, err)
	}

	for {
		now := s.Clock.Now().UTC()
		next := sched.Next(now)
		log.Infow("next bulk export scheduled", "at", next)

		timer := s.Clock.Timer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err := s.snapshotter.Run(ctx)
		switch {
		case errors.Is(err, storage.ErrLockNotAcquired):
			log.Warnw("skipping bulk export, another instance holds the export lock")
		case err != nil:
			// Failures are recorded on the run row; the schedule keeps going.
			log.Errorw("bulk export failed", "error", err)
		}
	}
}

func (s *ScheduledExporter) JobType() string {
	return "scheduled-export"
}

func (s *ScheduledExporter) Params() map[string]interface{} {
	return map[string]interface{}{
		"schedule": s.spec,
	}
}
