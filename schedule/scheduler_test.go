package schedule_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gavelhq/gavel/schedule"
	"github.com/gavelhq/gavel/storage"
)

func newTestJob() *testJob {
	return &testJob{
		errChan: make(chan error),
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

type testJob struct {
	// for causing the Run method to return an err
	errChan chan error
	// for blocking until the job is running
	started chan struct{}
	// for blocking until the job is stopped
	stopped chan struct{}
}

func (r *testJob) Run(ctx context.Context) error {
	r.started <- struct{}{}
	defer func() {
		r.stopped <- struct{}{}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chanErr := <-r.errChan:
			return chanErr
		}
	}
}

func TestScheduler(t *testing.T) {
	t.Run("list jobs", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		tJob := newTestJob()

		s := schedule.NewScheduler(0, &schedule.JobConfig{
			Name:                t.Name(),
			Job:                 tJob,
			RestartOnFailure:    false,
			RestartOnCompletion: false,
			RestartDelay:        0,
		})

		go func() {
			err := s.Run(ctx)
			assert.Equal(t, context.Canceled, err)
		}()

		// wait for it to start
		<-tJob.started

		jobs := s.Jobs()
		assert.Len(t, jobs, 1)
		assert.True(t, jobs[0].Running)
		assert.Equal(t, schedule.JobID(1), jobs[0].ID)
		assert.Equal(t, jobs[0].Name, t.Name())
	})

	t.Run("daemon submit and list jobs", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := schedule.NewSchedulerDaemon(ctx)

		// should be no jobs on start
		jobs := s.Jobs()
		assert.Len(t, jobs, 0)

		tJob := newTestJob()
		jobID := s.Submit(&schedule.JobConfig{
			Name:                t.Name(),
			Job:                 tJob,
			RestartOnFailure:    false,
			RestartOnCompletion: false,
			RestartDelay:        0,
		})

		// wait for it to start
		<-tJob.started

		jobs = s.Jobs()
		assert.Len(t, jobs, 1)
		assert.Equal(t, jobs[0].ID, jobID)
		assert.True(t, jobs[0].Running)
		assert.Equal(t, jobs[0].Name, t.Name())
	})

	t.Run("daemon start and stop job", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := schedule.NewSchedulerDaemon(ctx)

		// stopping and starting jobs that do not exist should fail
		assert.Error(t, s.StopJob(schedule.InvalidJobID))
		assert.Error(t, s.StartJob(schedule.InvalidJobID))

		tJob := newTestJob()
		jobID := s.Submit(&schedule.JobConfig{
			Name:                t.Name(),
			Job:                 tJob,
			RestartOnFailure:    false,
			RestartOnCompletion: false,
			RestartDelay:        0,
		})
		// wait for job to start and assert it started correctly
		<-tJob.started
		jobs := s.Jobs()
		assert.Len(t, jobs, 1)
		assert.Equal(t, jobs[0].ID, jobID)
		assert.True(t, jobs[0].Running)
		assert.Equal(t, jobs[0].Name, t.Name())

		// stop the job and wait for it to report not running
		assert.NoError(t, s.StopJob(jobID))
		<-tJob.stopped
		assert.Eventually(t, func() bool {
			return !s.Jobs()[0].Running
		}, time.Second, 10*time.Millisecond)

		// stopping a job that is already stopped should fail
		assert.Error(t, s.StopJob(jobID))

		// ensure the job can be started again
		assert.NoError(t, s.StartJob(jobID))
		<-tJob.started

		jobs = s.Jobs()
		assert.Len(t, jobs, 1)
		assert.Equal(t, jobs[0].ID, jobID)
		assert.True(t, jobs[0].Running)

		// starting a job twice should error
		assert.Error(t, s.StartJob(jobID))
	})

	t.Run("job panic becomes error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := schedule.NewSchedulerDaemon(ctx)

		_ = s.Submit(&schedule.JobConfig{
			Name: t.Name(),
			Job: jobFunc(func(ctx context.Context) error {
				panic("boom")
			}),
		})

		assert.Eventually(t, func() bool {
			jobs := s.Jobs()
			return len(jobs) == 1 && !jobs[0].Running
		}, time.Second, 10*time.Millisecond)
		assert.Contains(t, s.Jobs()[0].Error, "boom")
	})

	t.Run("job restarts on failure", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := schedule.NewSchedulerDaemon(ctx)

		tJob := newTestJob()
		_ = s.Submit(&schedule.JobConfig{
			Name:                t.Name(),
			Job:                 tJob,
			RestartOnFailure:    true,
			RestartOnCompletion: false,
			RestartDelay:        0,
		})
		// wait for job to start
		<-tJob.started

		jobs := s.Jobs()
		assert.True(t, jobs[0].Running)

		// cause the job to return an error
		tJob.errChan <- errors.New("FAIL")
		<-tJob.stopped

		// the job restarts rather than exiting
		<-tJob.started
		jobs = s.Jobs()
		assert.True(t, jobs[0].Running)
		assert.Equal(t, "FAIL", jobs[0].Error)
	})
}

type jobFunc func(context.Context) error

func (f jobFunc) Run(ctx context.Context) error { return f(ctx) }

type stubLocker struct {
	err      error
	locked   chan struct{}
	unlocked chan struct{}
}

func (l *stubLocker) Lock(ctx context.Context) error {
	if l.err != nil {
		return l.err
	}
	close(l.locked)
	return nil
}

func (l *stubLocker) Unlock(ctx context.Context) error {
	close(l.unlocked)
	return nil
}

func TestSchedulerJobLocker(t *testing.T) {
	t.Run("lock not acquired skips job", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := schedule.NewSchedulerDaemon(ctx)

		ran := make(chan struct{})
		s.Submit(&schedule.JobConfig{
			Name: t.Name(),
			Job: jobFunc(func(ctx context.Context) error {
				close(ran)
				return nil
			}),
			Locker: &stubLocker{err: storage.ErrLockNotAcquired},
		})

		assert.Eventually(t, func() bool {
			jobs := s.Jobs()
			return len(jobs) == 1 && !jobs[0].Running && jobs[0].Error != ""
		}, time.Second, 10*time.Millisecond)

		select {
		case <-ran:
			t.Fatal("job ran without holding the lock")
		default:
		}
		assert.Equal(t, storage.ErrLockNotAcquired.Error(), s.Jobs()[0].Error)
	})

	t.Run("lock taken and released around job", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := schedule.NewSchedulerDaemon(ctx)

		locker := &stubLocker{
			locked:   make(chan struct{}),
			unlocked: make(chan struct{}),
		}
		s.Submit(&schedule.JobConfig{
			Name:   t.Name(),
			Job:    jobFunc(func(ctx context.Context) error { return nil }),
			Locker: locker,
		})

		<-locker.locked
		<-locker.unlocked
	})
}
