package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/gavelhq/gavel/storage"
	"github.com/gavelhq/gavel/wait"
)

var log = logging.Logger("gavel/schedule")

type JobID int

var InvalidJobID = JobID(0)

type Job interface {
	// Run starts running the job and blocks until the context is done or an
	// error occurs. Run may be called again after an error or timeout to
	// retry the job so implementations must ensure that Run resets any
	// necessary state.
	Run(context.Context) error
}

// JobDetails is implemented by jobs that report their kind and parameters for
// job listings.
type JobDetails interface {
	JobType() string
	Params() map[string]interface{}
}

// Locker represents a general lock that a job may need to take before
// operating.
type Locker interface {
	Lock(context.Context) error
	Unlock(context.Context) error
}

type JobConfig struct {
	lk sync.Mutex

	id JobID

	// cancel stops the running job.
	cancel context.CancelFunc

	// running is true while the job is executing.
	running bool

	// errorMsg holds the error that halted the job, if any.
	errorMsg string

	log *zap.SugaredLogger

	// Name is a human readable name for the job for use in logging.
	Name string

	// Tasks is a list of tasks the job performs.
	Tasks []string

	// Job is the job that will be executed.
	Job Job

	// Locker is an optional lock that must be taken before the job can
	// execute.
	Locker Locker

	// RestartOnFailure controls whether the job should be restarted if it
	// stops with an error.
	RestartOnFailure bool

	// RestartOnCompletion controls whether the job should be restarted if it
	// stops without an error.
	RestartOnCompletion bool

	// RestartDelay is the amount of time to wait before restarting a stopped
	// job.
	RestartDelay time.Duration
}

func (jc *JobConfig) setError(msg string) {
	jc.lk.Lock()
	jc.errorMsg = msg
	jc.lk.Unlock()
}

type Scheduler struct {
	jobs   map[JobID]*JobConfig
	jobsMu sync.Mutex

	jobID   JobID
	jobIDMu sync.Mutex

	jobDelay time.Duration

	context context.Context

	jobQueue chan *JobConfig

	scheduledJobComplete chan struct{}
	scheduledJobsRunning int

	workerJobComplete chan struct{}
	workerJobsRunning int

	// daemonMode keeps the scheduler running until its context is canceled.
	// Otherwise it exits when all scheduled jobs are complete.
	daemonMode bool
}

func NewScheduler(jobDelay time.Duration, scheduledJobs ...*JobConfig) *Scheduler {
	// Enforce a minimum delay
	if jobDelay == 0 {
		jobDelay = 100 * time.Millisecond
	}
	s := &Scheduler{
		jobID:    0,
		jobDelay: jobDelay,
		jobQueue: make(chan *JobConfig),
		jobs:     make(map[JobID]*JobConfig),

		scheduledJobComplete: make(chan struct{}, len(scheduledJobs)),
		scheduledJobsRunning: len(scheduledJobs),

		workerJobComplete: make(chan struct{}),
		workerJobsRunning: 0,

		daemonMode: false,
	}

	// Jobs added here are started when Scheduler.Run is called.
	for _, jc := range scheduledJobs {
		s.jobID++
		jc.id = s.jobID
		jc.log = log.With("id", jc.id, "name", jc.Name)
		s.jobs[s.jobID] = jc
	}
	return s
}

// NewSchedulerDaemon returns a running scheduler that accepts submitted jobs
// until ctx is done.
func NewSchedulerDaemon(ctx context.Context) *Scheduler {
	s := NewScheduler(0)
	s.daemonMode = true
	go func() {
		if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("scheduler stopped", "error", err)
		}
	}()

	return s
}

// Submit adds a job to a running scheduler and returns its assigned ID.
func (s *Scheduler) Submit(jc *JobConfig) JobID {
	s.jobIDMu.Lock()
	defer s.jobIDMu.Unlock()

	s.jobID++
	jc.id = s.jobID
	s.jobQueue <- jc

	return s.jobID
}

// Run starts running the scheduler and blocks until the context is done.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info("starting scheduler")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Used as the context for submitted jobs so they are canceled with the
	// scheduler.
	s.context = ctx

	// No lock needed: jobs is only written here and in the loop below.
	for _, jc := range s.jobs {
		go s.execute(jc, s.scheduledJobComplete)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		// A little jitter between jobs to reduce thundering herd effects.
		wait.SleepWithJitter(s.jobDelay, 2)
	}

	// Wait until the context is done and handle new jobs as they are
	// submitted.
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case newJob := <-s.jobQueue:
			s.jobsMu.Lock()

			s.jobs[newJob.id] = newJob
			newJob.log = log.With("id", newJob.id, "name", newJob.Name)
			newJob.log.Infow("new job received")

			s.jobsMu.Unlock()

			go s.execute(newJob, s.workerJobComplete)
		case <-s.scheduledJobComplete:
			s.scheduledJobsRunning--
			if s.scheduledJobsRunning == 0 {
				log.Info("no scheduled jobs running")
				if !s.daemonMode {
					log.Info("all scheduled jobs complete, scheduler exiting")
					return nil
				}
			}
		case <-s.workerJobComplete:
			s.workerJobsRunning--
			if s.workerJobsRunning == 0 {
				log.Info("no worker jobs running")
			}
		}
	}
}

func (s *Scheduler) StartJob(id JobID) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return xerrors.Errorf("starting job ID: %d not found", id)
	}

	job.lk.Lock()
	// Clear any error message left by an earlier run.
	job.errorMsg = ""
	if job.running {
		job.lk.Unlock()
		return xerrors.Errorf("starting job ID: %d already running", id)
	}
	job.lk.Unlock()

	job.log.Info("starting job")
	go s.execute(job, s.workerJobComplete)
	return nil
}

func (s *Scheduler) StopJob(id JobID) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return xerrors.Errorf("stopping job ID: %d not found", id)
	}

	job.lk.Lock()
	defer job.lk.Unlock()

	if !job.running {
		return xerrors.Errorf("stopping job ID: %d already stopped", id)
	}

	job.log.Info("stopping job")
	job.cancel()
	return nil
}

type JobResult struct {
	ID    JobID
	Name  string
	Type  string
	Error string
	Tasks []string

	Running bool

	RestartOnFailure    bool
	RestartOnCompletion bool
	RestartDelay        time.Duration

	Params map[string]interface{}
}

// Jobs returns the current state of every job the scheduler knows about.
func (s *Scheduler) Jobs() []JobResult {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if len(s.jobs) == 0 {
		return nil
	}
	var out []JobResult
	for _, j := range s.jobs {
		j.lk.Lock()
		jobType, jobParams := jobDetails(j)
		out = append(out, JobResult{
			ID:                  j.id,
			Name:                j.Name,
			Tasks:               j.Tasks,
			Type:                jobType,
			Error:               j.errorMsg,
			Running:             j.running,
			RestartOnFailure:    j.RestartOnFailure,
			RestartOnCompletion: j.RestartOnCompletion,
			RestartDelay:        j.RestartDelay,
			Params:              jobParams,
		})
		j.lk.Unlock()
	}
	return out
}

func (s *Scheduler) execute(jc *JobConfig, complete chan struct{}) {
	ctx, cancel := context.WithCancel(s.context)

	jc.lk.Lock()
	jc.cancel = cancel
	jc.running = true
	jc.lk.Unlock()

	// Report the job is complete when this goroutine exits.
	defer func() {
		complete <- struct{}{}

		jc.lk.Lock()
		jc.running = false
		jc.cancel()
		jc.lk.Unlock()

		jc.log.Info("job execution ended")
	}()

	// Attempt to get the job lock if specified
	if jc.Locker != nil {
		if err := jc.Locker.Lock(ctx); err != nil {
			jc.setError(err.Error())
			if errors.Is(err, storage.ErrLockNotAcquired) {
				jc.log.Infow("job not started: lock not acquired")
				return
			}
			jc.log.Errorw("job not started: lock not acquired", "error", err.Error())
			return
		}
		defer func() {
			if err := jc.Locker.Unlock(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					jc.setError(err.Error())
					jc.log.Errorw("failed to unlock job", "error", err.Error())
				}
			}
		}()
	}

	doneFirstRun := false
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if doneFirstRun {
			jc.log.Infow("restarting job", "delay", jc.RestartDelay)
			if jc.RestartDelay > 0 {
				time.Sleep(jc.RestartDelay)
			}
		} else {
			jc.log.Info("running job")
			doneFirstRun = true
		}

		err := runJob(ctx, jc.Job)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			jc.log.Errorw("job exited with failure", "error", err.Error())
			jc.setError(err.Error())

			if !jc.RestartOnFailure {
				break
			}
		} else {
			jc.log.Info("job exited cleanly")

			if !jc.RestartOnCompletion {
				break
			}
		}
	}
}

// runJob invokes the job, converting a panic into an error so a single job
// cannot take down the scheduler.
func runJob(ctx context.Context, j Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("job recovered from panic: %v", r)
		}
	}()
	return j.Run(ctx)
}

func jobDetails(j *JobConfig) (string, map[string]interface{}) {
	if d, ok := j.Job.(JobDetails); ok {
		return d.JobType(), d.Params()
	}
	return "unknown", nil
}
