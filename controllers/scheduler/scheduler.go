package scheduler

import (
	"context"
	"github.com/go-errors/errors"
	"github.com/redhatinsights/es-index-lifecycle/controllers/index"
	logger "github.com/redhatinsights/es-index-lifecycle/controllers/log"
	"github.com/robfig/cron"
	"sync"
	"sync/atomic"
)

var log = logger.NewLogger("scheduler")

type Sweeper interface {
	CleanupOldIndices(ctx context.Context, prefix string, opts index.CleanupOptions) error
}

//Scheduler runs the retention sweep of every prefix on a cron schedule.
//A run is skipped while the previous one is still going.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	prefixes []string
	options  index.CleanupOptions
	running  int32

	//ctx is cancelled by Stop once its deadline passes
	ctx    context.Context
	cancel context.CancelFunc

	mutex    sync.Mutex
	stopped  bool
	inFlight sync.WaitGroup
}

func NewScheduler(sweeper Sweeper, prefixes []string, options index.CleanupOptions) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(),
		sweeper:  sweeper,
		prefixes: prefixes,
		options:  options,
		ctx:      ctx,
		cancel:   cancel,
	}
}

//Start accepts robfig/cron specs, including descriptors like @daily and @every 1h
func (s *Scheduler) Start(schedule string) error {
	if len(s.prefixes) == 0 {
		return errors.New("at least one index prefix is required")
	}

	err := s.cron.AddFunc(schedule, s.scheduledSweep)
	if err != nil {
		return errors.WrapPrefix(err, "invalid cleanup schedule "+schedule, 0)
	}

	s.cron.Start()
	log.Info("Scheduled retention sweep", "schedule", schedule, "prefixes", s.prefixes)
	return nil
}

func (s *Scheduler) scheduledSweep() {
	s.mutex.Lock()
	if s.stopped {
		s.mutex.Unlock()
		return
	}
	s.inFlight.Add(1)
	s.mutex.Unlock()

	defer s.inFlight.Done()
	s.Sweep(s.ctx)
}

//Stop ends the schedule and waits for a sweep in progress. When ctx is done first the sweep is
//cancelled and ctx.Err() is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mutex.Lock()
	s.stopped = true
	s.mutex.Unlock()
	s.cron.Stop()

	finished := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		s.cancel()
		return nil
	case <-ctx.Done():
		log.Warn("Cancelling the retention sweep in progress")
		s.cancel()
		<-finished
		return ctx.Err()
	}
}

//Sweep cleans up every prefix in turn, a failed prefix does not stop the others.
//It returns the number of prefixes that failed.
func (s *Scheduler) Sweep(ctx context.Context) int {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		log.Warn("Skipping retention sweep, the previous one is still running")
		return 0
	}
	defer atomic.StoreInt32(&s.running, 0)

	failed := 0
	for _, prefix := range s.prefixes {
		if ctx.Err() != nil {
			log.Info("Retention sweep cancelled", "prefix", prefix)
			break
		}
		err := s.sweeper.CleanupOldIndices(ctx, prefix, s.options)
		if err != nil {
			failed++
			log.Error(err, "Scheduled retention sweep failed", "prefix", prefix)
		}
	}
	return failed
}
