package scheduler

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/studio1767/s3sync/internal/engine"
)

// Task asks the consumer to sync the folder at FolderIndex in the
// tracked folder list.
type Task struct {
	FolderIndex int
}

// Scheduler emits periodic sync requests for the tracked folders. It
// never runs syncs itself; the consumer of the task channel does.
//
// Stop is observed after the current sleep finishes, so shutdown
// latency is bounded by one interval. That's fine for a coarse,
// minutes-granularity background job.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	running  bool
	folders  []engine.Folder
}

// New creates a scheduler. A zero interval means manual sync only.
func New(interval time.Duration) *Scheduler {
	return &Scheduler{
		interval: interval,
	}
}

// SetInterval changes the interval used by the next Start.
func (s *Scheduler) SetInterval(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = interval
}

// UpdateFolders replaces the tracked folder list.
func (s *Scheduler) UpdateFolders(folders []engine.Folder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders = folders
}

// Start launches the timer loop, emitting one Task per tracked
// folder every interval. With a zero interval nothing is spawned and
// Start returns immediately. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context, tasks chan<- Task) {
	s.mu.Lock()
	interval := s.interval
	if interval == 0 {
		s.mu.Unlock()
		log.Info("scheduler not started (manual sync only)")
		return
	}
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.run(ctx, interval, tasks)
}

// Stop asks the loop to exit after its current sleep.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	log.Info("stopping sync scheduler")
}

func (s *Scheduler) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) folderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.folders)
}

func (s *Scheduler) run(ctx context.Context, interval time.Duration, tasks chan<- Task) {
	log.WithField("interval", interval).Info("starting sync scheduler")

	for {
		time.Sleep(interval)

		if !s.isRunning() {
			break
		}

		// fan out one task per folder; if the consumer is gone,
		// drop the rest of this tick but keep the loop alive
		count := s.folderCount()
	fanout:
		for i := 0; i < count; i++ {
			select {
			case tasks <- Task{FolderIndex: i}:
			case <-ctx.Done():
				log.WithField("folder", i).Error("failed to send sync task")
				break fanout
			}
		}
	}

	log.Info("sync scheduler stopped")
}
