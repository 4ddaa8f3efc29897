// Package janitor runs periodic cleanup of expired credentials.
package janitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"jobsearch.app/internal/obs"
)

const DefaultSchedule = "@every 15m"

// Task removes expired records and reports how many were removed.
type Task interface {
	Purge(ctx context.Context) (int64, error)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx context.Context) (int64, error)

func (f TaskFunc) Purge(ctx context.Context) (int64, error) { return f(ctx) }

// Janitor runs its tasks on a cron schedule. Task failures are logged and
// never stop the schedule.
type Janitor struct {
	cron    *cron.Cron
	mu      sync.Mutex
	tasks   map[string]Task
	names   []string
	timeout time.Duration
}

func New(schedule string, tasks map[string]Task) (*Janitor, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	j := &Janitor{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		tasks:   tasks,
		timeout: time.Minute,
	}
	for name := range tasks {
		j.names = append(j.names, name)
	}
	sort.Strings(j.names)
	if _, err := j.cron.AddFunc(schedule, func() { j.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() { j.cron.Start() }

// Stop halts the schedule and waits for a running pass to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// RunOnce executes every task and returns the removed counts by task name.
func (j *Janitor) RunOnce(ctx context.Context) map[string]int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	log := obs.Logger().WithField("component", "janitor")
	counts := make(map[string]int64, len(j.tasks))
	for _, name := range j.names {
		tctx, cancel := context.WithTimeout(ctx, j.timeout)
		n, err := j.tasks[name].Purge(tctx)
		cancel()
		if err != nil {
			log.WithError(err).WithField("task", name).Error("purge failed")
			continue
		}
		counts[name] = n
		obs.JanitorPurged.WithLabelValues(name).Add(float64(n))
		if n > 0 {
			log.WithField("task", name).WithField("removed", n).Info("purged expired records")
		}
	}
	return counts
}
