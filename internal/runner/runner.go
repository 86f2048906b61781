package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner manages and executes scheduled background tasks
type Runner struct {
	cron     *cron.Cron
	registry *TaskRegistry
	logger   *log.Logger
	wg       sync.WaitGroup
}

// NewRunner creates a new task runner
func NewRunner(registry *TaskRegistry) *Runner {
	return &Runner{
		cron:     cron.New(cron.WithSeconds()),
		registry: registry,
		logger:   log.New(os.Stdout, "[RUNNER] ", log.LstdFlags),
	}
}

// Start registers every task with the scheduler and begins executing them.
// It returns once the scheduler is running; call Stop to shut down.
func (r *Runner) Start(ctx context.Context) error {
	for name, task := range r.registry.All() {
		r.logger.Printf("Registering task: %s with schedule: %s", name, task.Schedule())

		t := task
		_, err := r.cron.AddFunc(t.Schedule(), func() {
			r.executeTask(ctx, t)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule task %s: %w", name, err)
		}
	}

	r.cron.Start()
	r.logger.Println("Task runner started")
	return nil
}

// executeTask runs a single task with timeout and error handling
func (r *Runner) executeTask(ctx context.Context, task Task) {
	r.wg.Add(1)
	defer r.wg.Done()

	taskCtx, cancel := context.WithTimeout(ctx, task.Timeout())
	defer cancel()

	start := time.Now()
	err := task.Run(taskCtx)
	duration := time.Since(start)

	if err != nil {
		r.logger.Printf("Task %s failed after %v: %v", task.Name(), duration, err)
	} else {
		r.logger.Printf("Task %s completed in %v", task.Name(), duration)
	}
}

// Stop gracefully shuts down the runner, waiting for running tasks.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	r.wg.Wait()
	<-ctx.Done()
	r.logger.Println("Task runner stopped")
}
