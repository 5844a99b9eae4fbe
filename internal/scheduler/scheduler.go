package scheduler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"cmsapi/internal/logging"
)

// Task is one unit of periodic work. Returned errors are logged and the task
// runs again on the next tick.
type Task func(ctx context.Context) error

// Every runs fn once immediately and then every interval until ctx is done.
// Runs of the same task never overlap.
func Every(ctx context.Context, name string, interval time.Duration, fn Task) {
	run(ctx, name, fn)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logging.Info("scheduler", "task_stopped", map[string]any{"task": name})
			return
		case <-ticker.C:
			run(ctx, name, fn)
		}
	}
}

func run(ctx context.Context, name string, fn Task) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	err := safely(ctx, fn)
	if err != nil {
		logging.Error("scheduler", "task_failed", err, map[string]any{
			"task":     name,
			"duration": time.Since(start).String(),
		})
	}
}

func safely(ctx context.Context, fn Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Group runs several periodic tasks and waits for all of them to stop.
type Group struct {
	g   *errgroup.Group
	ctx context.Context
}

// NewGroup returns a group whose tasks stop when ctx is cancelled.
func NewGroup(ctx context.Context) *Group {
	g, gctx := errgroup.WithContext(ctx)
	return &Group{g: g, ctx: gctx}
}

// Every starts a periodic task in its own goroutine.
func (g *Group) Every(name string, interval time.Duration, fn Task) {
	logging.Info("scheduler", "task_started", map[string]any{
		"task":     name,
		"interval": interval.String(),
	})
	g.g.Go(func() error {
		Every(g.ctx, name, interval, fn)
		return nil
	})
}

// Wait blocks until every task has returned.
func (g *Group) Wait() error {
	return g.g.Wait()
}
