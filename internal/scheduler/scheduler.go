// Package scheduler drives watch mode: the same task re-run on a fixed
// interval until the context is canceled.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task immediately, then again on every tick. Task errors are
// logged and the loop keeps going; each run recomputes from scratch, so a
// failed run costs nothing but time. Runs never overlap: a task outlasting
// the interval simply delays the next tick's run.
func Every(ctx context.Context, interval time.Duration, name string, log *zap.Logger, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	run := func() {
		if err := task(ctx); err != nil && ctx.Err() == nil {
			log.Error("scheduled run failed", zap.String("task", name), zap.Error(err))
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
