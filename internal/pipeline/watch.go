package pipeline

import (
	"context"
	"time"

	"airlog/internal/logging"
)

const countdownInterval = time.Minute

// Watch runs the pipeline on the configured interval until the context is
// canceled. A failed run is logged and the loop continues. The inter-run
// wait is the only cancellable point and can be cut short by TriggerNow.
func (o *Orchestrator) Watch(ctx context.Context) error {
	interval := time.Duration(o.cfg.Workflow.RunIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	trigger := "interval"
	for {
		if _, err := o.Run(ctx, trigger); err != nil {
			o.logger.Error("run failed", logging.Error(err))
		}
		var err error
		trigger, err = o.wait(ctx, interval)
		if err != nil {
			return err
		}
	}
}

// TriggerNow cuts the current inter-run wait short. Safe to call from any
// goroutine; redundant triggers while one is already pending are dropped.
func (o *Orchestrator) TriggerNow() {
	select {
	case o.trigger <- struct{}{}:
	default:
	}
}

// wait blocks until the interval elapses or a manual trigger fires,
// whichever comes first, logging a countdown while idle. It reports which
// cause ended the wait.
func (o *Orchestrator) wait(ctx context.Context, interval time.Duration) (string, error) {
	deadline := o.now().Add(interval)
	timer := time.NewTimer(interval)
	defer timer.Stop()
	ticker := time.NewTicker(countdownInterval)
	defer ticker.Stop()

	o.logger.Info("waiting for next run",
		logging.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
			return "interval", nil
		case <-o.trigger:
			o.logger.Info("manual trigger received")
			return "manual", nil
		case <-ticker.C:
			remaining := deadline.Sub(o.now()).Round(time.Second)
			if remaining > 0 {
				o.logger.Info("next run countdown",
					logging.Duration("remaining", remaining))
			}
		}
	}
}
