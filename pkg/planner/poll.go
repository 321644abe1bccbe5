package planner

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// StartPolling reconciles every reminder once per interval until ctx is
// canceled, so reminders beyond the near-term window become live while the
// program keeps running. A non-positive interval disables polling.
func (p *Planner) StartPolling(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := p.clock.Ticker(interval)
	go p.poll(ctx, t)
}

func (p *Planner) poll(ctx context.Context, t *clock.Ticker) {
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			// Stop on context cancellation
			return

		case <-t.C:
			armed := p.Reconcile(ctx)
			p.log.Info("Periodic reconciliation armed %d reminders", armed)
		}
	}
}
