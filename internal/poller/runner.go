// internal/poller/runner.go
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ectotools/ectolink/internal/register"
)

// Result is the outcome of one scheduled poll cycle.
type Result struct {
	At       time.Time
	Snapshot register.Snapshot
	Err      error // non-nil means the cycle failed; Snapshot is the last good one
}

// Run starts the ticker loop and emits a Result per tick on out (when out
// is non-nil). A failed cycle is reported and the next tick starts from a
// clean retry budget; the loop never dies on a failed update.
func (p *Poller) Run(ctx context.Context, out chan<- Result) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := p.PollOnce(ctx)
			if err != nil {
				p.log.Warn("scheduled poll failed", zap.Error(err))
				snap = p.Snapshot()
			}
			if out != nil {
				select {
				case out <- Result{At: time.Now(), Snapshot: snap, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
