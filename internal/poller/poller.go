// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ectotools/ectolink/internal/register"
	"github.com/ectotools/ectolink/internal/transport"
)

// Reader abstracts the one transport operation the poller needs.
// The poller depends on geometry only.
type Reader interface {
	ReadRegisters(slave uint8, start, count uint16, timeout time.Duration) ([]uint16, error)
}

// ErrUpdateFailed marks a poll cycle that exhausted its retry budget or hit
// a terminal transport error. The previously published snapshot survives.
var ErrUpdateFailed = errors.New("poller: update failed")

// Config is the minimal runtime config the poller needs.
type Config struct {
	Slave       uint8
	Interval    time.Duration
	Retries     int           // additional attempts after the first
	Backoff     time.Duration // sleep before retry n is Backoff * n
	ReadTimeout time.Duration // per-call override; 0 uses the link default
}

// Poller drives periodic acquisition of the status block and owns the
// register snapshot. It is the snapshot's only writer.
type Poller struct {
	cfg    Config
	reader Reader
	log    *zap.Logger

	snap atomic.Pointer[register.Snapshot]
}

// New creates a poller with immutable config.
func New(cfg Config, reader Reader, log *zap.Logger) (*Poller, error) {
	if cfg.Slave == 0 {
		return nil, errors.New("poller: slave address required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.Retries < 0 {
		return nil, errors.New("poller: retries must be >= 0")
	}
	if reader == nil {
		return nil, errors.New("poller: reader required")
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{cfg: cfg, reader: reader, log: log}, nil
}

// Snapshot returns the last successfully polled register block. Before the
// first successful cycle it returns an empty snapshot. The returned map is
// shared and must not be mutated.
func (p *Poller) Snapshot() register.Snapshot {
	if s := p.snap.Load(); s != nil {
		return *s
	}
	return register.Snapshot{}
}

// PollOnce runs one full poll cycle: a batched read of the status block
// with bounded retries and growing backoff. On success the published
// snapshot is replaced wholesale in a single swap; on terminal failure the
// previous snapshot stays visible unchanged.
func (p *Poller) PollOnce(ctx context.Context) (register.Snapshot, error) {
	var last error

	for attempt := 0; attempt <= p.cfg.Retries; attempt++ {
		if attempt > 0 {
			delay := p.cfg.Backoff * time.Duration(attempt)
			p.log.Warn("poll attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("budget", p.cfg.Retries+1),
				zap.Duration("backoff", delay),
				zap.Error(last),
			)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, ctx.Err())
			case <-time.After(delay):
			}
		}

		regs, err := p.reader.ReadRegisters(p.cfg.Slave, register.StatusBase, register.StatusCount, p.cfg.ReadTimeout)
		if err != nil {
			last = err
			if !transport.Recoverable(err) {
				// A device exception or missing connection will not heal
				// within this cycle; escalate without burning the budget.
				break
			}
			continue
		}

		snap := make(register.Snapshot, len(regs))
		for i, v := range regs {
			snap[register.StatusBase+uint16(i)] = v
		}
		p.snap.Store(&snap)

		if attempt > 0 {
			p.log.Info("poll recovered", zap.Int("attempts", attempt+1))
		}
		return snap, nil
	}

	p.log.Error("poll cycle failed", zap.Uint8("slave", p.cfg.Slave), zap.Error(last))
	return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, last)
}
