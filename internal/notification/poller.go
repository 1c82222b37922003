package notification

import (
	"context"
	"sync"
	"time"
)

// Poller runs a function on a fixed interval until stopped or until its
// parent context is cancelled. The first run happens one interval after
// start.
type Poller struct {
	interval time.Duration
	tick     func(ctx context.Context)
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

func newPoller(parent context.Context, interval time.Duration, tick func(ctx context.Context)) *Poller {
	ctx, cancel := context.WithCancel(parent)
	p := &Poller{
		interval: interval,
		tick:     tick,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go p.run(ctx)
	return p
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// Stop cancels any in-flight tick and waits for the loop to exit. It is
// safe to call more than once.
func (p *Poller) Stop() {
	p.once.Do(p.cancel)
	<-p.done
}

// Done is closed once the loop has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}
