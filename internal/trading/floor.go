package trading

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Floor runs a group of traders on a schedule.
type Floor struct {
	Traders []*Trader
	// Interval between cycles for Run (0 = one hour).
	Interval time.Duration
	// RunWhenClosed runs cycles outside market hours.
	RunWhenClosed bool
	// CycleTimeout bounds each trader's cycle (0 = no limit).
	CycleTimeout time.Duration
	// Clock defaults to time.Now.
	Clock Clock
}

func (f *Floor) now() time.Time {
	if f.Clock != nil {
		return f.Clock()
	}
	return time.Now()
}

// RunOnce runs one cycle for every trader concurrently. Each trader finishes
// independently of the others; failures are joined into the returned error.
// It returns false without running anything when the market is closed and
// RunWhenClosed is not set.
func (f *Floor) RunOnce(ctx context.Context) (bool, error) {
	if !f.RunWhenClosed && !IsMarketOpen(f.now()) {
		log.Printf("[floor] market is closed, skipping cycle")
		return false, nil
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, tr := range f.Traders {
		g.Go(func() error {
			cctx := ctx
			if f.CycleTimeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(ctx, f.CycleTimeout)
				defer cancel()
			}
			if err := tr.Run(cctx); err != nil {
				log.Printf("[floor] %s failed: %v", tr.Name, err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", tr.Name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return true, errors.Join(errs...)
}

// Run repeats RunOnce every Interval until ctx is canceled. A failed cycle is
// logged and the schedule continues.
func (f *Floor) Run(ctx context.Context) error {
	interval := f.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := f.RunOnce(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[floor] cycle failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
