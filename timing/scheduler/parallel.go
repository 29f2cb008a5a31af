package scheduler

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// stepParallel runs the in-cycle work of every active core concurrently.
// Cores only touch their own state and buffered port until the barrier;
// the ports then commit in core id order, so the hierarchy sees the same
// access sequence as a serial cycle.
func (s *Scheduler) stepParallel() error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, c := range s.cores {
		if !c.Active() {
			continue
		}
		g.Go(func() error {
			return stepCore(c, s.decoder)
		})
	}

	err := g.Wait()

	for _, c := range s.cores {
		c.CommitMemory()
	}

	return err
}
