package scheduler

import "github.com/sarchlab/ahbsim/timing/core"

// Observer is notified as the scheduler runs. Calls happen on the
// scheduler's goroutine after each cycle completes.
type Observer interface {
	// OnCycle is called after every cycle with the cycle count so far.
	OnCycle(cycle uint64, cores []*core.Core)
	// OnHalt is called once for each core that halted during a cycle.
	OnHalt(coreID int, cycle uint64)
}
