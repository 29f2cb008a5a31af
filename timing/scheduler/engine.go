package scheduler

import (
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/ahbsim/timing/stats"
)

// engineTicker steps the scheduler once per tick of an Akita ticking
// component.
type engineTicker struct {
	*sim.TickingComponent

	s   *Scheduler
	err error
}

// Tick runs one cycle. It reports no progress once the run is done, which
// stops the component from scheduling further ticks.
func (t *engineTicker) Tick() (madeProgress bool) {
	if t.err != nil || t.s.Done() {
		return false
	}

	if err := t.s.StepCycle(); err != nil {
		t.err = err
		return false
	}

	return !t.s.Done()
}

// RunOnEngine runs the simulation on an Akita engine. A ticking component
// at the configured frequency steps one cycle per tick until the run is
// done.
func (s *Scheduler) RunOnEngine(engine sim.Engine) (*stats.Result, error) {
	start := time.Now()
	s.logStart()

	t := &engineTicker{s: s}
	freq := sim.Freq(s.cfg.FrequencyGHz) * sim.GHz
	t.TickingComponent = sim.NewTickingComponent("AHBSim.Scheduler", engine, freq, t)

	if !s.Done() {
		t.TickNow()
	}

	if err := engine.Run(); err != nil {
		return s.finish(start), err
	}

	return s.finish(start), t.err
}
