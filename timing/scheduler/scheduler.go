// Package scheduler runs AlphaAHB cores cycle by cycle against a shared
// memory hierarchy and aggregates the outcome.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/ahbsim/config"
	"github.com/sarchlab/ahbsim/emu"
	"github.com/sarchlab/ahbsim/insts"
	"github.com/sarchlab/ahbsim/timing/cache"
	"github.com/sarchlab/ahbsim/timing/core"
	"github.com/sarchlab/ahbsim/timing/latency"
	"github.com/sarchlab/ahbsim/timing/stats"
)

// coreRatio is the share of each core type in a heterogeneous system, in
// core type order.
var coreRatio = [emu.NumCoreTypes]int{16, 16, 8, 8, 4, 4, 4, 4}

// Partition splits n cores over the core types by coreRatio using the
// largest remainder method. Ties go to the earlier core type.
func Partition(n int) [emu.NumCoreTypes]int {
	total := 0
	for _, w := range coreRatio {
		total += w
	}

	var counts [emu.NumCoreTypes]int
	var rems [emu.NumCoreTypes]int
	assigned := 0
	for i, w := range coreRatio {
		counts[i] = n * w / total
		rems[i] = n * w % total
		assigned += counts[i]
	}

	for ; assigned < n; assigned++ {
		best := 0
		for i := 1; i < len(rems); i++ {
			if rems[i] > rems[best] {
				best = i
			}
		}
		counts[best]++
		rems[best] = -1
	}

	return counts
}

// Option is a functional option for configuring the Scheduler.
type Option func(*Scheduler)

// WithObserver registers an observer of the run.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observers = append(s.observers, o)
	}
}

// WithLogger sets the logger for run records. The default logger is used
// otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// Scheduler owns the cores of one simulated system and steps them in core
// id order.
type Scheduler struct {
	cfg       *config.Config
	target    config.Target
	hierarchy *cache.Hierarchy
	decoder   *insts.Decoder
	cores     []*core.Core

	cycle      uint64
	imageBytes int
	runID      string

	observers []Observer
	logger    *slog.Logger
}

// New builds the system described by cfg. The configuration is validated
// and copied.
func New(cfg *config.Config, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	target, _ := config.ParseTarget(string(cfg.Target))
	h, err := cache.NewHierarchy(cfg.CacheConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidCacheConfig, err)
	}

	table, err := cfg.LatencyTable()
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		cfg:       cfg.Clone(),
		target:    target,
		hierarchy: h,
		runID:     xid.New().String(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var types []emu.CoreType
	if target == config.TargetSingleCore {
		s.decoder = insts.NewDecoder(insts.WithBaseISAOnly())
		types = []emu.CoreType{emu.GeneralPurpose}
	} else {
		s.decoder = insts.NewDecoder()
		for t, n := range Partition(cfg.NumCores) {
			for i := 0; i < n; i++ {
				types = append(types, emu.CoreType(t))
			}
		}
	}

	for id, t := range types {
		s.cores = append(s.cores, core.New(id, t, h, s.coreOptions(t, table)...))
	}

	return s, nil
}

func (s *Scheduler) coreOptions(t emu.CoreType, table *latency.Table) []core.Option {
	opts := []core.Option{
		core.WithEnergyPerCycle(s.cfg.Energy(t)),
		core.WithLatencyTable(table),
	}
	if s.cfg.Parallel {
		opts = append(opts, core.WithBufferedPort())
	}
	if s.cfg.ExecuteStalls {
		opts = append(opts, core.WithExecuteStalls())
	}
	if s.cfg.ChargeMemoryLatency {
		opts = append(opts, core.WithLatencyCharging())
	}
	return opts
}

// Config returns the scheduler's copy of the configuration.
func (s *Scheduler) Config() *config.Config {
	return s.cfg
}

// Target returns the simulated target.
func (s *Scheduler) Target() config.Target {
	return s.target
}

// Hierarchy returns the shared memory hierarchy.
func (s *Scheduler) Hierarchy() *cache.Hierarchy {
	return s.hierarchy
}

// Cores returns the cores in core id order.
func (s *Scheduler) Cores() []*core.Core {
	return s.cores
}

// Cycle returns the number of cycles stepped so far.
func (s *Scheduler) Cycle() uint64 {
	return s.cycle
}

// LoadBinary writes the program image into main memory at address 0 and
// makes it fetchable by every core. A trailing partial word is stored but
// never fetched.
func (s *Scheduler) LoadBinary(data []byte) {
	s.hierarchy.Write(cache.Main, 0, data)
	s.imageBytes = len(data)

	end := uint64(len(data)) / 4 * 4
	for _, c := range s.cores {
		c.SetImageEnd(end)
	}
}

// SetEntry sets the first fetch address of a core.
func (s *Scheduler) SetEntry(coreID int, pc uint32) error {
	if coreID < 0 || coreID >= len(s.cores) {
		return fmt.Errorf("core %d does not exist", coreID)
	}
	s.cores[coreID].SetPC(pc)
	return nil
}

// Done reports whether the run is over: the cycle bound is reached or every
// core has halted.
func (s *Scheduler) Done() bool {
	return s.cycle >= s.cfg.MaxCycles || s.allHalted()
}

func (s *Scheduler) allHalted() bool {
	for _, c := range s.cores {
		if c.Active() {
			return false
		}
	}
	return true
}

// StepCycle runs one cycle on every active core in core id order: advance
// and execute, then fetch.
func (s *Scheduler) StepCycle() error {
	wasActive := make([]bool, len(s.cores))
	for i, c := range s.cores {
		wasActive[i] = c.Active()
	}

	var err error
	if s.cfg.Parallel {
		err = s.stepParallel()
	} else {
		err = s.stepSerial()
	}
	s.cycle++

	if traceEnabled() {
		Trace("cycle", "cycle", s.cycle, "active", s.activeCores())
	}

	for i, c := range s.cores {
		if wasActive[i] && c.Halted() {
			s.logger.Debug("core halted", "core", c.ID, "type", c.Type, "cycle", s.cycle)
			for _, o := range s.observers {
				o.OnHalt(c.ID, s.cycle)
			}
		}
	}
	for _, o := range s.observers {
		o.OnCycle(s.cycle, s.cores)
	}

	return err
}

func (s *Scheduler) stepSerial() error {
	for _, c := range s.cores {
		if !c.Active() {
			continue
		}
		if err := stepCore(c, s.decoder); err != nil {
			return err
		}
		c.CommitMemory()
	}
	return nil
}

// stepCore runs the in-cycle work of one core and turns a panic into an
// error.
func stepCore(c *core.Core, decoder *insts.Decoder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("core %d: %v", c.ID, r)
		}
	}()

	c.AdvanceAndExecute()
	c.FetchIfEmpty(decoder)

	return nil
}

func (s *Scheduler) activeCores() int {
	n := 0
	for _, c := range s.cores {
		if c.Active() {
			n++
		}
	}
	return n
}

// Run steps cycles until the run is done. The context is checked between
// cycles; on cancellation the partial result is returned with the context
// error.
func (s *Scheduler) Run(ctx context.Context) (*stats.Result, error) {
	start := time.Now()
	s.logStart()

	var err error
	for !s.Done() {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = s.StepCycle(); err != nil {
			break
		}
	}

	return s.finish(start), err
}

func (s *Scheduler) logStart() {
	s.logger.Info("simulation started",
		"run", s.runID,
		"target", s.target,
		"cores", len(s.cores),
		"max_cycles", s.cfg.MaxCycles,
		"parallel", s.cfg.Parallel,
		"cache_mode", s.cfg.Cache.Mode,
	)
}

func (s *Scheduler) finish(start time.Time) *stats.Result {
	res := s.Result(time.Since(start))
	s.logger.Info("simulation finished",
		"run", s.runID,
		"cycles", s.cycle,
		"instructions", res.TotalInstructions,
		"ipc", res.IPC,
		"halted", res.Metadata.HaltedCores,
	)
	return res
}

// Result aggregates the current state of the run.
func (s *Scheduler) Result(wallClock time.Duration) *stats.Result {
	return stats.Aggregate(s.cores, s.hierarchy, stats.Metadata{
		RunID:            s.runID,
		Target:           string(s.target),
		MaxCycles:        s.cfg.MaxCycles,
		CyclesSimulated:  s.cycle,
		WallClockSeconds: wallClock.Seconds(),
		SimulatedSeconds: float64(s.cycle) / (s.cfg.FrequencyGHz * 1e9),
		Parallel:         s.cfg.Parallel,
		ImageBytes:       s.imageBytes,
	})
}
