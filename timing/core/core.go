// Package core provides the AlphaAHB core model.
// It ties a register file, a functional emulator and a memory port to the
// 8-stage pipeline and keeps the core's performance counters.
package core

import (
	"github.com/sarchlab/ahbsim/emu"
	"github.com/sarchlab/ahbsim/insts"
	"github.com/sarchlab/ahbsim/timing/cache"
	"github.com/sarchlab/ahbsim/timing/latency"
	"github.com/sarchlab/ahbsim/timing/pipeline"
)

// Counters holds performance counters for the core.
type Counters struct {
	// Instructions is the number of fetched instructions minus squashed ones.
	Instructions uint64
	// Cycles is the sum of executed instruction costs, plus data latency
	// when latency charging is enabled.
	Cycles uint64
	// Retired is the number of instructions that left Commit.
	Retired uint64
	// Squashed is the number of instructions removed by flushes.
	Squashed uint64
	// Flushes is the number of redirects and halts that flushed the pipeline.
	Flushes uint64
	// Stalls is the number of cycles Execute held younger slots.
	Stalls uint64
	// FetchStalls is the number of fetches refused because the PC left the image.
	FetchStalls uint64
	// CacheHits and CacheMisses count first-level outcomes of every access.
	CacheHits   uint64
	CacheMisses uint64
	// BranchesTaken and BranchesNotTaken count conditional branch outcomes.
	BranchesTaken    uint64
	BranchesNotTaken uint64
	// Energy is the sum of executed instruction costs weighted by the
	// core's energy per cycle.
	Energy float64
}

// Option is a functional option for configuring the Core.
type Option func(*Core)

// WithBufferedPort defers the core's hierarchy traffic until CommitMemory.
func WithBufferedPort() Option {
	return func(c *Core) {
		c.portOpts = append(c.portOpts, cache.WithBuffering())
	}
}

// WithExecuteStalls makes multi-cycle instructions hold Execute.
func WithExecuteStalls() Option {
	return func(c *Core) {
		c.pipeOpts = append(c.pipeOpts, pipeline.WithExecuteStalls())
	}
}

// WithLatencyCharging adds data access latency to Cycles on every commit.
func WithLatencyCharging() Option {
	return func(c *Core) {
		c.chargeLatency = true
	}
}

// WithEnergyPerCycle sets the energy weight of one execution cycle.
func WithEnergyPerCycle(energy float64) Option {
	return func(c *Core) {
		c.energyPerCycle = energy
	}
}

// WithLatencyTable sets the table that prices executed instructions.
func WithLatencyTable(table *latency.Table) Option {
	return func(c *Core) {
		c.latencyTable = table
	}
}

// Core is one AlphaAHB core.
type Core struct {
	// ID is the core index in the system.
	ID int
	// Type selects the register banks and the energy weight.
	Type emu.CoreType

	// Pipeline is the core's 8-stage pipeline.
	Pipeline *pipeline.Pipeline

	regFile  *emu.RegFile
	port     *cache.Port
	emulator *emu.Emulator

	pc       uint32
	imageEnd uint64
	active   bool

	counters Counters

	chargeLatency  bool
	energyPerCycle float64
	latencyTable   *latency.Table

	portOpts []cache.PortOption
	pipeOpts []pipeline.PipelineOption
}

// New creates an active core of the given type attached to h.
func New(id int, coreType emu.CoreType, h *cache.Hierarchy, opts ...Option) *Core {
	c := &Core{
		ID:             id,
		Type:           coreType,
		regFile:        emu.NewRegFile(coreType),
		active:         true,
		energyPerCycle: 1,
		latencyTable:   latency.NewTable(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Pipeline = pipeline.NewPipeline(c.pipeOpts...)
	c.port = cache.NewPort(h, c.portOpts...)
	c.emulator = emu.NewEmulator(c.regFile, c.port, emu.WithPerfCounters(c))

	return c
}

// RegFile returns the core's register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// Port returns the core's memory port.
func (c *Core) Port() *cache.Port {
	return c.port
}

// PC returns the next fetch address.
func (c *Core) PC() uint32 {
	return c.pc
}

// SetPC sets the next fetch address.
func (c *Core) SetPC(pc uint32) {
	c.pc = pc
}

// SetImageEnd sets the end of the loaded program image. Fetches need the
// whole word below end.
func (c *Core) SetImageEnd(end uint64) {
	c.imageEnd = end
}

// Active reports whether the core still runs.
func (c *Core) Active() bool {
	return c.active
}

// Halted reports whether the core has halted.
func (c *Core) Halted() bool {
	return !c.active
}

// Halt stops the core. A halted core never runs again.
func (c *Core) Halt() {
	c.active = false
}

// Counters returns a snapshot of the core's counters.
func (c *Core) Counters() Counters {
	return c.counters
}

// PerfCounter returns the counter read by PERF_COUNTER and the profiling
// instructions.
func (c *Core) PerfCounter(id uint32) uint64 {
	switch id {
	case emu.PerfCycles:
		return c.counters.Cycles
	case emu.PerfInstructions:
		return c.counters.Instructions
	case emu.PerfRetired:
		return c.counters.Retired
	case emu.PerfCacheHits:
		return c.counters.CacheHits
	case emu.PerfCacheMisses:
		return c.counters.CacheMisses
	default:
		return 0
	}
}

// FetchIfEmpty fetches and decodes the word at the PC into the Fetch slot
// if that slot is free. A fetch past the image end stalls the core and
// leaves the PC unchanged. It returns true if an instruction was fetched.
func (c *Core) FetchIfEmpty(decoder *insts.Decoder) bool {
	if !c.active || !c.Pipeline.Empty(pipeline.StageFetch) {
		return false
	}

	if uint64(c.pc)+4 > c.imageEnd {
		c.counters.FetchStalls++
		return false
	}

	inst := &insts.Instruction{Address: c.pc}
	decoder.DecodeInto(c.port.FetchWord(uint64(c.pc)), inst)
	inst.RemainingCycles = c.latencyTable.Cycles(inst)
	c.Pipeline.Insert(inst)

	c.pc += 4
	c.counters.Instructions++

	return true
}

// AdvanceAndExecute advances the pipeline and executes the instruction that
// enters Execute.
func (c *Core) AdvanceAndExecute() {
	if !c.active {
		return
	}

	res := c.Pipeline.Advance()
	if res.Retired != nil {
		c.counters.Retired++
	}
	if res.Stalled {
		c.counters.Stalls++
	}
	if res.Entered == nil {
		return
	}

	c.execute(res.Entered)
}

func (c *Core) execute(inst *insts.Instruction) {
	out := c.emulator.Execute(inst)

	cost := uint64(c.latencyTable.Cycles(inst))
	c.counters.Cycles += cost
	c.counters.Energy += float64(cost) * c.energyPerCycle

	if out.Branch {
		if out.Taken {
			c.counters.BranchesTaken++
		} else {
			c.counters.BranchesNotTaken++
		}
	}

	switch {
	case out.Halt:
		c.flush()
		c.counters.Retired += uint64(c.Pipeline.Drain())
		c.Halt()
	case out.Redirect:
		c.flush()
		c.pc = out.Target
	}
}

func (c *Core) flush() {
	n := uint64(c.Pipeline.Flush())
	c.counters.Squashed += n
	c.counters.Instructions -= n
	c.counters.Flushes++
}

// CommitMemory commits the port's traffic and folds its statistics into the
// counters. With latency charging, data latency is added to Cycles.
func (c *Core) CommitMemory() cache.PortStats {
	stats := c.port.Commit()

	c.counters.CacheHits += stats.Hits
	c.counters.CacheMisses += stats.Misses
	if c.chargeLatency {
		c.counters.Cycles += stats.DataLatency
	}

	return stats
}

// Step runs one core cycle: advance and execute, then fetch, then commit
// memory traffic.
func (c *Core) Step(decoder *insts.Decoder) {
	c.AdvanceAndExecute()
	c.FetchIfEmpty(decoder)
	c.CommitMemory()
}

// RunCycles steps the core for up to n cycles.
// Returns true if still running, false if halted.
func (c *Core) RunCycles(decoder *insts.Decoder, n uint64) bool {
	for i := uint64(0); i < n && c.active; i++ {
		c.Step(decoder)
	}
	return c.active
}
