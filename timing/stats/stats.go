// Package stats aggregates per-core counters and hierarchy statistics into
// the result of a simulation run.
package stats

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sarchlab/ahbsim/timing/cache"
	"github.com/sarchlab/ahbsim/timing/core"
)

// Metadata describes how a run was set up and how far it went.
type Metadata struct {
	// RunID is a unique id of the run.
	RunID string `json:"run_id"`
	// Target is the simulated system.
	Target string `json:"target"`
	// NumCores is the number of simulated cores.
	NumCores int `json:"num_cores"`
	// MaxCycles is the configured cycle bound.
	MaxCycles uint64 `json:"max_cycles"`
	// CyclesSimulated is the number of scheduler cycles that ran.
	CyclesSimulated uint64 `json:"cycles_simulated"`
	// WallClockSeconds is the host time the run took.
	WallClockSeconds float64 `json:"wall_clock_seconds"`
	// SimulatedSeconds is CyclesSimulated at the configured frequency.
	SimulatedSeconds float64 `json:"simulated_seconds"`
	// HaltedCores is the number of cores that executed HALT.
	HaltedCores int `json:"halted_cores"`
	// CacheMode is the cache model mode.
	CacheMode string `json:"cache_mode"`
	// Parallel is true when cores stepped concurrently.
	Parallel bool `json:"parallel"`
	// ImageBytes is the size of the loaded program image.
	ImageBytes int `json:"image_bytes"`
}

// CoreResult holds the final counters of one core.
type CoreResult struct {
	ID               int     `json:"id"`
	Type             string  `json:"type"`
	Halted           bool    `json:"halted"`
	Instructions     uint64  `json:"instructions"`
	Cycles           uint64  `json:"cycles"`
	Retired          uint64  `json:"retired"`
	Squashed         uint64  `json:"squashed"`
	Flushes          uint64  `json:"flushes"`
	Stalls           uint64  `json:"stalls"`
	FetchStalls      uint64  `json:"fetch_stalls"`
	CacheHits        uint64  `json:"cache_hits"`
	CacheMisses      uint64  `json:"cache_misses"`
	BranchesTaken    uint64  `json:"branches_taken"`
	BranchesNotTaken uint64  `json:"branches_not_taken"`
	Energy           float64 `json:"energy"`
}

// Result is the aggregated outcome of a run.
type Result struct {
	// TotalCycles is the largest core cycle count.
	TotalCycles uint64 `json:"total_cycles"`
	// TotalInstructions sums the instructions of every core.
	TotalInstructions uint64 `json:"total_instructions"`
	// IPC is TotalInstructions over TotalCycles.
	IPC float64 `json:"ipc"`
	// PowerEstimate sums the energy of every core.
	PowerEstimate float64 `json:"power_estimate"`
	// MemoryBandwidth is image bytes per simulated second.
	MemoryBandwidth float64 `json:"memory_bandwidth"`
	// CacheHitRates holds the reported hit rate per cache level.
	CacheHitRates map[string]float64 `json:"cache_hit_rates"`
	// CoreUtilization is each core's share of TotalInstructions.
	CoreUtilization map[int]float64 `json:"core_utilization"`
	// Cores holds per-core counters in core id order.
	Cores []CoreResult `json:"cores"`
	// Metadata describes the run.
	Metadata Metadata `json:"metadata"`
}

// Aggregate builds the result of a run from its cores and hierarchy.
func Aggregate(cores []*core.Core, h *cache.Hierarchy, meta Metadata) *Result {
	r := &Result{
		CoreUtilization: make(map[int]float64, len(cores)),
		Cores:           make([]CoreResult, 0, len(cores)),
	}

	meta.HaltedCores = 0
	for _, c := range cores {
		cnt := c.Counters()
		r.TotalInstructions += cnt.Instructions
		r.TotalCycles = max(r.TotalCycles, cnt.Cycles)
		r.PowerEstimate += cnt.Energy
		if c.Halted() {
			meta.HaltedCores++
		}
		r.Cores = append(r.Cores, coreResult(c, cnt))
	}

	if r.TotalCycles > 0 {
		r.IPC = float64(r.TotalInstructions) / float64(r.TotalCycles)
	}

	for _, c := range cores {
		r.CoreUtilization[c.ID] = Utilization(c.Counters().Instructions, r.TotalInstructions)
	}

	if h != nil {
		r.CacheHitRates = h.HitRates()
		meta.CacheMode = string(h.Config().Mode)
	}

	if meta.SimulatedSeconds > 0 {
		r.MemoryBandwidth = float64(meta.ImageBytes) / meta.SimulatedSeconds
	}

	meta.NumCores = len(cores)
	r.Metadata = meta

	return r
}

// Utilization returns instructions over total, or 0 without instructions.
func Utilization(instructions, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(instructions) / float64(total)
}

func coreResult(c *core.Core, cnt core.Counters) CoreResult {
	return CoreResult{
		ID:               c.ID,
		Type:             c.Type.String(),
		Halted:           c.Halted(),
		Instructions:     cnt.Instructions,
		Cycles:           cnt.Cycles,
		Retired:          cnt.Retired,
		Squashed:         cnt.Squashed,
		Flushes:          cnt.Flushes,
		Stalls:           cnt.Stalls,
		FetchStalls:      cnt.FetchStalls,
		CacheHits:        cnt.CacheHits,
		CacheMisses:      cnt.CacheMisses,
		BranchesTaken:    cnt.BranchesTaken,
		BranchesNotTaken: cnt.BranchesNotTaken,
		Energy:           cnt.Energy,
	}
}

// hostFields differ between runs of the same program.
var hostFields = cmpopts.IgnoreFields(Metadata{}, "RunID", "WallClockSeconds", "Parallel")

// Equivalent reports whether two results describe the same simulation,
// ignoring the run id, host time and stepping mode.
func (r *Result) Equivalent(other *Result) bool {
	return cmp.Equal(r, other, hostFields, cmpopts.EquateEmpty())
}

// Diff returns a human-readable difference between two results, ignoring
// the same fields as Equivalent.
func (r *Result) Diff(other *Result) string {
	return cmp.Diff(r, other, hostFields, cmpopts.EquateEmpty())
}

// CPI returns TotalCycles over TotalInstructions.
func (r *Result) CPI() float64 {
	if r.TotalInstructions == 0 {
		return 0
	}
	return float64(r.TotalCycles) / float64(r.TotalInstructions)
}
