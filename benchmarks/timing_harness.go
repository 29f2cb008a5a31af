// Package benchmarks provides timing benchmark infrastructure for AHBSim
// calibration.
package benchmarks

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/ahbsim/config"
	"github.com/sarchlab/ahbsim/timing/cache"
	"github.com/sarchlab/ahbsim/timing/scheduler"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the core's cycle count
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per retired instruction
	CPI float64 `json:"cpi"`

	// StallCycles is the number of cycles Execute held younger stages
	StallCycles uint64 `json:"stall_cycles"`

	// PipelineFlushes is the number of redirects and halts
	PipelineFlushes uint64 `json:"pipeline_flushes"`

	// Squashed is the number of instructions removed by flushes
	Squashed uint64 `json:"squashed"`

	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`

	// Halted is true when the program reached HALT within the cycle bound
	Halted bool `json:"halted"`

	// ResultValue is the final value of the benchmark's result register
	ResultValue uint32 `json:"result_value"`

	// Passed is true when the program halted with the expected result
	Passed bool `json:"passed"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Program is the AlphaAHB machine code to execute
	Program []byte

	// ResultReg is the register holding the program's result
	ResultReg uint8

	// Expected is the expected value of ResultReg (for validation)
	Expected uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// CacheMode selects assumed or simulated caches
	CacheMode cache.Mode

	// ExecuteStalls makes multi-cycle instructions hold Execute
	ExecuteStalls bool

	// ChargeMemoryLatency adds data access latency to core cycles
	ChargeMemoryLatency bool

	// MaxCycles bounds each benchmark run
	MaxCycles uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables run logging
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		CacheMode: cache.ModeSimulated,
		MaxCycles: 100_000,
		Output:    os.Stdout,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results. It stops at the first
// benchmark that fails to run.
func (h *Harness) RunAll(ctx context.Context) ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result, err := h.runBenchmark(ctx, bench)
		if err != nil {
			return results, fmt.Errorf("benchmark %s: %w", bench.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

func (h *Harness) simConfig() *config.Config {
	cfg := config.Default()
	cfg.Target = config.TargetSingleCore
	cfg.NumCores = 1
	cfg.MaxCycles = h.config.MaxCycles
	cfg.ExecuteStalls = h.config.ExecuteStalls
	cfg.ChargeMemoryLatency = h.config.ChargeMemoryLatency
	if h.config.CacheMode != "" {
		cfg.Cache.Mode = h.config.CacheMode
	}
	return cfg
}

func (h *Harness) logger() *slog.Logger {
	if h.config.Verbose {
		return slog.Default()
	}
	return slog.New(slog.DiscardHandler)
}

// runBenchmark executes a single benchmark on a fresh single-core system.
func (h *Harness) runBenchmark(ctx context.Context, bench Benchmark) (BenchmarkResult, error) {
	s, err := scheduler.New(h.simConfig(), scheduler.WithLogger(h.logger()))
	if err != nil {
		return BenchmarkResult{}, err
	}
	s.LoadBinary(bench.Program)

	start := time.Now()
	if _, err := s.Run(ctx); err != nil {
		return BenchmarkResult{}, err
	}
	wallTime := time.Since(start)

	c := s.Cores()[0]
	counters := c.Counters()
	result := BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		SimulatedCycles:     counters.Cycles,
		InstructionsRetired: counters.Retired,
		StallCycles:         counters.Stalls,
		PipelineFlushes:     counters.Flushes,
		Squashed:            counters.Squashed,
		CacheHits:           counters.CacheHits,
		CacheMisses:         counters.CacheMisses,
		Halted:              c.Halted(),
		ResultValue:         c.RegFile().ReadReg32(bench.ResultReg),
		WallTime:            wallTime,
	}
	if counters.Retired > 0 {
		result.CPI = float64(counters.Cycles) / float64(counters.Retired)
	}
	result.Passed = result.Halted && result.ResultValue == bench.Expected

	return result, nil
}

// PrintResults outputs benchmark results as a table.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	t := table.NewWriter()
	t.SetOutputMirror(h.config.Output)
	t.SetTitle("AHBSim Timing Benchmark Results")
	t.AppendHeader(table.Row{
		"Benchmark", "Cycles", "Retired", "CPI", "Stalls", "Flushes",
		"Hits", "Misses", "Result", "Status", "Wall Time",
	})

	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		t.AppendRow(table.Row{
			r.Name, r.SimulatedCycles, r.InstructionsRetired,
			fmt.Sprintf("%.3f", r.CPI), r.StallCycles, r.PipelineFlushes,
			r.CacheHits, r.CacheMisses, r.ResultValue, status, r.WallTime,
		})
	}

	t.Render()
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	t := table.NewWriter()
	t.SetOutputMirror(h.config.Output)
	t.AppendHeader(table.Row{
		"name", "cycles", "instructions", "cpi", "stalls", "flushes",
		"squashed", "cache_hits", "cache_misses", "result", "passed",
	})

	for _, r := range results {
		t.AppendRow(table.Row{
			r.Name, r.SimulatedCycles, r.InstructionsRetired,
			fmt.Sprintf("%.3f", r.CPI), r.StallCycles, r.PipelineFlushes,
			r.Squashed, r.CacheHits, r.CacheMisses, r.ResultValue, r.Passed,
		})
	}

	t.RenderCSV()
}

// BuildProgram assembles instruction words into a little-endian image.
func BuildProgram(instrs ...uint32) []byte {
	program := make([]byte, 4*len(instrs))
	for i, inst := range instrs {
		binary.LittleEndian.PutUint32(program[4*i:], inst)
	}
	return program
}
