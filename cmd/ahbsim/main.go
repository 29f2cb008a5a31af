// Package main provides the entry point for AHBSim.
// AHBSim is a cycle-level simulator of AlphaAHB single-core and
// heterogeneous multi-core systems.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/ahbsim/config"
	"github.com/sarchlab/ahbsim/insts"
	"github.com/sarchlab/ahbsim/loader"
	"github.com/sarchlab/ahbsim/timing/cache"
	"github.com/sarchlab/ahbsim/timing/scheduler"
	"github.com/sarchlab/ahbsim/timing/stats"
)

// Exit codes.
const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitInterrupted = 130
)

type options struct {
	target        string
	cores         int
	cycles        uint64
	configPath    string
	cacheMode     string
	parallel      bool
	engine        bool
	executeStalls bool
	chargeLatency bool
	jsonOut       bool
	outPath       string
	perCore       bool
	disasm        bool
	verbose       bool
	trace         bool
	cpuProfile    string
	memProfile    string
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	opts := &options{}

	fs := flag.NewFlagSet("ahbsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.target, "target", "", "Simulated system: single-core (alpha) or heterogeneous-multicore (alpham)")
	fs.IntVar(&opts.cores, "cores", 0, "Number of cores of a heterogeneous system")
	fs.Uint64Var(&opts.cycles, "cycles", 0, "Maximum number of cycles to simulate")
	fs.StringVar(&opts.configPath, "config", "", "Path to a JSON or YAML configuration file")
	fs.StringVar(&opts.cacheMode, "cache-mode", "", "Cache model: assumed or simulated")
	fs.BoolVar(&opts.parallel, "parallel", false, "Step cores concurrently within a cycle")
	fs.BoolVar(&opts.engine, "engine", false, "Drive the run from an Akita serial engine")
	fs.BoolVar(&opts.executeStalls, "execute-stalls", false, "Hold Execute for the full cost of multi-cycle instructions")
	fs.BoolVar(&opts.chargeLatency, "charge-latency", false, "Add data access latency to core cycles")
	fs.BoolVar(&opts.jsonOut, "json", false, "Print the result as JSON")
	fs.StringVar(&opts.outPath, "o", "", "Write the JSON result to a file")
	fs.BoolVar(&opts.perCore, "per-core", false, "Print per-core counters")
	fs.BoolVar(&opts.disasm, "disasm", false, "Disassemble the binary and exit")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output")
	fs.BoolVar(&opts.trace, "trace", false, "Log every simulated cycle")
	fs.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write a CPU profile to file")
	fs.StringVar(&opts.memProfile, "memprofile", "", "Write a memory profile to file")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: ahbsim [options] <program.bin>\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return nil, nil, errors.New("missing program path")
	}

	return opts, fs.Args(), nil
}

func newLogger(opts *options, stderr io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case opts.trace:
		level = scheduler.LevelTrace
	case opts.verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// buildConfig layers the command line over the configuration file or the
// defaults.
func buildConfig(opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}

	if opts.target != "" {
		target, err := config.ParseTarget(opts.target)
		if err != nil {
			return nil, err
		}
		cfg.Target = target
		if target == config.TargetSingleCore && opts.cores == 0 {
			cfg.NumCores = 1
		}
	}
	if opts.cores != 0 {
		cfg.NumCores = opts.cores
	}
	if opts.cycles != 0 {
		cfg.MaxCycles = opts.cycles
	}
	if opts.cacheMode != "" {
		cfg.Cache.Mode = cache.Mode(opts.cacheMode)
	}
	cfg.Parallel = cfg.Parallel || opts.parallel
	cfg.ExecuteStalls = cfg.ExecuteStalls || opts.executeStalls
	cfg.ChargeMemoryLatency = cfg.ChargeMemoryLatency || opts.chargeLatency

	return cfg, nil
}

func disassemble(prog *loader.Program, cfg *config.Config, stdout io.Writer) error {
	var decoderOpts []insts.DecoderOption
	if target, _ := config.ParseTarget(string(cfg.Target)); target == config.TargetSingleCore {
		decoderOpts = append(decoderOpts, insts.WithBaseISAOnly())
	}
	return prog.Disassemble(stdout, insts.NewDecoder(decoderOpts...))
}

func simulate(ctx context.Context, s *scheduler.Scheduler, useEngine bool) (*stats.Result, error) {
	if useEngine {
		return s.RunOnEngine(sim.NewSerialEngine())
	}
	return s.Run(ctx)
}

func writeProfile(path, name string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s profile: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	return pprof.Lookup(name).WriteTo(f, 0)
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, rest, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	logger := newLogger(opts, stderr)
	slog.SetDefault(logger)

	cfg, err := buildConfig(opts)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitError
	}

	programPath := rest[0]
	prog, err := loader.Load(programPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return exitError
	}
	logger.Debug("program loaded",
		"path", programPath,
		"bytes", len(prog.Data),
		"words", prog.NumWords(),
		"trailing_bytes", prog.TrailingBytes(),
	)

	if opts.disasm {
		if err := disassemble(prog, cfg, stdout); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error disassembling program: %v\n", err)
			return exitError
		}
		return exitOK
	}

	s, err := scheduler.New(cfg, scheduler.WithLogger(logger))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error creating simulator: %v\n", err)
		return exitError
	}
	s.LoadBinary(prog.Data)

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error creating CPU profile: %v\n", err)
			return exitError
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error starting CPU profile: %v\n", err)
			return exitError
		}
		defer pprof.StopCPUProfile()
	}

	res, runErr := simulate(ctx, s, opts.engine)

	if opts.memProfile != "" {
		if err := writeProfile(opts.memProfile, "heap"); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error writing memory profile: %v\n", err)
		}
	}

	if err := report(res, opts, stdout); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error writing result: %v\n", err)
		return exitError
	}

	switch {
	case runErr == nil:
		return exitOK
	case errors.Is(runErr, context.Canceled):
		_, _ = fmt.Fprintf(stderr, "Simulation interrupted at cycle %d\n", res.Metadata.CyclesSimulated)
		return exitInterrupted
	default:
		_, _ = fmt.Fprintf(stderr, "Simulation failed: %v\n", runErr)
		return exitError
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	atexit.Exit(code)
}
