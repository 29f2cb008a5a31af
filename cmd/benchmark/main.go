// Command benchmark runs the AHBSim timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv             Output results in CSV format (default: table)
//	-assumed         Use assumed cache hit rates instead of simulated caches
//	-execute-stalls  Hold Execute for the full cost of multi-cycle instructions
//	-charge-latency  Add data access latency to core cycles
//	-core            Run only the three core benchmarks
//
// Example:
//
//	# Run all benchmarks with table output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/ahbsim/benchmarks"
	"github.com/sarchlab/ahbsim/timing/cache"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	assumed := flag.Bool("assumed", false, "Use assumed cache hit rates")
	executeStalls := flag.Bool("execute-stalls", false, "Hold Execute for multi-cycle instructions")
	chargeLatency := flag.Bool("charge-latency", false, "Add data access latency to core cycles")
	coreOnly := flag.Bool("core", false, "Run only the core benchmarks")
	verbose := flag.Bool("v", false, "Log every run")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	if *assumed {
		config.CacheMode = cache.ModeAssumed
	}
	config.ExecuteStalls = *executeStalls
	config.ChargeMemoryLatency = *chargeLatency
	config.Verbose = *verbose
	config.Output = os.Stdout

	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	results, err := harness.RunAll(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running benchmarks: %v\n", err)
		atexit.Exit(1)
	}

	if *csvOutput {
		harness.PrintCSV(results)
	} else {
		harness.PrintResults(results)
	}

	for _, r := range results {
		if !r.Passed {
			atexit.Exit(1)
		}
	}
	atexit.Exit(0)
}
