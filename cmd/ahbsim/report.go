package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/ahbsim/timing/cache"
	"github.com/sarchlab/ahbsim/timing/stats"
)

// report writes the result as JSON or tables, and to the output file when
// one is given.
func report(res *stats.Result, opts *options, stdout io.Writer) error {
	if opts.outPath != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.outPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write result file: %w", err)
		}
	}

	if opts.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printSummary(res, stdout)
	printCacheHitRates(res, stdout)
	if opts.perCore {
		printCores(res, stdout)
	}

	return nil
}

func printSummary(res *stats.Result, w io.Writer) {
	meta := res.Metadata

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("AHBSim Result")
	t.AppendRows([]table.Row{
		{"Run", meta.RunID},
		{"Target", meta.Target},
		{"Cores", fmt.Sprintf("%d (%d halted)", meta.NumCores, meta.HaltedCores)},
		{"Cache Mode", meta.CacheMode},
		{"Cycles Simulated", fmt.Sprintf("%d / %d", meta.CyclesSimulated, meta.MaxCycles)},
		{"Total Cycles", res.TotalCycles},
		{"Total Instructions", res.TotalInstructions},
		{"IPC", fmt.Sprintf("%.3f", res.IPC)},
		{"Power Estimate", fmt.Sprintf("%.2f", res.PowerEstimate)},
		{"Memory Bandwidth", fmt.Sprintf("%.3e B/s", res.MemoryBandwidth)},
		{"Simulated Time", fmt.Sprintf("%.3e s", meta.SimulatedSeconds)},
		{"Wall Clock", fmt.Sprintf("%.3f s", meta.WallClockSeconds)},
	})
	t.Render()
}

func printCacheHitRates(res *stats.Result, w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Cache Hit Rates")
	t.AppendHeader(table.Row{"Level", "Hit Rate"})
	for i := 0; i < cache.NumCacheLevels; i++ {
		name := cache.Level(i).String()
		if rate, ok := res.CacheHitRates[name]; ok {
			t.AppendRow(table.Row{name, fmt.Sprintf("%.2f%%", 100*rate)})
		}
	}
	t.Render()
}

func printCores(res *stats.Result, w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Cores")
	t.AppendHeader(table.Row{
		"ID", "Type", "Halted", "Instructions", "Cycles", "Retired",
		"Flushes", "Stalls", "Hits", "Misses", "Energy", "Utilization",
	})
	for _, c := range res.Cores {
		t.AppendRow(table.Row{
			c.ID, c.Type, c.Halted, c.Instructions, c.Cycles, c.Retired,
			c.Flushes, c.Stalls, c.CacheHits, c.CacheMisses,
			fmt.Sprintf("%.2f", c.Energy),
			fmt.Sprintf("%.1f%%", 100*res.CoreUtilization[c.ID]),
		})
	}
	t.Render()
}
