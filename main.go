// Package main provides the entry point for AHBSim.
// AHBSim is a cycle-level AlphaAHB multi-core simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/ahbsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("AHBSim - AlphaAHB Multi-Core Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: ahbsim [options] <program.bin>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -target    single-core (alpha) or heterogeneous-multicore (alpham)")
	fmt.Println("  -cores     Number of heterogeneous cores")
	fmt.Println("  -cycles    Cycle bound")
	fmt.Println("  -config    Path to a JSON or YAML configuration file")
	fmt.Println("  -parallel  Step cores concurrently")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/ahbsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/ahbsim' instead.")
	}
}
