package benchmarks

import "github.com/sarchlab/ahbsim/insts"

var (
	r   = insts.Reg
	imm = insts.Imm
	enc = insts.MustEncode
)

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets a specific pipeline or memory characteristic.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchTaken(),
		mixedOperations(),
		loopSimulation(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: a loop, arithmetic latency and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		mixedOperations(),
		branchTaken(),
	}
}

// 1. Arithmetic Sequential - independent ADDs over five registers
func arithmeticSequential() Benchmark {
	instrs := []uint32{enc("LDI", r(10), imm(1))}
	for i := 0; i < 20; i++ {
		rd := uint8(1 + i%5)
		instrs = append(instrs, enc("ADD", r(rd), r(rd), r(10)))
	}
	instrs = append(instrs, enc("HALT"))

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent ADD operations - measures ALU throughput",
		Program:     BuildProgram(instrs...),
		ResultReg:   1,
		Expected:    4,
	}
}

// 2. Dependency Chain - every ADD reads the previous result
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent ADDs (R1 = R1 + 1) - measures in-order latency",
		Program:     buildDependencyChain(20),
		ResultReg:   1,
		Expected:    20,
	}
}

func buildDependencyChain(n int) []byte {
	instrs := make([]uint32, 0, n+2)
	instrs = append(instrs, enc("LDI", r(10), imm(1)))
	for i := 0; i < n; i++ {
		instrs = append(instrs, enc("ADD", r(1), r(1), r(10)))
	}
	instrs = append(instrs, enc("HALT"))
	return BuildProgram(instrs...)
}

// 3. Memory Sequential - store/load pairs walking a buffer
func memorySequential() Benchmark {
	instrs := []uint32{
		enc("LDI", r(6), imm(0x1000)),
		enc("LDI", r(7), imm(4)),
		enc("LDI", r(2), imm(5)),
	}
	for i := 0; i < 10; i++ {
		instrs = append(instrs,
			enc("ST", r(6), r(2)),
			enc("LD", r(3), r(6)),
			enc("ADD", r(4), r(4), r(3)),
			enc("ADD", r(6), r(6), r(7)),
		)
	}
	instrs = append(instrs, enc("HALT"))

	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 store/load pairs to sequential addresses - measures memory latency",
		Program:     BuildProgram(instrs...),
		ResultReg:   4,
		Expected:    50,
	}
}

// 4. Function Calls - CALL/RET pairs into a one-instruction body
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "3 CALL/RET pairs - measures redirect cost",
		Program: BuildProgram(
			enc("LDI", r(10), imm(1)),
			enc("CALL", imm(5)),
			enc("CALL", imm(5)),
			enc("CALL", imm(5)),
			enc("HALT"),
			enc("ADD", r(1), r(1), r(10)),
			enc("RET"),
		),
		ResultReg: 1,
		Expected:  3,
	}
}

// 5. Branch Taken - a tight loop whose back edge is taken 9 times
func branchTaken() Benchmark {
	return Benchmark{
		Name:        "branch_taken",
		Description: "10-iteration countdown loop - measures taken-branch flushes",
		Program: BuildProgram(
			enc("LDI", r(1), imm(10)),
			enc("LDI", r(2), imm(1)),
			enc("SUB", r(1), r(1), r(2)),
			enc("ADD", r(3), r(3), r(2)),
			enc("BNE", insts.Offset(-3), r(1), r(0)),
			enc("HALT"),
		),
		ResultReg: 3,
		Expected:  10,
	}
}

// 6. Mixed Operations - multi-cycle MUL and DIV among single-cycle ALU ops
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "MUL, DIV, ADD and SUB - measures multi-cycle execution",
		Program: BuildProgram(
			enc("LDI", r(1), imm(6)),
			enc("LDI", r(2), imm(7)),
			enc("MUL", r(3), r(1), r(2)),
			enc("LDI", r(4), imm(3)),
			enc("DIV", r(5), r(3), r(4)),
			enc("ADD", r(6), r(5), r(1)),
			enc("SUB", r(7), r(6), r(4)),
			enc("HALT"),
		),
		ResultReg: 7,
		Expected:  17,
	}
}

// 7. Loop Simulation - a counted loop with a load in its body
func loopSimulation() Benchmark {
	return Benchmark{
		Name:        "loop_simulation",
		Description: "20-iteration loop summing the counter - measures loop overhead",
		Program: BuildProgram(
			enc("LDI", r(1), imm(20)),
			enc("LDI", r(2), imm(1)),
			enc("LDI", r(6), imm(0x800)),
			enc("SUB", r(1), r(1), r(2)),
			enc("LD", r(4), r(6)),
			enc("ADD", r(3), r(3), r(1)),
			enc("BNE", insts.Offset(-4), r(1), r(0)),
			enc("HALT"),
		),
		ResultReg: 3,
		Expected:  190,
	}
}
