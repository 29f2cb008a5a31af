package emu_test

import (
	"encoding/binary"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ahbsim/emu"
	"github.com/sarchlab/ahbsim/insts"
)

type fakeCounters map[uint32]uint64

func (c fakeCounters) PerfCounter(id uint32) uint64 { return c[id] }

func decodeAt(addr uint32, mnemonic string, ops ...insts.Operand) *insts.Instruction {
	inst := &insts.Instruction{Address: addr}
	insts.NewDecoder().DecodeInto(insts.MustEncode(mnemonic, ops...), inst)
	return inst
}

func run(e *emu.Emulator, mnemonic string, ops ...insts.Operand) emu.Outcome {
	return e.Execute(decodeAt(0x100, mnemonic, ops...))
}

var R = insts.Reg

var _ = Describe("Emulator", func() {
	var (
		regFile  *emu.RegFile
		memory   *flatMemory
		counters fakeCounters
		e        *emu.Emulator
	)

	BeforeEach(func() {
		regFile = emu.NewRegFile(emu.GeneralPurpose)
		memory = newFlatMemory()
		counters = fakeCounters{}
		e = emu.NewEmulator(regFile, memory, emu.WithPerfCounters(counters))
	})

	It("should expose its register file and memory", func() {
		Expect(e.RegFile()).To(BeIdenticalTo(regFile))
		Expect(e.Memory()).To(BeIdenticalTo(memory))
	})

	Describe("integer instructions", func() {
		It("should wrap ADD at 32 bits", func() {
			regFile.R[1] = 0xFFFFFFFF
			regFile.R[2] = 2

			out := run(e, "ADD", R(3), R(1), R(2))

			Expect(regFile.R[3]).To(Equal(uint64(1)))
			Expect(out).To(Equal(emu.Outcome{}))
		})

		It("should wrap SUB below zero", func() {
			regFile.R[1] = 1
			regFile.R[2] = 2
			run(e, "SUB", R(3), R(1), R(2))
			Expect(regFile.R[3]).To(Equal(uint64(0xFFFFFFFF)))
		})

		It("should keep the low 32 bits of MUL", func() {
			regFile.R[1] = 0x10000
			regFile.R[2] = 0x10001
			run(e, "MUL", R(3), R(1), R(2))
			Expect(regFile.R[3]).To(Equal(uint64(0x10000)))
		})

		It("should leave Rd unchanged on division by zero", func() {
			regFile.R[1] = 10
			regFile.R[3] = 77
			run(e, "DIV", R(3), R(1), R(2))
			Expect(regFile.R[3]).To(Equal(uint64(77)))
		})

		It("should divide", func() {
			regFile.R[1] = 10
			regFile.R[2] = 3
			run(e, "DIV", R(3), R(1), R(2))
			Expect(regFile.R[3]).To(Equal(uint64(3)))
		})

		DescribeTable("logic and shifts",
			func(mnemonic string, a, b, want uint32) {
				regFile.R[1] = uint64(a)
				regFile.R[2] = uint64(b)
				run(e, mnemonic, R(3), R(1), R(2))
				Expect(regFile.R[3]).To(Equal(uint64(want)))
			},
			Entry("AND", "AND", uint32(0xF0F0), uint32(0xFF00), uint32(0xF000)),
			Entry("OR", "OR", uint32(0xF0F0), uint32(0x0F00), uint32(0xFFF0)),
			Entry("XOR", "XOR", uint32(0xFFFF), uint32(0x00FF), uint32(0xFF00)),
			Entry("SHL masks the amount", "SHL", uint32(1), uint32(33), uint32(2)),
			Entry("SHR is logical", "SHR", uint32(0x80000000), uint32(31), uint32(1)),
			Entry("ROL", "ROL", uint32(0x80000001), uint32(1), uint32(3)),
			Entry("ROR", "ROR", uint32(3), uint32(1), uint32(0x80000001)),
		)

		It("should invert with NOT", func() {
			run(e, "NOT", R(3), R(1))
			Expect(regFile.R[3]).To(Equal(uint64(0xFFFFFFFF)))
		})

		It("should load a zero-extended immediate", func() {
			run(e, "LDI", R(4), insts.Imm(0xFFFF))
			Expect(regFile.R[4]).To(Equal(uint64(0xFFFF)))
		})
	})

	Describe("memory instructions", func() {
		It("should store and load a 32-bit word", func() {
			regFile.R[1] = 0x2000
			regFile.R[2] = 0xDEADBEEF

			run(e, "ST", R(1), R(2))
			Expect(memory.Read(0x2000, 4)).To(Equal([]byte{0xEF, 0xBE, 0xAD, 0xDE}))

			run(e, "LD", R(3), R(1))
			Expect(regFile.R[3]).To(Equal(uint64(0xDEADBEEF)))
		})

		It("should store an immediate", func() {
			regFile.R[1] = 0x10
			run(e, "STI", R(1), insts.Imm(0x1234))
			Expect(binary.LittleEndian.Uint32(memory.Read(0x10, 4))).To(Equal(uint32(0x1234)))
		})

		It("should read unwritten memory as zero", func() {
			regFile.R[3] = 5
			regFile.R[1] = 0x9000
			run(e, "LD", R(3), R(1))
			Expect(regFile.R[3]).To(BeZero())
		})

		It("should move doubles through LDF and STF", func() {
			regFile.R[1] = 0x40
			regFile.F[2] = math.Pi

			run(e, "STF", R(1), R(34))
			run(e, "LDF", R(35), R(1))

			Expect(regFile.F[3]).To(Equal(math.Pi))
		})
	})

	Describe("control flow", func() {
		It("should take BEQ on equal registers", func() {
			regFile.R[1] = 5
			regFile.R[2] = 5

			out := e.Execute(decodeAt(0x100, "BEQ", insts.Offset(3), R(1), R(2)))

			Expect(out.Branch).To(BeTrue())
			Expect(out.Taken).To(BeTrue())
			Expect(out.Redirect).To(BeTrue())
			Expect(out.Target).To(Equal(uint32(0x100 + 4 + 12)))
		})

		It("should not redirect a not-taken branch", func() {
			regFile.R[1] = 5

			out := e.Execute(decodeAt(0x100, "BEQ", insts.Offset(3), R(1), R(2)))

			Expect(out.Branch).To(BeTrue())
			Expect(out.Taken).To(BeFalse())
			Expect(out.Redirect).To(BeFalse())
		})

		It("should compare signed with BLT", func() {
			regFile.R[1] = 0xFFFFFFFF // -1
			regFile.R[2] = 1

			out := e.Execute(decodeAt(0x100, "BLT", insts.Offset(-2), R(1), R(2)))

			Expect(out.Taken).To(BeTrue())
			Expect(out.Target).To(Equal(uint32(0x100 + 4 - 8)))
		})

		DescribeTable("signed comparisons",
			func(mnemonic string, a, b int32, taken bool) {
				regFile.R[1] = uint64(uint32(a))
				regFile.R[2] = uint64(uint32(b))
				out := e.Execute(decodeAt(0, mnemonic, insts.Offset(1), R(1), R(2)))
				Expect(out.Taken).To(Equal(taken))
			},
			Entry("BNE", "BNE", int32(1), int32(2), true),
			Entry("BGT", "BGT", int32(1), int32(-2), true),
			Entry("BLE equal", "BLE", int32(-3), int32(-3), true),
			Entry("BGE less", "BGE", int32(-4), int32(-3), false),
		)

		It("should jump to imm*4", func() {
			out := run(e, "JMP", insts.Imm(0x40))
			Expect(out).To(Equal(emu.Outcome{Redirect: true, Target: 0x100}))
		})

		It("should link on CALL and return with RET", func() {
			out := e.Execute(decodeAt(0x20, "CALL", insts.Imm(0x10)))
			Expect(out.Target).To(Equal(uint32(0x40)))
			Expect(regFile.R[insts.Link]).To(Equal(uint64(0x24)))

			out = run(e, "RET")
			Expect(out).To(Equal(emu.Outcome{Redirect: true, Target: 0x24}))
		})

		It("should halt", func() {
			Expect(run(e, "HALT").Halt).To(BeTrue())
		})

		It("should treat unknown opcodes as no-ops", func() {
			regFile.R[1] = 1
			out := e.Execute(insts.Decode(0xEE))
			Expect(out).To(Equal(emu.Outcome{}))
			Expect(regFile.R[1]).To(Equal(uint64(1)))
		})
	})

	Describe("floating point", func() {
		BeforeEach(func() {
			regFile.F[1] = 6
			regFile.F[2] = 4
		})

		DescribeTable("binary and unary operations",
			func(mnemonic string, ops []insts.Operand, want float64) {
				run(e, mnemonic, ops...)
				Expect(regFile.F[3]).To(BeNumerically("~", want, 1e-12))
			},
			Entry("FADD", "FADD", []insts.Operand{R(35), R(33), R(34)}, 10.0),
			Entry("FSUB", "FSUB", []insts.Operand{R(35), R(33), R(34)}, 2.0),
			Entry("FMUL", "FMUL", []insts.Operand{R(35), R(33), R(34)}, 24.0),
			Entry("FDIV", "FDIV", []insts.Operand{R(35), R(33), R(34)}, 1.5),
			Entry("FMIN", "FMIN", []insts.Operand{R(35), R(33), R(34)}, 4.0),
			Entry("FMAX", "FMAX", []insts.Operand{R(35), R(33), R(34)}, 6.0),
			Entry("FSQRT", "FSQRT", []insts.Operand{R(35), R(34)}, 2.0),
			Entry("FNEG", "FNEG", []insts.Operand{R(35), R(33)}, -6.0),
			Entry("POW", "POW", []insts.Operand{R(35), R(34), R(34)}, 256.0),
			Entry("EXP", "EXP", []insts.Operand{R(35), R(0)}, 1.0),
		)

		It("should round half to even", func() {
			regFile.F[1] = 2.5
			run(e, "FROUND", R(35), R(33))
			Expect(regFile.F[3]).To(Equal(2.0))

			regFile.F[1] = -2.5
			run(e, "FCEIL", R(35), R(33))
			Expect(regFile.F[3]).To(Equal(-2.0))
			run(e, "FFLOOR", R(35), R(33))
			Expect(regFile.F[3]).To(Equal(-3.0))
			run(e, "FTRUNC", R(35), R(33))
			Expect(regFile.F[3]).To(Equal(-2.0))
			run(e, "FABS", R(35), R(33))
			Expect(regFile.F[3]).To(Equal(2.5))
		})

		It("should leave Fd unchanged on invalid operands", func() {
			regFile.F[3] = 42
			regFile.F[5] = -1

			run(e, "FDIV", R(35), R(33), R(36))
			run(e, "FSQRT", R(35), R(37))
			run(e, "LOG", R(35), R(37))

			Expect(regFile.F[3]).To(Equal(42.0))
		})

		It("should compare into a general-purpose register", func() {
			run(e, "FCMP", R(7), R(34), R(33))
			Expect(regFile.R[7]).To(Equal(uint64(0xFFFFFFFF)))

			run(e, "FCMP", R(7), R(33), R(34))
			Expect(regFile.R[7]).To(Equal(uint64(1)))

			regFile.F[2] = math.NaN()
			run(e, "FCMP", R(7), R(33), R(34))
			Expect(regFile.R[7]).To(BeZero())
		})

		It("should convert signed integers", func() {
			regFile.R[1] = 0xFFFFFFFE
			run(e, "FCONVERT", R(35), R(1))
			Expect(regFile.F[3]).To(Equal(-2.0))
		})
	})

	Describe("real-time and debug", func() {
		It("should set priority and deadline registers", func() {
			regFile.R[1] = 10

			run(e, "RT_SET_PRIORITY", R(1), insts.Imm(5))
			run(e, "RT_SET_DEADLINE", R(1), insts.Imm(100))

			Expect(regFile.RTR[0]).To(Equal(uint64(15)))
			Expect(regFile.RTR[1]).To(Equal(uint64(110)))
		})

		It("should read the timer relative to the cycle count", func() {
			counters[emu.PerfCycles] = 50
			run(e, "RT_TIMER", R(2), insts.Imm(7))
			Expect(regFile.R[2]).To(Equal(uint64(57)))
		})

		It("should measure a profiled region", func() {
			counters[emu.PerfCycles] = 10
			run(e, "PROFILE_START", insts.Imm(3))
			counters[emu.PerfCycles] = 25
			run(e, "PROFILE_STOP", insts.Imm(3))
			run(e, "PROFILE_READ", R(4), insts.Imm(3))

			Expect(regFile.R[4]).To(Equal(uint64(15)))
		})

		It("should read performance counters", func() {
			counters[emu.PerfInstructions] = 123
			run(e, "PERF_COUNTER", R(5), insts.Imm(uint32(emu.PerfInstructions)))
			Expect(regFile.R[5]).To(Equal(uint64(123)))
		})

		It("should count MIMD operations in M0", func() {
			run(e, "BARRIER", insts.Imm(0))
			run(e, "SPAWN", R(1), R(2))
			Expect(regFile.M[0]).To(Equal(uint64(2)))
		})
	})

	Context("on an AI core", func() {
		BeforeEach(func() {
			regFile = emu.NewRegFile(emu.AIProcessing)
			e = emu.NewEmulator(regFile, memory)
		})

		It("should ignore real-time operations", func() {
			regFile.R[2] = 9
			run(e, "RT_TIMER", R(2), insts.Imm(7))
			Expect(regFile.R[2]).To(Equal(uint64(9)))
		})

		It("should produce a deterministic SECURE_RAND sequence", func() {
			run(e, "SECURE_RAND", R(1), insts.Imm(0))
			first := regFile.R[1]
			run(e, "SECURE_RAND", R(1), insts.Imm(0))

			Expect(regFile.SEC[0]).NotTo(BeZero())
			Expect(regFile.R[1]).NotTo(Equal(first))

			other := emu.NewRegFile(emu.AIProcessing)
			e2 := emu.NewEmulator(other, memory)
			run(e2, "SECURE_RAND", R(1), insts.Imm(0))
			Expect(other.R[1]).To(Equal(first))
		})
	})
})
