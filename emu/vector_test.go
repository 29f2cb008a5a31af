package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ahbsim/emu"
	"github.com/sarchlab/ahbsim/insts"
)

func vreg(lanes ...uint32) emu.VReg {
	var v emu.VReg
	for i, x := range lanes {
		v.SetLane(i, x)
	}
	return v
}

func fvreg(lanes ...float32) emu.VReg {
	var v emu.VReg
	for i, x := range lanes {
		v.SetLane(i, math.Float32bits(x))
	}
	return v
}

func lanes(v *emu.VReg) []uint32 {
	out := make([]uint32, emu.VectorLanes)
	for i := range out {
		out[i] = v.Lane(i)
	}
	return out
}

func flanes(v *emu.VReg) []float32 {
	out := make([]float32, emu.VectorLanes)
	for i := range out {
		out[i] = math.Float32frombits(v.Lane(i))
	}
	return out
}

// V returns the raw field value that names vector register n.
func V(n uint8) insts.Operand {
	return insts.Reg(insts.FirstVectorReg + n)
}

var _ = Describe("Vector and AI units", func() {
	var (
		regFile *emu.RegFile
		memory  *flatMemory
		e       *emu.Emulator
	)

	BeforeEach(func() {
		regFile = emu.NewRegFile(emu.NeuralProcessing)
		memory = newFlatMemory()
		e = emu.NewEmulator(regFile, memory)
	})

	Describe("integer lanes", func() {
		BeforeEach(func() {
			regFile.V[1] = vreg(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16)
			regFile.V[2] = vreg(2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 0xFFFFFFFF)
		})

		It("should add lanes with 32-bit wrap", func() {
			run(e, "VADD", V(3), V(1), V(2))
			got := lanes(&regFile.V[3])
			Expect(got[0]).To(Equal(uint32(3)))
			Expect(got[15]).To(Equal(uint32(15)))
		})

		It("should keep lanes divided by zero", func() {
			regFile.V[3] = vreg(9, 9, 9)
			regFile.V[2] = vreg(2, 0, 3)
			run(e, "VDIV", V(3), V(1), V(2))

			got := lanes(&regFile.V[3])
			Expect(got[:3]).To(Equal([]uint32{0, 9, 1}))
			Expect(got[3]).To(Equal(uint32(0)))
		})

		It("should allow the destination to alias a source", func() {
			run(e, "VMUL", V(1), V(1), V(2))
			Expect(lanes(&regFile.V[1])[3]).To(Equal(uint32(8)))
		})

		It("should shift by the lane amount", func() {
			run(e, "VSHL", V(3), V(1), V(2))
			Expect(lanes(&regFile.V[3])[0]).To(Equal(uint32(4)))
			Expect(lanes(&regFile.V[3])[14]).To(Equal(uint32(60)))
			Expect(lanes(&regFile.V[3])[15]).To(BeZero())
		})

		It("should permute by index lanes", func() {
			regFile.V[2] = vreg(15, 14, 0, 16)
			run(e, "VPERMUTE", V(3), V(1), V(2))
			Expect(lanes(&regFile.V[3])[:4]).To(Equal([]uint32{16, 15, 1, 1}))
		})

		It("should interleave low halves", func() {
			run(e, "VSHUFFLE", V(3), V(1), V(2))
			Expect(lanes(&regFile.V[3])[:4]).To(Equal([]uint32{1, 2, 2, 2}))
		})

		It("should blend by vector mask", func() {
			regFile.V[4] = vreg(0, 1, 0, 1)
			run(e, "VBLEND", V(3), V(1), V(2), V(4))
			Expect(lanes(&regFile.V[3])[:4]).To(Equal([]uint32{1, 2, 3, 2}))
		})

		It("should select by scalar mask bits", func() {
			regFile.R[5] = 0b1010
			run(e, "VSELECT", V(3), V(1), V(2), R(5))
			Expect(lanes(&regFile.V[3])[:4]).To(Equal([]uint32{1, 2, 3, 2}))
		})

		It("should reduce and scan", func() {
			run(e, "VREDUCE", R(6), V(1))
			Expect(regFile.R[6]).To(Equal(uint64(136)))

			run(e, "VSCAN", V(3), V(1))
			Expect(lanes(&regFile.V[3])[:4]).To(Equal([]uint32{1, 3, 6, 10}))
		})

		It("should invert with VNOT", func() {
			run(e, "VNOT", V(3), V(2))
			Expect(lanes(&regFile.V[3])[15]).To(BeZero())
		})

		It("should load and store 64 bytes", func() {
			regFile.R[1] = 0x800
			run(e, "VST", R(1), V(1))
			run(e, "VLD", V(5), R(1))
			Expect(regFile.V[5]).To(Equal(regFile.V[1]))
			Expect(memory.Read(0x800, 1)).To(Equal([]byte{1}))
		})
	})

	Describe("float lanes", func() {
		It("should apply RELU", func() {
			regFile.V[1] = fvreg(-1, 2, -3, 4)
			run(e, "RELU", V(2), V(1))
			Expect(flanes(&regFile.V[2])[:4]).To(Equal([]float32{0, 2, 0, 4}))
		})

		It("should apply SIGMOID and TANH", func() {
			run(e, "SIGMOID", V(2), V(1))
			Expect(flanes(&regFile.V[2])[0]).To(BeNumerically("~", 0.5, 1e-6))

			regFile.V[1] = fvreg(1)
			run(e, "TANH", V(2), V(1))
			Expect(flanes(&regFile.V[2])[0]).To(BeNumerically("~", math.Tanh(1), 1e-6))
		})

		It("should make SOFTMAX sum to one", func() {
			regFile.V[1] = fvreg(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16)
			run(e, "SOFTMAX", V(2), V(1))

			var sum float64
			for _, x := range flanes(&regFile.V[2]) {
				sum += float64(x)
			}
			Expect(sum).To(BeNumerically("~", 1.0, 1e-5))
		})

		It("should multiply 4x4 matrices and accumulate the trace", func() {
			regFile.V[1] = fvreg(1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1)
			regFile.V[2] = fvreg(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16)

			run(e, "MATMUL", V(3), V(1), V(2))

			Expect(regFile.V[3]).To(Equal(regFile.V[2]))
			Expect(math.Float64frombits(regFile.A[3])).To(Equal(34.0))
		})

		It("should add the bias in GEMM", func() {
			regFile.V[1] = fvreg(1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1)
			regFile.V[2] = fvreg(1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1)
			regFile.V[4] = fvreg(1, 2)

			run(e, "GEMM", V(3), V(1), V(2), V(4))

			Expect(flanes(&regFile.V[3])[:3]).To(Equal([]float32{2, 3, 1}))
		})

		It("should pool pairwise into the low lanes", func() {
			regFile.V[1] = fvreg(1, 5, 2, 8, 3, 3)

			run(e, "MAXPOOL", V(2), V(1), insts.Imm(2))
			Expect(flanes(&regFile.V[2])[:4]).To(Equal([]float32{5, 8, 3, 0}))

			run(e, "AVGPOOL", V(2), V(1), insts.Imm(2))
			Expect(flanes(&regFile.V[2])[:3]).To(Equal([]float32{3, 5, 3}))
			Expect(flanes(&regFile.V[2])[8]).To(BeZero())
		})

		It("should normalize to zero mean and unit variance", func() {
			regFile.V[1] = fvreg(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16)
			run(e, "LAYERNORM", V(2), V(1), V(3))

			var mean, sq float64
			for _, x := range flanes(&regFile.V[2]) {
				mean += float64(x)
				sq += float64(x) * float64(x)
			}
			Expect(mean / 16).To(BeNumerically("~", 0, 1e-5))
			Expect(sq / 16).To(BeNumerically("~", 1, 1e-3))
		})
	})

	Context("on a scalar core", func() {
		It("should treat vector operations as cost only", func() {
			scalar := emu.NewRegFile(emu.MemoryProcessing)
			se := emu.NewEmulator(scalar, memory)
			scalar.R[6] = 4

			Expect(func() {
				run(se, "VADD", V(3), V(1), V(2))
				run(se, "VREDUCE", R(6), V(1))
				run(se, "VLD", V(1), R(1))
				run(se, "MATMUL", V(3), V(1), V(2))
			}).NotTo(Panic())
			Expect(scalar.R[6]).To(Equal(uint64(4)))
		})
	})
})
