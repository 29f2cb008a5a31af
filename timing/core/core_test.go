package core_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ahbsim/emu"
	"github.com/sarchlab/ahbsim/insts"
	"github.com/sarchlab/ahbsim/timing/cache"
	"github.com/sarchlab/ahbsim/timing/core"
	"github.com/sarchlab/ahbsim/timing/latency"
)

var (
	R   = insts.Reg
	Imm = insts.Imm
	enc = insts.MustEncode
)

// load writes words at address 0 and returns the image end.
func load(h *cache.Hierarchy, words ...uint32) uint64 {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	h.Write(cache.Main, 0, buf)
	return uint64(len(buf))
}

var _ = Describe("Core", func() {
	var (
		h       *cache.Hierarchy
		decoder *insts.Decoder
	)

	BeforeEach(func() {
		var err error
		h, err = cache.NewHierarchy(cache.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		decoder = insts.NewDecoder()
	})

	newCore := func(words []uint32, opts ...core.Option) *core.Core {
		c := core.New(0, emu.GeneralPurpose, h, opts...)
		c.SetImageEnd(load(h, words...))
		return c
	}

	It("should start active at PC 0", func() {
		c := core.New(3, emu.VectorProcessing, h)
		Expect(c.ID).To(Equal(3))
		Expect(c.Type).To(Equal(emu.VectorProcessing))
		Expect(c.Active()).To(BeTrue())
		Expect(c.PC()).To(BeZero())
		Expect(c.RegFile().HasVector()).To(BeTrue())
	})

	It("should execute a program until HALT", func() {
		c := newCore([]uint32{
			enc("LDI", R(1), Imm(42)),
			enc("HALT"),
		})

		Expect(c.RunCycles(decoder, 100)).To(BeFalse())
		Expect(c.RegFile().ReadReg32(1)).To(Equal(uint32(42)))

		counters := c.Counters()
		Expect(counters.Instructions).To(Equal(uint64(2)))
		Expect(counters.Retired).To(Equal(uint64(2)))
		Expect(counters.Cycles).To(Equal(uint64(2)))
		Expect(counters.Flushes).To(Equal(uint64(1)))
		Expect(counters.Squashed).To(BeZero())
		Expect(counters.FetchStalls).To(Equal(uint64(4)))
		Expect(counters.Energy).To(Equal(2.0))
	})

	It("should stall fetch outside the image without moving the PC", func() {
		c := newCore(nil)

		Expect(c.FetchIfEmpty(decoder)).To(BeFalse())
		Expect(c.PC()).To(BeZero())
		Expect(c.Counters().FetchStalls).To(Equal(uint64(1)))
		Expect(c.Counters().Instructions).To(BeZero())
	})

	It("should not fetch into an occupied slot", func() {
		c := newCore([]uint32{enc("NOP"), enc("NOP")})

		Expect(c.FetchIfEmpty(decoder)).To(BeTrue())
		Expect(c.FetchIfEmpty(decoder)).To(BeFalse())
		Expect(c.PC()).To(Equal(uint32(4)))
		Expect(c.Counters().FetchStalls).To(BeZero())
	})

	It("should squash younger instructions on a jump", func() {
		c := newCore([]uint32{
			enc("JMP", Imm(3)),
			enc("LDI", R(1), Imm(1)),
			enc("LDI", R(2), Imm(2)),
			enc("LDI", R(3), Imm(3)),
			enc("HALT"),
		})

		c.RunCycles(decoder, 100)

		regs := c.RegFile()
		Expect(regs.ReadReg32(1)).To(BeZero())
		Expect(regs.ReadReg32(2)).To(BeZero())
		Expect(regs.ReadReg32(3)).To(Equal(uint32(3)))

		counters := c.Counters()
		Expect(counters.Squashed).To(Equal(uint64(4)))
		Expect(counters.Instructions).To(Equal(uint64(3)))
		Expect(counters.Retired).To(Equal(uint64(3)))
		Expect(counters.Flushes).To(Equal(uint64(2)))
	})

	It("should count conditional branch outcomes", func() {
		c := newCore([]uint32{
			enc("BEQ", insts.Offset(1), R(1), R(2)),
			enc("LDI", R(3), Imm(9)),
			enc("BNE", insts.Offset(0), R(1), R(2)),
			enc("HALT"),
		})

		c.RunCycles(decoder, 100)

		Expect(c.RegFile().ReadReg32(3)).To(BeZero())
		Expect(c.Counters().BranchesTaken).To(Equal(uint64(1)))
		Expect(c.Counters().BranchesNotTaken).To(Equal(uint64(1)))
	})

	It("should never run again after halting", func() {
		c := newCore([]uint32{enc("NOP"), enc("NOP")})
		c.Halt()

		Expect(c.RunCycles(decoder, 10)).To(BeFalse())
		c.AdvanceAndExecute()
		Expect(c.FetchIfEmpty(decoder)).To(BeFalse())
		Expect(c.Counters().Instructions).To(BeZero())
	})

	It("should weight energy by the energy per cycle", func() {
		c := newCore([]uint32{
			enc("DIV", R(1), R(2), R(3)),
			enc("HALT"),
		}, core.WithEnergyPerCycle(2.5))

		c.RunCycles(decoder, 100)
		Expect(c.Counters().Cycles).To(Equal(uint64(11)))
		Expect(c.Counters().Energy).To(Equal(27.5))
	})

	Context("with memory accesses", func() {
		program := func() []uint32 {
			return []uint32{
				enc("LD", R(1), R(2)),
				enc("HALT"),
			}
		}

		It("should count cache outcomes from the port", func() {
			c := newCore(program())
			c.RunCycles(decoder, 100)

			counters := c.Counters()
			Expect(counters.CacheHits).To(Equal(uint64(1)))
			Expect(counters.CacheMisses).To(Equal(uint64(2)))
			Expect(counters.Cycles).To(Equal(uint64(3)))
		})

		It("should charge data latency when enabled", func() {
			c := newCore(program(), core.WithLatencyCharging())
			c.RunCycles(decoder, 100)

			// The LD fetch missed L2 and L3 first, so the load's L2 access is
			// the level's second and hits at rate 0.85.
			Expect(c.Counters().Cycles).To(Equal(uint64(3 + 3 + 12)))
		})
	})

	It("should defer stores until commit with a buffered port", func() {
		c := newCore([]uint32{
			enc("LDI", R(1), Imm(0x100)),
			enc("LDI", R(2), Imm(7)),
			enc("ST", R(1), R(2)),
			enc("LD", R(3), R(1)),
			enc("HALT"),
		}, core.WithBufferedPort())

		for i := 0; i < 100 && c.Active(); i++ {
			c.AdvanceAndExecute()
			c.FetchIfEmpty(decoder)
		}

		Expect(c.Halted()).To(BeTrue())
		Expect(c.RegFile().ReadReg32(3)).To(Equal(uint32(7)))
		Expect(c.Port().Pending()).NotTo(BeZero())
		Expect(h.Read(cache.Main, 0x100, 4)).To(Equal([]byte{0, 0, 0, 0}))

		stats := c.CommitMemory()
		Expect(stats.Hits + stats.Misses).To(Equal(uint64(7)))
		Expect(h.Read(cache.Main, 0x100, 4)).To(Equal([]byte{7, 0, 0, 0}))
		Expect(c.Port().Pending()).To(BeZero())
	})

	It("should price instructions with the latency table", func() {
		table, err := latency.NewTableWithOverrides(map[string]uint32{"DIV": 4})
		Expect(err).NotTo(HaveOccurred())

		c := newCore([]uint32{
			enc("DIV", R(1), R(2), R(3)),
			enc("HALT"),
		}, core.WithLatencyTable(table), core.WithExecuteStalls())

		c.RunCycles(decoder, 100)
		Expect(c.Counters().Cycles).To(Equal(uint64(5)))
		Expect(c.Counters().Stalls).To(Equal(uint64(3)))
	})

	It("should hold Execute for the full cost with execute stalls", func() {
		c := newCore([]uint32{
			enc("DIV", R(1), R(2), R(3)),
			enc("HALT"),
		}, core.WithExecuteStalls())

		c.RunCycles(decoder, 100)
		Expect(c.Counters().Stalls).To(Equal(uint64(9)))
		Expect(c.Counters().Cycles).To(Equal(uint64(11)))
		Expect(c.Halted()).To(BeTrue())
	})

	It("should expose counters to PERF_COUNTER", func() {
		c := newCore([]uint32{
			enc("NOP"),
			enc("PERF_COUNTER", R(4), Imm(uint32(emu.PerfInstructions))),
			enc("HALT"),
		})

		c.RunCycles(decoder, 100)

		Expect(c.PerfCounter(emu.PerfCycles)).To(Equal(c.Counters().Cycles))
		Expect(c.PerfCounter(emu.PerfRetired)).To(Equal(c.Counters().Retired))
		Expect(c.PerfCounter(99)).To(BeZero())
		Expect(c.RegFile().ReadReg32(4)).To(Equal(uint32(3)))
	})
})
