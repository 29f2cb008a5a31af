package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ahbsim/emu"
	"github.com/sarchlab/ahbsim/timing/cache"
)

var _ emu.Memory = (*cache.Port)(nil)

func simulatedConfig() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Mode = cache.ModeSimulated
	return cfg
}

var _ = Describe("Hierarchy", func() {
	var h *cache.Hierarchy

	BeforeEach(func() {
		var err error
		h, err = cache.NewHierarchy(simulatedConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject invalid configurations", func() {
		cfg := cache.DefaultConfig()
		cfg.Levels[cache.L1I].Associativity = 0

		_, err := cache.NewHierarchy(cfg)
		Expect(err).To(MatchError(ContainSubstring("invalid cache config")))
	})

	It("should read back raw writes per level", func() {
		for _, l := range []cache.Level{cache.L1I, cache.L1D, cache.L2, cache.L3, cache.Main} {
			h.Write(l, 0x1234, []byte{1, 2, 3})
			Expect(h.Read(l, 0x1234, 3)).To(Equal([]byte{1, 2, 3}))
		}
	})

	It("should keep levels independent", func() {
		h.Write(cache.L2, 0x10, []byte{9})
		Expect(h.Read(cache.L3, 0x10, 1)).To(Equal([]byte{0}))
	})

	It("should read unwritten addresses as zero", func() {
		Expect(h.Read(cache.Main, 0xFFFFFFF0, 16)).To(Equal(make([]byte, 16)))
	})

	It("should serve a cold load from main memory and fill every level", func() {
		h.Write(cache.Main, 0x2000, []byte{0xAA, 0xBB, 0xCC, 0xDD})

		res := h.Load(0x2000, 4)

		Expect(res.Hit).To(BeFalse())
		Expect(res.ServedBy).To(Equal(cache.Main))
		Expect(res.Data).To(Equal([]byte{0xAA, 0xBB, 0xCC, 0xDD}))
		Expect(res.Latency).To(Equal(uint64(3 + 12 + 36 + 150)))
		Expect(h.Read(cache.L1D, 0x2000, 4)).To(Equal(res.Data))
		Expect(h.Read(cache.L3, 0x2000, 4)).To(Equal(res.Data))
		Expect(h.Read(cache.L1I, 0x2000, 4)).To(Equal([]byte{0, 0, 0, 0}))
	})

	It("should hit in L1D on reuse", func() {
		h.Load(0x2000, 4)
		res := h.Load(0x2008, 4)

		Expect(res.Hit).To(BeTrue())
		Expect(res.ServedBy).To(Equal(cache.L1D))
		Expect(res.Latency).To(Equal(uint64(3)))
		Expect(h.Stats(cache.L1D).Hits).To(Equal(uint64(1)))
		Expect(h.HitRate(cache.L1D)).To(Equal(0.5))
	})

	It("should write stores through to main memory", func() {
		h.Store(0x3000, []byte{1, 2, 3, 4})

		Expect(h.Read(cache.Main, 0x3000, 4)).To(Equal([]byte{1, 2, 3, 4}))
		Expect(h.Read(cache.L1D, 0x3000, 4)).To(Equal([]byte{1, 2, 3, 4}))
		Expect(h.Load(0x3000, 4).Data).To(Equal([]byte{1, 2, 3, 4}))
	})

	It("should fetch words through the instruction path", func() {
		h.Write(cache.Main, 0x40, []byte{0xF1, 0, 0, 0})

		word, res := h.FetchWord(0x40)

		Expect(word).To(Equal(uint32(0xF1)))
		Expect(res.Hit).To(BeFalse())
		Expect(h.Stats(cache.L1I).Misses).To(Equal(uint64(1)))
		Expect(h.Stats(cache.L1D).Accesses()).To(BeZero())

		_, res = h.FetchWord(0x44)
		Expect(res.Hit).To(BeTrue())
		Expect(res.ServedBy).To(Equal(cache.L1I))
	})

	It("should report zero measured rates without accesses", func() {
		Expect(h.HitRates()).To(Equal(map[string]float64{
			"l1i": 0, "l1d": 0, "l2": 0, "l3": 0,
		}))
	})

	It("should forget model state on ResetModels", func() {
		h.Load(0x0, 4)
		h.ResetModels()
		Expect(h.Stats(cache.L1D)).To(Equal(cache.Statistics{}))
		Expect(h.Load(0x0, 4).Hit).To(BeFalse())
	})

	Context("in assumed mode", func() {
		BeforeEach(func() {
			var err error
			h, err = cache.NewHierarchy(cache.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should report the configured rates", func() {
			for i := 0; i < 10; i++ {
				h.Load(uint64(i)*4096, 4)
			}

			Expect(h.Stats(cache.L1D).Hits).To(Equal(uint64(9)))
			Expect(h.HitRates()).To(Equal(map[string]float64{
				"l1i": 0.95, "l1d": 0.90, "l2": 0.85, "l3": 0.80,
			}))
		})
	})
})

var _ = Describe("Hierarchy in assumed mode", func() {
	var h *cache.Hierarchy

	BeforeEach(func() {
		var err error
		h, err = cache.NewHierarchy(cache.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	It("should share the L2 and L3 samplers between fetches and data", func() {
		_, fetch := h.FetchWord(0x0)
		Expect(fetch.ServedBy).To(Equal(cache.Main))

		res := h.Load(0x100, 4)

		Expect(res.Hit).To(BeFalse())
		Expect(res.ServedBy).To(Equal(cache.L2))
		Expect(res.Latency).To(Equal(uint64(3 + 12)))
		Expect(h.Stats(cache.L2).Hits).To(Equal(uint64(1)))
		Expect(h.Stats(cache.L2).Misses).To(Equal(uint64(1)))
	})

	It("should keep separate first-level samplers", func() {
		h.FetchWord(0x0)
		h.FetchWord(0x4)

		res := h.Load(0x100, 4)

		Expect(res.Hit).To(BeFalse())
		Expect(h.Stats(cache.L1I).Hits).To(Equal(uint64(1)))
		Expect(h.Stats(cache.L1D).Misses).To(Equal(uint64(1)))
	})
})

var _ = Describe("Port", func() {
	var h *cache.Hierarchy

	BeforeEach(func() {
		var err error
		h, err = cache.NewHierarchy(simulatedConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	Context("unbuffered", func() {
		It("should access the hierarchy immediately", func() {
			p := cache.NewPort(h)
			p.Write(0x100, []byte{7, 0, 0, 0})

			Expect(h.Read(cache.Main, 0x100, 1)).To(Equal([]byte{7}))
			Expect(p.Read(0x100, 4)).To(Equal([]byte{7, 0, 0, 0}))
			Expect(p.Pending()).To(BeZero())

			stats := p.Commit()
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(1)))
			Expect(stats.DataLatency).To(Equal(uint64(3 + 12 + 36 + 150 + 3)))
			Expect(p.Commit()).To(Equal(cache.PortStats{}))
		})
	})

	Context("buffered", func() {
		It("should defer traffic until Commit", func() {
			p := cache.NewPort(h, cache.WithBuffering())
			Expect(p.Buffered()).To(BeTrue())

			p.Write(0x100, []byte{7, 8})

			Expect(h.Read(cache.Main, 0x100, 2)).To(Equal([]byte{0, 0}))
			Expect(h.Stats(cache.L1D).Accesses()).To(BeZero())
			Expect(p.Read(0x0FF, 4)).To(Equal([]byte{0, 7, 8, 0}))
			Expect(p.Pending()).To(Equal(2))

			stats := p.Commit()

			Expect(h.Read(cache.Main, 0x100, 2)).To(Equal([]byte{7, 8}))
			Expect(stats.Hits + stats.Misses).To(Equal(uint64(2)))
			Expect(p.Pending()).To(BeZero())
		})

		It("should match unbuffered statistics after Commit", func() {
			h2, err := cache.NewHierarchy(simulatedConfig())
			Expect(err).NotTo(HaveOccurred())

			direct := cache.NewPort(h)
			buffered := cache.NewPort(h2, cache.WithBuffering())
			for _, p := range []*cache.Port{direct, buffered} {
				p.FetchWord(0x0)
				p.FetchWord(0x4)
				p.Write(0x80, []byte{1, 2, 3, 4})
				p.Read(0x80, 4)
			}

			Expect(buffered.Commit()).To(Equal(direct.Commit()))
			Expect(h2.Stats(cache.L1I)).To(Equal(h.Stats(cache.L1I)))
			Expect(h2.Stats(cache.L1D)).To(Equal(h.Stats(cache.L1D)))
		})

		It("should see its own pending stores when fetching", func() {
			p := cache.NewPort(h, cache.WithBuffering())
			p.Write(0x10, []byte{0xF1, 0, 0, 0})
			Expect(p.FetchWord(0x10)).To(Equal(uint32(0xF1)))
		})
	})
})
