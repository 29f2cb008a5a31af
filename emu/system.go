package emu

// Performance counter ids readable through PERF_COUNTER.
const (
	PerfCycles uint32 = iota
	PerfInstructions
	PerfRetired
	PerfCacheHits
	PerfCacheMisses
)

// PerfCounters exposes a core's performance counters to the executing
// program. Unknown ids read as zero.
type PerfCounters interface {
	PerfCounter(id uint32) uint64
}

type zeroCounters struct{}

func (zeroCounters) PerfCounter(uint32) uint64 { return 0 }

// randSeed replaces a zero SEC0 state so SECURE_RAND never sticks at zero.
const randSeed = 0x9E3779B97F4A7C15

// SystemUnit implements the real-time, MIMD, debug and security operations
// that act on a core's control banks.
type SystemUnit struct {
	regFile  *RegFile
	counters PerfCounters
}

// NewSystemUnit creates a new SystemUnit.
func NewSystemUnit(regFile *RegFile, counters PerfCounters) *SystemUnit {
	return &SystemUnit{regFile: regFile, counters: counters}
}

func (s *SystemUnit) cycles() uint64 {
	return s.counters.PerfCounter(PerfCycles)
}

// SetPriority sets RTR0 = Rs + imm on cores with real-time registers.
func (s *SystemUnit) SetPriority(rs uint8, imm uint32) {
	if s.regFile.RTR == nil {
		return
	}
	s.regFile.RTR[0] = uint64(s.regFile.ReadReg32(rs) + imm)
}

// SetDeadline sets RTR1 = Rs + imm on cores with real-time registers.
func (s *SystemUnit) SetDeadline(rs uint8, imm uint32) {
	if s.regFile.RTR == nil {
		return
	}
	s.regFile.RTR[1] = uint64(s.regFile.ReadReg32(rs) + imm)
}

// Timer writes the current cycle count plus imm into Rd on cores with
// real-time registers.
func (s *SystemUnit) Timer(rd uint8, imm uint32) {
	if s.regFile.RTR == nil {
		return
	}
	s.regFile.WriteReg32(rd, uint32(s.cycles())+imm)
}

// CountMIMD increments M0, the MIMD operation count.
func (s *SystemUnit) CountMIMD() {
	if s.regFile.M == nil {
		return
	}
	s.regFile.M[0]++
}

// ProfileStart stamps DPR[k] with the current cycle count.
func (s *SystemUnit) ProfileStart(k uint32) {
	s.regFile.DPR[k&15] = s.cycles()
}

// ProfileStop turns DPR[k] into the cycles elapsed since ProfileStart.
func (s *SystemUnit) ProfileStop(k uint32) {
	s.regFile.DPR[k&15] = s.cycles() - s.regFile.DPR[k&15]
}

// ProfileRead copies DPR[k] into Rd.
func (s *SystemUnit) ProfileRead(rd uint8, k uint32) {
	s.regFile.R[rd&31] = s.regFile.DPR[k&15]
}

// PerfCounter copies performance counter k into Rd.
func (s *SystemUnit) PerfCounter(rd uint8, k uint32) {
	s.regFile.R[rd&31] = s.counters.PerfCounter(k)
}

// SecureRand advances the xorshift state in SEC0 and writes its low 32 bits
// into Rd on cores with security registers.
func (s *SystemUnit) SecureRand(rd uint8) {
	if s.regFile.SEC == nil {
		return
	}
	x := s.regFile.SEC[0]
	if x == 0 {
		x = randSeed
	}
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	s.regFile.SEC[0] = x
	s.regFile.WriteReg32(rd, uint32(x))
}
